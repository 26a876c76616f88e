// Package backtest replays a candle series bar by bar, opening and closing
// positions from strategy signals and aggregating the outcome into a
// BacktestResult.
package backtest

import (
	"fmt"

	"github.com/StudioSol/set"
	"github.com/schollz/progressbar/v3"

	"github.com/quantforge/tradecore/feed"
	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
	"github.com/quantforge/tradecore/tools/log"
)

// Defaults for the run configuration.
const (
	DefaultStartEquity         = 10000.0
	DefaultPositionSizePercent = 2.0
	DefaultMaxOpenPositions    = 5
	DefaultMinSignalStrength   = 50.0
	DefaultWarmupBars          = 200
	DefaultConfirmFactor       = 4

	// minTradableBars is required on top of the warm-up before a run
	// produces anything but a zero result.
	minTradableBars = 50

	equitySampleInterval = 4
)

// Config tunes one backtest run. Zero values fall back to the defaults
// above.
type Config struct {
	StartEquity         float64
	PositionSizePercent float64
	MaxOpenPositions    int
	MinSignalStrength   float64
	WarmupBars          int
	ConfirmFactor       int
	Timeframe           string
	Enabled             *set.LinkedHashSetString
	Progress            bool
}

func (c Config) withDefaults() Config {
	if c.StartEquity <= 0 {
		c.StartEquity = DefaultStartEquity
	}
	if c.PositionSizePercent <= 0 {
		c.PositionSizePercent = DefaultPositionSizePercent
	}
	if c.MaxOpenPositions <= 0 {
		c.MaxOpenPositions = DefaultMaxOpenPositions
	}
	if c.MinSignalStrength <= 0 {
		c.MinSignalStrength = DefaultMinSignalStrength
	}
	if c.WarmupBars <= 0 {
		c.WarmupBars = DefaultWarmupBars
	}
	if c.ConfirmFactor <= 0 {
		c.ConfirmFactor = DefaultConfirmFactor
	}
	if c.Timeframe == "" {
		c.Timeframe = "1h"
	}
	return c
}

// positionKey identifies a position slot: at most one open position per
// strategy and direction.
type positionKey struct {
	strategyID string
	direction  model.Direction
}

type openPosition struct {
	key        positionKey
	entryTime  int // candle index, resolved to a timestamp on close
	entryPrice float64
	stopLoss   float64
	takeProfit float64
}

// Run replays candles for one symbol. The candle series must be validated
// input: malformed series fail fast with an error, while a series that is
// merely too short yields a zero-valued result.
//
// Within one run everything is strictly sequential: each bar's decisions
// depend on the position map and equity left by the previous bar. Across
// symbols, Run is a pure function and safe to call concurrently.
func Run(symbol string, candles []model.Candle, reg *strategy.Registry, cfg Config) (*model.BacktestResult, error) {
	if err := model.ValidateCandles(candles); err != nil {
		return nil, fmt.Errorf("backtest %s: %w", symbol, err)
	}
	cfg = cfg.withDefaults()

	result := &model.BacktestResult{
		Symbol:        symbol,
		Period:        cfg.Timeframe,
		StartDate:     candles[0].Time,
		EndDate:       candles[len(candles)-1].Time,
		TotalCandles:  len(candles),
		Trades:        []model.BacktestTrade{},
		StrategyStats: []model.StrategyStats{},
		EquityCurve:   []model.EquityPoint{},
	}

	if len(candles) < cfg.WarmupBars+minTradableBars {
		log.WithField("symbol", symbol).
			Infof("insufficient history for backtest: %d candles, need %d", len(candles), cfg.WarmupBars+minTradableBars)
		return result, nil
	}

	var (
		equity      = cfg.StartEquity
		peak        = cfg.StartEquity
		maxDrawdown float64
		positions   []openPosition // ordered by open time, then registry order
		trades      []model.BacktestTrade
	)

	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = progressbar.Default(int64(len(candles) - cfg.WarmupBars))
	}

	engineCfg := strategy.Config{Enabled: cfg.Enabled, MinStrength: 0}

	for i := cfg.WarmupBars; i < len(candles); i++ {
		current := candles[i]

		// 1. exit check: stop before target, a deliberate conservative
		// policy because OHLC cannot reveal the intrabar path
		remaining := positions[:0]
		for _, pos := range positions {
			exitPrice, outcome, closed := checkExit(pos, current)
			if !closed {
				remaining = append(remaining, pos)
				continue
			}
			trade := closeTrade(pos, candles, i, exitPrice, outcome)
			trades = append(trades, trade)
			equity = applyTrade(equity, cfg.PositionSizePercent, trade.PnlPercent)
		}
		positions = remaining

		// 2. equity curve sampling and drawdown tracking
		if (i-cfg.WarmupBars)%equitySampleInterval == 0 {
			result.EquityCurve = append(result.EquityCurve, model.EquityPoint{Time: current.Time, Equity: equity})
			if equity > peak {
				peak = equity
			}
			if dd := (peak - equity) / peak * 100; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}

		// 3. entry check, skipped entirely once the position cap is hit
		if len(positions) < cfg.MaxOpenPositions {
			positions = checkEntries(positions, symbol, candles[:i+1], i, reg, engineCfg, cfg)
		}

		if bar != nil {
			if err := bar.Add(1); err != nil {
				log.Warnf("progress bar update failed: %v", err)
			}
		}
	}

	// terminal transition: force-close whatever is still open at the
	// final close, outcome decided by the sign of the PnL
	last := len(candles) - 1
	finalClose := candles[last].Close
	for _, pos := range positions {
		pnl := pnlPercent(pos.key.direction, pos.entryPrice, finalClose)
		outcome := model.OutcomeLoss
		if pnl > 0 {
			outcome = model.OutcomeWin
		}
		trade := closeTrade(pos, candles, last, finalClose, outcome)
		trades = append(trades, trade)
		equity = applyTrade(equity, cfg.PositionSizePercent, trade.PnlPercent)
	}

	result.Trades = trades
	result.StrategyStats, result.Overall = buildStats(trades, reg, maxDrawdown)

	return result, nil
}

// checkExit tests the current bar against a position's stop and target.
// The stop is checked first: when both levels are pierced within one bar
// the trade is recorded as a loss at the stop price.
func checkExit(pos openPosition, bar model.Candle) (exitPrice float64, outcome model.Outcome, closed bool) {
	if pos.key.direction == model.DirectionLong {
		if bar.Low <= pos.stopLoss {
			return pos.stopLoss, model.OutcomeLoss, true
		}
		if bar.High >= pos.takeProfit {
			return pos.takeProfit, model.OutcomeWin, true
		}
		return 0, "", false
	}

	if bar.High >= pos.stopLoss {
		return pos.stopLoss, model.OutcomeLoss, true
	}
	if bar.Low <= pos.takeProfit {
		return pos.takeProfit, model.OutcomeWin, true
	}
	return 0, "", false
}

// checkEntries runs the engine with higher-timeframe confirmation over the
// history up to the current bar and opens positions in registry order
// until the cap is reached. Entry evaluation faults are already downgraded
// to skipped strategies by the engine, so a bad module never stops the run.
func checkEntries(positions []openPosition, symbol string, history []model.Candle, barIdx int,
	reg *strategy.Registry, engineCfg strategy.Config, cfg Config) []openPosition {

	current := history[len(history)-1]

	primary := strategy.Input{
		Symbol:     symbol,
		Price:      current.Close,
		Candles:    history,
		Indicators: indicator.BuildSet(history),
		Timeframe:  cfg.Timeframe,
	}

	confirmCandles := feed.Resample(history, cfg.ConfirmFactor)
	confirm := strategy.Input{
		Symbol:     symbol,
		Price:      current.Close,
		Candles:    confirmCandles,
		Indicators: indicator.BuildSet(confirmCandles),
		Timeframe:  fmt.Sprintf("%dx %s", cfg.ConfirmFactor, cfg.Timeframe),
	}

	primaryRes := strategy.Evaluate(reg, primary, engineCfg)
	confirmRes := strategy.Evaluate(reg, confirm, engineCfg)

	confirmByID := make(map[string]model.Signal, len(confirmRes.Results))
	for _, r := range confirmRes.Results {
		confirmByID[r.ID] = r.Signal
	}

	for _, r := range primaryRes.Results {
		if len(positions) >= cfg.MaxOpenPositions {
			break
		}

		signal := strategy.ConfirmTimeframes(r.Signal, confirmByID[r.ID])
		if signal.Type.IsNeutral() || signal.Strength < cfg.MinSignalStrength || !signal.Complete() {
			continue
		}

		key := positionKey{strategyID: r.ID, direction: signal.Type.Direction()}
		if hasPosition(positions, key) {
			continue
		}

		positions = append(positions, openPosition{
			key:        key,
			entryTime:  barIdx,
			entryPrice: current.Close,
			stopLoss:   *signal.Stop,
			takeProfit: *signal.Target,
		})
	}

	return positions
}

func hasPosition(positions []openPosition, key positionKey) bool {
	for _, p := range positions {
		if p.key == key {
			return true
		}
	}
	return false
}

func pnlPercent(dir model.Direction, entry, exit float64) float64 {
	if dir == model.DirectionLong {
		return (exit - entry) / entry * 100
	}
	return (entry - exit) / entry * 100
}

// applyTrade sizes the position as a fixed percentage of current equity at
// exit time. This is notional sizing, not risk-per-trade sizing, and is
// kept as-is deliberately.
func applyTrade(equity, positionSizePercent, pnl float64) float64 {
	positionSize := equity * (positionSizePercent / 100)
	return equity + positionSize*(pnl/100)
}

func closeTrade(pos openPosition, candles []model.Candle, exitIdx int, exitPrice float64, outcome model.Outcome) model.BacktestTrade {
	entryTime := candles[pos.entryTime].Time
	exitTime := candles[exitIdx].Time

	return model.BacktestTrade{
		StrategyID:         pos.key.strategyID,
		Direction:          pos.key.direction,
		EntryTime:          entryTime,
		EntryPrice:         pos.entryPrice,
		ExitTime:           exitTime,
		ExitPrice:          exitPrice,
		StopLoss:           pos.stopLoss,
		TakeProfit:         pos.takeProfit,
		Outcome:            outcome,
		PnlPercent:         pnlPercent(pos.key.direction, pos.entryPrice, exitPrice),
		HoldingPeriodHours: exitTime.Sub(entryTime).Hours(),
	}
}
