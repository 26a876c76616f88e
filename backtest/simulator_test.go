package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

// stubStrategy emits a fixed signal shape around the current price so that
// simulator mechanics can be tested without real indicator math.
type stubStrategy struct {
	id       string
	signalFn func(in strategy.Input) model.Signal
}

func (s stubStrategy) ID() string                 { return s.id }
func (s stubStrategy) Name() string               { return "stub " + s.id }
func (s stubStrategy) Category() strategy.Category { return strategy.CategorySwing }
func (s stubStrategy) Timeframes() []string       { return []string{"1h"} }
func (s stubStrategy) Evaluate(in strategy.Input) model.Signal {
	return s.signalFn(in)
}

func ptr(v float64) *float64 { return &v }

// alwaysLong signals a long on every timeframe so higher-timeframe
// confirmation boosts rather than penalizes.
func alwaysLong(strength, stopOffset, targetOffset float64) func(strategy.Input) model.Signal {
	return func(in strategy.Input) model.Signal {
		return model.Signal{
			Type:     model.SignalLong,
			Strength: strength,
			Entry:    ptr(in.Price),
			Stop:     ptr(in.Price - stopOffset),
			Target:   ptr(in.Price + targetOffset),
			Reasons:  []string{"stub long"},
		}
	}
}

func alwaysShort(strength, stopOffset, targetOffset float64) func(strategy.Input) model.Signal {
	return func(in strategy.Input) model.Signal {
		return model.Signal{
			Type:     model.SignalShort,
			Strength: strength,
			Entry:    ptr(in.Price),
			Stop:     ptr(in.Price + stopOffset),
			Target:   ptr(in.Price - targetOffset),
			Reasons:  []string{"stub short"},
		}
	}
}

func mustRegistry(t *testing.T, strategies ...strategy.Strategy) *strategy.Registry {
	t.Helper()
	reg, err := strategy.NewRegistry(strategies...)
	require.NoError(t, err)
	return reg
}

func flatSeries(n int) []model.Candle {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		out[i] = model.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   100,
			High:   100.5,
			Low:    99.5,
			Close:  100,
			Volume: 1000,
		}
	}
	return out
}

func testConfig() Config {
	return Config{
		StartEquity:         10000,
		PositionSizePercent: 2,
		MaxOpenPositions:    5,
		MinSignalStrength:   50,
		WarmupBars:          10,
		Timeframe:           "1h",
	}
}

func TestRunInsufficientHistoryYieldsZeroResult(t *testing.T) {
	reg := mustRegistry(t, stubStrategy{id: "alpha", signalFn: alwaysLong(80, 2, 4)})

	res, err := Run("TEST", flatSeries(100), reg, Config{}) // default warmup 200
	require.NoError(t, err)

	assert.Equal(t, 100, res.TotalCandles)
	assert.Empty(t, res.Trades)
	assert.Empty(t, res.StrategyStats)
	assert.Empty(t, res.EquityCurve)
	assert.Zero(t, res.Overall.TotalTrades)
	assert.Zero(t, res.Overall.TotalPnlPercent)
}

func TestRunRejectsMalformedSeries(t *testing.T) {
	reg := mustRegistry(t, stubStrategy{id: "alpha", signalFn: alwaysLong(80, 2, 4)})

	candles := flatSeries(300)
	candles[5].Time = candles[4].Time

	_, err := Run("TEST", candles, reg, testConfig())
	assert.Error(t, err)
}

func TestRunPositionCapFavorsEarlierRegistered(t *testing.T) {
	// two strategies want the same slot; registry order decides
	reg := mustRegistry(t,
		stubStrategy{id: "alpha", signalFn: alwaysLong(80, 10, 10)},
		stubStrategy{id: "bravo", signalFn: alwaysLong(95, 10, 10)},
	)

	cfg := testConfig()
	cfg.MaxOpenPositions = 1

	res, err := Run("TEST", flatSeries(80), reg, cfg)
	require.NoError(t, err)

	// stop at 90 and target at 110 never trade on a flat series, so the
	// single slot holds one position until the forced close
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "alpha", res.Trades[0].StrategyID)
}

func TestRunOnePositionPerStrategyAndDirection(t *testing.T) {
	reg := mustRegistry(t,
		stubStrategy{id: "alpha", signalFn: alwaysLong(80, 10, 10)},
		stubStrategy{id: "bravo", signalFn: alwaysShort(80, 10, 10)},
	)

	res, err := Run("TEST", flatSeries(80), reg, testConfig())
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	ids := []string{res.Trades[0].StrategyID, res.Trades[1].StrategyID}
	assert.ElementsMatch(t, []string{"alpha", "bravo"}, ids)
}

func TestRunStopBeforeTargetWhenBothPierced(t *testing.T) {
	reg := mustRegistry(t, stubStrategy{id: "alpha", signalFn: alwaysLong(80, 2, 2)})

	candles := flatSeries(80)
	// bar 15 sweeps through both the stop (98) and the target (102)
	candles[15].High = 103
	candles[15].Low = 97

	res, err := Run("TEST", candles, reg, testConfig())
	require.NoError(t, err)

	require.NotEmpty(t, res.Trades)
	first := res.Trades[0]
	assert.Equal(t, model.OutcomeLoss, first.Outcome)
	assert.Equal(t, 98.0, first.ExitPrice)
	assert.Equal(t, candles[15].Time, first.ExitTime)
	assert.InDelta(t, -2.0, first.PnlPercent, 1e-9)
}

func TestRunTargetExitIsWin(t *testing.T) {
	reg := mustRegistry(t, stubStrategy{id: "alpha", signalFn: alwaysLong(80, 2, 2)})

	candles := flatSeries(80)
	candles[20].High = 102.5 // target 102, stop untouched

	res, err := Run("TEST", candles, reg, testConfig())
	require.NoError(t, err)

	require.NotEmpty(t, res.Trades)
	first := res.Trades[0]
	assert.Equal(t, model.OutcomeWin, first.Outcome)
	assert.Equal(t, 102.0, first.ExitPrice)
	assert.InDelta(t, 2.0, first.PnlPercent, 1e-9)
}

func TestRunForcedCloseOutcomeFollowsPnlSign(t *testing.T) {
	reg := mustRegistry(t, stubStrategy{id: "alpha", signalFn: alwaysLong(80, 20, 20)})

	candles := flatSeries(80)
	for i := 40; i < len(candles); i++ {
		// drift up without touching the wide stop or target
		lift := float64(i-39) * 0.05
		candles[i].Open += lift
		candles[i].High += lift
		candles[i].Low += lift
		candles[i].Close += lift
	}

	res, err := Run("TEST", candles, reg, testConfig())
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, model.OutcomeWin, trade.Outcome)
	assert.Equal(t, candles[len(candles)-1].Close, trade.ExitPrice)
	assert.Greater(t, trade.PnlPercent, 0.0)
}

func TestRunForcedCloseAtBreakevenIsLoss(t *testing.T) {
	reg := mustRegistry(t, stubStrategy{id: "alpha", signalFn: alwaysLong(80, 20, 20)})

	res, err := Run("TEST", flatSeries(80), reg, testConfig())
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, model.OutcomeLoss, res.Trades[0].Outcome)
	assert.Zero(t, res.Trades[0].PnlPercent)
}

func TestRunTradeCountsRoundTrip(t *testing.T) {
	reg := mustRegistry(t,
		stubStrategy{id: "alpha", signalFn: alwaysLong(80, 1, 1)},
		stubStrategy{id: "bravo", signalFn: alwaysShort(80, 1, 1)},
	)

	candles := flatSeries(300)
	for i := range candles {
		// a gentle oscillation so both stops and targets fire repeatedly
		wiggle := float64(i%8) * 0.4
		candles[i].Open += wiggle
		candles[i].High += wiggle + 0.5
		candles[i].Low += wiggle - 0.5
		candles[i].Close += wiggle
	}

	res, err := Run("TEST", candles, reg, testConfig())
	require.NoError(t, err)
	require.NotEmpty(t, res.Trades)

	assert.Equal(t, len(res.Trades), res.Overall.TotalTrades)
	assert.Equal(t, res.Overall.TotalTrades, res.Overall.Wins+res.Overall.Losses)

	perStrategyTotal := 0
	for _, s := range res.StrategyStats {
		perStrategyTotal += s.TotalTrades
		assert.Equal(t, s.TotalTrades, s.Wins+s.Losses)
	}
	assert.Equal(t, len(res.Trades), perStrategyTotal)
}

func TestRunEquityCurveSampling(t *testing.T) {
	reg := mustRegistry(t, stubStrategy{id: "alpha", signalFn: alwaysLong(80, 10, 10)})

	cfg := testConfig()
	candles := flatSeries(80)

	res, err := Run("TEST", candles, reg, cfg)
	require.NoError(t, err)

	// bars 10..79 sampled every 4 -> 18 points, first at the warmup bar
	require.Len(t, res.EquityCurve, 18)
	assert.Equal(t, candles[10].Time, res.EquityCurve[0].Time)
	assert.Equal(t, cfg.StartEquity, res.EquityCurve[0].Equity)
}

func TestRunEquitySizedFromCurrentEquity(t *testing.T) {
	reg := mustRegistry(t, stubStrategy{id: "alpha", signalFn: alwaysLong(80, 2, 2)})

	candles := flatSeries(80)
	candles[20].High = 102.5 // one clean +2% winner

	res, err := Run("TEST", candles, reg, testConfig())
	require.NoError(t, err)
	require.NotEmpty(t, res.Trades)

	// 2% of 10000 staked on a +2% move is +4 equity
	wantAfterFirst := 10000 + 10000*0.02*0.02
	var sampled float64
	for _, p := range res.EquityCurve {
		if p.Time.After(candles[20].Time) {
			sampled = p.Equity
			break
		}
	}
	require.NotZero(t, sampled)
	assert.InDelta(t, wantAfterFirst, sampled, 10000*0.02*0.03)
}

func TestRunDeterministic(t *testing.T) {
	reg := mustRegistry(t,
		stubStrategy{id: "alpha", signalFn: alwaysLong(80, 1, 1)},
		stubStrategy{id: "bravo", signalFn: alwaysShort(80, 1, 1)},
	)

	candles := flatSeries(200)
	for i := range candles {
		wiggle := float64(i%6) * 0.3
		candles[i].Open += wiggle
		candles[i].High += wiggle + 0.5
		candles[i].Low += wiggle - 0.5
		candles[i].Close += wiggle
	}

	a, err := Run("TEST", candles, reg, testConfig())
	require.NoError(t, err)
	b, err := Run("TEST", candles, reg, testConfig())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRunWeakSignalDoesNotEnter(t *testing.T) {
	// strength 30 + confirmation boost 15 stays below the threshold
	reg := mustRegistry(t, stubStrategy{id: "alpha", signalFn: alwaysLong(30, 2, 2)})

	res, err := Run("TEST", flatSeries(80), reg, testConfig())
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
}
