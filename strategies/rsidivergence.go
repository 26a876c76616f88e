package strategies

import (
	"fmt"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

const (
	divergenceMinHistory = 60
	divergenceLookback   = 30
	divergenceWing       = 2
)

// RSIDivergence hunts for price making a new swing extreme that the RSI
// refuses to confirm. Bullish divergence is checked first; only one
// direction is ever scored per snapshot.
type RSIDivergence struct{}

func NewRSIDivergence() *RSIDivergence { return &RSIDivergence{} }

func (*RSIDivergence) ID() string                  { return "rsi-divergence" }
func (*RSIDivergence) Name() string                { return "RSI Divergence" }
func (*RSIDivergence) Category() strategy.Category { return strategy.CategoryReversal }
func (*RSIDivergence) Timeframes() []string        { return []string{"1h", "4h"} }

type swingPoint struct {
	idx   int // index into the candle slice
	price float64
}

func (*RSIDivergence) Evaluate(in strategy.Input) model.Signal {
	if len(in.Candles) < divergenceMinHistory {
		return model.Neutral(fmt.Sprintf("need %d candles, have %d", divergenceMinHistory, len(in.Candles)))
	}

	closes := model.Closes(in.Candles)
	rsiSeries := indicator.RSISeries(closes, indicator.DefaultRSIPeriod)
	if len(rsiSeries) < divergenceLookback {
		return model.Neutral("RSI series too short")
	}

	atr, okATR := atrOf(in.Candles, indicator.DefaultATRPeriod)
	if !okATR || atr <= 0 {
		return model.Neutral("no measurable volatility")
	}

	// rsiSeries[i] corresponds to closes[i+period]
	rsiAt := func(candleIdx int) (float64, bool) {
		i := candleIdx - indicator.DefaultRSIPeriod
		if i < 0 || i >= len(rsiSeries) {
			return 0, false
		}
		return rsiSeries[i], true
	}

	lows := findSwings(in.Candles, divergenceLookback, true)
	highs := findSwings(in.Candles, divergenceLookback, false)

	if sig, ok := scoreDivergence(in, lows, rsiAt, atr, true); ok {
		return sig
	}
	if sig, ok := scoreDivergence(in, highs, rsiAt, atr, false); ok {
		return sig
	}

	return model.Neutral("no price/RSI divergence detected")
}

// findSwings collects local price extremes with a two-bar wing on each side
// inside the trailing lookback window, oldest first.
func findSwings(candles []model.Candle, lookback int, wantLows bool) []swingPoint {
	n := len(candles)
	start := n - lookback
	if start < divergenceWing {
		start = divergenceWing
	}

	var out []swingPoint
	for i := start; i < n-divergenceWing; i++ {
		isSwing := true
		for w := 1; w <= divergenceWing; w++ {
			if wantLows {
				if !(candles[i].Low < candles[i-w].Low && candles[i].Low < candles[i+w].Low) {
					isSwing = false
					break
				}
			} else {
				if !(candles[i].High > candles[i-w].High && candles[i].High > candles[i+w].High) {
					isSwing = false
					break
				}
			}
		}
		if isSwing {
			price := candles[i].Low
			if !wantLows {
				price = candles[i].High
			}
			out = append(out, swingPoint{idx: i, price: price})
		}
	}
	return out
}

func scoreDivergence(in strategy.Input, swings []swingPoint, rsiAt func(int) (float64, bool), atr float64, bull bool) (model.Signal, bool) {
	if len(swings) < 2 {
		return model.Signal{}, false
	}

	first, second := swings[len(swings)-2], swings[len(swings)-1]
	rsi1, ok1 := rsiAt(first.idx)
	rsi2, ok2 := rsiAt(second.idx)
	if !ok1 || !ok2 {
		return model.Signal{}, false
	}

	// price extends, RSI disagrees
	if bull {
		if !(second.price < first.price && rsi2 > rsi1+2) {
			return model.Signal{}, false
		}
	} else {
		if !(second.price > first.price && rsi2 < rsi1-2) {
			return model.Signal{}, false
		}
	}

	var sc scorecard
	if bull {
		sc.add(30, "bullish RSI divergence: lower low, higher RSI")
	} else {
		sc.add(30, "bearish RSI divergence: higher high, lower RSI")
	}

	delta := rsi2 - rsi1
	if !bull {
		delta = -delta
	}
	switch {
	case delta >= 5:
		sc.add(15, fmt.Sprintf("divergence magnitude %.1f RSI points", delta))
	default:
		sc.add(8, fmt.Sprintf("divergence magnitude %.1f RSI points", delta))
	}

	zone := rsi2
	if !bull {
		zone = 100 - rsi2
	}
	switch {
	case zone <= 35:
		sc.add(15, fmt.Sprintf("second swing RSI %.0f at extreme", rsi2))
	case zone <= 45:
		sc.add(8, fmt.Sprintf("second swing RSI %.0f near extreme", rsi2))
	}

	barsAgo := len(in.Candles) - 1 - second.idx
	if barsAgo <= 5 {
		sc.add(10, "divergence is fresh")
	}

	cur := lastCandle(in)
	if bull && cur.Bullish() || !bull && cur.Bearish() {
		sc.add(10, "confirmation bar in reversal direction")
	}

	vol1, vol2 := in.Candles[first.idx].Volume, in.Candles[second.idx].Volume
	if vol2 < vol1 {
		sc.add(5, "volume contracting into second swing")
	}

	entry := in.Price
	var stop, target float64
	var ok bool
	if bull {
		stop, target, ok = longStopTarget(entry, entry-1.5*atr, second.price-0.25*atr, 2.0)
	} else {
		stop, target, ok = shortStopTarget(entry, entry+1.5*atr, second.price+0.25*atr, 2.0)
	}
	if !ok {
		return neutralScore(sc, "no valid stop placement"), true
	}

	dir := model.DirectionLong
	if !bull {
		dir = model.DirectionShort
	}
	return mapScore(dir, sc, 55, 75, entry, stop, target), true
}
