// Package strategies contains the built-in strategy modules. Each module is
// stateless and scores one direction per snapshot: gate checks first, then
// additive weighted scoring, then threshold mapping and stop/target
// construction. Modules recompute the indicators they need locally instead
// of sharing engine state, so a bug in one module cannot leak into another.
package strategies

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// scorecard accumulates additive points with a human-readable trail.
type scorecard struct {
	points  float64
	reasons []string
}

func (s *scorecard) add(points float64, reason string) {
	s.points += points
	s.reasons = append(s.reasons, fmt.Sprintf("%s (+%.0f)", reason, points))
}

func (s *scorecard) sub(points float64, reason string) {
	s.points -= points
	s.reasons = append(s.reasons, fmt.Sprintf("%s (-%.0f)", reason, points))
}

func (s *scorecard) note(reason string) {
	s.reasons = append(s.reasons, reason)
}

// neutralScore reports a below-threshold score as a neutral signal while
// keeping the accumulated strength visible ("building but not ready").
func neutralScore(sc scorecard, reason string) model.Signal {
	sig := model.Neutral(append(sc.reasons, reason)...)
	sig.Strength = clamp(sc.points, 0, 100)
	return sig
}

// mapScore turns an accumulated score into the final signal. Scores at or
// above strongCut map to the STRONG variant, scores at or above entryCut to
// the plain directional type, anything lower stays neutral. Strength is
// clamped to [0,100] as the last step.
func mapScore(dir model.Direction, sc scorecard, entryCut, strongCut, entry, stop, target float64) model.Signal {
	if sc.points < entryCut {
		return neutralScore(sc, fmt.Sprintf("score %.0f below entry threshold %.0f", sc.points, entryCut))
	}

	var sigType model.SignalType
	if dir == model.DirectionLong {
		sigType = model.SignalLong
		if sc.points >= strongCut {
			sigType = model.SignalStrongLong
		}
	} else {
		sigType = model.SignalShort
		if sc.points >= strongCut {
			sigType = model.SignalStrongShort
		}
	}

	return model.Signal{
		Type:     sigType,
		Strength: clamp(sc.points, 0, 100),
		Entry:    &entry,
		Stop:     &stop,
		Target:   &target,
		Reasons:  sc.reasons,
	}
}

// longStopTarget picks the tighter (closer to entry) of an ATR-based and a
// structural stop candidate below the entry, then derives the target as a
// fixed multiple of the stop distance so the minimum reward:risk holds by
// construction. Returns ok=false when no valid stop exists.
func longStopTarget(entry, atrStop, structStop, rr float64) (stop, target float64, ok bool) {
	stop = atrStop
	if structStop < entry && structStop > stop {
		stop = structStop
	}
	if stop <= 0 || stop >= entry {
		return 0, 0, false
	}
	target = entry + rr*(entry-stop)
	return stop, target, true
}

// shortStopTarget mirrors longStopTarget for the short side: the tighter
// stop is the lower of the candidates above entry.
func shortStopTarget(entry, atrStop, structStop, rr float64) (stop, target float64, ok bool) {
	stop = atrStop
	if structStop > entry && structStop < stop {
		stop = structStop
	}
	if stop <= entry {
		return 0, 0, false
	}
	target = entry - rr*(stop-entry)
	if target <= 0 {
		return 0, 0, false
	}
	return stop, target, true
}

// lowestLow returns the lowest low of the last lookback candles, excluding
// the current bar when skipCurrent is set.
func lowestLow(candles []model.Candle, lookback int, skipCurrent bool) (float64, bool) {
	end := len(candles)
	if skipCurrent {
		end--
	}
	start := end - lookback
	if start < 0 {
		start = 0
	}
	if start >= end {
		return 0, false
	}

	low := candles[start].Low
	for _, c := range candles[start+1 : end] {
		if c.Low < low {
			low = c.Low
		}
	}
	return low, true
}

// highestHigh mirrors lowestLow for the high side.
func highestHigh(candles []model.Candle, lookback int, skipCurrent bool) (float64, bool) {
	end := len(candles)
	if skipCurrent {
		end--
	}
	start := end - lookback
	if start < 0 {
		start = 0
	}
	if start >= end {
		return 0, false
	}

	high := candles[start].High
	for _, c := range candles[start+1 : end] {
		if c.High > high {
			high = c.High
		}
	}
	return high, true
}

// atrOf recomputes ATR locally from the module's own candle view.
func atrOf(candles []model.Candle, period int) (float64, bool) {
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i], lows[i], closes[i] = c.High, c.Low, c.Close
	}
	return indicator.ATR(highs, lows, closes, period)
}

// lastCandle returns the current bar; callers gate on history length first.
func lastCandle(in strategy.Input) model.Candle {
	return in.Candles[len(in.Candles)-1]
}
