package strategies

import (
	"fmt"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

const (
	surgeMinHistory = 30
	surgeMinRatio   = 1.8
)

// VolumeSurge is the scalp module: an outsized volume bar in one direction
// with the fast EMA leaning the same way. Signals are short-lived by
// nature, so the stop sits tight against the surge bar.
type VolumeSurge struct{}

func NewVolumeSurge() *VolumeSurge { return &VolumeSurge{} }

func (*VolumeSurge) ID() string                  { return "volume-surge" }
func (*VolumeSurge) Name() string                { return "Volume Surge" }
func (*VolumeSurge) Category() strategy.Category { return strategy.CategoryScalp }
func (*VolumeSurge) Timeframes() []string        { return []string{"15m", "1h"} }

func (*VolumeSurge) Evaluate(in strategy.Input) model.Signal {
	if len(in.Candles) < surgeMinHistory {
		return model.Neutral(fmt.Sprintf("need %d candles, have %d", surgeMinHistory, len(in.Candles)))
	}

	volumes := model.Volumes(in.Candles)
	ratio := indicator.VolumeRatio(volumes, indicator.DefaultVolumeLookback)
	if ratio < surgeMinRatio {
		return model.Neutral(fmt.Sprintf("volume ratio %.2f below surge threshold", ratio))
	}

	cur := lastCandle(in)
	if cur.Range() <= 0 || cur.Body() < 0.2*cur.Range() {
		return model.Neutral("surge bar has no clear direction")
	}

	var dir model.Direction
	if cur.Bullish() {
		dir = model.DirectionLong
	} else {
		dir = model.DirectionShort
	}

	atr, okATR := atrOf(in.Candles, indicator.DefaultATRPeriod)
	if !okATR || atr <= 0 {
		return model.Neutral("no measurable volatility")
	}

	bull := dir == model.DirectionLong
	closes := model.Closes(in.Candles)

	var sc scorecard
	if bull {
		sc.add(25, fmt.Sprintf("volume surge %.1fx on a bullish bar", ratio))
	} else {
		sc.add(25, fmt.Sprintf("volume surge %.1fx on a bearish bar", ratio))
	}

	switch {
	case ratio >= 3.0:
		sc.add(20, "extreme participation")
	case ratio >= 2.3:
		sc.add(12, "heavy participation")
	default:
		sc.add(5, "elevated participation")
	}

	if s9, ok := indicator.Slope(indicator.EMASeries(closes, 9), indicator.DefaultSlopeLookback); ok {
		if bull == (s9 > 0) && s9 != 0 {
			sc.add(15, "fast EMA leaning with the surge")
		} else if s9 != 0 {
			sc.sub(15, "fast EMA leaning against the surge")
		}
	}

	if cur.Body() >= 0.6*cur.Range() {
		sc.add(10, "full-bodied surge bar")
	}

	if rsi, ok := indicator.RSI(closes, indicator.DefaultRSIPeriod); ok {
		zone := rsi
		if !bull {
			zone = 100 - rsi
		}
		if zone >= 75 {
			sc.sub(10, fmt.Sprintf("RSI %.0f already stretched", rsi))
		}
	}

	n := len(volumes)
	if n >= 3 && volumes[n-1] > volumes[n-2] && volumes[n-2] > volumes[n-3] {
		sc.add(5, "volume building over three bars")
	}

	entry := in.Price
	var stop, target float64
	var ok bool
	if bull {
		stop, target, ok = longStopTarget(entry, entry-1.0*atr, cur.Low-0.1*atr, 1.5)
	} else {
		stop, target, ok = shortStopTarget(entry, entry+1.0*atr, cur.High+0.1*atr, 1.5)
	}
	if !ok {
		return neutralScore(sc, "no valid stop placement")
	}

	return mapScore(dir, sc, 55, 75, entry, stop, target)
}
