package strategies

import (
	"fmt"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

const (
	pullbackMinHistory = 60
	pullbackWindow     = 5
)

// PullbackContinuation buys dips to the EMA21 inside an established EMA50
// trend once price reclaims the fast EMA. Shallow pullbacks that hold the
// EMA50 score best; a break of the EMA50 disqualifies.
type PullbackContinuation struct{}

func NewPullbackContinuation() *PullbackContinuation { return &PullbackContinuation{} }

func (*PullbackContinuation) ID() string                  { return "pullback" }
func (*PullbackContinuation) Name() string                { return "Pullback Continuation" }
func (*PullbackContinuation) Category() strategy.Category { return strategy.CategorySwing }
func (*PullbackContinuation) Timeframes() []string        { return []string{"1h", "4h"} }

func (*PullbackContinuation) Evaluate(in strategy.Input) model.Signal {
	if len(in.Candles) < pullbackMinHistory {
		return model.Neutral(fmt.Sprintf("need %d candles, have %d", pullbackMinHistory, len(in.Candles)))
	}

	closes := model.Closes(in.Candles)
	e9, ok9 := indicator.EMA(closes, 9)
	e21, ok21 := indicator.EMA(closes, 21)
	e50, ok50 := indicator.EMA(closes, 50)
	if !ok9 || !ok21 || !ok50 {
		return model.Neutral("trend EMAs unavailable")
	}

	slope50, okSlope := indicator.Slope(indicator.EMASeries(closes, 50), indicator.DefaultSlopeLookback)
	if !okSlope {
		return model.Neutral("EMA50 slope unavailable")
	}

	var dir model.Direction
	switch {
	case in.Price > e50 && slope50 > 0:
		dir = model.DirectionLong
	case in.Price < e50 && slope50 < 0:
		dir = model.DirectionShort
	default:
		return model.Neutral("no established trend")
	}

	atr, okATR := atrOf(in.Candles, indicator.DefaultATRPeriod)
	if !okATR || atr <= 0 {
		return model.Neutral("no measurable volatility")
	}

	bull := dir == model.DirectionLong
	recent := in.Candles[len(in.Candles)-pullbackWindow:]

	// locate the pullback touch of the EMA21 inside the recent window
	touchIdx := -1
	var touchExtreme float64
	for i, c := range recent {
		if bull && c.Low <= e21 {
			if touchIdx < 0 || c.Low < touchExtreme {
				touchIdx, touchExtreme = i, c.Low
			}
		}
		if !bull && c.High >= e21 {
			if touchIdx < 0 || c.High > touchExtreme {
				touchIdx, touchExtreme = i, c.High
			}
		}
	}
	if touchIdx < 0 {
		return model.Neutral("no pullback to EMA21 in recent bars")
	}

	// resumption: price back on the trend side of the fast EMA
	if bull && in.Price <= e9 || !bull && in.Price >= e9 {
		return model.Neutral("pullback not yet reclaimed fast EMA")
	}

	var sc scorecard
	sc.add(25, "pullback to EMA21 inside trend")

	mag := slope50
	if !bull {
		mag = -mag
	}
	if mag >= 0.5 {
		sc.add(15, "strong EMA50 trend slope")
	} else {
		sc.add(8, "mild EMA50 trend slope")
	}

	if bull && touchExtreme > e50 || !bull && touchExtreme < e50 {
		sc.add(15, "pullback held above EMA50")
	} else {
		sc.sub(10, "pullback broke through EMA50")
	}

	cur := lastCandle(in)
	if (bull && cur.Bullish() || !bull && cur.Bearish()) && cur.Range() > 0 && cur.Body() >= 0.5*cur.Range() {
		sc.add(15, "decisive resumption bar")
	}

	if rsi, ok := indicator.RSI(closes, indicator.DefaultRSIPeriod); ok {
		zone := rsi
		if !bull {
			zone = 100 - rsi
		}
		switch {
		case zone >= 40 && zone <= 65:
			sc.add(10, fmt.Sprintf("RSI %.0f reset into trend zone", rsi))
		case zone < 35:
			sc.sub(10, fmt.Sprintf("RSI %.0f momentum against trend", rsi))
		}
	}

	if ratio := indicator.VolumeRatio(model.Volumes(in.Candles), indicator.DefaultVolumeLookback); ratio >= 1.2 {
		sc.add(10, fmt.Sprintf("resumption volume %.1fx average", ratio))
	}

	if touchIdx >= pullbackWindow-2 {
		sc.add(10, "fresh pullback touch")
	}

	entry := in.Price
	var stop, target float64
	var ok bool
	if bull {
		stop, target, ok = longStopTarget(entry, entry-1.2*atr, touchExtreme-0.2*atr, 2.0)
	} else {
		stop, target, ok = shortStopTarget(entry, entry+1.2*atr, touchExtreme+0.2*atr, 2.0)
	}
	if !ok {
		return neutralScore(sc, "no valid stop placement")
	}

	return mapScore(dir, sc, 55, 75, entry, stop, target)
}
