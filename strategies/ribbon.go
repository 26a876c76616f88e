package strategies

import (
	"fmt"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

const ribbonMinHistory = 60

// EMARibbon trades in the direction of a fully stacked 9/21/50 EMA ribbon.
// Stack order decides the direction; separation, slope alignment, RSI zone,
// volume and pullback freshness decide the score.
type EMARibbon struct{}

func NewEMARibbon() *EMARibbon { return &EMARibbon{} }

func (*EMARibbon) ID() string                  { return "ema-ribbon" }
func (*EMARibbon) Name() string                { return "EMA Ribbon Trend" }
func (*EMARibbon) Category() strategy.Category { return strategy.CategorySwing }
func (*EMARibbon) Timeframes() []string        { return []string{"1h", "4h"} }

func (*EMARibbon) Evaluate(in strategy.Input) model.Signal {
	if len(in.Candles) < ribbonMinHistory {
		return model.Neutral(fmt.Sprintf("need %d candles, have %d", ribbonMinHistory, len(in.Candles)))
	}

	closes := model.Closes(in.Candles)
	e9, ok9 := indicator.EMA(closes, 9)
	e21, ok21 := indicator.EMA(closes, 21)
	e50, ok50 := indicator.EMA(closes, 50)
	if !ok9 || !ok21 || !ok50 {
		return model.Neutral("ribbon EMAs unavailable")
	}

	var dir model.Direction
	switch {
	case e9 > e21 && e21 > e50:
		dir = model.DirectionLong
	case e9 < e21 && e21 < e50:
		dir = model.DirectionShort
	default:
		return model.Neutral("ribbon not stacked")
	}

	atr, okATR := atrOf(in.Candles, indicator.DefaultATRPeriod)
	if !okATR || atr <= 0 {
		return model.Neutral("no measurable volatility")
	}

	entry := in.Price
	bull := dir == model.DirectionLong

	var sc scorecard
	if bull {
		sc.add(30, "ribbon stacked 9>21>50")
	} else {
		sc.add(30, "ribbon stacked 9<21<50")
	}

	spread := (e9 - e50) / e50 * 100
	if !bull {
		spread = -spread
	}
	switch {
	case spread >= 1.5:
		sc.add(15, "wide ribbon separation")
	case spread >= 0.75:
		sc.add(8, "moderate ribbon separation")
	}

	if s9, ok := indicator.Slope(indicator.EMASeries(closes, 9), indicator.DefaultSlopeLookback); ok {
		if bull == (s9 > 0) && s9 != 0 {
			sc.add(10, "fast EMA sloping with trend")
		} else if s9 != 0 {
			sc.sub(10, "fast EMA sloping against trend")
		}
	}
	if s21, ok := indicator.Slope(indicator.EMASeries(closes, 21), indicator.DefaultSlopeLookback); ok {
		if bull == (s21 > 0) && s21 != 0 {
			sc.add(5, "mid EMA sloping with trend")
		}
	}

	if rsi, ok := indicator.RSI(closes, indicator.DefaultRSIPeriod); ok {
		zone := rsi
		if !bull {
			zone = 100 - rsi
		}
		switch {
		case zone >= 50 && zone <= 80:
			sc.add(10, fmt.Sprintf("RSI %.0f supports trend", rsi))
		case zone < 45:
			sc.sub(5, fmt.Sprintf("RSI %.0f against trend", rsi))
		default:
			sc.note(fmt.Sprintf("RSI %.0f stretched", rsi))
		}
	}

	ratio := indicator.VolumeRatio(model.Volumes(in.Candles), indicator.DefaultVolumeLookback)
	if ratio >= 1.2 {
		sc.add(10, fmt.Sprintf("volume %.1fx average", ratio))
	} else if ratio < 0.8 {
		sc.sub(5, "thin volume")
	}

	distMid := entry - e21
	if !bull {
		distMid = e21 - entry
	}
	if distMid >= 0 && distMid <= 0.5*atr {
		sc.add(15, "fresh pullback near EMA21")
	}

	distFast := entry - e9
	if !bull {
		distFast = e9 - entry
	}
	if distFast > 4*atr {
		sc.sub(10, "price extended from ribbon")
	}

	var stop, target float64
	var ok bool
	if bull {
		stop, target, ok = longStopTarget(entry, entry-1.5*atr, e21-0.3*atr, 2.0)
	} else {
		stop, target, ok = shortStopTarget(entry, entry+1.5*atr, e21+0.3*atr, 2.0)
	}
	if !ok {
		return neutralScore(sc, "no valid stop placement")
	}

	return mapScore(dir, sc, 55, 75, entry, stop, target)
}
