package strategies

import (
	"fmt"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

const (
	breakoutMinHistory  = 40
	breakoutRangeWindow = 20
	breakoutMaxWidthPct = 5.0
)

// RangeBreakout looks for a tight consolidation followed by a close beyond
// its edge. Volume expansion is the main quality filter; a breakout on thin
// volume is penalized rather than rejected outright.
type RangeBreakout struct{}

func NewRangeBreakout() *RangeBreakout { return &RangeBreakout{} }

func (*RangeBreakout) ID() string                  { return "breakout" }
func (*RangeBreakout) Name() string                { return "Range Breakout" }
func (*RangeBreakout) Category() strategy.Category { return strategy.CategoryBreakout }
func (*RangeBreakout) Timeframes() []string        { return []string{"1h", "4h"} }

func (*RangeBreakout) Evaluate(in strategy.Input) model.Signal {
	if len(in.Candles) < breakoutMinHistory {
		return model.Neutral(fmt.Sprintf("need %d candles, have %d", breakoutMinHistory, len(in.Candles)))
	}

	// consolidation window ends two bars back so the breakout bar itself
	// (and one bar of follow-through) sits outside it
	window := in.Candles[len(in.Candles)-2-breakoutRangeWindow : len(in.Candles)-2]
	rangeHigh := window[0].High
	rangeLow := window[0].Low
	for _, c := range window[1:] {
		if c.High > rangeHigh {
			rangeHigh = c.High
		}
		if c.Low < rangeLow {
			rangeLow = c.Low
		}
	}

	mid := (rangeHigh + rangeLow) / 2
	if mid <= 0 {
		return model.Neutral("degenerate price range")
	}
	widthPct := (rangeHigh - rangeLow) / mid * 100
	if widthPct > breakoutMaxWidthPct {
		return model.Neutral(fmt.Sprintf("no compression: range %.1f%% too wide", widthPct))
	}

	var dir model.Direction
	switch {
	case in.Price > rangeHigh:
		dir = model.DirectionLong
	case in.Price < rangeLow:
		dir = model.DirectionShort
	default:
		return model.Neutral("price still inside the range")
	}

	atr, okATR := atrOf(in.Candles, indicator.DefaultATRPeriod)
	if !okATR || atr <= 0 {
		return model.Neutral("no measurable volatility")
	}

	bull := dir == model.DirectionLong

	var sc scorecard
	if bull {
		sc.add(25, fmt.Sprintf("close above %d-bar range high", breakoutRangeWindow))
	} else {
		sc.add(25, fmt.Sprintf("close below %d-bar range low", breakoutRangeWindow))
	}

	switch {
	case widthPct <= 2.5:
		sc.add(15, "very tight compression")
	case widthPct <= 4.0:
		sc.add(8, "moderate compression")
	}

	ratio := indicator.VolumeRatio(model.Volumes(in.Candles), indicator.DefaultVolumeLookback)
	switch {
	case ratio >= 1.5:
		sc.add(20, fmt.Sprintf("breakout volume %.1fx average", ratio))
	case ratio >= 1.2:
		sc.add(10, fmt.Sprintf("breakout volume %.1fx average", ratio))
	case ratio < 0.8:
		sc.sub(10, "breakout on thin volume")
	}

	cur := lastCandle(in)
	if cur.Range() > 0 {
		loc := (cur.Close - cur.Low) / cur.Range()
		if !bull {
			loc = 1 - loc
		}
		if loc >= 0.7 {
			sc.add(10, "strong close in breakout direction")
		}
	}

	margin := (in.Price - rangeHigh) / rangeHigh * 100
	if !bull {
		margin = (rangeLow - in.Price) / rangeLow * 100
	}
	if margin >= 0.2 {
		sc.add(5, "clean break beyond the edge")
	}

	if rsi, ok := indicator.RSI(model.Closes(in.Candles), indicator.DefaultRSIPeriod); ok {
		zone := rsi
		if !bull {
			zone = 100 - rsi
		}
		if zone > 85 {
			sc.sub(5, fmt.Sprintf("RSI %.0f already stretched", rsi))
		}
	}

	entry := in.Price
	var stop, target float64
	var ok bool
	if bull {
		structStop := rangeHigh - 0.3*(rangeHigh-rangeLow)
		stop, target, ok = longStopTarget(entry, entry-1.2*atr, structStop, 2.0)
	} else {
		structStop := rangeLow + 0.3*(rangeHigh-rangeLow)
		stop, target, ok = shortStopTarget(entry, entry+1.2*atr, structStop, 2.0)
	}
	if !ok {
		return neutralScore(sc, "no valid stop placement")
	}

	return mapScore(dir, sc, 55, 75, entry, stop, target)
}
