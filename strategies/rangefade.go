package strategies

import (
	"fmt"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

const (
	fadeMinHistory  = 50
	fadeRangeWindow = 30
	fadeMaxWidthPct = 6.0
	fadeEdgeZone    = 0.15
)

// RangeFade sells range tops and buys range bottoms while price stays
// boxed in. Heavy volume pushing into an edge reads as breakout risk and
// subtracts points; quiet edges with an RSI extreme score best.
type RangeFade struct{}

func NewRangeFade() *RangeFade { return &RangeFade{} }

func (*RangeFade) ID() string                  { return "range-fade" }
func (*RangeFade) Name() string                { return "Range Fade" }
func (*RangeFade) Category() strategy.Category { return strategy.CategoryReversal }
func (*RangeFade) Timeframes() []string        { return []string{"1h"} }

func (*RangeFade) Evaluate(in strategy.Input) model.Signal {
	if len(in.Candles) < fadeMinHistory {
		return model.Neutral(fmt.Sprintf("need %d candles, have %d", fadeMinHistory, len(in.Candles)))
	}

	window := in.Candles[len(in.Candles)-1-fadeRangeWindow : len(in.Candles)-1]
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

	width := rangeHigh - rangeLow
	mid := (rangeHigh + rangeLow) / 2
	if width <= 0 || mid <= 0 {
		return model.Neutral("degenerate price range")
	}
	if width/mid*100 > fadeMaxWidthPct {
		return model.Neutral("range too wide to fade")
	}
	if in.Price > rangeHigh || in.Price < rangeLow {
		return model.Neutral("price broke out of the range")
	}

	pos := (in.Price - rangeLow) / width
	var dir model.Direction
	switch {
	case pos >= 1-fadeEdgeZone:
		dir = model.DirectionShort
	case pos <= fadeEdgeZone:
		dir = model.DirectionLong
	default:
		return model.Neutral("price not at a range edge")
	}

	atr, okATR := atrOf(in.Candles, indicator.DefaultATRPeriod)
	if !okATR || atr <= 0 {
		return model.Neutral("no measurable volatility")
	}

	short := dir == model.DirectionShort

	var sc scorecard
	if short {
		sc.add(25, "fading the range top")
	} else {
		sc.add(25, "fading the range bottom")
	}

	// prior tests of the same edge make it more credible
	touches := 0
	for _, c := range window {
		if short && c.High >= rangeHigh-0.1*width {
			touches++
		}
		if !short && c.Low <= rangeLow+0.1*width {
			touches++
		}
	}
	if touches >= 2 {
		sc.add(15, fmt.Sprintf("edge tested %d times", touches))
	} else {
		sc.add(5, "first test of the edge")
	}

	if rsi, ok := indicator.RSI(model.Closes(in.Candles), indicator.DefaultRSIPeriod); ok {
		zone := rsi
		if !short {
			zone = 100 - rsi
		}
		switch {
		case zone >= 70:
			sc.add(15, fmt.Sprintf("RSI %.0f extreme at the edge", rsi))
		case zone >= 60:
			sc.add(8, fmt.Sprintf("RSI %.0f leaning extreme", rsi))
		case zone <= 50:
			sc.sub(10, fmt.Sprintf("RSI %.0f not supporting a fade", rsi))
		}
	}

	cur := lastCandle(in)
	if cur.Range() > 0 {
		wick := cur.High - maxOf(cur.Open, cur.Close)
		if !short {
			wick = minOf(cur.Open, cur.Close) - cur.Low
		}
		if wick >= 0.5*cur.Range() {
			sc.add(10, "rejection wick at the edge")
		}
	}

	ratio := indicator.VolumeRatio(model.Volumes(in.Candles), indicator.DefaultVolumeLookback)
	switch {
	case ratio <= 0.9:
		sc.add(10, "quiet volume at the edge")
	case ratio >= 1.5:
		sc.sub(15, fmt.Sprintf("heavy volume %.1fx pushing into the edge", ratio))
	}

	if width >= 4*atr {
		sc.add(5, "range wide enough relative to ATR")
	}

	entry := in.Price
	var stop, target float64
	var ok bool
	if short {
		stop, target, ok = shortStopTarget(entry, entry+1.0*atr, rangeHigh+0.25*atr, 1.5)
	} else {
		stop, target, ok = longStopTarget(entry, entry-1.0*atr, rangeLow-0.25*atr, 1.5)
	}
	if !ok {
		return neutralScore(sc, "no valid stop placement")
	}

	return mapScore(dir, sc, 55, 75, entry, stop, target)
}

func maxOf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
