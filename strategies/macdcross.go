package strategies

import (
	"fmt"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

const (
	macdMinHistory    = 40
	macdCrossMaxAge   = 3
)

// MACDCross trades fresh MACD signal-line crosses. The cross direction
// fixes the trade direction; zero-line position, histogram expansion and
// volume decide the score. Stale crosses decay quickly.
type MACDCross struct{}

func NewMACDCross() *MACDCross { return &MACDCross{} }

func (*MACDCross) ID() string                  { return "macd-cross" }
func (*MACDCross) Name() string                { return "MACD Signal Cross" }
func (*MACDCross) Category() strategy.Category { return strategy.CategorySwing }
func (*MACDCross) Timeframes() []string        { return []string{"1h", "4h"} }

func (*MACDCross) Evaluate(in strategy.Input) model.Signal {
	if len(in.Candles) < macdMinHistory {
		return model.Neutral(fmt.Sprintf("need %d candles, have %d", macdMinHistory, len(in.Candles)))
	}

	closes := model.Closes(in.Candles)
	macdLine, signalLine, ok := indicator.MACDSeries(closes,
		indicator.DefaultMACDFast, indicator.DefaultMACDSlow, indicator.DefaultMACDSignal)
	if !ok || len(signalLine) < macdCrossMaxAge+1 {
		return model.Neutral("MACD unavailable")
	}

	// histogram aligned to the signal line
	offset := len(macdLine) - len(signalLine)
	hist := make([]float64, len(signalLine))
	for i := range signalLine {
		hist[i] = macdLine[i+offset] - signalLine[i]
	}

	// most recent zero cross of the histogram within the freshness window
	crossAge := -1
	var bull bool
	for age := 0; age < macdCrossMaxAge; age++ {
		i := len(hist) - 1 - age
		if hist[i] > 0 && hist[i-1] <= 0 {
			crossAge, bull = age, true
			break
		}
		if hist[i] < 0 && hist[i-1] >= 0 {
			crossAge, bull = age, false
			break
		}
	}
	if crossAge < 0 {
		return model.Neutral("no recent signal-line cross")
	}

	atr, okATR := atrOf(in.Candles, indicator.DefaultATRPeriod)
	if !okATR || atr <= 0 {
		return model.Neutral("no measurable volatility")
	}

	dir := model.DirectionLong
	if !bull {
		dir = model.DirectionShort
	}

	var sc scorecard
	if bull {
		sc.add(25, "bullish MACD signal-line cross")
	} else {
		sc.add(25, "bearish MACD signal-line cross")
	}

	macdNow := macdLine[len(macdLine)-1]
	if bull == (macdNow > 0) && macdNow != 0 {
		sc.add(15, "cross confirmed beyond zero line")
	} else {
		sc.add(5, "early cross against zero line")
	}

	last, prev := hist[len(hist)-1], hist[len(hist)-2]
	if abs(last) > abs(prev) && (bull == (last > 0)) {
		sc.add(10, "histogram expanding")
	}

	if slope, ok := indicator.Slope(macdLine, indicator.DefaultSlopeLookback); ok {
		if bull == (slope > 0) && slope != 0 {
			sc.add(10, "MACD line sloping with cross")
		}
	}

	if rsi, ok := indicator.RSI(closes, indicator.DefaultRSIPeriod); ok {
		zone := rsi
		if !bull {
			zone = 100 - rsi
		}
		switch {
		case zone >= 45 && zone <= 70:
			sc.add(10, fmt.Sprintf("RSI %.0f aligned", rsi))
		case zone > 75:
			sc.sub(5, fmt.Sprintf("RSI %.0f stretched", rsi))
		case zone < 40:
			sc.sub(5, fmt.Sprintf("RSI %.0f against cross", rsi))
		}
	}

	if ratio := indicator.VolumeRatio(model.Volumes(in.Candles), indicator.DefaultVolumeLookback); ratio >= 1.2 {
		sc.add(10, fmt.Sprintf("volume %.1fx average", ratio))
	}

	switch crossAge {
	case 0:
		sc.add(15, "cross on current bar")
	case 1:
		sc.add(8, "cross one bar ago")
	default:
		sc.add(3, "cross fading")
	}

	entry := in.Price
	var stop, target float64
	var okStop bool
	if bull {
		structStop, _ := lowestLow(in.Candles, 10, false)
		stop, target, okStop = longStopTarget(entry, entry-1.5*atr, structStop-0.2*atr, 2.0)
	} else {
		structStop, _ := highestHigh(in.Candles, 10, false)
		stop, target, okStop = shortStopTarget(entry, entry+1.5*atr, structStop+0.2*atr, 2.0)
	}
	if !okStop {
		return neutralScore(sc, "no valid stop placement")
	}

	return mapScore(dir, sc, 55, 75, entry, stop, target)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
