package strategies

import (
	"fmt"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

const (
	goldenMinHistory  = 210
	goldenCrossMaxAge = 10
)

// GoldenCross trades the 50/200 EMA cross. A recent golden (or death)
// cross plus price and slope confirmation produces the signal; the long
// warm-up makes this the slowest module in the registry.
type GoldenCross struct{}

func NewGoldenCross() *GoldenCross { return &GoldenCross{} }

func (*GoldenCross) ID() string                  { return "golden-cross" }
func (*GoldenCross) Name() string                { return "Golden Cross" }
func (*GoldenCross) Category() strategy.Category { return strategy.CategorySwing }
func (*GoldenCross) Timeframes() []string        { return []string{"4h", "1d"} }

func (*GoldenCross) Evaluate(in strategy.Input) model.Signal {
	if len(in.Candles) < goldenMinHistory {
		return model.Neutral(fmt.Sprintf("need %d candles, have %d", goldenMinHistory, len(in.Candles)))
	}

	closes := model.Closes(in.Candles)
	e50Series := indicator.EMASeries(closes, 50)
	e200Series := indicator.EMASeries(closes, 200)
	if len(e50Series) == 0 || len(e200Series) == 0 {
		return model.Neutral("long EMAs unavailable")
	}

	// spread between the aligned tails of the two series
	offset := len(e50Series) - len(e200Series)
	spread := make([]float64, len(e200Series))
	for i := range e200Series {
		spread[i] = e50Series[i+offset] - e200Series[i]
	}
	if len(spread) < 2 {
		return model.Neutral("not enough history past the 200 EMA")
	}

	crossAge := -1
	var bull bool
	maxAge := goldenCrossMaxAge
	if len(spread)-1 < maxAge {
		maxAge = len(spread) - 1
	}
	for age := 0; age < maxAge; age++ {
		i := len(spread) - 1 - age
		if spread[i] > 0 && spread[i-1] <= 0 {
			crossAge, bull = age, true
			break
		}
		if spread[i] < 0 && spread[i-1] >= 0 {
			crossAge, bull = age, false
			break
		}
	}
	if crossAge < 0 {
		return model.Neutral("no recent 50/200 cross")
	}

	atr, okATR := atrOf(in.Candles, indicator.DefaultATRPeriod)
	if !okATR || atr <= 0 {
		return model.Neutral("no measurable volatility")
	}

	dir := model.DirectionLong
	if !bull {
		dir = model.DirectionShort
	}

	e50 := e50Series[len(e50Series)-1]
	e200 := e200Series[len(e200Series)-1]

	var sc scorecard
	if bull {
		sc.add(30, "golden cross of EMA50 over EMA200")
	} else {
		sc.add(30, "death cross of EMA50 under EMA200")
	}

	// separation should grow after a genuine regime change
	lastSpread, crossSpread := spread[len(spread)-1], spread[len(spread)-1-crossAge]
	if abs(lastSpread) > abs(crossSpread) {
		sc.add(10, "separation growing since cross")
	}

	switch {
	case bull && in.Price > e50 && in.Price > e200,
		!bull && in.Price < e50 && in.Price < e200:
		sc.add(15, "price confirming on the trend side of both EMAs")
	case bull && in.Price > e200 || !bull && in.Price < e200:
		sc.add(5, "price holding the 200 EMA")
	}

	if s200, ok := indicator.Slope(e200Series, indicator.DefaultSlopeLookback); ok {
		if bull == (s200 > 0) && s200 != 0 {
			sc.add(10, "EMA200 turning with the cross")
		}
	}

	if ratio := indicator.VolumeRatio(model.Volumes(in.Candles), indicator.DefaultVolumeLookback); ratio >= 1.2 {
		sc.add(10, fmt.Sprintf("volume %.1fx average", ratio))
	}

	if rsi, ok := indicator.RSI(closes, indicator.DefaultRSIPeriod); ok {
		zone := rsi
		if !bull {
			zone = 100 - rsi
		}
		switch {
		case zone >= 50 && zone <= 75:
			sc.add(10, fmt.Sprintf("RSI %.0f aligned", rsi))
		case zone > 80:
			sc.sub(5, fmt.Sprintf("RSI %.0f stretched", rsi))
		}
	}

	if crossAge <= 3 {
		sc.add(10, "cross is fresh")
	}

	entry := in.Price
	var stop, target float64
	var ok bool
	if bull {
		stop, target, ok = longStopTarget(entry, entry-2.0*atr, e50-0.3*atr, 2.5)
	} else {
		stop, target, ok = shortStopTarget(entry, entry+2.0*atr, e50+0.3*atr, 2.5)
	}
	if !ok {
		return neutralScore(sc, "no valid stop placement")
	}

	return mapScore(dir, sc, 55, 80, entry, stop, target)
}
