package strategies

import (
	"math"
	"math/rand"
	"time"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

var fixtureStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func candleAt(i int, open, high, low, close, volume float64) model.Candle {
	return model.Candle{
		Time:   fixtureStart.Add(time.Duration(i) * time.Hour),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}

// risingCandles is a steady uptrend: close_i = 100*(1.002)^i.
func risingCandles(n int) []model.Candle {
	out := make([]model.Candle, n)
	prev := 100.0
	for i := 0; i < n; i++ {
		close := 100 * math.Pow(1.002, float64(i))
		high := math.Max(prev, close) * 1.001
		low := math.Min(prev, close) * 0.999
		out[i] = candleAt(i, prev, high, low, close, 1000)
		prev = close
	}
	return out
}

func fallingCandles(n int) []model.Candle {
	out := make([]model.Candle, n)
	prev := 100.0
	for i := 0; i < n; i++ {
		close := 100 * math.Pow(0.998, float64(i))
		high := math.Max(prev, close) * 1.001
		low := math.Min(prev, close) * 0.999
		out[i] = candleAt(i, prev, high, low, close, 1000)
		prev = close
	}
	return out
}

// flatCandles is a perfectly flat series: high == low == close.
func flatCandles(n int) []model.Candle {
	out := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		out[i] = candleAt(i, 100, 100, 100, 100, 1000)
	}
	return out
}

// randomWalkCandles is deterministic: same seed, same series.
func randomWalkCandles(n int, seed int64) []model.Candle {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.Candle, n)
	prev := 100.0
	for i := 0; i < n; i++ {
		close := prev * (1 + (rng.Float64()-0.5)*0.02)
		high := math.Max(prev, close) * (1 + rng.Float64()*0.005)
		low := math.Min(prev, close) * (1 - rng.Float64()*0.005)
		out[i] = candleAt(i, prev, high, low, close, 500+rng.Float64()*2000)
		prev = close
	}
	return out
}

// breakoutCandles compresses into a tight box and then breaks the top on
// heavy volume over the final two bars.
func breakoutCandles() []model.Candle {
	out := make([]model.Candle, 0, 42)
	for i := 0; i < 40; i++ {
		base := 100 + 0.6*math.Sin(float64(i)/2)
		out = append(out, candleAt(i, base-0.1, base+0.4, base-0.4, base, 1000))
	}
	out = append(out, candleAt(40, 100.5, 102.1, 100.4, 102.0, 2500))
	out = append(out, candleAt(41, 102.0, 103.1, 101.9, 103.0, 3000))
	return out
}

// fadeCandles oscillates inside 98..102, periodically testing the top,
// then runs into the top edge on quiet volume.
func fadeCandles() []model.Candle {
	out := make([]model.Candle, 0, 50)
	for i := 0; i < 40; i++ {
		base := 99.5 + 0.5*math.Sin(float64(i)/3)
		high := base + 0.4
		if i%8 == 3 {
			high = 102 // top-edge test
		}
		out = append(out, candleAt(i, base-0.1, high, math.Max(base-0.5, 98), base, 1000))
	}
	close := 99.0
	for i := 40; i < 50; i++ {
		open := close
		close += 0.28
		out = append(out, candleAt(i, open, close+0.1, open-0.1, close, 850))
	}
	return out
}

// divergenceCandles carves two swing lows: a steep flush, a bounce, then a
// shallower push to a marginally lower low, and a small recovery.
func divergenceCandles() []model.Candle {
	out := make([]model.Candle, 0, 70)
	price := 100.0
	i := 0
	add := func(close float64, vol float64) {
		open := price
		high := math.Max(open, close) + 0.2
		low := math.Min(open, close) - 0.2
		out = append(out, candleAt(i, open, high, low, close, vol))
		price = close
		i++
	}

	for j := 0; j < 24; j++ { // quiet drift
		add(100-0.05*float64(j), 1200)
	}
	for j := 0; j < 15; j++ { // steep flush into swing low one
		add(price-1.0, 1500)
	}
	for j := 0; j < 10; j++ { // bounce
		add(price+0.5, 1100)
	}
	for j := 0; j < 10; j++ { // shallow push to a lower low
		add(price-0.52, 900)
	}
	for j := 0; j < 3; j++ { // recovery wing
		add(price+0.4, 1000)
	}
	return out
}

// surgeCandles is quiet tape ending in one outsized bullish bar.
func surgeCandles() []model.Candle {
	out := make([]model.Candle, 0, 31)
	for i := 0; i < 30; i++ {
		base := 100 + 0.3*math.Sin(float64(i)/4)
		out = append(out, candleAt(i, base-0.05, base+0.25, base-0.25, base, 1000))
	}
	out = append(out, candleAt(30, 100.0, 101.3, 99.9, 101.2, 3500))
	return out
}

func inputFor(candles []model.Candle) strategy.Input {
	return strategy.Input{
		Symbol:     "TESTUSDT",
		Price:      candles[len(candles)-1].Close,
		Candles:    candles,
		Indicators: indicator.BuildSet(candles),
		Timeframe:  "1h",
	}
}
