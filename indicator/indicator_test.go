package indicator

import (
	"math"
	"testing"

	talib "github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func risingPrices(n int) []float64 {
	out := make([]float64, n)
	price := 100.0
	for i := range out {
		out[i] = price
		price *= 1.002
	}
	return out
}

func wavyPrices(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/7) + 0.05*float64(i)
	}
	return out
}

func TestEMAInsufficientInput(t *testing.T) {
	assert.Nil(t, EMASeries([]float64{1, 2, 3}, 5))

	_, ok := EMA([]float64{1, 2, 3}, 5)
	assert.False(t, ok)
}

func TestEMAEqualsLastOfSeries(t *testing.T) {
	prices := wavyPrices(120)
	for _, period := range []int{9, 21, 50} {
		series := EMASeries(prices, period)
		require.NotEmpty(t, series)

		last, ok := EMA(prices, period)
		require.True(t, ok)
		assert.Equal(t, series[len(series)-1], last, "period %d", period)
	}
}

func TestEMASeedIsSimpleAverage(t *testing.T) {
	prices := []float64{2, 4, 6}
	series := EMASeries(prices, 3)
	require.Len(t, series, 1)
	assert.InDelta(t, 4.0, series[0], 1e-12)
}

func TestEMAParityWithTalib(t *testing.T) {
	prices := wavyPrices(200)
	for _, period := range []int{9, 21, 50} {
		ours, ok := EMA(prices, period)
		require.True(t, ok)

		ref := talib.Ema(prices, period)
		assert.InDelta(t, ref[len(ref)-1], ours, 1e-8, "period %d", period)
	}
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	rsi, ok := RSI(risingPrices(30), DefaultRSIPeriod)
	require.True(t, ok)
	assert.Equal(t, 100.0, rsi)
}

func TestRSIFlatSeriesNoDivisionByZero(t *testing.T) {
	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 50
	}
	rsi, ok := RSI(flat, DefaultRSIPeriod)
	require.True(t, ok)
	assert.Equal(t, 100.0, rsi) // avgLoss == 0 convention
}

func TestRSIInsufficientInput(t *testing.T) {
	_, ok := RSI(wavyPrices(DefaultRSIPeriod), DefaultRSIPeriod)
	assert.False(t, ok)
}

func TestRSIParityWithTalib(t *testing.T) {
	prices := wavyPrices(150)
	ours, ok := RSI(prices, DefaultRSIPeriod)
	require.True(t, ok)

	ref := talib.Rsi(prices, DefaultRSIPeriod)
	assert.InDelta(t, ref[len(ref)-1], ours, 1e-8)
}

func TestATRFlatSeriesIsZero(t *testing.T) {
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i], lows[i], closes[i] = 50, 50, 50
	}

	atr, ok := ATR(highs, lows, closes, DefaultATRPeriod)
	require.True(t, ok)
	assert.Equal(t, 0.0, atr)
}

func TestATRParityWithTalib(t *testing.T) {
	n := 150
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := wavyPrices(n)
	for i, c := range closes {
		highs[i] = c * 1.01
		lows[i] = c * 0.99
	}

	ours, ok := ATR(highs, lows, closes, DefaultATRPeriod)
	require.True(t, ok)

	ref := talib.Atr(highs, lows, closes, DefaultATRPeriod)
	assert.InDelta(t, ref[len(ref)-1], ours, 1e-8)
}

func TestMACDRequiresSlowPlusSignal(t *testing.T) {
	_, ok := MACD(wavyPrices(DefaultMACDSlow+DefaultMACDSignal-1), DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	assert.False(t, ok)

	_, ok = MACD(wavyPrices(DefaultMACDSlow+DefaultMACDSignal), DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	assert.True(t, ok)
}

func TestMACDTrendLabels(t *testing.T) {
	macd, ok := MACD(risingPrices(120), DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	require.True(t, ok)
	assert.Equal(t, TrendBullish, macd.Trend)
	assert.Greater(t, macd.MACD, 0.0)

	falling := risingPrices(120)
	for i, j := 0, len(falling)-1; i < j; i, j = i+1, j-1 {
		falling[i], falling[j] = falling[j], falling[i]
	}
	macd, ok = MACD(falling, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	require.True(t, ok)
	assert.Equal(t, TrendBearish, macd.Trend)
}

func TestMACDHistogramConsistency(t *testing.T) {
	macd, ok := MACD(wavyPrices(200), DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	require.True(t, ok)
	assert.InDelta(t, macd.MACD-macd.Signal, macd.Histogram, 1e-12)
}

func TestSlope(t *testing.T) {
	series := []float64{100, 101, 102, 103, 104, 110}
	slope, ok := Slope(series, 5)
	require.True(t, ok)
	assert.InDelta(t, 10.0, slope, 1e-12)

	_, ok = Slope(series, 6)
	assert.False(t, ok)

	_, ok = Slope([]float64{0, 0, 0, 0, 0, 0}, 5)
	assert.False(t, ok) // zero base has no defined slope
}

func TestVolumeRatio(t *testing.T) {
	volumes := []float64{10, 10, 10, 10, 30}
	assert.InDelta(t, 3.0, VolumeRatio(volumes, 4), 1e-12)

	assert.Equal(t, 1.0, VolumeRatio(nil, 20))
	assert.Equal(t, 1.0, VolumeRatio([]float64{5}, 20))
	assert.Equal(t, 1.0, VolumeRatio([]float64{0, 0, 0, 7}, 20)) // zero average
}
