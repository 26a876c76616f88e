package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/tradecore/model"
)

func candlesFromCloses(closes []float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = model.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c * 0.999,
			High:   c * 1.001,
			Low:    c * 0.998,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

func TestBuildSetShortSeriesHasNilValues(t *testing.T) {
	set := BuildSet(candlesFromCloses(wavyPrices(10)))

	assert.NotNil(t, set.EMA[9])
	assert.Nil(t, set.EMA[21])
	assert.Nil(t, set.EMA[50])
	assert.Nil(t, set.EMA[200])
	assert.Nil(t, set.RSI)
	assert.Nil(t, set.ATR)
	assert.Nil(t, set.MACD)
}

func TestBuildSetFullSeries(t *testing.T) {
	set := BuildSet(candlesFromCloses(wavyPrices(260)))

	for _, period := range EMAPeriods {
		require.NotNil(t, set.EMA[period], "ema %d", period)
		series := set.EMASeries[period]
		require.NotEmpty(t, series)
		assert.Equal(t, series[len(series)-1], *set.EMA[period])
	}

	require.NotNil(t, set.RSI)
	assert.GreaterOrEqual(t, *set.RSI, 0.0)
	assert.LessOrEqual(t, *set.RSI, 100.0)

	require.NotNil(t, set.ATR)
	assert.Greater(t, *set.ATR, 0.0)

	require.NotNil(t, set.MACD)
	assert.InDelta(t, set.MACD.MACD-set.MACD.Signal, set.MACD.Histogram, 1e-12)

	assert.Greater(t, set.Volume.Ratio, 0.0)
}
