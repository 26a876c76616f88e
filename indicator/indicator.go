// Package indicator holds the pure technical-indicator math. Every function
// is deterministic, never mutates its input and reports insufficient data
// through its ok return instead of failing.
package indicator

// Default periods shared across the engine.
const (
	DefaultRSIPeriod      = 14
	DefaultATRPeriod      = 14
	DefaultMACDFast       = 12
	DefaultMACDSlow       = 26
	DefaultMACDSignal     = 9
	DefaultSlopeLookback  = 5
	DefaultVolumeLookback = 20
)

// Trend labels used by MACD.
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)

// EMASeries computes the exponential moving average sequence. The seed is
// the simple average of the first period values, so the result has
// len(prices)-period+1 entries. Returns nil when the input is too short.
func EMASeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}

	var sum float64
	for _, p := range prices[:period] {
		sum += p
	}

	k := 2.0 / (float64(period) + 1.0)
	out := make([]float64, 0, len(prices)-period+1)
	ema := sum / float64(period)
	out = append(out, ema)

	for _, p := range prices[period:] {
		ema = (p-ema)*k + ema
		out = append(out, ema)
	}

	return out
}

// EMA returns the latest exponential moving average value.
func EMA(prices []float64, period int) (float64, bool) {
	series := EMASeries(prices, period)
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

// RSISeries computes Wilder-smoothed RSI values. Requires at least
// period+1 prices; the result has len(prices)-period entries.
func RSISeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		diff := prices[i] - prices[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(prices)-period)
	out = append(out, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(prices); i++ {
		diff := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// RSI returns the latest relative strength index value.
func RSI(prices []float64, period int) (float64, bool) {
	series := RSISeries(prices, period)
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

// TrueRange for one bar given the previous close.
func TrueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if d := abs(high - prevClose); d > tr {
		tr = d
	}
	if d := abs(low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// ATR computes the Wilder-smoothed average true range from OHLC data.
// Requires at least period+1 candles.
func ATR(highs, lows, closes []float64, period int) (float64, bool) {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return 0, false
	}

	var atr float64
	for i := 1; i <= period; i++ {
		atr += TrueRange(highs[i], lows[i], closes[i-1])
	}
	atr /= float64(period)

	for i := period + 1; i < n; i++ {
		tr := TrueRange(highs[i], lows[i], closes[i-1])
		atr = (atr*float64(period-1) + tr) / float64(period)
	}

	return atr, true
}

// MACDData carries the latest MACD snapshot.
type MACDData struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Trend     string  `json:"trend"`
}

// MACDSeries returns the full MACD line and signal line. The fast and slow
// EMA sequences are aligned by trimming the longer (fast) one from the
// front. Requires len(prices) >= slow+signal.
func MACDSeries(prices []float64, fast, slow, signal int) (macdLine, signalLine []float64, ok bool) {
	if len(prices) < slow+signal {
		return nil, nil, false
	}

	fastSeries := EMASeries(prices, fast)
	slowSeries := EMASeries(prices, slow)
	if len(fastSeries) == 0 || len(slowSeries) == 0 {
		return nil, nil, false
	}

	offset := len(fastSeries) - len(slowSeries)
	macdLine = make([]float64, len(slowSeries))
	for i := range slowSeries {
		macdLine[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalLine = EMASeries(macdLine, signal)
	if len(signalLine) == 0 {
		return nil, nil, false
	}

	return macdLine, signalLine, true
}

// MACD returns the latest MACD snapshot, or ok=false when the series is too
// short. Trend is bullish only when both histogram and MACD line are
// positive, bearish only when both are negative.
func MACD(prices []float64, fast, slow, signal int) (MACDData, bool) {
	macdLine, signalLine, ok := MACDSeries(prices, fast, slow, signal)
	if !ok {
		return MACDData{}, false
	}

	macd := macdLine[len(macdLine)-1]
	sig := signalLine[len(signalLine)-1]
	hist := macd - sig

	trend := TrendNeutral
	switch {
	case hist > 0 && macd > 0:
		trend = TrendBullish
	case hist < 0 && macd < 0:
		trend = TrendBearish
	}

	return MACDData{MACD: macd, Signal: sig, Histogram: hist, Trend: trend}, true
}

// Slope returns the percentage change of a series over the given lookback:
// (curr - prev) / prev * 100 with prev taken lookback entries back.
func Slope(series []float64, lookback int) (float64, bool) {
	if lookback <= 0 || len(series) < lookback+1 {
		return 0, false
	}
	prev := series[len(series)-1-lookback]
	if prev == 0 {
		return 0, false
	}
	curr := series[len(series)-1]
	return (curr - prev) / prev * 100, true
}

// VolumeRatio compares the latest volume against the average of the
// preceding lookback volumes. Returns 1 when there is no usable average.
func VolumeRatio(volumes []float64, lookback int) float64 {
	n := len(volumes)
	if n == 0 || lookback <= 0 {
		return 1
	}

	current := volumes[n-1]
	start := n - 1 - lookback
	if start < 0 {
		start = 0
	}
	window := volumes[start : n-1]
	if len(window) == 0 {
		return 1
	}

	var sum float64
	for _, v := range window {
		sum += v
	}
	avg := sum / float64(len(window))
	if avg == 0 {
		return 1
	}

	return current / avg
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
