package indicator

import (
	"github.com/quantforge/tradecore/model"
)

// EMAPeriods are the periods materialized in every Set.
var EMAPeriods = []int{9, 21, 50, 200}

// VolumeInfo is the volume snapshot of a Set.
type VolumeInfo struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Ratio   float64 `json:"ratio"`
}

// Set is a read-only indicator snapshot derived from one candle series.
// Pointer fields are nil whenever the series is shorter than the
// indicator's minimum window; no value is ever extrapolated.
type Set struct {
	EMA       map[int]*float64  `json:"ema"`
	EMASeries map[int][]float64 `json:"emaSeries"`
	EMASlope  map[int]*float64  `json:"emaSlope"`
	RSI       *float64          `json:"rsi"`
	RSISeries []float64         `json:"rsiSeries"`
	ATR       *float64          `json:"atr"`
	MACD      *MACDData         `json:"macd"`
	Volume    VolumeInfo        `json:"volume"`
}

// BuildSet computes the full indicator snapshot for a candle series.
// Strategies may use it or recompute locally; either way the candles are
// never mutated.
func BuildSet(candles []model.Candle) *Set {
	closes := model.Closes(candles)
	volumes := model.Volumes(candles)

	set := &Set{
		EMA:       make(map[int]*float64, len(EMAPeriods)),
		EMASeries: make(map[int][]float64, len(EMAPeriods)),
		EMASlope:  make(map[int]*float64, len(EMAPeriods)),
	}

	for _, period := range EMAPeriods {
		series := EMASeries(closes, period)
		set.EMASeries[period] = series
		if len(series) > 0 {
			v := series[len(series)-1]
			set.EMA[period] = &v
		}
		if slope, ok := Slope(series, DefaultSlopeLookback); ok {
			s := slope
			set.EMASlope[period] = &s
		}
	}

	set.RSISeries = RSISeries(closes, DefaultRSIPeriod)
	if len(set.RSISeries) > 0 {
		v := set.RSISeries[len(set.RSISeries)-1]
		set.RSI = &v
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
	}
	if atr, ok := ATR(highs, lows, closes, DefaultATRPeriod); ok {
		set.ATR = &atr
	}

	if macd, ok := MACD(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal); ok {
		set.MACD = &macd
	}

	set.Volume = buildVolumeInfo(volumes)

	return set
}

func buildVolumeInfo(volumes []float64) VolumeInfo {
	info := VolumeInfo{Ratio: 1}
	if len(volumes) == 0 {
		return info
	}

	info.Current = volumes[len(volumes)-1]
	start := len(volumes) - 1 - DefaultVolumeLookback
	if start < 0 {
		start = 0
	}
	window := volumes[start : len(volumes)-1]
	if len(window) > 0 {
		var sum float64
		for _, v := range window {
			sum += v
		}
		info.Average = sum / float64(len(window))
	}
	info.Ratio = VolumeRatio(volumes, DefaultVolumeLookback)

	return info
}
