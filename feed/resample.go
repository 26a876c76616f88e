package feed

import "github.com/quantforge/tradecore/model"

// Resample aggregates consecutive groups of factor candles into one candle
// each: first open, highest high, lowest low, last close, summed volume,
// stamped with the group's first timestamp. The trailing group may be
// partial, which is exactly what the simulator wants when it confirms
// against a higher timeframe without looking ahead.
func Resample(candles []model.Candle, factor int) []model.Candle {
	if factor <= 1 || len(candles) == 0 {
		return candles
	}

	out := make([]model.Candle, 0, (len(candles)+factor-1)/factor)
	for start := 0; start < len(candles); start += factor {
		end := start + factor
		if end > len(candles) {
			end = len(candles)
		}

		group := candles[start:end]
		agg := group[0]
		for _, c := range group[1:] {
			if c.High > agg.High {
				agg.High = c.High
			}
			if c.Low < agg.Low {
				agg.Low = c.Low
			}
			agg.Close = c.Close
			agg.Volume += c.Volume
		}
		out = append(out, agg)
	}

	return out
}
