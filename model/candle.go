package model

import (
	"fmt"
	"math"
	"time"
)

// Candle is one OHLCV bar. Series handed to the engine must be ordered
// ascending by time with no duplicate timestamps.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

func (c Candle) Empty() bool {
	return c.Time.IsZero() && c.Close == 0
}

// Body returns the absolute open-to-close distance.
func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// Range returns the high-to-low distance.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

func (c Candle) Bearish() bool {
	return c.Close < c.Open
}

// Closes extracts the close series from a candle slice.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts the volume series from a candle slice.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// ValidateCandles fails fast on malformed input: empty series, non-increasing
// timestamps, non-finite or negative prices, or inverted high/low. The
// simulator calls this before touching any state.
func ValidateCandles(candles []Candle) error {
	if len(candles) == 0 {
		return fmt.Errorf("candle series is empty")
	}

	for i, c := range candles {
		for name, v := range map[string]float64{
			"open": c.Open, "high": c.High, "low": c.Low, "close": c.Close, "volume": c.Volume,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("candle %d (%s): %s is not finite", i, c.Time.Format(time.RFC3339), name)
			}
			if v < 0 {
				return fmt.Errorf("candle %d (%s): %s is negative", i, c.Time.Format(time.RFC3339), name)
			}
		}
		if c.High < c.Low {
			return fmt.Errorf("candle %d (%s): high %.8f below low %.8f", i, c.Time.Format(time.RFC3339), c.High, c.Low)
		}
		if i > 0 && !c.Time.After(candles[i-1].Time) {
			return fmt.Errorf("candle %d (%s): timestamp not strictly increasing", i, c.Time.Format(time.RFC3339))
		}
	}

	return nil
}
