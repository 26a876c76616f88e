package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jpillora/backoff"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/tools/log"
)

const (
	defaultBaseURL  = "https://api.binance.com"
	klinesPath      = "/api/v3/klines"
	klinesPageLimit = 1000
	maxFetchRetries = 5
)

// Client downloads historical klines from a Binance-compatible REST API.
// Strictly historical: no streaming, no order endpoints.
type Client struct {
	rest *resty.Client
}

// NewClient builds a fetcher against the default public API.
func NewClient() *Client {
	return NewClientWithBaseURL(defaultBaseURL)
}

// NewClientWithBaseURL points the fetcher at a compatible mirror, mainly
// for tests.
func NewClientWithBaseURL(baseURL string) *Client {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	return &Client{rest: rest}
}

// ParseInterval converts a timeframe string like "1h" or "4h" into a
// duration.
func ParseInterval(interval string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(interval)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid interval %q: must be positive", interval)
	}
	return d, nil
}

// FetchHistory downloads the last `days` of candles at the given interval,
// paginating forward and retrying transient failures with exponential
// backoff. The returned series is validated.
func (c *Client) FetchHistory(ctx context.Context, symbol, interval string, days int) ([]model.Candle, error) {
	step, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}

	start := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	var candles []model.Candle

	for {
		page, err := c.fetchPage(ctx, symbol, interval, start)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		candles = append(candles, page...)
		if len(page) < klinesPageLimit {
			break
		}
		start = page[len(page)-1].Time.Add(step)
	}

	if err := model.ValidateCandles(candles); err != nil {
		return nil, fmt.Errorf("fetched series for %s: %w", symbol, err)
	}

	log.WithFields(log.Fields{"symbol": symbol, "interval": interval}).
		Infof("fetched %d candles", len(candles))

	return candles, nil
}

func (c *Client) fetchPage(ctx context.Context, symbol, interval string, start time.Time) ([]model.Candle, error) {
	retry := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < maxFetchRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retry.Duration()):
			}
		}

		resp, err := c.rest.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol":    symbol,
				"interval":  interval,
				"limit":     strconv.Itoa(klinesPageLimit),
				"startTime": strconv.FormatInt(start.UnixMilli(), 10),
			}).
			Get(klinesPath)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode() == 429 || resp.StatusCode() >= 500 {
			lastErr = fmt.Errorf("klines request for %s: status %d", symbol, resp.StatusCode())
			log.Warnf("retrying kline fetch: %v", lastErr)
			continue
		}
		if resp.IsError() {
			return nil, fmt.Errorf("klines request for %s: status %d: %s", symbol, resp.StatusCode(), resp.String())
		}

		return parseKlines(resp.Body())
	}

	return nil, fmt.Errorf("kline fetch failed after %d attempts: %w", maxFetchRetries, lastErr)
}

// parseKlines decodes the exchange's array-of-arrays kline payload.
func parseKlines(body []byte) ([]model.Candle, error) {
	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode klines payload: %w", err)
	}

	candles := make([]model.Candle, 0, len(raw))
	for i, row := range raw {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline row %d: want at least 6 fields, got %d", i, len(row))
		}

		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("kline row %d open time: %w", i, err)
		}

		values := make([]float64, 5)
		for j := 1; j <= 5; j++ {
			var s string
			if err := json.Unmarshal(row[j], &s); err != nil {
				return nil, fmt.Errorf("kline row %d field %d: %w", i, j, err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("kline row %d field %d: %w", i, j, err)
			}
			values[j-1] = v
		}

		candles = append(candles, model.Candle{
			Time:   time.UnixMilli(openTime).UTC(),
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return candles, nil
}
