package backtest

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
	"github.com/quantforge/tradecore/tools/log"
)

// BatchResult bundles per-symbol results with cross-symbol aggregates.
type BatchResult struct {
	Results    []*model.BacktestResult `json:"results"`
	Aggregated AggregatedStats         `json:"aggregated"`
}

// AggregatedStats sums trade counts and PnL across every symbol of a batch.
type AggregatedStats struct {
	Symbols         int     `json:"symbols"`
	TotalTrades     int     `json:"totalTrades"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	WinRate         float64 `json:"winRate"`
	TotalPnlPercent float64 `json:"totalPnlPercent"`
	BestSymbol      string  `json:"bestSymbol"`
	WorstSymbol     string  `json:"worstSymbol"`
}

// RunBatch backtests several symbols over a bounded worker pool. Results
// come back sorted by symbol regardless of completion order. A symbol that
// fails validation fails the whole batch; runs are independent, so the
// remaining workers just drain.
func RunBatch(ctx context.Context, series map[string][]model.Candle, reg *strategy.Registry, cfg Config, workers int) (*BatchResult, error) {
	if workers <= 0 {
		workers = 4
	}

	symbols := lo.Keys(series)
	sort.Strings(symbols)

	type job struct {
		idx    int
		symbol string
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	jobs := make(chan job)
	results := make([]*model.BacktestResult, len(symbols))

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := Run(j.symbol, series[j.symbol], reg, cfg)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					log.WithError(err).Warnf("batch run failed for %s", j.symbol)
					continue
				}
				results[j.idx] = res
			}
		}()
	}

	for i, symbol := range symbols {
		if ctx.Err() != nil {
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- job{idx: i, symbol: symbol}:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return &BatchResult{
		Results:    results,
		Aggregated: aggregate(results),
	}, nil
}

func aggregate(results []*model.BacktestResult) AggregatedStats {
	agg := AggregatedStats{Symbols: len(results)}

	bestPnl := 0.0
	worstPnl := 0.0
	for _, r := range results {
		o := r.Overall
		agg.TotalTrades += o.TotalTrades
		agg.Wins += o.Wins
		agg.Losses += o.Losses
		agg.TotalPnlPercent += o.TotalPnlPercent

		if agg.BestSymbol == "" || o.TotalPnlPercent > bestPnl {
			agg.BestSymbol, bestPnl = r.Symbol, o.TotalPnlPercent
		}
		if agg.WorstSymbol == "" || o.TotalPnlPercent < worstPnl {
			agg.WorstSymbol, worstPnl = r.Symbol, o.TotalPnlPercent
		}
	}

	if agg.TotalTrades > 0 {
		agg.WinRate = float64(agg.Wins) / float64(agg.TotalTrades) * 100
	}

	return agg
}
