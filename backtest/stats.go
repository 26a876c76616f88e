package backtest

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

// tradingDaysPerYear annualizes the per-trade Sharpe ratio.
const tradingDaysPerYear = 252

// buildStats computes per-strategy and overall statistics from the final
// trade list. Strategies that never traded are omitted from the
// per-strategy list, so the per-strategy trade counts always sum to the
// overall count.
func buildStats(trades []model.BacktestTrade, reg *strategy.Registry, maxDrawdown float64) ([]model.StrategyStats, model.OverallStats) {
	byStrategy := lo.GroupBy(trades, func(t model.BacktestTrade) string { return t.StrategyID })

	stats := make([]model.StrategyStats, 0, len(byStrategy))
	for _, s := range reg.Strategies() {
		own, ok := byStrategy[s.ID()]
		if !ok {
			continue
		}
		stats = append(stats, strategyStats(s.ID(), s.Name(), own))
	}

	return stats, overallStats(trades, stats, maxDrawdown)
}

func strategyStats(id, name string, trades []model.BacktestTrade) model.StrategyStats {
	s := model.StrategyStats{
		StrategyID:  id,
		Name:        name,
		TotalTrades: len(trades),
	}

	var grossWin, grossLoss, totalHolding float64
	var streak int
	for _, t := range trades {
		s.TotalPnlPercent += t.PnlPercent
		totalHolding += t.HoldingPeriodHours

		if t.Outcome == model.OutcomeWin {
			s.Wins++
			grossWin += t.PnlPercent
			streak = 0
			continue
		}

		s.Losses++
		grossLoss += -t.PnlPercent
		streak++
		if streak > s.MaxConsecutiveLosses {
			s.MaxConsecutiveLosses = streak
		}
	}

	s.WinRate = float64(s.Wins) / float64(len(trades)) * 100
	s.AvgHoldingHours = totalHolding / float64(len(trades))
	s.Expectancy = s.TotalPnlPercent / float64(len(trades))

	if s.Wins > 0 {
		s.AvgWinPercent = grossWin / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLossPercent = grossLoss / float64(s.Losses)
	}

	switch {
	case s.Wins == 0:
		s.ProfitFactor = 0
	case s.Losses == 0:
		s.ProfitFactor = math.Inf(1)
	default:
		s.ProfitFactor = grossWin / grossLoss
	}

	return s
}

func overallStats(trades []model.BacktestTrade, perStrategy []model.StrategyStats, maxDrawdown float64) model.OverallStats {
	o := model.OverallStats{
		TotalTrades:        len(trades),
		MaxDrawdownPercent: maxDrawdown,
	}
	if len(trades) == 0 {
		return o
	}

	for _, t := range trades {
		if t.Outcome == model.OutcomeWin {
			o.Wins++
		} else {
			o.Losses++
		}
		o.TotalPnlPercent += t.PnlPercent
	}
	o.WinRate = float64(o.Wins) / float64(len(trades)) * 100
	o.SharpeRatio = sharpeRatio(trades)

	if len(perStrategy) > 0 {
		best := lo.MaxBy(perStrategy, func(a, b model.StrategyStats) bool {
			return a.TotalPnlPercent > b.TotalPnlPercent
		})
		worst := lo.MinBy(perStrategy, func(a, b model.StrategyStats) bool {
			return a.TotalPnlPercent < b.TotalPnlPercent
		})
		o.BestStrategy = best.StrategyID
		o.WorstStrategy = worst.StrategyID
	}

	return o
}

// sharpeRatio annualizes the mean-over-stddev of per-trade returns. Too few
// trades or a degenerate (zero variance) distribution yield zero rather
// than NaN.
func sharpeRatio(trades []model.BacktestTrade) float64 {
	if len(trades) < 2 {
		return 0
	}

	returns := lo.Map(trades, func(t model.BacktestTrade, _ int) float64 { return t.PnlPercent })
	mean := stat.Mean(returns, nil)
	stddev := stat.StdDev(returns, nil)
	if stddev == 0 {
		return 0
	}

	return mean / stddev * math.Sqrt(tradingDaysPerYear)
}
