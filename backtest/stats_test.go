package backtest

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/tradecore/model"
)

func trade(strategyID string, outcome model.Outcome, pnl, holdingHours float64) model.BacktestTrade {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return model.BacktestTrade{
		StrategyID:         strategyID,
		Direction:          model.DirectionLong,
		EntryTime:          entry,
		ExitTime:           entry.Add(time.Duration(holdingHours) * time.Hour),
		Outcome:            outcome,
		PnlPercent:         pnl,
		HoldingPeriodHours: holdingHours,
	}
}

func TestStrategyStatsBasics(t *testing.T) {
	trades := []model.BacktestTrade{
		trade("alpha", model.OutcomeWin, 4, 10),
		trade("alpha", model.OutcomeLoss, -2, 6),
		trade("alpha", model.OutcomeLoss, -1, 4),
		trade("alpha", model.OutcomeWin, 3, 12),
	}

	s := strategyStats("alpha", "Alpha", trades)

	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.InDelta(t, 50.0, s.WinRate, 1e-9)
	assert.InDelta(t, 3.5, s.AvgWinPercent, 1e-9)
	assert.InDelta(t, 1.5, s.AvgLossPercent, 1e-9)
	assert.InDelta(t, 4.0, s.TotalPnlPercent, 1e-9)
	assert.InDelta(t, 7.0/3.0, s.ProfitFactor, 1e-9)
	assert.Equal(t, 2, s.MaxConsecutiveLosses)
	assert.InDelta(t, 8.0, s.AvgHoldingHours, 1e-9)
	assert.InDelta(t, 1.0, s.Expectancy, 1e-9)
}

func TestStrategyStatsProfitFactorAllWins(t *testing.T) {
	trades := []model.BacktestTrade{
		trade("alpha", model.OutcomeWin, 2, 5),
		trade("alpha", model.OutcomeWin, 3, 5),
	}

	s := strategyStats("alpha", "Alpha", trades)
	assert.True(t, math.IsInf(s.ProfitFactor, 1))

	// non-finite profit factor serializes as null
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"profitFactor":null`)
}

func TestStrategyStatsProfitFactorNoWins(t *testing.T) {
	trades := []model.BacktestTrade{
		trade("alpha", model.OutcomeLoss, -2, 5),
	}

	s := strategyStats("alpha", "Alpha", trades)
	assert.Zero(t, s.ProfitFactor)
	assert.Equal(t, 1, s.MaxConsecutiveLosses)
}

func TestSharpeRatioEdgeCases(t *testing.T) {
	assert.Zero(t, sharpeRatio(nil))
	assert.Zero(t, sharpeRatio([]model.BacktestTrade{trade("a", model.OutcomeWin, 2, 1)}))

	// zero variance
	same := []model.BacktestTrade{
		trade("a", model.OutcomeWin, 2, 1),
		trade("a", model.OutcomeWin, 2, 1),
	}
	assert.Zero(t, sharpeRatio(same))

	mixed := []model.BacktestTrade{
		trade("a", model.OutcomeWin, 3, 1),
		trade("a", model.OutcomeLoss, -1, 1),
	}
	assert.Positive(t, sharpeRatio(mixed))
}

func TestBuildStatsSkipsIdleStrategiesAndPicksBestWorst(t *testing.T) {
	reg := mustRegistry(t,
		stubStrategy{id: "alpha", signalFn: alwaysLong(80, 1, 1)},
		stubStrategy{id: "bravo", signalFn: alwaysLong(80, 1, 1)},
		stubStrategy{id: "idle", signalFn: alwaysLong(80, 1, 1)},
	)

	trades := []model.BacktestTrade{
		trade("bravo", model.OutcomeLoss, -3, 2),
		trade("alpha", model.OutcomeWin, 5, 2),
	}

	perStrategy, overall := buildStats(trades, reg, 1.25)

	require.Len(t, perStrategy, 2)
	// registry order, not trade order
	assert.Equal(t, "alpha", perStrategy[0].StrategyID)
	assert.Equal(t, "bravo", perStrategy[1].StrategyID)

	assert.Equal(t, 2, overall.TotalTrades)
	assert.Equal(t, "alpha", overall.BestStrategy)
	assert.Equal(t, "bravo", overall.WorstStrategy)
	assert.InDelta(t, 1.25, overall.MaxDrawdownPercent, 1e-9)
	assert.InDelta(t, 2.0, overall.TotalPnlPercent, 1e-9)
}

func TestSummaryRendersTable(t *testing.T) {
	reg := mustRegistry(t, stubStrategy{id: "alpha", signalFn: alwaysLong(80, 2, 2)})

	candles := flatSeries(80)
	candles[20].High = 102.5

	res, err := Run("TEST", candles, reg, testConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	Summary(&buf, res)

	out := buf.String()
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "TEST 1h")
}
