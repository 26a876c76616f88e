package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/tradecore/model"
)

func sampleResult(symbol string) *model.BacktestResult {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &model.BacktestResult{
		Symbol:       symbol,
		Period:       "1h",
		StartDate:    start,
		EndDate:      start.Add(300 * time.Hour),
		TotalCandles: 300,
		Trades: []model.BacktestTrade{
			{
				StrategyID: "ema-ribbon",
				Direction:  model.DirectionLong,
				EntryTime:  start.Add(210 * time.Hour),
				EntryPrice: 100,
				ExitTime:   start.Add(220 * time.Hour),
				ExitPrice:  104,
				StopLoss:   98,
				TakeProfit: 104,
				Outcome:    model.OutcomeWin,
				PnlPercent: 4,
			},
		},
		Overall: model.OverallStats{
			TotalTrades:     1,
			Wins:            1,
			WinRate:         100,
			TotalPnlPercent: 4,
			SharpeRatio:     0,
			BestStrategy:    "ema-ribbon",
			WorstStrategy:   "ema-ribbon",
		},
	}
}

func TestSaveAndListRuns(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	id, err := store.SaveResult(sampleResult("BTCUSDT"))
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = store.SaveResult(sampleResult("ETHUSDT"))
	require.NoError(t, err)

	runs, err := store.Runs("BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "BTCUSDT", runs[0].Symbol)
	assert.Equal(t, 1, runs[0].TotalTrades)
	assert.Equal(t, "ema-ribbon", runs[0].BestStrategy)
}

func TestTradesBelongToRun(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	id, err := store.SaveResult(sampleResult("BTCUSDT"))
	require.NoError(t, err)

	trades, err := store.Trades(id)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "ema-ribbon", trades[0].StrategyID)
	assert.Equal(t, "win", trades[0].Outcome)
	assert.Equal(t, 4.0, trades[0].PnlPercent)

	trades, err = store.Trades(id + 999)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestRunsEmptySymbol(t *testing.T) {
	store, err := FromMemory()
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.Runs("NOPE", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
