package model

import (
	"encoding/json"
	"math"
	"time"
)

// Outcome of a closed trade.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// BacktestTrade is a closed position. Immutable once created.
type BacktestTrade struct {
	StrategyID         string    `json:"strategyId"`
	Direction          Direction `json:"direction"`
	EntryTime          time.Time `json:"entryTime"`
	EntryPrice         float64   `json:"entryPrice"`
	ExitTime           time.Time `json:"exitTime"`
	ExitPrice          float64   `json:"exitPrice"`
	StopLoss           float64   `json:"stopLoss"`
	TakeProfit         float64   `json:"takeProfit"`
	Outcome            Outcome   `json:"outcome"`
	PnlPercent         float64   `json:"pnlPercent"`
	HoldingPeriodHours float64   `json:"holdingPeriodHours"`
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// StrategyStats aggregates the closed trades of one strategy. Computed once
// over the final trade list, never mutated incrementally.
type StrategyStats struct {
	StrategyID           string  `json:"strategyId"`
	Name                 string  `json:"name"`
	TotalTrades          int     `json:"totalTrades"`
	Wins                 int     `json:"wins"`
	Losses               int     `json:"losses"`
	WinRate              float64 `json:"winRate"`
	AvgWinPercent        float64 `json:"avgWinPercent"`
	AvgLossPercent       float64 `json:"avgLossPercent"`
	TotalPnlPercent      float64 `json:"totalPnlPercent"`
	ProfitFactor         float64 `json:"profitFactor"`
	MaxConsecutiveLosses int     `json:"maxConsecutiveLosses"`
	AvgHoldingHours      float64 `json:"avgHoldingHours"`
	Expectancy           float64 `json:"expectancy"`
}

// MarshalJSON emits null for a non-finite profit factor, matching what
// JSON.stringify does for Infinity on the consuming dashboard side.
func (s StrategyStats) MarshalJSON() ([]byte, error) {
	type alias StrategyStats
	if math.IsInf(s.ProfitFactor, 0) || math.IsNaN(s.ProfitFactor) {
		return json.Marshal(struct {
			alias
			ProfitFactor *float64 `json:"profitFactor"`
		}{alias: alias(s), ProfitFactor: nil})
	}
	return json.Marshal(alias(s))
}

// OverallStats aggregates across all strategies of one run.
type OverallStats struct {
	TotalTrades        int     `json:"totalTrades"`
	Wins               int     `json:"wins"`
	Losses             int     `json:"losses"`
	WinRate            float64 `json:"winRate"`
	TotalPnlPercent    float64 `json:"totalPnlPercent"`
	MaxDrawdownPercent float64 `json:"maxDrawdownPercent"`
	SharpeRatio        float64 `json:"sharpeRatio"`
	BestStrategy       string  `json:"bestStrategy"`
	WorstStrategy      string  `json:"worstStrategy"`
}

// BacktestResult is the sole externally visible output of a run.
// Create-once-return; callers must not mutate it.
type BacktestResult struct {
	Symbol        string          `json:"symbol"`
	Period        string          `json:"period"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	TotalCandles  int             `json:"totalCandles"`
	Trades        []BacktestTrade `json:"trades"`
	StrategyStats []StrategyStats `json:"strategyStats"`
	Overall       OverallStats    `json:"overall"`
	EquityCurve   []EquityPoint   `json:"equityCurve"`
}

// BacktestRequest is the request shape consumed by a thin serving layer.
// The core itself never performs HTTP.
type BacktestRequest struct {
	Symbol  string   `json:"symbol,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
	Days    int      `json:"days"`
}

// Response is the envelope the serving layer wraps results in.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
