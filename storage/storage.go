// Package storage persists backtest runs to SQLite through gorm.
package storage

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quantforge/tradecore/model"
)

// RunRecord is one persisted backtest run with its closed trades.
type RunRecord struct {
	gorm.Model
	Symbol             string `gorm:"index"`
	Period             string
	StartDate          time.Time
	EndDate            time.Time
	TotalCandles       int
	TotalTrades        int
	Wins               int
	Losses             int
	WinRate            float64
	TotalPnlPercent    float64
	MaxDrawdownPercent float64
	SharpeRatio        float64
	BestStrategy       string
	WorstStrategy      string
	Trades             []TradeRecord `gorm:"foreignKey:RunRecordID"`
}

// TradeRecord is one closed trade belonging to a run.
type TradeRecord struct {
	gorm.Model
	RunRecordID uint   `gorm:"index"`
	StrategyID  string `gorm:"index"`
	Direction   string
	EntryTime   time.Time
	EntryPrice  float64
	ExitTime    time.Time
	ExitPrice   float64
	StopLoss    float64
	TakeProfit  float64
	Outcome     string
	PnlPercent  float64
}

// Storage wraps the gorm handle.
type Storage struct {
	db *gorm.DB
}

// FromFile opens or creates a SQLite database at path.
func FromFile(path string) (*Storage, error) {
	return open(sqlite.Open(path))
}

// FromMemory opens an in-memory database, mainly for tests.
func FromMemory() (*Storage, error) {
	return open(sqlite.Open(":memory:"))
}

func open(dialector gorm.Dialector) (*Storage, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}

	if err := db.AutoMigrate(&RunRecord{}, &TradeRecord{}); err != nil {
		return nil, fmt.Errorf("migrate results database: %w", err)
	}

	return &Storage{db: db}, nil
}

// SaveResult persists a run and its trades in one transaction and returns
// the run's database ID.
func (s *Storage) SaveResult(result *model.BacktestResult) (uint, error) {
	record := RunRecord{
		Symbol:             result.Symbol,
		Period:             result.Period,
		StartDate:          result.StartDate,
		EndDate:            result.EndDate,
		TotalCandles:       result.TotalCandles,
		TotalTrades:        result.Overall.TotalTrades,
		Wins:               result.Overall.Wins,
		Losses:             result.Overall.Losses,
		WinRate:            result.Overall.WinRate,
		TotalPnlPercent:    result.Overall.TotalPnlPercent,
		MaxDrawdownPercent: result.Overall.MaxDrawdownPercent,
		SharpeRatio:        result.Overall.SharpeRatio,
		BestStrategy:       result.Overall.BestStrategy,
		WorstStrategy:      result.Overall.WorstStrategy,
	}

	for _, t := range result.Trades {
		record.Trades = append(record.Trades, TradeRecord{
			StrategyID: t.StrategyID,
			Direction:  string(t.Direction),
			EntryTime:  t.EntryTime,
			EntryPrice: t.EntryPrice,
			ExitTime:   t.ExitTime,
			ExitPrice:  t.ExitPrice,
			StopLoss:   t.StopLoss,
			TakeProfit: t.TakeProfit,
			Outcome:    string(t.Outcome),
			PnlPercent: t.PnlPercent,
		})
	}

	if err := s.db.Create(&record).Error; err != nil {
		return 0, fmt.Errorf("save run for %s: %w", result.Symbol, err)
	}
	return record.ID, nil
}

// Runs lists persisted runs for a symbol, newest first, without trades.
func (s *Storage) Runs(symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []RunRecord
	err := s.db.
		Where("symbol = ?", symbol).
		Order("created_at desc").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", symbol, err)
	}
	return runs, nil
}

// Trades loads the trades of one persisted run.
func (s *Storage) Trades(runID uint) ([]TradeRecord, error) {
	var trades []TradeRecord
	err := s.db.
		Where("run_record_id = ?", runID).
		Order("exit_time asc").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("load trades for run %d: %w", runID, err)
	}
	return trades, nil
}

// Close releases the underlying connection.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
