// Package kv caches backtest results in buntdb so repeated requests for the
// same symbol skip the simulation.
package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/quantforge/tradecore/model"
)

const resultPrefix = "backtest:"

// Store wraps the buntdb handle.
type Store struct {
	db     *buntdb.DB
	dbPath string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL expires cached results after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// New opens a cache under dir, or an in-memory cache when dir is empty.
func New(dir string, options ...Option) (*Store, error) {
	dbPath := ":memory:"
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
		dbPath = path.Join(dir, "cache.db")
	}

	db, err := buntdb.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	// the cache is rebuildable, so durability loses to speed
	if err := db.SetConfig(buntdb.Config{
		SyncPolicy:         buntdb.Never,
		AutoShrinkDisabled: true,
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure cache: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// PutResult caches a result under its symbol.
func (s *Store) PutResult(result *model.BacktestResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result for %s: %w", result.Symbol, err)
	}

	return s.db.Update(func(tx *buntdb.Tx) error {
		var opts *buntdb.SetOptions
		if s.ttl > 0 {
			opts = &buntdb.SetOptions{Expires: true, TTL: s.ttl}
		}
		_, _, err := tx.Set(resultPrefix+result.Symbol, string(raw), opts)
		return err
	})
}

// GetResult returns the cached result for a symbol, or ok=false on a miss.
func (s *Store) GetResult(symbol string) (*model.BacktestResult, bool, error) {
	var raw string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(resultPrefix + symbol)
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if err == buntdb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache for %s: %w", symbol, err)
	}

	var result model.BacktestResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false, fmt.Errorf("decode cache for %s: %w", symbol, err)
	}
	return &result, true, nil
}

// Invalidate drops the cached result for a symbol. Missing keys are fine.
func (s *Store) Invalidate(symbol string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(resultPrefix + symbol)
		return err
	})
	if err == buntdb.ErrNotFound {
		return nil
	}
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Remove closes the cache and deletes its file.
func (s *Store) Remove() error {
	if err := s.db.Close(); err != nil {
		return err
	}
	if s.dbPath != ":memory:" {
		if err := os.Remove(s.dbPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
