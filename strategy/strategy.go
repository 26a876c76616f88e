// Package strategy defines the pluggable strategy contract, the ordered
// registry and the evaluation engine that runs every registered strategy
// against one market snapshot.
package strategy

import (
	"fmt"

	"github.com/quantforge/tradecore/indicator"
	"github.com/quantforge/tradecore/model"
)

// Category groups strategies by trading style.
type Category string

const (
	CategorySwing    Category = "swing"
	CategoryScalp    Category = "scalp"
	CategoryBreakout Category = "breakout"
	CategoryReversal Category = "reversal"
)

// Input is the immutable market snapshot one evaluation sees: the candle
// history up to and including the current bar, the derived indicator set
// and the timeframe the candles were sampled at.
type Input struct {
	Symbol     string
	Price      float64
	Candles    []model.Candle
	Indicators *indicator.Set
	Timeframe  string
}

// Strategy is one scoring module. Evaluate must be a pure function of its
// input: no hidden state, no I/O, and internal faults degrade to a neutral
// signal instead of escaping.
type Strategy interface {
	ID() string
	Name() string
	Category() Category
	Timeframes() []string
	Evaluate(Input) model.Signal
}

// Registry is an immutable, ordered list of strategies. Order is part of
// the observable contract: consensus tie-breaks and simulator entry order
// follow registration order.
type Registry struct {
	list []Strategy
	byID map[string]Strategy
}

// NewRegistry builds a registry from the given strategies, rejecting
// duplicate ids.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	reg := &Registry{
		list: make([]Strategy, 0, len(strategies)),
		byID: make(map[string]Strategy, len(strategies)),
	}

	for _, s := range strategies {
		if s == nil {
			return nil, fmt.Errorf("nil strategy in registry")
		}
		if _, dup := reg.byID[s.ID()]; dup {
			return nil, fmt.Errorf("duplicate strategy id %q", s.ID())
		}
		reg.list = append(reg.list, s)
		reg.byID[s.ID()] = s
	}

	return reg, nil
}

// Strategies returns the registered strategies in registration order.
// Callers must not mutate the returned slice.
func (r *Registry) Strategies() []Strategy {
	return r.list
}

// Get looks a strategy up by id.
func (r *Registry) Get(id string) (Strategy, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Len reports the number of registered strategies.
func (r *Registry) Len() int {
	return len(r.list)
}
