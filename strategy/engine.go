package strategy

import (
	"fmt"
	"time"

	"github.com/StudioSol/set"
	"github.com/samber/lo"

	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/tools/log"
)

// Config controls one engine pass. A nil Enabled set runs every registered
// strategy. MinStrength filters weak signals from the result list after
// they have been tallied into the consensus.
type Config struct {
	Enabled     *set.LinkedHashSetString
	MinStrength float64
}

// Fault records a strategy whose evaluation panicked. The strategy is
// skipped for the snapshot; the run continues.
type Fault struct {
	StrategyID string
	Err        error
}

// Result is the output of one engine pass over a snapshot.
type Result struct {
	Results   []model.StrategyResult
	Consensus model.Consensus
	Strongest *model.StrategyResult
	Faults    []Fault
}

// Evaluate runs every enabled strategy in registration order against the
// same immutable snapshot. Weak signals are filtered from Results but still
// move the consensus counters: a weak-but-directional signal is evidence
// even when it is not actionable. Strongest is the first non-neutral result
// holding the strictly highest strength, so earlier-registered strategies
// win ties.
func Evaluate(reg *Registry, in Input, cfg Config) Result {
	out := Result{}

	for _, s := range reg.Strategies() {
		if cfg.Enabled != nil && !cfg.Enabled.InArray(s.ID()) {
			continue
		}

		signal, err := safeEvaluate(s, in)
		if err != nil {
			log.WithField("strategy", s.ID()).Warnf("strategy evaluation failed, skipping: %v", err)
			out.Faults = append(out.Faults, Fault{StrategyID: s.ID(), Err: err})
			continue
		}

		switch {
		case signal.Type.IsLong():
			out.Consensus.Bullish++
		case signal.Type.IsShort():
			out.Consensus.Bearish++
		default:
			out.Consensus.Neutral++
		}

		result := model.StrategyResult{
			ID:        s.ID(),
			Name:      s.Name(),
			Category:  string(s.Category()),
			Signal:    signal,
			Timestamp: snapshotTime(in),
		}
		out.Results = append(out.Results, result)

		if !signal.Type.IsNeutral() &&
			(out.Strongest == nil || signal.Strength > out.Strongest.Signal.Strength) {
			r := result
			out.Strongest = &r
		}
	}

	out.Results = lo.Filter(out.Results, func(r model.StrategyResult, _ int) bool {
		return r.Signal.Strength >= cfg.MinStrength
	})

	return out
}

// snapshotTime pins result timestamps to the snapshot's last candle so two
// passes over identical input produce identical output.
func snapshotTime(in Input) time.Time {
	if len(in.Candles) > 0 {
		return in.Candles[len(in.Candles)-1].Time
	}
	return time.Time{}
}

func safeEvaluate(s Strategy, in Input) (signal model.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", s.ID(), r)
		}
	}()
	return s.Evaluate(in), nil
}
