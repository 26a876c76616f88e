package strategies

import (
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/strategy"
)

// confluenceMinRR is restored post-hoc when the borrowed target is too
// close. This module is the one exception to the construct-then-never-touch
// rule for targets.
const confluenceMinRR = 1.8

// Confluence is the meta-module: it runs a fixed basket of the other
// modules against the same snapshot and blends their results through the
// combiner. It emits a signal only when several modules agree.
type Confluence struct {
	inner []strategy.Strategy
}

func NewConfluence() *Confluence {
	return &Confluence{
		inner: []strategy.Strategy{
			NewEMARibbon(),
			NewMACDCross(),
			NewRangeBreakout(),
			NewRSIDivergence(),
			NewVolumeSurge(),
		},
	}
}

func (*Confluence) ID() string                  { return "confluence" }
func (*Confluence) Name() string                { return "Confluence Composite" }
func (*Confluence) Category() strategy.Category { return strategy.CategorySwing }
func (*Confluence) Timeframes() []string        { return []string{"1h", "4h"} }

func (c *Confluence) Evaluate(in strategy.Input) model.Signal {
	results := make([]model.StrategyResult, 0, len(c.inner))
	directional := 0
	for _, s := range c.inner {
		sig := s.Evaluate(in)
		if !sig.Type.IsNeutral() {
			directional++
		}
		results = append(results, model.StrategyResult{
			ID:       s.ID(),
			Name:     s.Name(),
			Category: string(s.Category()),
			Signal:   sig,
		})
	}

	if directional < 2 {
		return model.Neutral("fewer than two modules agree on a direction")
	}

	out := strategy.Combine(results)
	if out.Type.IsNeutral() || !out.Complete() {
		return out
	}

	// restore the minimum reward:risk on the borrowed levels
	entry, stop, target := *out.Entry, *out.Stop, *out.Target
	if out.Type.IsLong() {
		risk := entry - stop
		if risk > 0 && target-entry < confluenceMinRR*risk {
			adjusted := entry + confluenceMinRR*risk
			out.Target = &adjusted
			out.Reasons = append(out.Reasons, "target widened to restore minimum reward:risk")
		}
	} else {
		risk := stop - entry
		if risk > 0 && entry-target < confluenceMinRR*risk {
			adjusted := entry - confluenceMinRR*risk
			if adjusted > 0 {
				out.Target = &adjusted
				out.Reasons = append(out.Reasons, "target widened to restore minimum reward:risk")
			}
		}
	}

	return out
}
