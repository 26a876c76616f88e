package strategy

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/quantforge/tradecore/model"
)

// Combiner thresholds are wider than any single module's: several agreeing
// strategies are needed before the blend turns directional.
const (
	combineEntryScore  = 1.0
	combineStrongScore = 2.0
)

// Combine blends multiple strategy results into one aggregate signal.
// Each result is weighted by strength/100 and summed per direction; the
// net score maps through the combiner's own thresholds. Entry, stop and
// target are borrowed from the strongest contributor on the winning side.
func Combine(results []model.StrategyResult) model.Signal {
	if len(results) == 0 {
		return model.Neutral("no strategy results to combine")
	}

	var bull, bear float64
	for _, r := range results {
		w := r.Signal.Strength / 100
		switch {
		case r.Signal.Type.IsLong():
			bull += w
		case r.Signal.Type.IsShort():
			bear += w
		}
	}

	net := bull - bear
	mag := net
	if mag < 0 {
		mag = -mag
	}

	if mag < combineEntryScore {
		return model.Neutral(fmt.Sprintf("no directional agreement (bull %.2f vs bear %.2f)", bull, bear))
	}

	long := net > 0
	lead := strongestOnSide(results, long)
	if lead == nil || !lead.Signal.Complete() {
		return model.Neutral("no complete signal on the winning side")
	}

	strength := mag * 35
	if strength > 100 {
		strength = 100
	}

	sigType := model.SignalLong
	if mag >= combineStrongScore {
		sigType = model.SignalStrongLong
	}
	if !long {
		sigType = model.SignalShort
		if mag >= combineStrongScore {
			sigType = model.SignalStrongShort
		}
	}

	contributors := lo.FilterMap(results, func(r model.StrategyResult, _ int) (string, bool) {
		if long && r.Signal.Type.IsLong() || !long && r.Signal.Type.IsShort() {
			return r.ID, true
		}
		return "", false
	})

	reasons := []string{
		fmt.Sprintf("net score %.2f (bull %.2f, bear %.2f)", net, bull, bear),
		fmt.Sprintf("agreeing strategies: %v", contributors),
	}

	return model.Signal{
		Type:     sigType,
		Strength: strength,
		Entry:    lead.Signal.Entry,
		Stop:     lead.Signal.Stop,
		Target:   lead.Signal.Target,
		Reasons:  reasons,
	}
}

func strongestOnSide(results []model.StrategyResult, long bool) *model.StrategyResult {
	var best *model.StrategyResult
	for i := range results {
		r := &results[i]
		if long && !r.Signal.Type.IsLong() || !long && !r.Signal.Type.IsShort() {
			continue
		}
		if best == nil || r.Signal.Strength > best.Signal.Strength {
			best = r
		}
	}
	return best
}
