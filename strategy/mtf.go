package strategy

import "github.com/quantforge/tradecore/model"

// Strength adjustments applied by timeframe confirmation.
const (
	confirmBoost   = 15
	confirmPenalty = 20
)

// ConfirmTimeframes blends a strategy's primary-timeframe signal with its
// independent higher-timeframe evaluation of the same instant:
//
//   - same non-neutral direction on both: strength boosted by 15 (capped at 100)
//   - opposite non-neutral directions: the signal is voided entirely
//   - directional primary, neutral higher: strength reduced by 20 (floored at 0)
//   - neutral primary: passed through unchanged
//
// Only type and strength are ever adjusted; entry, stop and target from the
// primary evaluation are preserved.
func ConfirmTimeframes(primary, higher model.Signal) model.Signal {
	if primary.Type.IsNeutral() {
		return primary
	}

	out := primary

	switch {
	case sameDirection(primary.Type, higher.Type):
		out.Strength = primary.Strength + confirmBoost
		if out.Strength > 100 {
			out.Strength = 100
		}
		out.Reasons = append(append([]string{}, primary.Reasons...), "higher timeframe agrees")

	case oppositeDirection(primary.Type, higher.Type):
		return model.Neutral("higher timeframe conflicts with signal direction")

	default: // higher timeframe is neutral
		out.Strength = primary.Strength - confirmPenalty
		if out.Strength < 0 {
			out.Strength = 0
		}
		out.Reasons = append(append([]string{}, primary.Reasons...), "higher timeframe not confirming")
	}

	return out
}

func sameDirection(a, b model.SignalType) bool {
	return a.IsLong() && b.IsLong() || a.IsShort() && b.IsShort()
}

func oppositeDirection(a, b model.SignalType) bool {
	return a.IsLong() && b.IsShort() || a.IsShort() && b.IsLong()
}
