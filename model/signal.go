package model

import "time"

// SignalType classifies one strategy verdict.
type SignalType string

const (
	SignalStrongLong  SignalType = "STRONG_LONG"
	SignalLong        SignalType = "LONG"
	SignalNeutral     SignalType = "NEUTRAL"
	SignalShort       SignalType = "SHORT"
	SignalStrongShort SignalType = "STRONG_SHORT"
)

// Direction is the side of a trade.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

func (t SignalType) IsLong() bool {
	return t == SignalLong || t == SignalStrongLong
}

func (t SignalType) IsShort() bool {
	return t == SignalShort || t == SignalStrongShort
}

func (t SignalType) IsNeutral() bool {
	return t == SignalNeutral
}

// Direction maps a non-neutral signal type to its trade side.
// Neutral signals have no direction; callers must check IsNeutral first.
func (t SignalType) Direction() Direction {
	if t.IsShort() {
		return DirectionShort
	}
	return DirectionLong
}

// Signal is the output of one strategy evaluation. Entry, Stop and Target
// are set together and only when Type is not NEUTRAL. For a long,
// Stop < Entry < Target; for a short, Target < Entry < Stop.
type Signal struct {
	Type     SignalType `json:"type"`
	Strength float64    `json:"strength"`
	Entry    *float64   `json:"entry,omitempty"`
	Stop     *float64   `json:"stop,omitempty"`
	Target   *float64   `json:"target,omitempty"`
	Reasons  []string   `json:"reasons"`
}

// Neutral builds a zero-strength neutral signal carrying the given reasons.
func Neutral(reasons ...string) Signal {
	return Signal{Type: SignalNeutral, Strength: 0, Reasons: reasons}
}

// Complete reports whether entry, stop and target are all present.
func (s Signal) Complete() bool {
	return s.Entry != nil && s.Stop != nil && s.Target != nil
}

// StrategyResult pairs a strategy's identity with the signal it produced
// for one snapshot.
type StrategyResult struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Signal    Signal    `json:"signal"`
	Timestamp time.Time `json:"timestamp"`
}

// Consensus tallies signal families across one engine pass. Weak signals
// filtered from the result list still count here.
type Consensus struct {
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
	Neutral int `json:"neutral"`
}
