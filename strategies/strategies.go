package strategies

import "github.com/quantforge/tradecore/strategy"

// All returns the built-in strategies in their canonical registration
// order. The order is observable behavior: consensus tie-breaks and
// simulator entry priority both follow it, so it must stay stable.
func All() []strategy.Strategy {
	return []strategy.Strategy{
		NewEMARibbon(),
		NewPullbackContinuation(),
		NewMACDCross(),
		NewGoldenCross(),
		NewRangeBreakout(),
		NewRangeFade(),
		NewRSIDivergence(),
		NewVolumeSurge(),
		NewConfluence(),
	}
}

// NewDefaultRegistry wraps All in an immutable registry.
func NewDefaultRegistry() (*strategy.Registry, error) {
	return strategy.NewRegistry(All()...)
}
