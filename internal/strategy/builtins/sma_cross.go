// Package builtins provides the signal rules that ship with the crossover
// backtester.
package builtins

import (
	"crossover/internal/domain"
	"crossover/internal/strategy"
)

// Compile-time interface checks.
var _ strategy.Rule = MeanReversion{}
var _ strategy.Rule = TrendFollowing{}

// DefaultRule is the name of the rule used when none is configured.
const DefaultRule = "sma-mean-reversion"

// MeanReversion goes long when the moving average is strictly above the
// price and short otherwise. A price equal to its average is short.
//
// This is a buy-the-dip rule, the reverse of a trend-following crossover.
type MeanReversion struct{}

// Name returns "sma-mean-reversion".
func (MeanReversion) Name() string { return DefaultRule }

// Classify returns Long when average > price, Short otherwise.
func (MeanReversion) Classify(price, average float64) domain.Signal {
	if average > price {
		return domain.Long
	}
	return domain.Short
}

// TrendFollowing goes long when the price is strictly above its moving
// average and short otherwise.
type TrendFollowing struct{}

// Name returns "sma-trend".
func (TrendFollowing) Name() string { return "sma-trend" }

// Classify returns Long when price > average, Short otherwise.
func (TrendFollowing) Classify(price, average float64) domain.Signal {
	if price > average {
		return domain.Long
	}
	return domain.Short
}

// Register adds every built-in rule to r.
func Register(r *strategy.Registry) {
	r.Register(MeanReversion{})
	r.Register(TrendFollowing{})
}

// NewRegistry returns a Registry holding every built-in rule.
func NewRegistry() *strategy.Registry {
	r := strategy.NewRegistry()
	Register(r)
	return r
}
