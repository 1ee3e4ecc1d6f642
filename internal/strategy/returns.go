package strategy

import (
	"fmt"

	"crossover/internal/domain"
)

// Positions lags signals by one period. The first position is Flat.
func Positions(signals domain.Series[domain.Signal]) domain.Series[domain.Signal] {
	out := make(domain.Series[domain.Signal], len(signals))
	for i, s := range signals {
		out[i].Time = s.Time
		if i == 0 {
			out[i].Value = domain.Flat
			continue
		}
		out[i].Value = signals[i-1].Value
	}
	return out
}

// PeriodReturns returns the fractional change between consecutive prices.
// The first entry is NoPriorPeriod.
func PeriodReturns(prices domain.PriceSeries) domain.Series[domain.Measure] {
	out := make(domain.Series[domain.Measure], len(prices))
	for i, p := range prices {
		out[i].Time = p.Time
		if i == 0 {
			out[i].Value = domain.Undefined(domain.NoPriorPeriod)
			continue
		}
		out[i].Value = domain.Of(p.Value/prices[i-1].Value - 1)
	}
	return out
}

// StrategyReturns multiplies each position by the period return at the same
// timestamp. Where the period return is undefined the result is undefined
// with the same state.
func StrategyReturns(positions domain.Series[domain.Signal], returns domain.Series[domain.Measure]) (domain.Series[domain.Measure], error) {
	if err := domain.Aligned(positions, returns); err != nil {
		return nil, fmt.Errorf("strategy returns: %w", err)
	}

	out := make(domain.Series[domain.Measure], len(returns))
	for i, r := range returns {
		out[i].Time = r.Time
		if !r.Value.Defined() {
			out[i].Value = r.Value
			continue
		}
		out[i].Value = domain.Of(float64(positions[i].Value) * r.Value.Value)
	}
	return out, nil
}
