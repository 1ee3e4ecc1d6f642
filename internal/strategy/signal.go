package strategy

import (
	"errors"
	"fmt"
	"time"

	"crossover/internal/domain"
)

// Signals classifies each price against its moving average using rule.
// Indices below window are Flat; from window onward the rule decides.
func Signals(prices domain.PriceSeries, ma domain.Series[domain.Measure], window int, rule Rule) (domain.Series[domain.Signal], error) {
	if rule == nil {
		return nil, errors.New("signals: nil rule")
	}
	if err := validateWindow(window, len(prices)); err != nil {
		return nil, err
	}
	if err := domain.Aligned(prices, ma); err != nil {
		return nil, fmt.Errorf("signals: %w", err)
	}

	out := make(domain.Series[domain.Signal], len(prices))
	for i, p := range prices {
		out[i].Time = p.Time
		if i < window {
			out[i].Value = domain.Flat
			continue
		}
		avg := ma[i].Value
		if !avg.Defined() {
			return nil, fmt.Errorf("signals: moving average undefined at %s: %w",
				p.Time.Format(time.DateOnly), domain.ErrMisalignedSeries)
		}
		out[i].Value = rule.Classify(p.Value, avg.Value)
	}
	return out, nil
}
