package strategy

import (
	"fmt"

	"crossover/internal/domain"
)

// MovingAverage returns the simple moving average of prices over window.
// Entries before index window-1 are InsufficientHistory.
func MovingAverage(prices domain.PriceSeries, window int) (domain.Series[domain.Measure], error) {
	if err := validateWindow(window, len(prices)); err != nil {
		return nil, err
	}

	out := make(domain.Series[domain.Measure], len(prices))
	for i, p := range prices {
		out[i].Time = p.Time
		if i < window-1 {
			out[i].Value = domain.Undefined(domain.InsufficientHistory)
			continue
		}
		out[i].Value = domain.Of(mean(prices[i-window+1 : i+1]))
	}
	return out, nil
}

// mean averages the deviations from the first value, so a flat window
// averages to exactly its price.
func mean(points domain.PriceSeries) float64 {
	base := points[0].Value
	var dev float64
	for _, p := range points {
		dev += p.Value - base
	}
	return base + dev/float64(len(points))
}

func validateWindow(window, n int) error {
	if n == 0 {
		return domain.ErrEmptySeries
	}
	if window <= 0 {
		return fmt.Errorf("window %d must be positive: %w", window, domain.ErrInvalidWindow)
	}
	if window > n {
		return fmt.Errorf("window %d exceeds series length %d: %w", window, n, domain.ErrInvalidWindow)
	}
	return nil
}
