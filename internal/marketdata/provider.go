// Package marketdata supplies adjusted daily price series to the backtester.
// Providers read from the Alpaca data API, from a local bar store, or from
// the store with an upstream fallback.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	"crossover/internal/domain"
)

// Provider supplies a price series for a symbol over an inclusive date range.
// Timestamps are strictly increasing; calendar gaps are left as they are.
type Provider interface {
	Name() string
	PriceSeries(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)
}

// BarSource fetches raw daily bars over an inclusive date range.
type BarSource interface {
	Bars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// SeriesFromBars converts bars into a close-price series. Bars are sorted by
// timestamp first; two bars with the same timestamp are a misalignment.
func SeriesFromBars(bars []domain.Bar) (domain.PriceSeries, error) {
	if len(bars) == 0 {
		return nil, domain.ErrEmptySeries
	}

	sorted := make([]domain.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	points := make(domain.PriceSeries, len(sorted))
	for i, b := range sorted {
		points[i] = domain.Point[float64]{Time: b.Timestamp, Value: b.Close}
	}
	series, err := domain.NewPriceSeries(points)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sorted[0].Symbol, err)
	}
	return series, nil
}
