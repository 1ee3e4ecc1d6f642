// Package store persists daily bars so that backtests can run without
// refetching market data.
package store

import (
	"context"
	"time"

	"crossover/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars under market. Bars that share a
	// symbol and timestamp with stored bars replace them.
	WriteBars(ctx context.Context, market domain.Market, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol and market whose dates fall
	// within [start, end], ordered by timestamp.
	ReadBars(ctx context.Context, symbol string, market domain.Market, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the given market.
	ListSymbols(ctx context.Context, market domain.Market) ([]string, error)
}

// dayBounds turns an inclusive date range into a half-open instant range
// [lo, hi). Daily bars are stamped at the session's local midnight, which
// falls a few hours into the UTC day.
func dayBounds(start, end time.Time) (lo, hi time.Time) {
	y, m, d := start.Date()
	lo = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = end.Date()
	hi = time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return lo, hi
}
