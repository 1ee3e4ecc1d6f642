package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crossover/internal/domain"
	"crossover/internal/store"
	"crossover/internal/util"
)

var (
	_ Provider = (*StoreProvider)(nil)
	_ Provider = (*CachingProvider)(nil)
)

// StoreProvider reads price series from a local bar store.
type StoreProvider struct {
	name   string
	store  store.BarStore
	market domain.Market
}

// NewStoreProvider creates a provider over s. name identifies the backing
// store in logs.
func NewStoreProvider(name string, s store.BarStore, market domain.Market) *StoreProvider {
	return &StoreProvider{name: name, store: s, market: market}
}

// Name returns the provider identifier.
func (p *StoreProvider) Name() string { return p.name }

// PriceSeries returns the cached close series of symbol over [start, end].
// A symbol with no cached bars yields ErrEmptySeries.
func (p *StoreProvider) PriceSeries(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	bars, err := p.store.ReadBars(ctx, symbol, p.market, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", symbol, p.name, err)
	}
	return SeriesFromBars(bars)
}

// CachingProvider serves series from a bar store and, when the store does not
// cover the requested range, fetches from upstream and writes the bars
// through before answering.
type CachingProvider struct {
	store    store.BarStore
	upstream BarSource
	market   domain.Market
	calendar *util.TradingCalendar
	now      func() time.Time
	log      *slog.Logger
}

// NewCachingProvider creates a write-through cache in front of upstream.
func NewCachingProvider(s store.BarStore, upstream BarSource, market domain.Market) *CachingProvider {
	return &CachingProvider{
		store:    s,
		upstream: upstream,
		market:   market,
		calendar: util.NewTradingCalendar(market),
		now:      time.Now,
		log:      slog.Default().With("provider", "cached"),
	}
}

// Name returns the provider identifier.
func (p *CachingProvider) Name() string { return "cached" }

// PriceSeries returns the close series of symbol over [start, end].
func (p *CachingProvider) PriceSeries(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	cached, err := p.store.ReadBars(ctx, symbol, p.market, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading cache for %s: %w", symbol, err)
	}
	if p.covers(cached, start, end) {
		p.log.Debug("cache hit", "symbol", symbol, "bars", len(cached))
		return SeriesFromBars(cached)
	}

	p.log.Info("cache miss", "symbol", symbol, "cached", len(cached),
		"start", start.Format(time.DateOnly), "end", end.Format(time.DateOnly))
	fetched, err := p.upstream.Bars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(fetched) > 0 {
		if err := p.store.WriteBars(ctx, p.market, fetched); err != nil {
			return nil, fmt.Errorf("caching %s: %w", symbol, err)
		}
	}
	return SeriesFromBars(fetched)
}

// covers reports whether bars span the first and last expected sessions of
// [start, end]. The end is clamped to yesterday since today's bar may still
// be forming. Exchange holidays at either edge count as misses.
func (p *CachingProvider) covers(bars []domain.Bar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	if yesterday := dateOf(p.now()).AddDate(0, 0, -1); end.After(yesterday) {
		end = yesterday
	}
	first := p.calendar.NextSession(start)
	last := p.calendar.PrevSession(end)
	if last.Before(first) {
		// No session expected in the range.
		return true
	}

	lo, hi := bars[0].Timestamp, bars[0].Timestamp
	for _, b := range bars[1:] {
		if b.Timestamp.Before(lo) {
			lo = b.Timestamp
		}
		if b.Timestamp.After(hi) {
			hi = b.Timestamp
		}
	}
	return !dateOf(lo).After(first) && !dateOf(hi).Before(last)
}
