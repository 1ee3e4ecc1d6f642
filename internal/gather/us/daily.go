// Package us gathers daily bars for US equities into the local bar stores.
package us

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crossover/internal/domain"
	"crossover/internal/gather"
	"crossover/internal/marketdata"
	"crossover/internal/store"
	"crossover/internal/util"
)

var _ gather.Gatherer = (*DailyBarGatherer)(nil)

// DailyBarConfig holds the parameters of a DailyBarGatherer.
type DailyBarConfig struct {
	Symbols         []string
	StartDate       string // YYYY-MM-DD
	RateLimitPerMin int
	// ProgressDir holds the resume files, normally <DataDir>/us/daily.
	ProgressDir string
}

// DailyBarGatherer fetches adjusted daily bars for a fixed symbol list and
// writes them to every configured store. An incremental fetch resumes after
// the oldest last bar across the stores.
type DailyBarGatherer struct {
	source  marketdata.BarSource
	stores  []store.BarStore
	cfg     DailyBarConfig
	limiter *util.RateLimiter
	endDay  func(ctx context.Context) (time.Time, error)
	log     *slog.Logger
}

// NewDailyBarGatherer creates a gatherer reading from source. endDay returns
// the last finished session to gather up to.
func NewDailyBarGatherer(source marketdata.BarSource, stores []store.BarStore, cfg DailyBarConfig, endDay func(ctx context.Context) (time.Time, error)) *DailyBarGatherer {
	return &DailyBarGatherer{
		source:  source,
		stores:  stores,
		cfg:     cfg,
		limiter: util.NewRateLimiter(cfg.RateLimitPerMin),
		endDay:  endDay,
		log:     slog.Default().With("gatherer", "us-daily"),
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "us-daily" }

// Run gathers every symbol up to the latest finished session. It is
// resumable and idempotent within a day. Symbols that fail are logged and
// skipped; the day is only marked complete when none failed.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	if len(g.stores) == 0 {
		return fmt.Errorf("no bar stores configured")
	}
	start, err := time.Parse(time.DateOnly, g.cfg.StartDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", g.cfg.StartDate, err)
	}

	// 1. Determine end date.
	endDate, err := g.endDay(ctx)
	if err != nil {
		return fmt.Errorf("determining end date: %w", err)
	}
	endDateStr := endDate.Format(time.DateOnly)

	// 2. Set up progress tracker.
	tracker, err := newProgressTracker(g.cfg.ProgressDir)
	if err != nil {
		return fmt.Errorf("creating progress tracker: %w", err)
	}
	defer tracker.Close()

	// 3. Check idempotency.
	if tracker.IsCompleted(endDateStr) {
		g.log.Info("already completed", "endDate", endDateStr)
		return nil
	}

	// 4. New day vs resume.
	if last := tracker.LastCompleted(); last != "" && last != endDateStr {
		if err := tracker.Reset(); err != nil {
			return fmt.Errorf("resetting tracker: %w", err)
		}
	}

	var remaining []string
	for _, sym := range g.cfg.Symbols {
		if !tracker.IsDone(sym) {
			remaining = append(remaining, sym)
		}
	}
	g.log.Info("starting us-daily",
		"endDate", endDateStr,
		"total", len(g.cfg.Symbols),
		"remaining", len(remaining),
	)

	var (
		failed   int
		written  int
		runStart = time.Now()
	)
	for i, sym := range remaining {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		n, err := g.gatherSymbol(ctx, sym, start, endDate)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			g.log.Error("symbol failed", "symbol", sym, "err", err)
			continue
		}
		written += n
		if err := tracker.MarkDone(sym); err != nil {
			g.log.Error("marking done failed", "symbol", sym, "err", err)
		}

		g.log.Info("symbol done",
			"symbol", sym,
			"progress", fmt.Sprintf("%d/%d", i+1, len(remaining)),
			"bars", n,
			"elapsed", time.Since(runStart).Round(time.Second),
		)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d symbols failed", failed, len(remaining))
	}

	// 5. Mark completed.
	if err := tracker.MarkCompleted(endDateStr); err != nil {
		return fmt.Errorf("marking completed: %w", err)
	}

	g.log.Info("complete",
		"bars", written,
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return nil
}

// gatherSymbol fetches the bars of sym after the earliest last bar held by
// any store and writes them to every store, so a store added later is
// backfilled.
func (g *DailyBarGatherer) gatherSymbol(ctx context.Context, sym string, start, end time.Time) (int, error) {
	from, err := g.resumeFrom(ctx, sym, start, end)
	if err != nil {
		return 0, err
	}
	if from.After(end) {
		return 0, nil
	}

	bars, err := g.source.Bars(ctx, sym, from, end)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, nil
	}
	for _, s := range g.stores {
		if err := s.WriteBars(ctx, domain.MarketUS, bars); err != nil {
			return 0, fmt.Errorf("writing bars: %w", err)
		}
	}
	return len(bars), nil
}

// resumeFrom returns the day after the oldest "last stored bar" across all
// stores. A store with no bars for sym resumes from start.
func (g *DailyBarGatherer) resumeFrom(ctx context.Context, sym string, start, end time.Time) (time.Time, error) {
	var from time.Time
	for i, s := range g.stores {
		existing, err := s.ReadBars(ctx, sym, domain.MarketUS, start, end)
		if err != nil {
			return time.Time{}, fmt.Errorf("reading existing bars: %w", err)
		}
		next := start
		if n := len(existing); n > 0 {
			y, m, d := existing[n-1].Timestamp.Date()
			next = time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
		}
		if i == 0 || next.Before(from) {
			from = next
		}
		if !from.After(start) {
			break
		}
	}
	return from, nil
}
