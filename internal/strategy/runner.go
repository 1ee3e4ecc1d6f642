package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"crossover/internal/domain"
)

// Runner evaluates the pipeline once per configured window length. Every run
// works on its own copy of the price series.
type Runner struct {
	rule     Rule
	parallel int
	log      *slog.Logger

	// evaluate is swapped in tests.
	evaluate func(prices domain.PriceSeries, window int, rule Rule) (*Bundle, error)
}

// NewRunner creates a Runner for rule. parallel bounds the number of windows
// evaluated concurrently; values below 2 run sequentially.
func NewRunner(rule Rule, parallel int, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		rule:     rule,
		parallel: parallel,
		log:      log.With("component", "runner"),
		evaluate: Evaluate,
	}
}

// Run evaluates every window in order and collects the bundles into a
// ResultSet. Duplicate windows overwrite earlier entries following list
// order. An invalid price series or the first invalid window aborts the run
// before anything is computed.
func (r *Runner) Run(ctx context.Context, prices domain.PriceSeries, windows []int) (*ResultSet, error) {
	if err := domain.ValidatePrices(prices); err != nil {
		return nil, fmt.Errorf("price series: %w", err)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows configured: %w", domain.ErrInvalidWindow)
	}
	if r.rule == nil {
		return nil, errors.New("runner: nil rule")
	}
	for i, w := range windows {
		if err := validateWindow(w, len(prices)); err != nil {
			return nil, fmt.Errorf("window #%d: %w", i, err)
		}
	}

	var (
		bundles []*Bundle
		err     error
	)
	if r.parallel > 1 {
		bundles, err = r.runParallel(ctx, prices, windows)
	} else {
		bundles, err = r.runSequential(ctx, prices, windows)
	}
	if err != nil {
		return nil, err
	}

	rs := newResultSet()
	for _, b := range bundles {
		rs.put(b)
		r.log.Debug("window done",
			"window", b.Window,
			"sequence", b.Sequence,
			"strategy", b.FinalStrategy(),
			"buyHold", b.FinalBuyAndHold(),
		)
	}
	r.log.Info("run complete", "windows", len(windows), "distinct", rs.Len(), "rule", r.rule.Name())
	return rs, nil
}

func (r *Runner) runSequential(ctx context.Context, prices domain.PriceSeries, windows []int) ([]*Bundle, error) {
	bundles := make([]*Bundle, len(windows))
	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := r.evaluate(prices.Clone(), w, r.rule)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", w, err)
		}
		b.Sequence = i
		bundles[i] = b
	}
	return bundles, nil
}

// runParallel fills one slot per list entry so aggregation keeps list order
// regardless of completion order. The reported error belongs to the lowest
// failing index.
func (r *Runner) runParallel(ctx context.Context, prices domain.PriceSeries, windows []int) ([]*Bundle, error) {
	bundles := make([]*Bundle, len(windows))
	errs := make([]error, len(windows))

	// A failing run does not cancel its siblings; every failing index is
	// recorded.
	var g errgroup.Group
	g.SetLimit(r.parallel)
	for i, w := range windows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := r.evaluate(prices.Clone(), w, r.rule)
			if err != nil {
				errs[i] = fmt.Errorf("window %d: %w", w, err)
				return errs[i]
			}
			b.Sequence = i
			bundles[i] = b
			return nil
		})
	}
	waitErr := g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return bundles, nil
}

// ---------------------------------------------------------------------------
// ResultSet
// ---------------------------------------------------------------------------

// ResultSet maps window lengths to their computed bundles.
type ResultSet struct {
	bundles map[int]*Bundle
	last    *Bundle
}

func newResultSet() *ResultSet {
	return &ResultSet{bundles: make(map[int]*Bundle)}
}

// put stores b under its window, replacing any earlier bundle for the same
// window.
func (rs *ResultSet) put(b *Bundle) {
	rs.bundles[b.Window] = b
	rs.last = b
}

// Get returns the bundle for window.
func (rs *ResultSet) Get(window int) (*Bundle, bool) {
	b, ok := rs.bundles[window]
	return b, ok
}

// Len returns the number of distinct windows.
func (rs *ResultSet) Len() int { return len(rs.bundles) }

// Windows returns the distinct window lengths in ascending order.
func (rs *ResultSet) Windows() []int {
	out := make([]int, 0, len(rs.bundles))
	for w := range rs.bundles {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// Bundles returns the bundles ordered by window length.
func (rs *ResultSet) Bundles() []*Bundle {
	ws := rs.Windows()
	out := make([]*Bundle, len(ws))
	for i, w := range ws {
		out[i] = rs.bundles[w]
	}
	return out
}

// Last returns the bundle produced by the last entry of the window list.
func (rs *ResultSet) Last() *Bundle { return rs.last }

// FinalBuyAndHold returns the final cumulative buy-and-hold return of the
// last processed bundle. The baseline does not depend on the window.
func (rs *ResultSet) FinalBuyAndHold() float64 {
	if rs.last == nil {
		return 0
	}
	return rs.last.FinalBuyAndHold()
}

// FinalStrategy returns the final cumulative strategy return per window.
func (rs *ResultSet) FinalStrategy() map[int]float64 {
	out := make(map[int]float64, len(rs.bundles))
	for w, b := range rs.bundles {
		out[w] = b.FinalStrategy()
	}
	return out
}

// MarshalJSON encodes the bundles ordered by window along with the final
// buy-and-hold return.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		FinalBuyAndHold float64   `json:"final_buy_and_hold"`
		Summaries       []Summary `json:"summaries"`
		Windows         []*Bundle `json:"windows"`
	}{
		FinalBuyAndHold: rs.FinalBuyAndHold(),
		Summaries:       rs.Summaries(),
		Windows:         rs.Bundles(),
	})
}
