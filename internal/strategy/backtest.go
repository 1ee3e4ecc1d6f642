package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crossover/internal/domain"
)

// Accumulate returns the running sum of series starting from zero. Undefined
// entries contribute zero and do not reset the total.
func Accumulate(series domain.Series[domain.Measure]) domain.Series[float64] {
	out := make(domain.Series[float64], len(series))
	var total float64
	for i, p := range series {
		total += p.Value.OrZero()
		out[i] = domain.Point[float64]{Time: p.Time, Value: total}
	}
	return out
}

// CumulativeReturns accumulates the buy-and-hold period returns and the
// strategy returns. Both outputs have the length of the inputs.
func CumulativeReturns(returns, strategyReturns domain.Series[domain.Measure]) (buyHold, strat domain.Series[float64], err error) {
	if err := domain.Aligned(returns, strategyReturns); err != nil {
		return nil, nil, fmt.Errorf("cumulative returns: %w", err)
	}
	return Accumulate(returns), Accumulate(strategyReturns), nil
}

// Bundle is the full set of series computed for one window length.
type Bundle struct {
	Window   int    `json:"window"`
	Sequence int    `json:"sequence"` // index of the producing entry in the window list
	Rule     string `json:"rule"`

	MovingAverage      domain.Series[domain.Measure] `json:"moving_average"`
	Signals            domain.Series[domain.Signal]  `json:"signals"`
	Positions          domain.Series[domain.Signal]  `json:"positions"`
	Returns            domain.Series[domain.Measure] `json:"returns"`
	StrategyReturns    domain.Series[domain.Measure] `json:"strategy_returns"`
	CumulativeBuyHold  domain.Series[float64]        `json:"cumulative_buy_hold"`
	CumulativeStrategy domain.Series[float64]        `json:"cumulative_strategy"`
}

// FinalStrategy returns the last cumulative strategy return.
func (b *Bundle) FinalStrategy() float64 {
	p, _ := b.CumulativeStrategy.Last()
	return p.Value
}

// FinalBuyAndHold returns the last cumulative buy-and-hold return.
func (b *Bundle) FinalBuyAndHold() float64 {
	p, _ := b.CumulativeBuyHold.Last()
	return p.Value
}

// Evaluate runs the full pipeline for one window over prices.
func Evaluate(prices domain.PriceSeries, window int, rule Rule) (*Bundle, error) {
	if err := domain.ValidatePrices(prices); err != nil {
		return nil, err
	}
	ma, err := MovingAverage(prices, window)
	if err != nil {
		return nil, err
	}
	signals, err := Signals(prices, ma, window, rule)
	if err != nil {
		return nil, err
	}
	positions := Positions(signals)
	returns := PeriodReturns(prices)
	strat, err := StrategyReturns(positions, returns)
	if err != nil {
		return nil, err
	}
	buyHold, cumStrat, err := CumulativeReturns(returns, strat)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Window:             window,
		Rule:               rule.Name(),
		MovingAverage:      ma,
		Signals:            signals,
		Positions:          positions,
		Returns:            returns,
		StrategyReturns:    strat,
		CumulativeBuyHold:  buyHold,
		CumulativeStrategy: cumStrat,
	}, nil
}

// PriceSource supplies a price series for a symbol over an inclusive date
// range.
type PriceSource interface {
	PriceSeries(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)
}

// Backtester loads prices from a source and runs a named rule over a list of
// window lengths.
type Backtester struct {
	source   PriceSource
	registry *Registry
	parallel int
	log      *slog.Logger
}

// NewBacktester creates a Backtester that reads prices from source and looks
// up rules in the provided registry. parallel bounds concurrent window runs;
// values below 2 run sequentially.
func NewBacktester(source PriceSource, registry *Registry, parallel int, log *slog.Logger) *Backtester {
	if log == nil {
		log = slog.Default()
	}
	return &Backtester{
		source:   source,
		registry: registry,
		parallel: parallel,
		log:      log.With("component", "backtester"),
	}
}

// Run loads the price series for symbol in [start, end] and evaluates every
// window with the named rule.
func (bt *Backtester) Run(ctx context.Context, ruleName, symbol string, start, end time.Time, windows []int) (*ResultSet, error) {
	rule, ok := bt.registry.Get(ruleName)
	if !ok {
		return nil, fmt.Errorf("unknown rule %q (have %v)", ruleName, bt.registry.List())
	}

	prices, err := bt.source.PriceSeries(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading prices for %s: %w", symbol, err)
	}
	bt.log.Info("prices loaded",
		"symbol", symbol,
		"points", len(prices),
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
	)

	runner := NewRunner(rule, bt.parallel, bt.log)
	return runner.Run(ctx, prices, windows)
}
