package strategy_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"crossover/internal/domain"
	"crossover/internal/strategy"
	"crossover/internal/strategy/builtins"
)

func series(values ...float64) domain.PriceSeries {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make(domain.PriceSeries, len(values))
	for i, v := range values {
		out[i] = domain.Point[float64]{Time: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

func defaultRule(t *testing.T) strategy.Rule {
	t.Helper()
	rule, ok := builtins.NewRegistry().Get(builtins.DefaultRule)
	if !ok {
		t.Fatalf("default rule %q not registered", builtins.DefaultRule)
	}
	return rule
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-12 }

func TestMovingAverageHandComputed(t *testing.T) {
	ma, err := strategy.MovingAverage(series(10, 12, 14, 16), 2)
	if err != nil {
		t.Fatalf("MovingAverage: %v", err)
	}
	if ma[0].Value.State != domain.InsufficientHistory {
		t.Errorf("ma[0] state = %v, want InsufficientHistory", ma[0].Value.State)
	}
	for i, want := range []float64{0, 11, 13, 15} {
		if i == 0 {
			continue
		}
		if !ma[i].Value.Defined() || ma[i].Value.Value != want {
			t.Errorf("ma[%d] = %+v, want %v", i, ma[i].Value, want)
		}
	}
}

func TestMovingAverageLeadingUndefined(t *testing.T) {
	prices := series(5, 6, 7, 8, 9, 10, 11, 12)
	for w := 1; w <= len(prices); w++ {
		ma, err := strategy.MovingAverage(prices, w)
		if err != nil {
			t.Fatalf("window %d: %v", w, err)
		}
		if len(ma) != len(prices) {
			t.Fatalf("window %d: len = %d, want %d", w, len(ma), len(prices))
		}
		for i := range ma {
			if i < w-1 {
				if ma[i].Value.Defined() {
					t.Errorf("window %d: ma[%d] defined, want undefined", w, i)
				}
				continue
			}
			var sum float64
			for _, p := range prices[i-w+1 : i+1] {
				sum += p.Value
			}
			if !almostEqual(ma[i].Value.Value, sum/float64(w)) {
				t.Errorf("window %d: ma[%d] = %v, want %v", w, i, ma[i].Value.Value, sum/float64(w))
			}
		}
	}
}

func TestPipelineErrors(t *testing.T) {
	prices := series(1, 2, 3)
	tests := []struct {
		name   string
		prices domain.PriceSeries
		window int
		want   error
	}{
		{"zero window", prices, 0, domain.ErrInvalidWindow},
		{"negative window", prices, -3, domain.ErrInvalidWindow},
		{"window beyond length", prices, 4, domain.ErrInvalidWindow},
		{"empty series", nil, 2, domain.ErrEmptySeries},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := strategy.MovingAverage(tc.prices, tc.window); !errors.Is(err, tc.want) {
				t.Errorf("MovingAverage error = %v, want %v", err, tc.want)
			}
			if _, err := strategy.Evaluate(tc.prices, tc.window, defaultRule(t)); !errors.Is(err, tc.want) {
				t.Errorf("Evaluate error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestInvalidPricesRejected(t *testing.T) {
	repeated := series(10, 11, 12, 13)
	repeated[2].Time = repeated[0].Time

	tests := []struct {
		name   string
		prices domain.PriceSeries
	}{
		{"zero price", series(0, 0, 1, 2)},
		{"negative price", series(3, -1, 2, 4)},
		{"NaN price", series(3, math.NaN(), 2, 4)},
		{"infinite price", series(3, math.Inf(1), 2, 4)},
		{"repeated timestamp", repeated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rs, err := strategy.NewRunner(defaultRule(t), 0, nil).Run(context.Background(), tc.prices, []int{1})
			if !errors.Is(err, domain.ErrMisalignedSeries) {
				t.Errorf("Runner.Run error = %v, want ErrMisalignedSeries", err)
			}
			if rs != nil {
				t.Error("Runner.Run returned a result set for invalid prices")
			}
			if _, err := strategy.Evaluate(tc.prices, 1, defaultRule(t)); !errors.Is(err, domain.ErrMisalignedSeries) {
				t.Errorf("Evaluate error = %v, want ErrMisalignedSeries", err)
			}
		})
	}
}

func TestSignalsFlatBeforeWindow(t *testing.T) {
	prices := series(10, 12, 14, 16)
	ma, _ := strategy.MovingAverage(prices, 2)
	signals, err := strategy.Signals(prices, ma, 2, defaultRule(t))
	if err != nil {
		t.Fatalf("Signals: %v", err)
	}
	want := []domain.Signal{domain.Flat, domain.Flat, domain.Short, domain.Short}
	for i, s := range signals {
		if s.Value != want[i] {
			t.Errorf("signal[%d] = %v, want %v", i, s.Value, want[i])
		}
	}
}

func TestSignalsMisaligned(t *testing.T) {
	prices := series(10, 12, 14, 16)
	ma, _ := strategy.MovingAverage(prices[:3], 2)
	if _, err := strategy.Signals(prices, ma, 2, defaultRule(t)); !errors.Is(err, domain.ErrMisalignedSeries) {
		t.Errorf("Signals error = %v, want ErrMisalignedSeries", err)
	}
}

func TestEvaluateDipSeries(t *testing.T) {
	b, err := strategy.Evaluate(series(10, 10, 8, 12, 9), 2, defaultRule(t))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	wantSignals := []domain.Signal{domain.Flat, domain.Flat, domain.Long, domain.Short, domain.Long}
	wantPositions := []domain.Signal{domain.Flat, domain.Flat, domain.Flat, domain.Long, domain.Short}
	wantStrategy := []float64{0, 0, 0, 0.5, 0.75}
	wantBuyHold := []float64{0, 0, -0.2, 0.3, 0.05}

	for i := range b.Signals {
		if b.Signals[i].Value != wantSignals[i] {
			t.Errorf("signal[%d] = %v, want %v", i, b.Signals[i].Value, wantSignals[i])
		}
		if b.Positions[i].Value != wantPositions[i] {
			t.Errorf("position[%d] = %v, want %v", i, b.Positions[i].Value, wantPositions[i])
		}
		if !almostEqual(b.CumulativeStrategy[i].Value, wantStrategy[i]) {
			t.Errorf("cumulative strategy[%d] = %v, want %v", i, b.CumulativeStrategy[i].Value, wantStrategy[i])
		}
		if !almostEqual(b.CumulativeBuyHold[i].Value, wantBuyHold[i]) {
			t.Errorf("cumulative buy-and-hold[%d] = %v, want %v", i, b.CumulativeBuyHold[i].Value, wantBuyHold[i])
		}
	}
	if b.StrategyReturns[0].Value.State != domain.NoPriorPeriod {
		t.Errorf("strategy return[0] state = %v, want NoPriorPeriod", b.StrategyReturns[0].Value.State)
	}
}

func TestPipelineProperties(t *testing.T) {
	prices := series(100, 101, 99, 98, 103, 104, 102, 97, 96, 101, 105, 107, 103, 100, 99, 102)
	for _, w := range []int{1, 2, 3, 5, 8, 16} {
		b, err := strategy.Evaluate(prices, w, defaultRule(t))
		if err != nil {
			t.Fatalf("window %d: %v", w, err)
		}

		if b.Positions[0].Value != domain.Flat {
			t.Errorf("window %d: position[0] = %v, want flat", w, b.Positions[0].Value)
		}
		for i := 1; i < len(b.Positions); i++ {
			if b.Positions[i].Value != b.Signals[i-1].Value {
				t.Errorf("window %d: position[%d] = %v, signal[%d] = %v", w, i, b.Positions[i].Value, i-1, b.Signals[i-1].Value)
			}
			if b.Positions[i].Value == domain.Flat && b.StrategyReturns[i].Value.Value != 0 {
				t.Errorf("window %d: flat position at %d earned %v", w, i, b.StrategyReturns[i].Value.Value)
			}
			if got, want := b.CumulativeStrategy[i].Value, b.CumulativeStrategy[i-1].Value+b.StrategyReturns[i].Value.OrZero(); got != want {
				t.Errorf("window %d: cumulative strategy[%d] = %v, want %v", w, i, got, want)
			}
			if got, want := b.CumulativeBuyHold[i].Value, b.CumulativeBuyHold[i-1].Value+b.Returns[i].Value.OrZero(); got != want {
				t.Errorf("window %d: cumulative buy-and-hold[%d] = %v, want %v", w, i, got, want)
			}
		}

		if err := domain.Aligned(prices, b.CumulativeStrategy); err != nil {
			t.Errorf("window %d: cumulative strategy misaligned: %v", w, err)
		}
		if err := domain.Aligned(prices, b.MovingAverage); err != nil {
			t.Errorf("window %d: moving average misaligned: %v", w, err)
		}
	}
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	prices := series(3, 1, 4, 1, 5, 9, 2, 6)
	before := prices.Clone()
	if _, err := strategy.Evaluate(prices, 3, defaultRule(t)); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for i := range prices {
		if prices[i] != before[i] {
			t.Fatalf("prices[%d] changed from %v to %v", i, before[i], prices[i])
		}
	}
}

func TestConstantSeries(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 100
	}
	prices := series(values...)

	for _, w := range []int{1, 2, 7, 20, 49, 50} {
		b, err := strategy.Evaluate(prices, w, defaultRule(t))
		if err != nil {
			t.Fatalf("window %d: %v", w, err)
		}
		for i := range prices {
			want := domain.Short
			if i < w {
				want = domain.Flat
			}
			if b.Signals[i].Value != want {
				t.Errorf("window %d: signal[%d] = %v, want %v", w, i, b.Signals[i].Value, want)
			}
			if v := b.StrategyReturns[i].Value.OrZero(); v != 0 {
				t.Errorf("window %d: strategy return[%d] = %v, want 0", w, i, v)
			}
			if b.CumulativeStrategy[i].Value != 0 || b.CumulativeBuyHold[i].Value != 0 {
				t.Errorf("window %d: cumulative at %d = (%v, %v), want zeros",
					w, i, b.CumulativeStrategy[i].Value, b.CumulativeBuyHold[i].Value)
			}
		}
	}
}

func TestRunnerResultSet(t *testing.T) {
	prices := series(100, 98, 97, 99, 102, 101, 100, 96, 95, 99, 103, 106, 104, 101, 100, 105, 108, 107, 103, 102, 104, 109)
	rs, err := strategy.NewRunner(defaultRule(t), 0, nil).Run(context.Background(), prices, []int{5, 10, 20, 20})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rs.Windows(); len(got) != 3 || got[0] != 5 || got[1] != 10 || got[2] != 20 {
		t.Fatalf("Windows() = %v, want [5 10 20]", got)
	}
	if b, _ := rs.Get(20); b.Sequence != 3 {
		t.Errorf("window 20 sequence = %d, want 3", b.Sequence)
	}

	finals := rs.FinalStrategy()
	for _, w := range rs.Windows() {
		b, _ := rs.Get(w)
		if finals[w] != b.FinalStrategy() {
			t.Errorf("FinalStrategy()[%d] = %v, want %v", w, finals[w], b.FinalStrategy())
		}
	}
	if !almostEqual(rs.FinalBuyAndHold(), rs.Last().FinalBuyAndHold()) {
		t.Errorf("FinalBuyAndHold() = %v, want %v", rs.FinalBuyAndHold(), rs.Last().FinalBuyAndHold())
	}
}

func TestBacktesterUnknownRule(t *testing.T) {
	bt := strategy.NewBacktester(staticSource{}, builtins.NewRegistry(), 0, nil)
	_, err := bt.Run(context.Background(), "nope", "SPY", time.Time{}, time.Time{}, []int{2})
	if err == nil {
		t.Fatal("expected error for unknown rule")
	}
}

func TestBacktesterRun(t *testing.T) {
	bt := strategy.NewBacktester(staticSource{prices: series(10, 10, 8, 12, 9)}, builtins.NewRegistry(), 2, nil)
	rs, err := bt.Run(context.Background(), builtins.DefaultRule, "SPY", time.Time{}, time.Time{}, []int{2, 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rs.FinalStrategy()[2]; !almostEqual(got, 0.75) {
		t.Errorf("final strategy for window 2 = %v, want 0.75", got)
	}
}

func TestSummarize(t *testing.T) {
	b, err := strategy.Evaluate(series(10, 10, 8, 12, 9), 2, defaultRule(t))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	s := strategy.Summarize(b)
	if s.Periods != 5 {
		t.Errorf("Periods = %d, want 5", s.Periods)
	}
	// positions: flat flat flat long short
	if s.Switches != 2 {
		t.Errorf("Switches = %d, want 2", s.Switches)
	}
	if !almostEqual(s.LongPct, 20) || !almostEqual(s.ShortPct, 20) {
		t.Errorf("LongPct/ShortPct = %v/%v, want 20/20", s.LongPct, s.ShortPct)
	}
	// strategy returns: 0 0 0.5 0.25
	if !almostEqual(s.MeanReturn, 0.1875) {
		t.Errorf("MeanReturn = %v, want 0.1875", s.MeanReturn)
	}
	if !almostEqual(s.FinalStrategy, 0.75) || !almostEqual(s.FinalBuyAndHold, 0.05) {
		t.Errorf("finals = %v/%v, want 0.75/0.05", s.FinalStrategy, s.FinalBuyAndHold)
	}
}

func TestSummarizeConstantSeries(t *testing.T) {
	b, err := strategy.Evaluate(series(5, 5, 5, 5), 2, defaultRule(t))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	s := strategy.Summarize(b)
	if s.Correlation != 0 || s.StdDevReturn != 0 {
		t.Errorf("Correlation/StdDev = %v/%v, want 0/0", s.Correlation, s.StdDevReturn)
	}
}

func TestResultSetJSON(t *testing.T) {
	rs, err := strategy.NewRunner(defaultRule(t), 0, nil).Run(context.Background(), series(10, 10, 8, 12, 9), []int{2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := json.Marshal(rs)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded struct {
		FinalBuyAndHold float64 `json:"final_buy_and_hold"`
		Windows         []struct {
			Window        int        `json:"window"`
			MovingAverage []struct {
				Value *float64 `json:"value"`
			} `json:"moving_average"`
		} `json:"windows"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded.Windows) != 1 || decoded.Windows[0].Window != 2 {
		t.Fatalf("decoded windows = %+v", decoded.Windows)
	}
	if decoded.Windows[0].MovingAverage[0].Value != nil {
		t.Errorf("undefined average encoded as %v, want null", *decoded.Windows[0].MovingAverage[0].Value)
	}
	if !almostEqual(decoded.FinalBuyAndHold, 0.05) {
		t.Errorf("final_buy_and_hold = %v, want 0.05", decoded.FinalBuyAndHold)
	}
}

type staticSource struct {
	prices domain.PriceSeries
}

func (s staticSource) PriceSeries(_ context.Context, _ string, _, _ time.Time) (domain.PriceSeries, error) {
	if len(s.prices) == 0 {
		return nil, domain.ErrEmptySeries
	}
	return s.prices.Clone(), nil
}
