package strategy

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"crossover/internal/domain"
)

// Summary holds headline statistics for one window's bundle.
type Summary struct {
	Window          int     `json:"window"`
	Rule            string  `json:"rule"`
	Periods         int     `json:"periods"`
	FinalStrategy   float64 `json:"final_strategy"`
	FinalBuyAndHold float64 `json:"final_buy_and_hold"`
	Switches        int     `json:"switches"`
	LongPct         float64 `json:"long_pct"`
	ShortPct        float64 `json:"short_pct"`
	MeanReturn      float64 `json:"mean_return"`
	StdDevReturn    float64 `json:"stddev_return"`
	Correlation     float64 `json:"correlation"`
}

// Summarize computes headline statistics for b. Statistics that are not
// defined for the data (a single return, a constant series) are reported as
// zero.
func Summarize(b *Bundle) Summary {
	s := Summary{
		Window:          b.Window,
		Rule:            b.Rule,
		Periods:         len(b.Positions),
		FinalStrategy:   b.FinalStrategy(),
		FinalBuyAndHold: b.FinalBuyAndHold(),
	}

	var long, short int
	for i, p := range b.Positions {
		switch p.Value {
		case domain.Long:
			long++
		case domain.Short:
			short++
		}
		if i > 0 && p.Value != b.Positions[i-1].Value {
			s.Switches++
		}
	}
	if n := len(b.Positions); n > 0 {
		s.LongPct = float64(long) / float64(n) * 100
		s.ShortPct = float64(short) / float64(n) * 100
	}

	var strat, base []float64
	for i, r := range b.StrategyReturns {
		if !r.Value.Defined() || !b.Returns[i].Value.Defined() {
			continue
		}
		strat = append(strat, r.Value.Value)
		base = append(base, b.Returns[i].Value.Value)
	}
	if len(strat) > 0 {
		mean, std := stat.MeanStdDev(strat, nil)
		s.MeanReturn = finite(mean)
		s.StdDevReturn = finite(std)
	}
	if len(strat) > 1 {
		s.Correlation = finite(stat.Correlation(strat, base, nil))
	}
	return s
}

// Summaries returns one Summary per window, ordered by window length.
func (rs *ResultSet) Summaries() []Summary {
	bundles := rs.Bundles()
	out := make([]Summary, len(bundles))
	for i, b := range bundles {
		out[i] = Summarize(b)
	}
	return out
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
