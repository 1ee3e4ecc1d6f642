// Package render turns backtest results into reports: an SVG chart of the
// cumulative return curves, a terminal summary table and a JSON dump.
package render

import (
	"fmt"
	"io"
	"time"

	"crossover/internal/domain"
	"crossover/internal/strategy"
)

// BuyAndHoldLabel labels the baseline curve.
const BuyAndHoldLabel = "Buy & Hold"

// palette cycles through line colours; the baseline always uses baseline.
var (
	palette = []string{
		"#38bdf8", "#f97316", "#a78bfa", "#22c55e",
		"#f43f5e", "#eab308", "#14b8a6", "#ec4899",
	}
	baseline = "rgba(255,255,255,0.85)"
)

// Line is one labelled curve on a chart.
type Line struct {
	Label  string
	Color  string
	Dash   bool
	Points domain.Series[float64]
}

// Chart is a set of curves plotted against a shared time axis.
type Chart struct {
	Title string
	Lines []Line
}

// Renderer writes a chart to w.
type Renderer interface {
	Render(w io.Writer, c Chart) error
}

// ChartFromResults builds one cumulative strategy curve per window, labelled
// MA<window> in ascending window order, followed by the buy-and-hold curve
// of the last processed bundle.
func ChartFromResults(symbol string, rs *strategy.ResultSet) (Chart, error) {
	if rs == nil || rs.Len() == 0 {
		return Chart{}, fmt.Errorf("no results to chart")
	}

	c := Chart{Title: symbol}
	for i, b := range rs.Bundles() {
		c.Lines = append(c.Lines, Line{
			Label:  fmt.Sprintf("MA%d", b.Window),
			Color:  palette[i%len(palette)],
			Points: b.CumulativeStrategy,
		})
	}
	c.Lines = append(c.Lines, Line{
		Label:  BuyAndHoldLabel,
		Color:  baseline,
		Dash:   true,
		Points: rs.Last().CumulativeBuyHold,
	})
	return c, nil
}

// span returns the earliest and latest timestamps over all lines.
func (c Chart) span() (first, last time.Time, ok bool) {
	for _, ln := range c.Lines {
		for _, p := range ln.Points {
			if !ok || p.Time.Before(first) {
				first = p.Time
			}
			if !ok || p.Time.After(last) {
				last = p.Time
			}
			ok = true
		}
	}
	return first, last, ok
}
