package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"crossover/internal/strategy"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	windowStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	bestStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

func returnStyle(v float64) lipgloss.Style {
	switch {
	case v > 0:
		return gainStyle
	case v < 0:
		return lossStyle
	default:
		return dimStyle
	}
}

// TableRenderer prints a per-window summary table for a terminal.
type TableRenderer struct{}

// Render writes one row per window, ordered by window length, plus the
// buy-and-hold baseline. The window with the best final strategy return is
// marked with a star.
func (TableRenderer) Render(w io.Writer, symbol string, rs *strategy.ResultSet) error {
	summaries := rs.Summaries()
	if len(summaries) == 0 {
		return fmt.Errorf("no results to tabulate")
	}

	best := 0
	for i, s := range summaries {
		if s.FinalStrategy > summaries[best].FinalStrategy {
			best = i
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf(" %s  %s  buy & hold %s ",
		symbol, summaries[0].Rule, FormatPct(rs.FinalBuyAndHold()))))
	b.WriteString("\n")
	b.WriteString(colHeaderStyle.Render(fmt.Sprintf("%-7s %9s %9s %9s %6s %6s %8s %9s %9s %7s",
		"WINDOW", "STRATEGY", "VS B&H", "PERIODS", "LONG", "SHORT", "SWITCHES", "MEAN", "STDDEV", "CORR")))
	b.WriteString("\n")

	for i, s := range summaries {
		mark := " "
		if i == best {
			mark = "*"
		}
		excess := s.FinalStrategy - s.FinalBuyAndHold

		b.WriteString(bestStyle.Render(mark))
		b.WriteString(windowStyle.Render(fmt.Sprintf("%-6s", fmt.Sprintf("MA%d", s.Window))))
		b.WriteString(" ")
		b.WriteString(returnStyle(s.FinalStrategy).Render(fmt.Sprintf("%9s", FormatPct(s.FinalStrategy))))
		b.WriteString(" ")
		b.WriteString(returnStyle(excess).Render(fmt.Sprintf("%9s", FormatPct(excess))))
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%9s %5.1f%% %5.1f%% %8s %8.4f%% %8.4f%% %7.3f",
			FormatInt(s.Periods), s.LongPct, s.ShortPct, FormatInt(s.Switches),
			s.MeanReturn*100, s.StdDevReturn*100, s.Correlation)))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
