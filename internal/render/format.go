package render

import (
	"fmt"
	"strings"
)

// FormatPct formats a fractional return as a signed percentage, e.g. 0.125
// becomes "+12.5%". Zero renders as "0.0%".
func FormatPct(v float64) string {
	pct := v * 100
	switch {
	case pct >= 0.05:
		return fmt.Sprintf("+%.1f%%", pct)
	case pct <= -0.05:
		return fmt.Sprintf("%.1f%%", pct)
	default:
		return "0.0%"
	}
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
