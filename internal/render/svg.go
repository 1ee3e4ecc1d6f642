package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

var _ Renderer = SVGRenderer{}

// SVGRenderer draws charts as standalone SVG documents.
type SVGRenderer struct {
	Width  int
	Height int
}

func (r SVGRenderer) withDefaults() SVGRenderer {
	if r.Width <= 0 {
		r.Width = 980
	}
	if r.Height <= 0 {
		r.Height = 520
	}
	return r
}

const font = `font-family="ui-monospace, Menlo, Monaco, Consolas, monospace"`

// Render writes c as SVG. Every line is drawn as a polyline whose x position
// is proportional to time, so all curves share one axis. Values are
// cumulative returns and are labelled as percentages.
func (r SVGRenderer) Render(w io.Writer, c Chart) error {
	r = r.withDefaults()

	first, last, ok := c.span()
	if !ok || !last.After(first) {
		return fmt.Errorf("chart needs at least two distinct timestamps")
	}

	minV, maxV := 0.0, 0.0
	for _, ln := range c.Lines {
		for _, p := range ln.Points {
			minV = math.Min(minV, p.Value)
			maxV = math.Max(maxV, p.Value)
		}
	}
	if maxV <= minV {
		maxV = minV + 0.01
	}
	pad := (maxV - minV) * 0.05
	minV -= pad
	maxV += pad

	// Layout
	width := float64(r.Width)
	height := float64(r.Height)
	mLeft := 70.0
	mRight := 130.0
	mTop := 24.0
	mBottom := 40.0
	plotW := width - mLeft - mRight
	plotH := height - mTop - mBottom
	if plotW <= 10 || plotH <= 10 {
		return fmt.Errorf("invalid chart size %dx%d", r.Width, r.Height)
	}

	span := last.Sub(first).Seconds()
	xAt := func(t time.Time) float64 {
		return mLeft + t.Sub(first).Seconds()/span*plotW
	}
	yAt := func(v float64) float64 {
		return mTop + (1.0-(v-minV)/(maxV-minV))*plotH
	}

	bg := "#0b1220"
	grid := "rgba(255,255,255,0.08)"
	zero := "rgba(255,255,255,0.35)"
	txt := "rgba(255,255,255,0.85)"

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + strconv.Itoa(r.Width) + `" height="` + strconv.Itoa(r.Height) + `" viewBox="0 0 ` + strconv.Itoa(r.Width) + ` ` + strconv.Itoa(r.Height) + `">` + "\n")
	buf.WriteString(`<rect x="0" y="0" width="100%" height="100%" fill="` + bg + `"/>` + "\n")

	// Header
	firstD := first.Format(time.DateOnly)
	lastD := last.Format(time.DateOnly)
	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = "UNKNOWN"
	}
	buf.WriteString(`<text x="` + fmtFloat(mLeft) + `" y="16" fill="` + txt + `" font-size="14" ` + font + `>` +
		html.EscapeString(title) + `  cumulative return  ` + html.EscapeString(firstD) + ` ~ ` + html.EscapeString(lastD) + `</text>` + "\n")

	// Grid: value lines (5)
	for k := 0; k <= 5; k++ {
		y := mTop + (float64(k)/5.0)*plotH
		buf.WriteString(`<line x1="` + fmtFloat(mLeft) + `" y1="` + fmtFloat(y) + `" x2="` + fmtFloat(mLeft+plotW) + `" y2="` + fmtFloat(y) + `" stroke="` + grid + `" stroke-width="1"/>` + "\n")
		v := maxV - (float64(k)/5.0)*(maxV-minV)
		buf.WriteString(`<text x="6" y="` + fmtFloat(y+4) + `" fill="` + txt + `" font-size="12" ` + font + `>` +
			html.EscapeString(FormatPct(v)) + `</text>` + "\n")
	}
	buf.WriteString(`<line x1="` + fmtFloat(mLeft) + `" y1="` + fmtFloat(yAt(0)) + `" x2="` + fmtFloat(mLeft+plotW) + `" y2="` + fmtFloat(yAt(0)) + `" stroke="` + zero + `" stroke-width="1"/>` + "\n")

	// Curves and legend
	for i, ln := range c.Lines {
		col := strings.TrimSpace(ln.Color)
		if col == "" {
			col = palette[i%len(palette)]
		}
		if len(ln.Points) > 0 {
			pts := make([]string, len(ln.Points))
			for j, p := range ln.Points {
				pts[j] = fmtFloat(xAt(p.Time)) + "," + fmtFloat(yAt(p.Value))
			}
			style := ""
			if ln.Dash {
				style = ` stroke-dasharray="6 6"`
			}
			buf.WriteString(`<polyline fill="none" stroke="` + col + `" stroke-width="1.5"` + style + ` points="` + strings.Join(pts, " ") + `"/>` + "\n")
		}

		ly := mTop + 8 + float64(i)*18
		lx := mLeft + plotW + 12
		buf.WriteString(`<line x1="` + fmtFloat(lx) + `" y1="` + fmtFloat(ly) + `" x2="` + fmtFloat(lx+18) + `" y2="` + fmtFloat(ly) + `" stroke="` + col + `" stroke-width="3"/>` + "\n")
		buf.WriteString(`<text x="` + fmtFloat(lx+24) + `" y="` + fmtFloat(ly+4) + `" fill="` + col + `" font-size="12" ` + font + `>` +
			html.EscapeString(ln.Label) + `</text>` + "\n")
	}

	// Footer dates
	buf.WriteString(`<text x="` + fmtFloat(mLeft) + `" y="` + fmtFloat(mTop+plotH+mBottom-12) + `" fill="` + txt + `" font-size="12" ` + font + `>` +
		html.EscapeString(firstD) + `</text>` + "\n")
	buf.WriteString(`<text x="` + fmtFloat(mLeft+plotW-70) + `" y="` + fmtFloat(mTop+plotH+mBottom-12) + `" fill="` + txt + `" font-size="12" ` + font + `>` +
		html.EscapeString(lastD) + `</text>` + "\n")

	buf.WriteString(`</svg>` + "\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func fmtFloat(x float64) string {
	// stable compact formatting for SVG attributes
	return strconv.FormatFloat(x, 'f', 2, 64)
}
