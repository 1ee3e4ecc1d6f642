package render

import (
	"bytes"
	"fmt"

	"crossover/internal/strategy"
)

// Report holds every rendered output of a backtest run.
type Report struct {
	Table []byte
	SVG   []byte
	JSON  []byte // nil unless requested
}

// BuildReport renders the summary table, the SVG chart and optionally the
// JSON dump into memory. Nothing is returned unless every part rendered.
func BuildReport(symbol string, rs *strategy.ResultSet, svg SVGRenderer, withJSON bool) (*Report, error) {
	chart, err := ChartFromResults(symbol, rs)
	if err != nil {
		return nil, fmt.Errorf("building chart: %w", err)
	}

	var svgBuf, tableBuf bytes.Buffer
	if err := svg.Render(&svgBuf, chart); err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}
	if err := (TableRenderer{}).Render(&tableBuf, symbol, rs); err != nil {
		return nil, fmt.Errorf("rendering summary: %w", err)
	}

	r := &Report{Table: tableBuf.Bytes(), SVG: svgBuf.Bytes()}
	if withJSON {
		var jsonBuf bytes.Buffer
		if err := WriteJSON(&jsonBuf, rs); err != nil {
			return nil, fmt.Errorf("encoding results: %w", err)
		}
		r.JSON = jsonBuf.Bytes()
	}
	return r, nil
}
