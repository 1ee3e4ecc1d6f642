package render

import (
	"encoding/json"
	"io"

	"crossover/internal/strategy"
)

// WriteJSON writes the full result set as indented JSON. Undefined values
// are encoded as null.
func WriteJSON(w io.Writer, rs *strategy.ResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}
