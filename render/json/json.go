// Package json renders reports as JSON (serializes the report as-is).
package json

import (
	"encoding/json"
	"io"

	"github.com/sonnes/hisaab/report"
)

// Renderer renders a report to JSON.
type Renderer struct {
	// Indent controls pretty-printing. When true, output is indented.
	Indent bool
}

// New creates a JSON Renderer with indentation enabled.
func New() *Renderer {
	return &Renderer{Indent: true}
}

// Render writes r as a single JSON document followed by a newline.
func (r *Renderer) Render(w io.Writer, rep *report.Report) error {
	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rep)
}
