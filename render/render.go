// Package render defines the interface for rendering usage reports into
// various output formats.
package render

import (
	"io"

	"github.com/sonnes/hisaab/report"
)

// Renderer writes a report to the given writer in a specific format.
type Renderer interface {
	Render(w io.Writer, r *report.Report) error
}
