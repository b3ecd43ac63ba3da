// Package terminal renders usage reports as an ANSI-colored daily table.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"
	"github.com/dustin/go-humanize"

	"github.com/sonnes/hisaab/calendar"
	"github.com/sonnes/hisaab/core"
	"github.com/sonnes/hisaab/report"
)

const (
	defaultWidth = 100
	indent       = "  "
	gap          = "  "
	minNameWidth = 12
)

var columns = []string{"INPUT", "OUTPUT", "CACHE WRITE", "CACHE READ", "TOTAL"}

// Renderer prints a report as a table with one block per day.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

type row struct {
	name   string
	style  lipgloss.Style
	values []string
}

// Render writes the report to w.
func (r *Renderer) Render(w io.Writer, rep *report.Report) error {
	if len(rep.Days) == 0 {
		fmt.Fprintln(w, styleWeekday.Render("No usage found."))
		return nil
	}

	rows := make([][]row, len(rep.Days))
	for i, d := range rep.Days {
		rows[i] = dayRows(d)
	}
	claude, codex := rep.Totals()
	totals := []row{usageRow("Claude", styleTotal, claude)}
	if codex.Sessions > 0 {
		totals = append(totals, codexRow(codex, styleTotal))
	}

	// Value column widths.
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	nameWidth := minNameWidth
	for _, block := range append(rows, totals) {
		for _, rw := range block {
			nameWidth = max(nameWidth, ansi.StringWidth(rw.name))
			for i, v := range rw.values {
				widths[i] = max(widths[i], len(v))
			}
		}
	}
	valuesWidth := 0
	for _, cw := range widths {
		valuesWidth += len(gap) + cw
	}
	nameWidth = max(minNameWidth, min(nameWidth, r.termWidth()-len(indent)-valuesWidth))
	lineWidth := len(indent) + nameWidth + valuesWidth

	fmt.Fprintln(w, styleTitle.Render("Token usage"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleHeading.Render(formatRow("", nameWidth, columns, widths)))

	for i, d := range rep.Days {
		fmt.Fprintln(w, styleDate.Render(d.Date.String())+" "+styleWeekday.Render(weekday(d.Date)))
		for _, rw := range rows[i] {
			writeRow(w, rw, nameWidth, widths)
		}
	}

	fmt.Fprintln(w, styleSeparator.Render(strings.Repeat("─", lineWidth)))
	for _, rw := range totals {
		writeRow(w, rw, nameWidth, widths)
	}
	return nil
}

func (r *Renderer) termWidth() int {
	if r.Width > 0 {
		return r.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// dayRows lists one row per Claude model and a Codex row if any session is
// dated on the day.
func dayRows(d report.Day) []row {
	var rows []row
	for _, m := range d.Models {
		rows = append(rows, usageRow(m.Model, styleModel, m.Usage))
	}
	if d.Codex != nil {
		rows = append(rows, codexRow(*d.Codex, styleCodex))
	}
	return rows
}

func usageRow(name string, style lipgloss.Style, u core.Usage) row {
	return row{
		name:  name,
		style: style,
		values: []string{
			formatNumber(u.InputTokens),
			formatNumber(u.OutputTokens),
			formatNumber(u.CacheCreationTokens),
			formatNumber(u.CacheReadTokens),
			formatNumber(u.Total()),
		},
	}
}

// codexRow maps Codex counters onto the table. Codex input already includes
// cached input and output includes reasoning, so the total is input+output.
func codexRow(c report.CodexUsage, style lipgloss.Style) row {
	return row{
		name:  fmt.Sprintf("codex (%s %s)", humanize.Comma(int64(c.Sessions)), plural(c.Sessions, "session")),
		style: style,
		values: []string{
			formatNumber(c.InputTokens),
			formatNumber(c.OutputTokens),
			"-",
			formatNumber(c.CachedInputTokens),
			formatNumber(c.InputTokens + c.OutputTokens),
		},
	}
}

func writeRow(w io.Writer, rw row, nameWidth int, widths []int) {
	name := ansi.Truncate(rw.name, nameWidth, "…")
	line := formatRow(name, nameWidth, rw.values, widths)
	fmt.Fprintln(w, rw.style.Render(line[:len(indent)+len(name)])+styleValue.Render(line[len(indent)+len(name):]))
}

// formatRow lays out an unstyled row: the name left-aligned, values
// right-aligned.
func formatRow(name string, nameWidth int, values []string, widths []int) string {
	var sb strings.Builder
	sb.WriteString(indent)
	sb.WriteString(name)
	sb.WriteString(strings.Repeat(" ", max(0, nameWidth-ansi.StringWidth(name))))
	for i, v := range values {
		sb.WriteString(gap)
		fmt.Fprintf(&sb, "%*s", widths[i], v)
	}
	return sb.String()
}

func weekday(d calendar.Date) string {
	return time.Weekday(calendar.DayOfWeek(d)).String()[:3]
}

func formatNumber(n int) string {
	return humanize.Comma(int64(n))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
