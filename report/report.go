// Package report aggregates usage records into per-day, per-model totals and
// persists them as a JSON report file.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"

	"github.com/sonnes/hisaab/calendar"
	"github.com/sonnes/hisaab/core"
)

// Report holds per-day usage, newest day first.
type Report struct {
	Days []Day `json:"days"`
}

// Day is the usage of one local calendar day. Claude counters are sums of
// per-response deltas; Codex counters are sums of per-session cumulative
// totals and are kept apart from them.
type Day struct {
	Date   calendar.Date `json:"date"`
	Models []ModelUsage  `json:"models,omitempty"`
	Codex  *CodexUsage   `json:"codex,omitempty"`
}

// ModelUsage is the Claude usage of one model on one day.
type ModelUsage struct {
	Model   string `json:"model"`
	Entries int    `json:"entries"`
	core.Usage
}

// CodexUsage is the Codex usage of the sessions dated on one day.
type CodexUsage struct {
	Sessions int `json:"sessions"`
	core.CodexUsage
}

// Claude returns the day's Claude usage summed over all models.
func (d Day) Claude() core.Usage {
	var total core.Usage
	for _, m := range d.Models {
		total.Add(m.Usage)
	}
	return total
}

// Add accumulates one Claude record.
func (r *Report) Add(rec core.UsageRecord) {
	d := r.day(rec.Date)
	for i := range d.Models {
		if d.Models[i].Model == rec.Model {
			d.Models[i].Usage.Add(rec.Usage)
			d.Models[i].Entries++
			return
		}
	}
	d.Models = append(d.Models, ModelUsage{Model: rec.Model, Entries: 1, Usage: rec.Usage})
	sort.Slice(d.Models, func(i, j int) bool {
		return d.Models[i].Model < d.Models[j].Model
	})
}

// AddSnapshot accumulates the final total of one Codex session.
func (r *Report) AddSnapshot(s core.CodexSnapshot) {
	d := r.day(s.Date)
	if d.Codex == nil {
		d.Codex = &CodexUsage{}
	}
	d.Codex.Sessions++
	d.Codex.CodexUsage.Add(s.CodexUsage)
}

// day returns the entry for date, creating it in sorted position if needed.
func (r *Report) day(date calendar.Date) *Day {
	i := sort.Search(len(r.Days), func(i int) bool {
		return r.Days[i].Date <= date
	})
	if i < len(r.Days) && r.Days[i].Date == date {
		return &r.Days[i]
	}
	r.Days = append(r.Days, Day{})
	copy(r.Days[i+1:], r.Days[i:])
	r.Days[i] = Day{Date: date}
	return &r.Days[i]
}

// Upsert adds or replaces the entry for day.Date. Days stay sorted newest
// first.
func (r *Report) Upsert(day Day) {
	*r.day(day.Date) = day
}

// Merge upserts every day of other into r.
func (r *Report) Merge(other *Report) {
	for _, d := range other.Days {
		r.Upsert(d)
	}
}

// DropDays removes every day for which drop returns true.
func (r *Report) DropDays(drop func(calendar.Date) bool) {
	r.Days = lo.Reject(r.Days, func(d Day, _ int) bool {
		return drop(d.Date)
	})
}

// Models returns every model that appears in the report, sorted.
func (r *Report) Models() []string {
	models := lo.Uniq(lo.FlatMap(r.Days, func(d Day, _ int) []string {
		return lo.Map(d.Models, func(m ModelUsage, _ int) string { return m.Model })
	}))
	sort.Strings(models)
	return models
}

// Totals returns the Claude and Codex usage summed over all days.
func (r *Report) Totals() (core.Usage, CodexUsage) {
	var claude core.Usage
	var codex CodexUsage
	for _, d := range r.Days {
		claude.Add(d.Claude())
		if d.Codex != nil {
			codex.Sessions += d.Codex.Sessions
			codex.CodexUsage.Add(d.Codex.CodexUsage)
		}
	}
	return claude, codex
}

// ReadFile reads a report from disk. Returns an empty Report if the file does
// not exist.
func ReadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Report{}, nil
	}
	if err != nil {
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	sort.SliceStable(r.Days, func(i, j int) bool {
		return r.Days[i].Date > r.Days[j].Date
	})
	return &r, nil
}

// WriteFile writes the report to disk atomically using a temporary file and
// rename, which is safe against concurrent writers.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}
