package claude

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/sonnes/hisaab/calendar"
	"github.com/sonnes/hisaab/core"
	"github.com/sonnes/hisaab/reader"
	"github.com/sonnes/hisaab/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleLine = `{"timestamp":"2024-03-05T14:22:10Z","message":{"id":"m1","model":"claude-3","usage":{"input_tokens":120,"output_tokens":45,"cache_creation_input_tokens":0,"cache_read_input_tokens":10}},"requestId":"r1"}`

var year2024 = reader.Range{Since: 20240101, Until: 20241231}

func testdataPath(name string) string {
	return filepath.Join("testdata", name)
}

func newUTCExtractor(r reader.Range) *Extractor {
	e := NewExtractor(r)
	e.Location = time.UTC
	return e
}

func TestExtractExampleLine(t *testing.T) {
	e := NewExtractor(year2024)

	rec, ok := e.Extract([]byte(exampleLine))
	require.True(t, ok)
	assert.Equal(t, calendar.UTCToLocalDate(2024, 3, 5, 14, 22, 10), rec.Date)
	assert.Equal(t, "claude-3", rec.Model)
	assert.Equal(t, core.Usage{
		InputTokens:         120,
		OutputTokens:        45,
		CacheCreationTokens: 0,
		CacheReadTokens:     10,
	}, rec.Usage)

	_, ok = e.Extract([]byte(exampleLine))
	assert.False(t, ok, "identical second line is suppressed")
}

func TestExtractSkips(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{
			name: "no input_tokens marker",
			line: `{"timestamp":"2024-03-05T14:22:10Z","message":{"id":"m1","model":"claude-3","usage":{"output_tokens":45}},"requestId":"r1"}`,
		},
		{
			name: "unquoted input_tokens does not count",
			line: `{"timestamp":"2024-03-05T14:22:10Z","message":{"model":"claude-3","usage":{"cache_read_input_tokens":45}}}`,
		},
		{
			name: "timestamp too short",
			line: `{"timestamp":"2024-03-05T14:22","message":{"model":"claude-3","usage":{"input_tokens":1}}}`,
		},
		{
			name: "timestamp with non-digits",
			line: `{"timestamp":"2024-O3-05T14:22:10Z","message":{"model":"claude-3","usage":{"input_tokens":1}}}`,
		},
		{
			name: "timestamp with month out of range",
			line: `{"timestamp":"2024-13-05T14:22:10Z","message":{"model":"claude-3","usage":{"input_tokens":1}}}`,
		},
		{
			name: "missing timestamp",
			line: `{"message":{"model":"claude-3","usage":{"input_tokens":1}}}`,
		},
		{
			name: "before range",
			line: `{"timestamp":"2023-12-31T12:00:00Z","message":{"model":"claude-3","usage":{"input_tokens":1}}}`,
		},
		{
			name: "after range",
			line: `{"timestamp":"2025-01-01T12:00:00Z","message":{"model":"claude-3","usage":{"input_tokens":1}}}`,
		},
		{
			name: "no message",
			line: `{"timestamp":"2024-03-05T14:22:10Z","usage":{"input_tokens":1},"model":"claude-3"}`,
		},
		{
			name: "usage only before message",
			line: `{"timestamp":"2024-03-05T14:22:10Z","usage":{"input_tokens":1},"message":{"model":"claude-3"}}`,
		},
		{
			name: "empty model",
			line: `{"timestamp":"2024-03-05T14:22:10Z","message":{"model":"","usage":{"input_tokens":1}}}`,
		},
		{
			name: "model outside message",
			line: `{"timestamp":"2024-03-05T14:22:10Z","model":"claude-3","message":{"usage":{"input_tokens":1}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newUTCExtractor(year2024)
			_, ok := e.Extract([]byte(tt.line))
			assert.False(t, ok)
		})
	}
}

func TestExtractScopesFieldsToParent(t *testing.T) {
	line := `{"timestamp":"2024-03-05T14:22:10Z","id":"outer","model":"outer-model",` +
		`"message":{"id":"m1","model":"claude-3","content":[{"type":"tool_use","id":"toolu_1"}],` +
		`"usage":{"input_tokens":3,"output_tokens":4}},"requestId":"r1","toolUseResult":{"input_tokens":999}}`

	e := newUTCExtractor(reader.Range{})
	rec, ok := e.Extract([]byte(line))
	require.True(t, ok)
	assert.Equal(t, "claude-3", rec.Model)
	assert.Equal(t, 3, rec.InputTokens)
	assert.Equal(t, 4, rec.OutputTokens)
}

func TestExtractMissingCountersAreZero(t *testing.T) {
	line := `{"timestamp":"2024-03-05T14:22:10Z","message":{"model":"claude-3","usage":{"input_tokens":5}}}`
	rec, ok := newUTCExtractor(reader.Range{}).Extract([]byte(line))
	require.True(t, ok)
	assert.Equal(t, core.Usage{InputTokens: 5}, rec.Usage)
}

func TestExtractUsesLocation(t *testing.T) {
	line := []byte(`{"timestamp":"2024-03-05T02:00:00Z","message":{"model":"claude-3","usage":{"input_tokens":1}}}`)

	e := NewExtractor(reader.Range{})
	e.Location = time.FixedZone("EST", -5*3600)
	rec, ok := e.Extract(line)
	require.True(t, ok)
	assert.Equal(t, calendar.Date(20240304), rec.Date)
}

func TestExtractRangeUsesLocalDate(t *testing.T) {
	// 2024-01-01T03:00Z is still 2023-12-31 at UTC-5.
	line := []byte(`{"timestamp":"2024-01-01T03:00:00Z","message":{"model":"claude-3","usage":{"input_tokens":1}}}`)

	e := NewExtractor(year2024)
	e.Location = time.FixedZone("EST", -5*3600)
	_, ok := e.Extract(line)
	assert.False(t, ok)
}

func TestExtractDedup(t *testing.T) {
	withIDs := func(ts, msgID, reqID string) string {
		return `{"timestamp":"` + ts + `","requestId":"` + reqID + `","message":{"id":"` + msgID +
			`","model":"claude-3","usage":{"input_tokens":1}}}`
	}

	tests := []struct {
		name  string
		lines []string
		want  int
	}{
		{
			name:  "same ids, either order",
			lines: []string{withIDs("2024-03-05T10:00:00Z", "m1", "r1"), withIDs("2024-03-05T09:00:00Z", "m1", "r1")},
			want:  1,
		},
		{
			name:  "message id alone is a key",
			lines: []string{withIDs("2024-03-05T10:00:00Z", "m1", ""), withIDs("2024-03-05T10:00:01Z", "m1", "")},
			want:  1,
		},
		{
			name:  "request id alone is a key",
			lines: []string{withIDs("2024-03-05T10:00:00Z", "", "r1"), withIDs("2024-03-05T10:00:01Z", "", "r1")},
			want:  1,
		},
		{
			name:  "different request ids",
			lines: []string{withIDs("2024-03-05T10:00:00Z", "m1", "r1"), withIDs("2024-03-05T10:00:01Z", "m1", "r2")},
			want:  2,
		},
		{
			name:  "no ids are never deduplicated",
			lines: []string{withIDs("2024-03-05T10:00:00Z", "", ""), withIDs("2024-03-05T10:00:00Z", "", "")},
			want:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newUTCExtractor(year2024)
			got := 0
			for _, l := range tt.lines {
				if _, ok := e.Extract([]byte(l)); ok {
					got++
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractorReset(t *testing.T) {
	e := newUTCExtractor(year2024)
	_, ok := e.Extract([]byte(exampleLine))
	require.True(t, ok)

	e.Reset()
	_, ok = e.Extract([]byte(exampleLine))
	assert.True(t, ok, "new run counts the entry again")
}

func TestExtractTruncatesLongModel(t *testing.T) {
	long := strings.Repeat("m", 400)
	line := `{"timestamp":"2024-03-05T14:22:10Z","message":{"model":"` + long + `","usage":{"input_tokens":1}}}`

	rec, ok := newUTCExtractor(reader.Range{}).Extract([]byte(line))
	require.True(t, ok)
	assert.Equal(t, long[:MaxFieldLen-1], rec.Model)
}

func TestExtractInvalidUTF8Model(t *testing.T) {
	line := []byte(`{"timestamp":"2024-03-05T14:22:10Z","message":{"model":"claude-` + "\xff" + `","usage":{"input_tokens":1}}}`)
	rec, ok := newUTCExtractor(reader.Range{}).Extract(line)
	require.True(t, ok)
	assert.Equal(t, "claude-\uFFFD", rec.Model)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want [6]int
		ok   bool
	}{
		{"2024-03-05T14:22:10Z", [6]int{2024, 3, 5, 14, 22, 10}, true},
		{"2024-03-05T14:22:10.512Z", [6]int{2024, 3, 5, 14, 22, 10}, true},
		{"2024-03-05 14:22:10", [6]int{2024, 3, 5, 14, 22, 10}, true},
		{"2024-03-05T14:22:1", [6]int{}, false},
		{"2024-03-05T24:00:00Z", [6]int{}, false},
		{"2024-00-05T10:00:00Z", [6]int{}, false},
		{"2024-03-00T10:00:00Z", [6]int{}, false},
		{"abcd-03-05T10:00:00Z", [6]int{}, false},
		{"2024-02-29T10:00:00Z", [6]int{2024, 2, 29, 10, 0, 0}, true},
		{"2023-02-29T10:00:00Z", [6]int{}, false},
		{"2024-02-30T10:00:00Z", [6]int{}, false},
		{"2024-04-31T10:00:00Z", [6]int{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseTimestamp([]byte(tt.in))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNext(t *testing.T) {
	src := scan.NewLineSource()
	require.NoError(t, src.Open(testdataPath("usage.jsonl")))
	defer src.Close()

	e := newUTCExtractor(year2024)
	var recs []core.UsageRecord
	for {
		rec, err := e.Next(src)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}

	require.Len(t, recs, 4)
	assert.Equal(t, core.UsageRecord{
		Date:  20240305,
		Model: "claude-3",
		Usage: core.Usage{InputTokens: 120, OutputTokens: 45, CacheReadTokens: 10},
	}, recs[0])
	assert.Equal(t, core.UsageRecord{
		Date:  20240306,
		Model: "claude-haiku-4-5",
		Usage: core.Usage{InputTokens: 10, OutputTokens: 5, CacheCreationTokens: 100, CacheReadTokens: 20},
	}, recs[1])
	assert.Equal(t, calendar.Date(20240307), recs[2].Date)
	assert.Equal(t, recs[2], recs[3], "entries without ids are all kept")
	assert.True(t, src.EOF())
}

// setupProjectDir copies a testdata file into a temp directory structured as
// ~/.claude/projects/<project>/<sessionID>.jsonl for directory-traversal tests.
func setupProjectDir(t *testing.T, dir, testdataFile, project, sessionID string) {
	t.Helper()
	data, err := os.ReadFile(testdataPath(testdataFile))
	require.NoError(t, err)

	projectDir := filepath.Join(dir, project)
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, sessionID+".jsonl"), data, 0o644))
}

func TestReaderReadAllDedupsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	setupProjectDir(t, dir, "usage.jsonl", "-Users-test-a", "s1")
	setupProjectDir(t, dir, "usage.jsonl", "-Users-test-b", "s2")

	r := &Reader{Dir: dir, Range: year2024, Location: time.UTC}
	var recs []core.UsageRecord
	require.NoError(t, r.ReadAll(func(rec core.UsageRecord) {
		recs = append(recs, rec)
	}))

	// m1 and m2 once overall; the two id-less entries from each file.
	assert.Len(t, recs, 6)

	var total core.Usage
	for _, rec := range recs {
		total.Add(rec.Usage)
	}
	assert.Equal(t, 120+10+4*1, total.InputTokens)
}

func TestReaderReset(t *testing.T) {
	r := &Reader{Range: year2024, Location: time.UTC}
	count := func() int {
		n := 0
		require.NoError(t, r.ReadFile(testdataPath("usage.jsonl"), func(core.UsageRecord) { n++ }))
		return n
	}

	assert.Equal(t, 4, count())
	assert.Equal(t, 2, count(), "ids already seen in this run")

	r.Reset()
	assert.Equal(t, 4, count())
}

func TestReaderReadFileMissing(t *testing.T) {
	r := &Reader{}
	err := r.ReadFile(filepath.Join(t.TempDir(), "nope.jsonl"), func(core.UsageRecord) {})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReaderReadAllMissingDir(t *testing.T) {
	r := &Reader{Dir: filepath.Join(t.TempDir(), "nope")}
	assert.Error(t, r.ReadAll(func(core.UsageRecord) {}))
}

func TestExtractSkipsDayPastMonthEnd(t *testing.T) {
	e := newUTCExtractor(reader.Range{Since: 20240301, Until: 20240301})
	line := strings.Replace(exampleLine, "2024-03-05T14:22:10Z", "2024-02-30T14:22:10Z", 1)

	_, ok := e.Extract([]byte(line))
	assert.False(t, ok, "Feb 30 must not roll over into March 1")
}

func TestReaderReadAllMtimeInRecordZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	dir := t.TempDir()
	projectDir := filepath.Join(dir, "-Users-test-a")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	path := filepath.Join(projectDir, "s1.jsonl")
	line := strings.Replace(exampleLine, "2024-03-05T14:22:10Z", "2024-03-04T20:00:00Z", 1)
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o644))

	// Last written at 20:00:01 UTC on 03-04, which is already 03-05 in Tokyo.
	mtime := time.Date(2024, 3, 4, 20, 0, 1, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	r := &Reader{
		Dir:      dir,
		Range:    reader.Range{Since: 20240305, Until: 20240305},
		Location: tokyo,
	}
	var recs []core.UsageRecord
	require.NoError(t, r.ReadAll(func(rec core.UsageRecord) {
		recs = append(recs, rec)
	}))

	require.Len(t, recs, 1)
	assert.Equal(t, calendar.Date(20240305), recs[0].Date)
}
