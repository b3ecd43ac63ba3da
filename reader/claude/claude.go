// Package claude extracts per-response token usage from Claude Code session
// logs (JSONL in ~/.claude/projects/).
//
// Lines are never decoded as JSON. Each field is located by searching for its
// quoted key, and nested fields are found by searching forward from the
// offset of their parent key. Lines that do not carry every required field
// are skipped without error.
package claude

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonnes/hisaab/calendar"
	"github.com/sonnes/hisaab/core"
	"github.com/sonnes/hisaab/dedup"
	"github.com/sonnes/hisaab/reader"
	"github.com/sonnes/hisaab/scan"
)

// MaxFieldLen bounds the string fields read from a line (timestamp, model,
// message ID, request ID). Longer values are cut to MaxFieldLen-1 bytes.
const MaxFieldLen = 256

const (
	keyTimestamp = `"timestamp"`
	keyMessage   = `"message"`
	keyUsage     = `"usage"`
	keyModel     = `"model"`
	keyID        = `"id"`
	keyRequestID = `"requestId"`

	keyInputTokens         = `"input_tokens"`
	keyOutputTokens        = `"output_tokens"`
	keyCacheCreationTokens = `"cache_creation_input_tokens"`
	keyCacheReadTokens     = `"cache_read_input_tokens"`
)

// Extractor turns log lines into usage records. It remembers the
// message/request IDs it has emitted so that a response logged more than once
// (in one file or across files) is counted once.
//
// An Extractor is not safe for concurrent use.
type Extractor struct {
	// Range limits records to local dates within it.
	Range reader.Range
	// Location is the time zone used for record dates. Nil means time.Local.
	Location *time.Location

	seen *dedup.Set
	key  []byte
}

// NewExtractor returns an Extractor for the given date range.
func NewExtractor(r reader.Range) *Extractor {
	return &Extractor{
		Range: r,
		seen:  dedup.New(),
		key:   make([]byte, 0, 2*MaxFieldLen),
	}
}

// Reset forgets all IDs seen so far, for reuse in a new aggregation run.
func (e *Extractor) Reset() {
	e.seen.Reset()
}

// Next reads lines from src until one yields a record. It returns io.EOF
// when src is exhausted.
func (e *Extractor) Next(src *scan.LineSource) (core.UsageRecord, error) {
	for {
		line, err := src.Next()
		if err != nil {
			return core.UsageRecord{}, err
		}
		if rec, ok := e.Extract(line); ok {
			return rec, nil
		}
	}
}

// Extract returns the usage record carried by line, or false if the line is
// not a usage entry, is out of range, is malformed, or repeats an entry
// already extracted.
func (e *Extractor) Extract(line []byte) (core.UsageRecord, bool) {
	if scan.Index(line, keyInputTokens, 0) < 0 {
		return core.UsageRecord{}, false
	}

	ts := scan.String(line, keyTimestamp, 0, MaxFieldLen)
	f, ok := parseTimestamp(ts)
	if !ok {
		return core.UsageRecord{}, false
	}
	date := calendar.FromUTC(e.location(), f[0], f[1], f[2], f[3], f[4], f[5])
	if !e.Range.Contains(date) {
		return core.UsageRecord{}, false
	}

	msg := scan.Index(line, keyMessage, 0)
	if msg < 0 {
		return core.UsageRecord{}, false
	}
	usage := scan.Index(line, keyUsage, msg)
	if usage < 0 {
		return core.UsageRecord{}, false
	}

	model := scan.String(line, keyModel, msg, MaxFieldLen)
	if len(model) == 0 {
		return core.UsageRecord{}, false
	}

	messageID := scan.String(line, keyID, msg, MaxFieldLen)
	requestID := scan.String(line, keyRequestID, 0, MaxFieldLen)
	if key := dedup.Key(e.key, messageID, requestID); key != nil {
		e.key = key
		if e.seen.Seen(key) {
			return core.UsageRecord{}, false
		}
	}

	return core.UsageRecord{
		Date:  date,
		Model: scan.Text(model),
		Usage: core.Usage{
			InputTokens:         scan.Int(line, keyInputTokens, usage),
			OutputTokens:        scan.Int(line, keyOutputTokens, usage),
			CacheCreationTokens: scan.Int(line, keyCacheCreationTokens, usage),
			CacheReadTokens:     scan.Int(line, keyCacheReadTokens, usage),
		},
	}, true
}

func (e *Extractor) location() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.Local
}

// parseTimestamp reads YYYY-MM-DDTHH:MM:SS from the first 19 bytes of ts.
// Anything after the seconds (fraction, zone designator) is ignored; the
// value is always taken as UTC.
func parseTimestamp(ts []byte) ([6]int, bool) {
	var f [6]int
	if len(ts) < 19 {
		return f, false
	}
	spans := [6][2]int{{0, 4}, {5, 7}, {8, 10}, {11, 13}, {14, 16}, {17, 19}}
	for i, sp := range spans {
		n := 0
		for _, c := range ts[sp[0]:sp[1]] {
			if c < '0' || c > '9' {
				return f, false
			}
			n = n*10 + int(c-'0')
		}
		f[i] = n
	}
	if !calendar.Valid(f[0], f[1], f[2]) || f[3] > 23 || f[4] > 59 || f[5] > 60 {
		return f, false
	}
	return f, true
}

// Reader extracts usage records from Claude Code JSONL session files. One
// Reader deduplicates across every file it reads.
type Reader struct {
	// Dir overrides the default session directory (~/.claude/projects/).
	Dir string
	// Range limits records to local dates within it.
	Range reader.Range
	// Location is the time zone used for record dates. Nil means time.Local.
	Location *time.Location

	ext *Extractor
	src *scan.LineSource
}

// ReadFile streams the records of one session file to fn, in file order.
func (r *Reader) ReadFile(path string, fn func(core.UsageRecord)) error {
	if r.ext == nil {
		r.ext = NewExtractor(r.Range)
		r.src = scan.NewLineSource()
	}
	r.ext.Range = r.Range
	r.ext.Location = r.Location

	if err := r.src.Open(path); err != nil {
		return err
	}
	defer r.src.Close()

	for {
		rec, err := r.ext.Next(r.src)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		fn(rec)
	}
}

// Reset forgets the IDs seen by earlier reads, starting a new aggregation run.
func (r *Reader) Reset() {
	if r.ext != nil {
		r.ext.Reset()
	}
}

// ReadAll streams the records of every session file under Dir. Files that
// cannot be read are skipped.
func (r *Reader) ReadAll(fn func(core.UsageRecord)) error {
	return reader.WalkSessions(r.dir(), r.Range.Since, r.location(), func(path string) error {
		if err := r.ReadFile(path, fn); err != nil {
			log.Debug("skip session file", "path", path, "err", err)
		}
		return nil
	})
}

func (r *Reader) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.Local
}

func (r *Reader) dir() string {
	if r.Dir != "" {
		return r.Dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "projects")
}
