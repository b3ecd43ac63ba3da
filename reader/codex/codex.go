// Package codex reads the cumulative token usage of OpenAI Codex CLI session
// logs (JSONL rollouts in ~/.codex/sessions/YYYY/MM/DD/).
//
// Codex appends a token_count event carrying a running total after each
// turn, so the last such event in a file is the session's usage. Session
// files can be large; the reader looks at a trailing window first and widens
// it only when the window holds no token_count event.
package codex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonnes/hisaab/calendar"
	"github.com/sonnes/hisaab/core"
	"github.com/sonnes/hisaab/reader"
	"github.com/sonnes/hisaab/scan"
)

var (
	// ErrNoSessionDate is returned for paths without a sessions/YYYY/MM/DD/
	// segment.
	ErrNoSessionDate = errors.New("no sessions/YYYY/MM/DD/ segment in path")

	// ErrNoTokenCount is returned when a session file holds no token_count
	// event.
	ErrNoTokenCount = errors.New("no token_count event in session")
)

// tailWindows are the trailing window sizes tried before reading the whole
// file.
var tailWindows = []int64{64 << 10, 256 << 10}

const (
	keyTokenCount      = `"token_count"`
	keyTotalTokenUsage = `"total_token_usage"`

	keyInputTokens           = `"input_tokens"`
	keyCachedInputTokens     = `"cached_input_tokens"`
	keyOutputTokens          = `"output_tokens"`
	keyReasoningOutputTokens = `"reasoning_output_tokens"`

	sessionsSegment = "/sessions/"
)

// Reader reads Codex CLI session files. It reuses one read buffer across
// files and is not safe for concurrent use.
type Reader struct {
	// Dir overrides the default session directory (~/.codex/sessions/).
	Dir string
	// Range limits ReadAll to sessions dated within it.
	Range reader.Range

	buf []byte
}

// ReadSnapshot reads one session file with a fresh Reader.
func ReadSnapshot(path string) (core.CodexSnapshot, error) {
	var r Reader
	return r.ReadSnapshot(path)
}

// ReadSnapshot returns the last cumulative usage recorded in the session file
// at path. The date comes from the path alone.
func (r *Reader) ReadSnapshot(path string) (core.CodexSnapshot, error) {
	date, err := SessionDate(path)
	if err != nil {
		return core.CodexSnapshot{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return core.CodexSnapshot{}, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return core.CodexSnapshot{}, fmt.Errorf("stat session file: %w", err)
	}

	buf, at, err := r.lastTokenCount(f, info.Size())
	if err != nil {
		return core.CodexSnapshot{}, fmt.Errorf("%s: %w", path, err)
	}

	snap := core.CodexSnapshot{Date: date, Path: path}
	if total := scan.Index(buf, keyTotalTokenUsage, at); total >= 0 {
		snap.CodexUsage = core.CodexUsage{
			InputTokens:           scan.Int(buf, keyInputTokens, total),
			CachedInputTokens:     scan.Int(buf, keyCachedInputTokens, total),
			OutputTokens:          scan.Int(buf, keyOutputTokens, total),
			ReasoningOutputTokens: scan.Int(buf, keyReasoningOutputTokens, total),
		}
	}
	return snap, nil
}

// lastTokenCount reads growing tails of the file until one contains a
// token_count marker, and returns that tail with the offset of the last
// marker in it.
func (r *Reader) lastTokenCount(ra io.ReaderAt, size int64) ([]byte, int, error) {
	for _, w := range windowSizes(size) {
		buf, err := r.readTail(ra, size, w)
		if err != nil {
			return nil, -1, err
		}
		if i := scan.LastIndex(buf, keyTokenCount); i >= 0 {
			return buf, i, nil
		}
	}
	return nil, -1, ErrNoTokenCount
}

// windowSizes lists the tails to try for a file of the given size, ending
// with the whole file. Windows that would cover the whole file anyway are
// collapsed into that last pass.
func windowSizes(size int64) []int64 {
	var sizes []int64
	for _, w := range tailWindows {
		if w >= size {
			break
		}
		sizes = append(sizes, w)
	}
	return append(sizes, size)
}

func (r *Reader) readTail(ra io.ReaderAt, size, n int64) ([]byte, error) {
	if int64(cap(r.buf)) < n {
		r.buf = make([]byte, n)
	}
	buf := r.buf[:n]
	read, err := ra.ReadAt(buf, size-n)
	if err != nil && !(errors.Is(err, io.EOF) && int64(read) == n) {
		return nil, fmt.Errorf("read session tail: %w", err)
	}
	return buf, nil
}

// ReadAll streams one snapshot per session file under Dir whose date is in
// Range. Files without a usable date or token_count event are skipped.
func (r *Reader) ReadAll(fn func(core.CodexSnapshot)) error {
	return reader.WalkSessions(r.dir(), r.Range.Since, nil, func(path string) error {
		date, err := SessionDate(path)
		if err != nil || !r.Range.Contains(date) {
			return nil
		}
		snap, err := r.ReadSnapshot(path)
		if err != nil {
			log.Debug("skip session file", "path", path, "err", err)
			return nil
		}
		fn(snap)
		return nil
	})
}

func (r *Reader) dir() string {
	if r.Dir != "" {
		return r.Dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".codex", "sessions")
}

// SessionDate parses the date of a session from the sessions/YYYY/MM/DD/
// segment of its path. When "sessions" appears more than once, the rightmost
// occurrence followed by a valid date wins.
func SessionDate(path string) (calendar.Date, error) {
	p := filepath.ToSlash(path)
	for end := len(p); ; {
		i := strings.LastIndex(p[:end], sessionsSegment)
		if i < 0 {
			return 0, fmt.Errorf("%w: %s", ErrNoSessionDate, path)
		}
		if d, ok := parseDateSegment(p[i+len(sessionsSegment):]); ok {
			return d, nil
		}
		end = i
	}
}

// parseDateSegment reads a leading YYYY/MM/DD/ from rest.
func parseDateSegment(rest string) (calendar.Date, bool) {
	if len(rest) < 11 || rest[4] != '/' || rest[7] != '/' || rest[10] != '/' {
		return 0, false
	}
	year, ok1 := digits(rest[0:4])
	month, ok2 := digits(rest[5:7])
	day, ok3 := digits(rest[8:10])
	if !ok1 || !ok2 || !ok3 || !calendar.Valid(year, month, day) {
		return 0, false
	}
	return calendar.NewDate(year, time.Month(month), day), true
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
