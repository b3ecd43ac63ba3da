// Package reader holds what the agent-specific log readers share: the date
// range filter and discovery of JSONL session files.
package reader

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/sonnes/hisaab/calendar"
)

// Range is an inclusive date filter. A zero bound is open-ended.
type Range struct {
	Since calendar.Date
	Until calendar.Date
}

// Contains reports whether d lies within the range.
func (r Range) Contains(d calendar.Date) bool {
	if r.Since != 0 && d < r.Since {
		return false
	}
	if r.Until != 0 && d > r.Until {
		return false
	}
	return true
}

// WalkSessions calls fn for every *.jsonl file under dir, in lexical order.
// Files last modified before since are skipped without being opened: an
// append-only log untouched since then holds nothing newer. The modification
// date is taken in loc, which must be the zone the records are dated in (nil
// means time.Local). Unreadable directories are skipped; an error returned by
// fn stops the walk.
func WalkSessions(dir string, since calendar.Date, loc *time.Location, fn func(path string) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		if since != 0 {
			if m := calendar.FileMtimeDateIn(path, loc); m != 0 && m < since {
				return nil
			}
		}
		return fn(path)
	})
}
