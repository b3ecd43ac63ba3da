// Package scan reads append-only JSONL logs as raw byte lines and scrapes
// scalar fields out of them by marker search, without decoding JSON.
package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

const readerSize = 64 << 10

// LineSource streams the lines of one file at a time. The slice returned by
// Next aliases an internal buffer that is reused (and only ever grown) across
// calls, so callers must copy anything they keep past the next call.
//
// A LineSource is not safe for concurrent use.
type LineSource struct {
	f   *os.File
	r   *bufio.Reader
	buf []byte
}

// NewLineSource returns a closed LineSource ready for Open.
func NewLineSource() *LineSource {
	return &LineSource{}
}

// Open closes any file this source already has open and opens path.
func (s *LineSource) Open(path string) error {
	s.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	s.f = f
	if s.r == nil {
		s.r = bufio.NewReaderSize(f, readerSize)
	} else {
		s.r.Reset(f)
	}
	return nil
}

// Next returns the next non-blank line with trailing '\n' and '\r' bytes
// removed. At end of file the source closes itself and returns io.EOF; a
// closed source always returns io.EOF.
func (s *LineSource) Next() ([]byte, error) {
	for {
		if s.f == nil {
			return nil, io.EOF
		}

		line, err := s.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			s.Close()
			return nil, fmt.Errorf("read log file: %w", err)
		}

		n := len(line)
		for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
			n--
		}
		line = line[:n]

		if errors.Is(err, io.EOF) {
			s.Close()
			if n == 0 {
				return nil, io.EOF
			}
			return line, nil
		}
		if n > 0 {
			return line, nil
		}
	}
}

// readLine copies everything through the next '\n' into s.buf.
func (s *LineSource) readLine() ([]byte, error) {
	s.buf = s.buf[:0]
	for {
		frag, err := s.r.ReadSlice('\n')
		s.buf = append(s.buf, frag...)
		if !errors.Is(err, bufio.ErrBufferFull) {
			return s.buf, err
		}
	}
}

// Cap returns the capacity of the reusable line buffer.
func (s *LineSource) Cap() int {
	return cap(s.buf)
}

// Close releases the open file, if any. It is safe to call more than once.
func (s *LineSource) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// EOF reports whether the source has no open stream, either because it was
// closed or because a previous Next reached end of file.
func (s *LineSource) EOF() bool {
	return s.f == nil
}
