package scan

import (
	"bytes"
	"math"
)

// Index returns the offset of the first occurrence of marker at or after
// from, or -1.
func Index(buf []byte, marker string, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(buf) {
		return -1
	}
	i := bytes.Index(buf[from:], []byte(marker))
	if i < 0 {
		return -1
	}
	return from + i
}

// LastIndex returns the offset of the last occurrence of marker, or -1.
func LastIndex(buf []byte, marker string) int {
	return bytes.LastIndex(buf, []byte(marker))
}

// Int finds marker at or after from and parses the run of ASCII digits that
// follows it, skipping any ':', ' ' and '\t' in between. Signs, decimals and
// exponents are not understood: parsing stops at the first non-digit. A
// missing marker or missing digits yields 0. Values beyond math.MaxInt64
// saturate.
func Int(buf []byte, marker string, from int) int {
	i := Index(buf, marker, from)
	if i < 0 {
		return 0
	}
	i += len(marker)

	for i < len(buf) && (buf[i] == ':' || buf[i] == ' ' || buf[i] == '\t') {
		i++
	}

	n := 0
	for ; i < len(buf) && buf[i] >= '0' && buf[i] <= '9'; i++ {
		d := int(buf[i] - '0')
		if n > (math.MaxInt64-d)/10 {
			n = math.MaxInt64
			continue
		}
		n = n*10 + d
	}
	return n
}

// String finds marker at or after from and returns the bytes between the
// next two '"' characters. Escapes are not interpreted. When maxLen > 0 the
// value is cut to at most maxLen-1 bytes; longer values are truncated without
// error. The result aliases buf.
func String(buf []byte, marker string, from, maxLen int) []byte {
	i := Index(buf, marker, from)
	if i < 0 {
		return nil
	}
	i += len(marker)

	q := bytes.IndexByte(buf[i:], '"')
	if q < 0 {
		return nil
	}
	start := i + q + 1

	end := len(buf)
	if q := bytes.IndexByte(buf[start:], '"'); q >= 0 {
		end = start + q
	}
	if maxLen > 0 && end-start > maxLen-1 {
		end = start + maxLen - 1
	}
	return buf[start:end:end]
}
