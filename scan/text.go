package scan

import (
	"strings"
	"unicode/utf8"
)

// Text converts raw line bytes to a string. Every byte that does not start a
// valid UTF-8 sequence becomes one U+FFFD. Call it only on values that have
// already passed all filtering: conversion is the expensive step.
func Text(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.Write(b[:size])
		}
		b = b[size:]
	}
	return sb.String()
}
