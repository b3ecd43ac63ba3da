// Package core defines the usage values that readers produce and the report
// layer consumes.
package core

import "github.com/sonnes/hisaab/calendar"

// Usage holds Claude token counters. Used both per record (one API response)
// and as a running sum.
type Usage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens"`
}

// Add accumulates the counts from other into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
}

// Total returns the sum of all counters.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens + u.CacheCreationTokens + u.CacheReadTokens
}

// UsageRecord is the usage of one Claude Code assistant response. Counters are
// deltas: summing records gives total consumption.
type UsageRecord struct {
	Date  calendar.Date `json:"date"` // local calendar date of the response
	Model string        `json:"model"`
	Usage
}

// CodexUsage holds Codex token counters.
type CodexUsage struct {
	InputTokens           int `json:"input_tokens"`
	CachedInputTokens     int `json:"cached_input_tokens"`
	OutputTokens          int `json:"output_tokens"`
	ReasoningOutputTokens int `json:"reasoning_output_tokens"`
}

// Add accumulates the counts from other into u. Only add snapshots of
// different sessions; two snapshots of the same session overlap.
func (u *CodexUsage) Add(other CodexUsage) {
	u.InputTokens += other.InputTokens
	u.CachedInputTokens += other.CachedInputTokens
	u.OutputTokens += other.OutputTokens
	u.ReasoningOutputTokens += other.ReasoningOutputTokens
}

// CodexSnapshot is the last cumulative token total recorded in one Codex
// session file. It is a running total, not a delta, and must never be added
// to UsageRecord counters.
type CodexSnapshot struct {
	Date calendar.Date `json:"date"` // from the session's sessions/YYYY/MM/DD/ path
	Path string        `json:"path,omitempty"`
	CodexUsage
}
