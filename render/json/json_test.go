package json

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sonnes/hisaab/core"
	"github.com/sonnes/hisaab/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *report.Report {
	r := &report.Report{}
	r.Add(core.UsageRecord{Date: 20240305, Model: "claude-3", Usage: core.Usage{InputTokens: 120, OutputTokens: 45}})
	r.AddSnapshot(core.CodexSnapshot{Date: 20240305, CodexUsage: core.CodexUsage{InputTokens: 12800}})
	return r
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Render(&buf, sample()))

	var got report.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample(), &got)
	assert.Contains(t, buf.String(), "\n  \"days\"")
}

func TestRenderCompact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Renderer{}).Render(&buf, sample()))

	out := strings.TrimSuffix(buf.String(), "\n")
	assert.NotContains(t, out, "\n")
	assert.True(t, strings.HasPrefix(out, `{"days":[{"date":20240305,`))
}
