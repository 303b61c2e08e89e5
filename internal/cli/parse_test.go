package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeParse(t *testing.T, format, raw string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewParseCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{raw})
	err := cmd.Execute()
	return buf.String(), err
}

func TestParseText(t *testing.T) {
	out, err := executeParse(t, "text", "!in^name=r&end^lovedOne.nickname=h&sort=name&order=desc&pagesize=10")
	require.NoError(t, err)

	assert.Contains(t, out, "page:      1\n")
	assert.Contains(t, out, "page size: 10\n")
	assert.Contains(t, out, "sort:      name desc\n")
	assert.Contains(t, out, "filters:   2\n")
	assert.Contains(t, out, "  name NotContains r\n")
	assert.Contains(t, out, "  lovedOne.nickname EndsWith h\n")
}

func TestParseDefaults(t *testing.T) {
	out, err := executeParse(t, "text", "")
	require.NoError(t, err)

	assert.Contains(t, out, "page size: 100\n")
	assert.Contains(t, out, "sort:      none\n")
	assert.Contains(t, out, "filters:   0\n")
}

func TestParseJSON(t *testing.T) {
	out, err := executeParse(t, "json", "gte^tier=2&page=3")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ParseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.Fingerprint)
	assert.Contains(t, resp.Data.Query, "page=3")

	ins := resp.Data.Instruction
	assert.Equal(t, float64(3), ins["page"])
	assert.Equal(t, float64(100), ins["pageSize"])
	assert.Equal(t, "asc", ins["order"])

	filters, ok := ins["filters"].([]any)
	require.True(t, ok)
	require.Len(t, filters, 1)
	filter := filters[0].(map[string]any)
	assert.Equal(t, "tier", filter["path"])
	assert.Equal(t, "GreaterThanOrEqual", filter["operator"])
	assert.Equal(t, "2", filter["value"])
	assert.Equal(t, true, filter["ignoreCase"])
}

func TestParseFingerprintIgnoresSpelling(t *testing.T) {
	a, err := executeParse(t, "json", "eq^name=jo&sort=tier")
	require.NoError(t, err)
	b, err := executeParse(t, "json", "sort=tier&name=jo&page=1&order=ASC")
	require.NoError(t, err)

	var ra, rb struct {
		Data ParseResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(a), &ra))
	require.NoError(t, json.Unmarshal([]byte(b), &rb))
	assert.Equal(t, ra.Data.Fingerprint, rb.Data.Fingerprint)
	assert.Equal(t, ra.Data.Query, rb.Data.Query)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"page not an integer", "page=abc"},
		{"bad order", "order=sideways"},
		{"missing accessor", "gt^=1"},
		{"duplicate accessor", "name=a&name=b"},
		{"conflicting filter", "name=a&eq^name=b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeParse(t, "json", tt.raw)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeParse, resp.Error.Code)
		})
	}
}
