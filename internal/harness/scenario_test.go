package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content to dir/scenario.yaml and returns the path.
func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, `
name: test_scenario
description: "Test scenario for validation"
schema: schemas/customer.yaml
validate: true
max_page_size: 20
records:
  - {name: john, tier: 1, active: true}
  - name: jane
    active: false
    lovedOne: {nickname: meowie, ageInYears: 7}
queries:
  - query: "sort=name"
    expect:
      names: [jane, john]
      total: 2
  - query: "tier=x"
    expect:
      error: E114
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, filepath.Join(dir, "schemas/customer.yaml"), scenario.Schema, "schema path is relative to the scenario")
	assert.True(t, scenario.Validate)
	assert.Equal(t, 20, scenario.MaxPageSize)
	require.Len(t, scenario.Records, 2)
	assert.Equal(t, "john", scenario.Records[0]["name"])
	assert.Equal(t, map[string]any{"nickname": "meowie", "ageInYears": 7}, scenario.Records[1]["lovedOne"])

	require.Len(t, scenario.Queries, 2)
	assert.Equal(t, "sort=name", scenario.Queries[0].Query)
	assert.Equal(t, []any{"jane", "john"}, scenario.Queries[0].Expect.Names)
	require.NotNil(t, scenario.Queries[0].Expect.Total)
	assert.Equal(t, 2, *scenario.Queries[0].Expect.Total)
	assert.Nil(t, scenario.Queries[0].Expect.Count)
	assert.Equal(t, "E114", scenario.Queries[1].Expect.Error)
}

func TestLoadScenario_AbsoluteSchemaPath(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "customer.cue")
	path := writeScenario(t, dir, `
name: abs
description: absolute schema path
schema: `+abs+`
queries:
  - query: ""
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, abs, scenario.Schema)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: d
schema: s.yaml
queries: [{query: ""}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
schema: s.yaml
queries: [{query: ""}]
`,
			wantErr: "description is required",
		},
		{
			name: "missing schema",
			content: `
name: n
description: d
queries: [{query: ""}]
`,
			wantErr: "schema is required",
		},
		{
			name: "missing queries",
			content: `
name: n
description: d
schema: s.yaml
`,
			wantErr: "queries list is required",
		},
		{
			name: "negative max page size",
			content: `
name: n
description: d
schema: s.yaml
max_page_size: -1
queries: [{query: ""}]
`,
			wantErr: "max_page_size must not be negative",
		},
		{
			name: "error with rows",
			content: `
name: n
description: d
schema: s.yaml
queries:
  - query: "tier=x"
    expect:
      error: E202
      count: 0
`,
			wantErr: "queries[0]: expect.error cannot be combined",
		},
		{
			name: "unknown field",
			content: `
name: n
description: d
schema: s.yaml
querys: [{query: ""}]
`,
			wantErr: "failed to parse YAML",
		},
		{
			name: "unknown expect field",
			content: `
name: n
description: d
schema: s.yaml
queries:
  - query: ""
    expect: {nmes: [a]}
`,
			wantErr: "failed to parse YAML",
		},
		{
			name:    "malformed yaml",
			content: "name: [unclosed",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadExampleScenarios(t *testing.T) {
	tests := []struct {
		file        string
		wantName    string
		wantRecords int
		wantQueries int
		wantValid   bool
	}{
		{"customer_queries.yaml", "customer_queries", 5, 17, false},
		{"customer_validation.yaml", "customer_validation", 5, 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join(scenarioDir, tt.file))
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, scenario.Name)
			assert.Len(t, scenario.Records, tt.wantRecords)
			assert.Len(t, scenario.Queries, tt.wantQueries)
			assert.Equal(t, tt.wantValid, scenario.Validate)
			assert.FileExists(t, scenario.Schema)
		})
	}
}
