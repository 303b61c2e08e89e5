package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fspquery/internal/ir"
)

// TestScenarios runs every example scenario and compares its rows with the
// golden file of the same name. To regenerate golden files, run:
//
//	go test ./internal/harness -run TestScenarios -update
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "customer_validation.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "customer_validation", result))
}

func TestResultSnapshot_CanonicalMap(t *testing.T) {
	snapshot := ResultSnapshot{
		ScenarioName: "s",
		Queries: []QueryOutcome{
			{Query: "sort=name", SQL: "SELECT 1", Fingerprint: "abc", Rows: []Row{{"name": ir.String("a"), "tier": ir.Null{}}}, Total: 4},
			{Query: "tier=x", ErrorCode: "E202", ErrorMessage: "boom", Rows: []Row{}},
		},
	}

	data, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
	require.NoError(t, err)
	assert.Equal(t,
		`{"queries":[{"query":"sort=name","rows":[{"name":"a","tier":null}],"total":4},{"error_code":"E202","query":"tier=x"}],"scenario_name":"s"}`,
		string(data),
		"sql, fingerprint and messages stay out of snapshots")
}

func TestCanonicalJSONDeterminism(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenarioDir, "customer_queries.yaml"))
	require.NoError(t, err)

	var outputs []string
	for range 3 {
		result, err := Run(scenario)
		require.NoError(t, err)
		snapshot := ResultSnapshot{ScenarioName: scenario.Name, Queries: result.Queries}
		data, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}

	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
}
