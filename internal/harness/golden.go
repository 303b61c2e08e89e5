package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fspquery/internal/ir"
)

// ResultSnapshot captures the rows every query of a scenario returned.
// All fields use canonical JSON serialization for deterministic comparison.
type ResultSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Queries      []QueryOutcome `json:"queries"`
}

// toCanonicalMap converts a ResultSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *ResultSnapshot) toCanonicalMap() map[string]any {
	queries := make([]any, len(s.Queries))
	for i, q := range s.Queries {
		m := map[string]any{
			"query": q.Query,
		}
		if q.Failed() {
			m["error_code"] = q.ErrorCode
		} else {
			rows := make([]any, len(q.Rows))
			for j, row := range q.Rows {
				fields := make(map[string]any, len(row))
				for k, v := range row {
					fields[k] = v
				}
				rows[j] = fields
			}
			m["rows"] = rows
			m["total"] = q.Total
		}
		queries[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"queries":       queries,
	}
}

// Snapshot returns the canonical JSON golden files hold for result.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := ResultSnapshot{
		ScenarioName: scenarioName,
		Queries:      result.Queries,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its rows against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the rows don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's rows against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
