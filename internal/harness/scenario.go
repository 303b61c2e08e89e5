package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario loads a record schema, fills a table with records and runs
// query strings against both backends, checking the rows each returns.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Schema is the path to a .cue or .yaml record schema.
	// Relative paths are resolved against the scenario file location.
	Schema string `yaml:"schema"`

	// Records are the rows loaded before any query runs, keyed by schema
	// field name. Nested records are nested maps.
	Records []map[string]any `yaml:"records"`

	// Validate runs the validator before compiling, so problems surface
	// with E1xx codes instead of compiler E2xx codes.
	Validate bool `yaml:"validate,omitempty"`

	// MaxPageSize bounds page sizes when Validate is set.
	MaxPageSize int `yaml:"max_page_size,omitempty"`

	// Queries are run in order against the same records.
	Queries []QueryStep `yaml:"queries"`
}

// QueryStep is one query string and what it should produce.
type QueryStep struct {
	// Query is a raw query string such as "sort=name&page=2".
	Query string `yaml:"query"`

	// Expect is checked against the rows the query returns.
	Expect Expect `yaml:"expect"`
}

// Expect describes the outcome of a query step.
// Error and Rows/Names are mutually exclusive.
type Expect struct {
	// Error is the expected failure: "parse" for parser errors, otherwise
	// a validator (E1xx) or compiler (E2xx) code.
	Error string `yaml:"error,omitempty"`

	// Names lists the expected values of NameField, in order.
	Names []any `yaml:"names,omitempty"`

	// NameField is the path Names are read from. Defaults to "name".
	NameField string `yaml:"name_field,omitempty"`

	// Rows are expected rows in order. Each row is a subset match keyed by
	// dotted property path.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Count is the expected number of rows, when set.
	Count *int `yaml:"count,omitempty"`

	// Total is the expected number of matching records before paging.
	Total *int `yaml:"total,omitempty"`
}

// ErrorParse is the Expect.Error value for queries the parser rejects.
const ErrorParse = "parse"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "querys:" vs "queries:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	if s.MaxPageSize < 0 {
		return fmt.Errorf("max_page_size must not be negative")
	}

	for i, q := range s.Queries {
		if err := validateExpect(q.Expect); err != nil {
			return fmt.Errorf("queries[%d]: %w", i, err)
		}
	}

	return nil
}

// validateExpect checks that an expect clause is self-consistent.
func validateExpect(e Expect) error {
	if e.Error == "" {
		return nil
	}
	if len(e.Names) > 0 || len(e.Rows) > 0 || e.Count != nil || e.Total != nil {
		return fmt.Errorf("expect.error cannot be combined with row expectations")
	}
	return nil
}
