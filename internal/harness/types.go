package harness

import "github.com/roach88/fspquery/internal/ir"

// Row is one result record flattened to dotted property paths. Every scalar
// leaf of the schema is present; unset leaves are ir.Null.
type Row map[string]ir.Value

// QueryOutcome is what one query step produced.
type QueryOutcome struct {
	// Query is the raw query string as written in the scenario.
	Query string `json:"query"`

	// Fingerprint identifies the parsed instruction. Empty if parsing failed.
	Fingerprint string `json:"fingerprint,omitempty"`

	// SQL is the statement the SQLite backend ran. Empty on failure.
	SQL string `json:"sql,omitempty"`

	// Rows are the records returned, in order. Both backends agreed on them
	// unless the result carries a disagreement error.
	Rows []Row `json:"rows"`

	// Total is the number of matching records before paging.
	Total int `json:"total"`

	// Disagreement describes how the SQLite rows differed from the
	// in-memory rows. Empty when they agree.
	Disagreement string `json:"disagreement,omitempty"`

	// ErrorCode is "parse", an E1xx validator code or an E2xx compiler code.
	ErrorCode string `json:"error_code,omitempty"`

	// ErrorMessage is the failure message, for reports.
	ErrorMessage string `json:"error_message,omitempty"`
}

// Failed reports whether the query was rejected.
func (o *QueryOutcome) Failed() bool {
	return o.ErrorCode != ""
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every query matched its expect clause and both backends agreed.
	Pass bool `json:"pass"`

	// RunID identifies this run in logs.
	RunID string `json:"run_id"`

	// Queries holds one outcome per scenario query, in order.
	Queries []QueryOutcome `json:"queries"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(runID string) *Result {
	return &Result{
		Pass:    true,
		RunID:   runID,
		Queries: []QueryOutcome{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
