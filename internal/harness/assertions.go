package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/fspquery/internal/ir"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Expectation that failed: error, count, total, names or rows
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Rows     []Row  // Rows the query returned, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "expectation failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Rows) > 0 {
		fmt.Fprintf(&buf, "\nReturned rows:\n")
		for i, row := range e.Rows {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, formatRow(row))
		}
	}

	return buf.String()
}

// EvaluateExpect checks an outcome against its expect clause and returns
// one message per failed expectation.
func EvaluateExpect(o *QueryOutcome, e Expect) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if e.Error != "" || o.Failed() {
		add(assertError(o, e))
		return errs
	}

	if e.Count != nil {
		add(assertCount(o, *e.Count))
	}
	if e.Total != nil && o.Total != *e.Total {
		add(&AssertionError{
			Type:     "total",
			Expected: fmt.Sprintf("%d matching records", *e.Total),
			Actual:   fmt.Sprintf("%d matching records", o.Total),
		})
	}
	if len(e.Names) > 0 {
		add(assertNames(o, e))
	}
	if len(e.Rows) > 0 {
		add(assertRows(o, e.Rows))
	}
	return errs
}

// assertError checks that the query failed with the expected code, or did
// not fail when no error is expected.
func assertError(o *QueryOutcome, e Expect) error {
	if o.ErrorCode == e.Error {
		return nil
	}
	expected, actual := e.Error, o.ErrorCode
	if expected == "" {
		expected = "success"
	}
	if actual == "" {
		actual = fmt.Sprintf("success with %d rows", len(o.Rows))
	} else {
		actual = fmt.Sprintf("%s (%s)", actual, o.ErrorMessage)
	}
	return &AssertionError{Type: "error", Expected: expected, Actual: actual}
}

func assertCount(o *QueryOutcome, want int) error {
	if len(o.Rows) == want {
		return nil
	}
	return &AssertionError{
		Type:     "count",
		Expected: fmt.Sprintf("%d rows", want),
		Actual:   fmt.Sprintf("%d rows", len(o.Rows)),
		Rows:     o.Rows,
	}
}

// assertNames compares the NameField of each row, in order.
func assertNames(o *QueryOutcome, e Expect) error {
	field := e.NameField
	if field == "" {
		field = "name"
	}

	got := make([]string, len(o.Rows))
	ok := len(o.Rows) == len(e.Names)
	for i, row := range o.Rows {
		v, found := row[field]
		if !found {
			return &AssertionError{Type: "names", Expected: fmt.Sprintf("field %q", field), Actual: "no such field"}
		}
		got[i] = ir.Format(v)
		if ok && !valueMatches(e.Names[i], v) {
			ok = false
		}
	}
	if ok {
		return nil
	}

	want := make([]string, len(e.Names))
	for i, n := range e.Names {
		want[i] = fmt.Sprint(displayExpected(n))
	}
	return &AssertionError{
		Type:     "names",
		Expected: "[" + strings.Join(want, ", ") + "]",
		Actual:   "[" + strings.Join(got, ", ") + "]",
	}
}

// assertRows matches each expected row against the row at the same position.
// Only the keys an expected row names are compared (subset semantics).
func assertRows(o *QueryOutcome, want []map[string]any) error {
	if len(o.Rows) != len(want) {
		return assertCount(o, len(want))
	}
	for i, expected := range want {
		for _, key := range ir.SortedKeys(expected) {
			actual, found := o.Rows[i][key]
			if !found {
				return &AssertionError{
					Type:     "rows",
					Expected: fmt.Sprintf("row %d field %q", i, key),
					Actual:   "no such field",
				}
			}
			if !valueMatches(expected[key], actual) {
				return &AssertionError{
					Type:     "rows",
					Expected: fmt.Sprintf("row %d %s = %v", i, key, displayExpected(expected[key])),
					Actual:   fmt.Sprintf("row %d %s = %s", i, key, ir.Format(actual)),
					Rows:     o.Rows,
				}
			}
		}
	}
	return nil
}

// valueMatches compares a value written in scenario YAML with a row value.
// The expected value is converted to the row value's kind first, so 3
// matches Int(3) and "2024-01-01T00:00:00Z" matches a time. A nil expected
// value matches only null.
func valueMatches(expected any, actual ir.Value) bool {
	if expected == nil || ir.IsNull(actual) {
		return expected == nil && ir.IsNull(actual)
	}
	v, err := ir.Coerce(expected, actual.Kind())
	if err != nil {
		return false
	}
	return ir.Compare(v, actual) == 0
}

func displayExpected(v any) any {
	if v == nil {
		return "null"
	}
	return v
}

func formatRow(row Row) string {
	parts := make([]string, 0, len(row))
	for _, key := range ir.SortedKeys(row) {
		parts = append(parts, key+"="+ir.Format(row[key]))
	}
	return strings.Join(parts, " ")
}
