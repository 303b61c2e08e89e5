package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/roach88/fspquery/internal/compiler"
	"github.com/roach88/fspquery/internal/ir"
	"github.com/roach88/fspquery/internal/parser"
	"github.com/roach88/fspquery/internal/query"
	"github.com/roach88/fspquery/internal/querysql"
	"github.com/roach88/fspquery/internal/schema"
	"github.com/roach88/fspquery/internal/sequence"
	"github.com/roach88/fspquery/internal/store"
	"github.com/roach88/fspquery/internal/testutil"
	"github.com/roach88/fspquery/internal/validate"
)

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

// Harness is the test execution engine.
// It holds one scenario's records in both backends.
type Harness struct {
	store      *store.Store
	table      *store.Table[any]
	records    []any
	recordType reflect.Type
	compiler   *compiler.Compiler
	validator  *validate.Validator
	logger     *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, and the
// run ID is fixed so results are reproducible.
//
// Execution flow:
// 1. Load the schema and build its record type
// 2. Create the table and insert the records
// 3. Run every query against the table and the in-memory sequence
// 4. Compare the two backends and evaluate expect clauses
func Run(scenario *Scenario) (*Result, error) {
	return RunWith(scenario, testutil.NewFixedIDGenerator(""))
}

// RunWith is Run with a caller-supplied run ID generator.
func RunWith(scenario *Scenario, ids IDGenerator) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	h, err := setup(ctx, st, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult(ids.Generate())
	for i, step := range scenario.Queries {
		outcome, err := h.runQuery(ctx, step.Query)
		if err != nil {
			return nil, fmt.Errorf("queries[%d]: %w", i, err)
		}
		h.logger.Info("query completed",
			"run_id", result.RunID,
			"query", step.Query,
			"rows", len(outcome.Rows),
			"error_code", outcome.ErrorCode,
		)

		if outcome.Disagreement != "" {
			result.AddError(fmt.Sprintf("queries[%d] %q: backends disagree: %s", i, step.Query, outcome.Disagreement))
		}
		for _, msg := range EvaluateExpect(&outcome, step.Expect) {
			result.AddError(fmt.Sprintf("queries[%d] %q: %s", i, step.Query, msg))
		}
		result.Queries = append(result.Queries, outcome)
	}

	return result, nil
}

// setup loads the scenario schema and records into st.
func setup(ctx context.Context, st *store.Store, scenario *Scenario) (*Harness, error) {
	sc, err := schema.Load(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	typ, err := sc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build record type: %w", err)
	}
	records, err := schema.Records(typ, scenario.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	c := compiler.New(compiler.WithRecordType(typ))
	tbl, err := store.NewTable[any](st, sc.TableName(), c)
	if err != nil {
		return nil, err
	}
	if err := tbl.CreateTable(ctx); err != nil {
		return nil, err
	}
	if err := tbl.Insert(ctx, records...); err != nil {
		return nil, err
	}

	h := &Harness{
		store:      st,
		table:      tbl,
		records:    records,
		recordType: typ,
		compiler:   c,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	if scenario.Validate {
		h.validator = &validate.Validator{Resolver: c.Resolver(), MaxPageSize: scenario.MaxPageSize}
	}
	return h, nil
}

// runQuery parses raw and runs it against both backends. Rejected queries
// are reported in the outcome; the error return is for harness failures.
func (h *Harness) runQuery(ctx context.Context, raw string) (QueryOutcome, error) {
	out := QueryOutcome{Query: raw, Rows: []Row{}}

	ins, err := parser.ParseRawQuery(raw)
	if err != nil {
		out.ErrorCode, out.ErrorMessage = ErrorParse, err.Error()
		return out, nil
	}
	if out.Fingerprint, err = ins.Fingerprint(); err != nil {
		return out, err
	}

	if h.validator != nil {
		if verr := h.validator.Validate(h.recordType, ins); verr != nil {
			var ve *validate.Error
			if errors.As(verr, &ve) {
				out.ErrorCode = ve.Code
			}
			out.ErrorMessage = verr.Error()
			return out, nil
		}
	}

	fromTable, err := compiler.ApplyFilteringSortingPaging[any](h.compiler, h.table, ins)
	if err != nil {
		if !compiler.IsCompileError(err) {
			return out, err
		}
		out.ErrorCode = compiler.KindOf(err).Code()
		out.ErrorMessage = err.Error()
		return out, nil
	}
	fromMemory, err := compiler.ApplyFilteringSortingPaging[any](h.compiler, sequence.Of(h.records), ins)
	if err != nil {
		return out, fmt.Errorf("in-memory backend: %w", err)
	}

	tbl := fromTable.(*store.Table[any])
	if out.SQL, _, err = querysql.NewSQLCompiler().Compile(tbl.Query()); err != nil {
		return out, err
	}
	stored, err := tbl.All(ctx)
	if err != nil {
		return out, err
	}
	inMemory, err := sequence.Collect(fromMemory)
	if err != nil {
		return out, err
	}
	if out.Total, err = h.total(ctx, ins); err != nil {
		return out, err
	}

	out.Rows = h.flatten(inMemory)
	out.Disagreement = diffRows(out.Rows, h.flatten(stored))
	return out, nil
}

// total counts the records matching the filters of ins, ignoring paging.
func (h *Harness) total(ctx context.Context, ins *query.Instruction) (int, error) {
	filtered, err := compiler.ApplyFiltering[any](h.compiler, h.table, ins)
	if err != nil {
		return 0, err
	}
	return filtered.(*store.Table[any]).Count(ctx)
}

// flatten reads every scalar leaf of each record.
func (h *Harness) flatten(records []any) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = h.table.Values(rec)
	}
	return rows
}

// diffRows describes the first difference between two row lists, or returns
// "" if they hold the same values in the same order.
func diffRows(want, got []Row) string {
	if len(want) != len(got) {
		return fmt.Sprintf("in-memory returned %d rows, sqlite returned %d", len(want), len(got))
	}
	for i := range want {
		for _, key := range ir.SortedKeys(want[i]) {
			a, b := want[i][key], got[i][key]
			if b == nil || !sameValue(a, b) {
				return fmt.Sprintf("row %d %s: in-memory %s, sqlite %s", i, key, describe(a), describe(b))
			}
		}
	}
	return ""
}

func sameValue(a, b ir.Value) bool {
	return a.Kind() == b.Kind() && ir.Compare(a, b) == 0
}

func describe(v ir.Value) string {
	if v == nil {
		return "missing"
	}
	return ir.Format(v)
}
