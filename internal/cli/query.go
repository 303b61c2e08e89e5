package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fspquery/internal/compiler"
	"github.com/roach88/fspquery/internal/ir"
	"github.com/roach88/fspquery/internal/query"
	"github.com/roach88/fspquery/internal/store"
)

// RunQueryOptions holds flags for the query command.
type RunQueryOptions struct {
	QueryOptions
	Database string

	// IDGenerator allows overriding the query ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator IDGenerator
}

// QueryResult is one page of records.
type QueryResult struct {
	QueryID    string           `json:"query_id"`
	Rows       []map[string]any `json:"rows"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
	HasMore    bool             `json:"has_more"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunQueryOptions{QueryOptions: QueryOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Run a query string against a loaded table",
		Long: `Parse, validate and run a query string against the table the schema
describes, printing one page of records and the page count.

Example:
  fspquery query --db ./customers.db --schema customer.cue "in^name=jo&sort=tier"
  fspquery query --db ./customers.db --schema customer.cue --format json "page=2&pagesize=10"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runQuery(opts *RunQueryOptions, raw string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ids := opts.IDGenerator
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	queryID := ids.Generate()
	logger := slog.With("query_id", queryID)

	p, err := opts.prepare(formatter, raw)
	if err != nil {
		logger.Warn("query rejected", "error", err)
		return err
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	defer st.Close()

	tbl, err := store.NewTable[any](st, p.schema.TableName(), p.compiler)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSchema, err.Error(), nil)
	}
	// Creating is a no-op for a table loaded from the same schema, and
	// fails for one loaded from another.
	if err := tbl.CreateTable(ctx); err != nil {
		code := ErrCodeStoreFailed
		if errors.Is(err, store.ErrSchemaMismatch) {
			code = ErrCodeSchema
		}
		return formatter.Fail(ExitCommandError, code, err.Error(), nil)
	}

	result, err := fetchPage(ctx, tbl, p)
	if err != nil {
		return compileFailure(formatter, err)
	}
	result.QueryID = queryID
	logger.Info("query completed", "table", tbl.Name(), "rows", len(result.Rows), "total", result.Total)

	if formatter.isJSON() {
		return formatter.encode(CLIResponse{Status: "ok", Data: result, QueryID: queryID})
	}
	outputQueryText(formatter, result)
	return nil
}

// fetchPage runs the prepared query against tbl and counts every match.
func fetchPage(ctx context.Context, tbl *store.Table[any], p *prepared) (*QueryResult, error) {
	ins := p.instruction

	paged, err := compiler.ApplyFilteringSortingPaging[any](p.compiler, tbl, ins)
	if err != nil {
		return nil, err
	}
	records, err := paged.(*store.Table[any]).All(ctx)
	if err != nil {
		return nil, err
	}

	filtered, err := compiler.ApplyFiltering[any](p.compiler, tbl, ins)
	if err != nil {
		return nil, err
	}
	total, err := filtered.(*store.Table[any]).Count(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		values := tbl.Values(rec)
		row := make(map[string]any, len(values))
		for path, v := range values {
			row[path] = ir.Native(v)
		}
		rows[i] = row
	}

	return &QueryResult{
		Rows:       rows,
		Page:       ins.PageNumber,
		PageSize:   ins.PageSize,
		Total:      total,
		TotalPages: query.TotalPages(ins.PageSize, total),
		HasMore:    query.HasMore(ins.PageNumber, ins.PageSize, total),
	}, nil
}

// outputQueryText prints one line per record, fields in path order.
func outputQueryText(f *OutputFormatter, result *QueryResult) {
	w := f.Writer
	for _, row := range result.Rows {
		parts := make([]string, 0, len(row))
		for _, key := range ir.SortedKeys(row) {
			parts = append(parts, fmt.Sprintf("%s=%s", key, formatCell(row[key])))
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}
	fmt.Fprintf(w, "page %d of %d (%d of %d records)", result.Page, result.TotalPages, len(result.Rows), result.Total)
	if result.HasMore {
		fmt.Fprint(w, ", more available")
	}
	fmt.Fprintln(w)
	f.VerboseLog("query_id: %s", result.QueryID)
}

func formatCell(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	iv, ok := ir.FromGo(v)
	if !ok {
		return fmt.Sprint(v)
	}
	return ir.Format(iv)
}
