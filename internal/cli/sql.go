package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fspquery/internal/querysql"
	"github.com/roach88/fspquery/internal/store"
)

// SQLResult is the statement a query compiles to.
type SQLResult struct {
	SQL      string `json:"sql"`
	Params   []any  `json:"params"`
	CountSQL string `json:"count_sql"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Print the SQLite statement a query compiles to",
		Long: `Print the parameterized SQLite statement a query string compiles to for
the table the schema describes. Values are never interpolated.

Example:
  fspquery sql --schema customer.cue "pre^name=jo&sort=tier&order=desc&page=2&pagesize=10"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runSQL(opts *QueryOptions, raw string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := opts.prepare(formatter, raw)
	if err != nil {
		return err
	}

	// The table only supplies the column layout; nothing is stored.
	tbl, err := store.NewTable[any](nil, p.schema.TableName(), p.compiler)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSchema, err.Error(), nil)
	}
	sel, err := p.compiler.CompileQuery(p.recordType, p.instruction)
	if err != nil {
		return compileFailure(formatter, err)
	}
	sel.From = tbl.Query().From

	sqlc := querysql.NewSQLCompiler()
	text, params, err := sqlc.Compile(sel)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	countText, _, err := sqlc.CompileCount(sel)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	result := SQLResult{SQL: text, Params: params, CountSQL: countText}
	if result.Params == nil {
		result.Params = []any{}
	}
	if formatter.isJSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, result.SQL)
	for i, param := range result.Params {
		fmt.Fprintf(w, "  $%d = %#v\n", i+1, param)
	}
	formatter.VerboseLog("count: %s", result.CountSQL)
	return nil
}
