package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/fspquery/internal/compiler"
	"github.com/roach88/fspquery/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
	Schema   string
}

// LoadResult reports what the load command stored.
type LoadResult struct {
	Table    string `json:"table"`
	Inserted int    `json:"inserted"`
	Total    int    `json:"total"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <data.yaml>",
		Short: "Create a table from a schema and insert records",
		Long: `Create the table a record schema describes, if it does not exist, and
insert the records listed in a YAML file. The database is created if needed.

Loading into a table created from a different schema fails.

Example:
  fspquery load --db ./customers.db --schema customer.cue customers.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "path to a .cue or .yaml record schema (required)")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runLoad(opts *LoadOptions, dataFile string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sc, typ, err := LoadSchema(opts.Schema)
	if err != nil {
		le := asLoadError(err)
		return formatter.Fail(ExitCommandError, le.Code, le.Message, nil)
	}
	records, err := LoadRecords(dataFile, typ)
	if err != nil {
		le := asLoadError(err)
		return formatter.Fail(ExitCommandError, le.Code, le.Message, nil)
	}
	formatter.VerboseLog("Read %d record(s) from %s", len(records), dataFile)

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	defer st.Close()

	tbl, err := store.NewTable[any](st, sc.TableName(), compiler.New(compiler.WithRecordType(typ)))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSchema, err.Error(), nil)
	}
	if err := tbl.CreateTable(ctx); err != nil {
		code := ErrCodeStoreFailed
		if errors.Is(err, store.ErrSchemaMismatch) {
			code = ErrCodeSchema
		}
		return formatter.Fail(ExitCommandError, code, err.Error(), nil)
	}
	if err := tbl.Insert(ctx, records...); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	total, err := tbl.Count(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	slog.Info("records loaded", "table", tbl.Name(), "inserted", len(records), "total", total)

	result := LoadResult{Table: tbl.Name(), Inserted: len(records), Total: total}
	if formatter.isJSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Loaded %d record(s) into %s (%d total)\n", result.Inserted, result.Table, result.Total)
	return nil
}
