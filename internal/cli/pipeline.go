package cli

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/roach88/fspquery/internal/compiler"
	"github.com/roach88/fspquery/internal/parser"
	"github.com/roach88/fspquery/internal/query"
	"github.com/roach88/fspquery/internal/schema"
	"github.com/roach88/fspquery/internal/validate"
)

// QueryOptions holds the flags of commands that check a query string
// against a record schema.
type QueryOptions struct {
	*RootOptions
	Schema        string
	MaxPageSize   int
	CaseSensitive bool
}

func (o *QueryOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Schema, "schema", "", "path to a .cue or .yaml record schema (required)")
	_ = cmd.MarkFlagRequired("schema")
	cmd.Flags().IntVar(&o.MaxPageSize, "max-page-size", 0, "largest accepted page size (0 for no limit)")
	cmd.Flags().BoolVar(&o.CaseSensitive, "case-sensitive", false, "compare text filters case-sensitively")
}

// prepared is a parsed query that passed validation for a loaded schema.
type prepared struct {
	schema      *schema.Schema
	recordType  reflect.Type
	compiler    *compiler.Compiler
	instruction *query.Instruction
}

// prepare loads the schema, parses raw and validates it. Failures are
// written to f and returned as ExitErrors.
func (o *QueryOptions) prepare(f *OutputFormatter, raw string) (*prepared, error) {
	sc, typ, err := LoadSchema(o.Schema)
	if err != nil {
		le := asLoadError(err)
		return nil, f.Fail(ExitCommandError, le.Code, le.Message, nil)
	}
	f.VerboseLog("Loaded schema %s (table %s)", sc.Name, sc.TableName())

	ins, err := parser.ParseRawQuery(raw)
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeParse, err.Error(), nil)
	}
	if o.CaseSensitive {
		if ins.Filters, err = caseSensitive(ins.Filters); err != nil {
			return nil, f.Fail(ExitFailure, ErrCodeParse, err.Error(), nil)
		}
	}

	c := compiler.New(compiler.WithRecordType(typ))
	v := validate.Validator{Resolver: c.Resolver(), MaxPageSize: o.MaxPageSize}
	if errs := v.All(typ, ins); len(errs) > 0 {
		return nil, outputValidationErrors(f, errs)
	}

	slog.Debug("query prepared", "schema", sc.Name, "filters", ins.Filters.Len(), "sort", ins.SortPath)
	return &prepared{schema: sc, recordType: typ, compiler: c, instruction: ins}, nil
}

// caseSensitive returns a copy of set with IgnoreCase cleared on every
// condition.
func caseSensitive(set *query.FilterSet) (*query.FilterSet, error) {
	conditions := set.Conditions()
	for i := range conditions {
		conditions[i].IgnoreCase = false
	}
	return query.NewFilterSet(conditions...)
}

// compileFailure reports an error from the compiler or a backend.
func compileFailure(f *OutputFormatter, err error) error {
	if compiler.IsCompileError(err) {
		return f.Fail(ExitFailure, compiler.KindOf(err).Code(), err.Error(), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
}

// outputValidationErrors outputs every validation problem and returns an
// ExitFailure error.
func outputValidationErrors(f *OutputFormatter, errs []*validate.Error) error {
	if f.isJSON() {
		result := ValidationResult{Valid: false, Errors: errs}
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, err := range errs {
		fmt.Fprintf(f.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
