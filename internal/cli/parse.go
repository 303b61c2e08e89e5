package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fspquery/internal/parser"
)

// ParseResult is the parsed form of a query string.
type ParseResult struct {
	Query       string         `json:"query"`       // canonical query string
	Fingerprint string         `json:"fingerprint"` // content hash of the instruction
	Instruction map[string]any `json:"instruction"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query string into an instruction",
		Long: `Parse a query string into a filter, sort and page instruction.

No schema is needed: property paths are not resolved.

Example:
  fspquery parse "!in^name=r&end^lovedOne.nickname=h&sort=name&order=desc&pagesize=10"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runParse(opts *RootOptions, raw string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ins, err := parser.ParseRawQuery(raw)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeParse, err.Error(), nil)
	}
	fingerprint, err := ins.Fingerprint()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	result := ParseResult{
		Query:       parser.Encode(ins),
		Fingerprint: fingerprint,
		Instruction: ins.Document(),
	}
	if formatter.isJSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "page:      %d\n", ins.PageNumber)
	fmt.Fprintf(w, "page size: %d\n", ins.PageSize)
	if ins.SortPath != "" {
		fmt.Fprintf(w, "sort:      %s %s\n", ins.SortPath, ins.SortDirection)
	} else {
		fmt.Fprintln(w, "sort:      none")
	}
	conditions := ins.Filters.Conditions()
	fmt.Fprintf(w, "filters:   %d\n", len(conditions))
	for _, c := range conditions {
		fmt.Fprintf(w, "  %s\n", c)
	}
	formatter.VerboseLog("canonical:   %s", result.Query)
	formatter.VerboseLog("fingerprint: %s", result.Fingerprint)
	return nil
}
