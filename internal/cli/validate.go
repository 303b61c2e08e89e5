package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fspquery/internal/validate"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool              `json:"valid"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Errors      []*validate.Error `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <query>",
		Short: "Check a query string against a record schema",
		Long: `Check a query string against a record schema without running it.

Every problem is reported with its code: E101-E103 for paging, E110-E116
for filters and E120-E121 for the sort path.

Example:
  fspquery validate --schema customer.cue "in^name=jo&sort=lovedOne.ageInYears"
  fspquery validate --schema customer.yaml --max-page-size 50 "pagesize=100"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runValidate(opts *QueryOptions, raw string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := opts.prepare(formatter, raw)
	if err != nil {
		return err
	}

	fingerprint, err := p.instruction.Fingerprint()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if formatter.isJSON() {
		return formatter.Success(ValidationResult{Valid: true, Fingerprint: fingerprint})
	}

	fmt.Fprintf(formatter.Writer, "✓ Query valid for %s\n", p.schema.Name)
	formatter.VerboseLog("fingerprint: %s", fingerprint)
	return nil
}
