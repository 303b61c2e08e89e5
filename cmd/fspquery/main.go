// Command fspquery parses, validates and runs filter/sort/page query strings.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/fspquery/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Errors returned as ExitErrors were already written by the command.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
