// Command migsmoke runs migration smoke checks against a blockchain tool's
// Go dependencies and exits non-zero when any check fails.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/migsmoke/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
