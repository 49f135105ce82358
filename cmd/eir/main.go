// Command eir compiles CUE module fixtures to SSA IR and inspects the
// results.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/eir/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "eir: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
