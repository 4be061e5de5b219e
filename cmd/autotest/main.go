// Command autotest runs the emulator regression test suite.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/autotest/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
