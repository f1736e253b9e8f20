// Command loom runs the render, GUI and IO engines over a terminal or a
// scripted window.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/loom/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
