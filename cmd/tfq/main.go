// Command tfq is the entry point for the test-failure queue CLI.
package main

import (
	"os"

	"github.com/neonwatty/tfq/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
