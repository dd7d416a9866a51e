// Command anuris is the terminal host for the agent runtime: it wires
// together config loading, secrets resolution, session persistence, and
// the agent/tools/team packages behind a cobra CLI, grounded on the
// teacher's cmd/copilot/main.go + commands package shape.
package main

import (
	"fmt"
	"os"

	"github.com/anuris/anuris/cmd/anuris/commands"
)

var version = "dev"

func main() {
	rootCmd := commands.NewRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
