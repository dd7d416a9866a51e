// Package commands implements the anuris CLI's subcommands using cobra,
// grounded on the teacher's cmd/copilot/commands package shape.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the root command with every subcommand registered.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "anuris",
		Short: "anuris - terminal coding agent",
		Long: `anuris is a terminal-based coding agent: a bounded tool-calling loop
with a sandboxed workspace, a persistent task board, reusable skills, and
the ability to spawn subagents and teammates.

Examples:
  anuris chat "what's in this repo?"
  anuris chat                       # interactive REPL
  anuris tasks list
  anuris skills list
  anuris config show`,
		Version: version,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to the config TOML file (default ~/.anuris_config.toml)")
	root.PersistentFlags().StringP("workspace", "w", "", "workspace root directory (default: current directory)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newChatCmd(),
		newConfigCmd(),
		newTasksCmd(),
		newSkillsCmd(),
	)

	return root
}
