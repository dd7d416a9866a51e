package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Inspect the reusable skill library",
		Long: `Inspect the workspace's reusable skill library — the same library the
agent's load_skill tool reads from (.anuris_skills/ then skills/, first
match wins on name collision).

Examples:
  anuris skills list
  anuris skills show code-review`,
	}
	cmd.AddCommand(newSkillsListCmd(), newSkillsShowCmd())
	return cmd
}

func newSkillsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every available skill",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Println(rt.skillsLib.RenderCatalog())
			return nil
		},
	}
}

func newSkillsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a skill's full body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Println(rt.skillsLib.Load(args[0]))
			return nil
		},
	}
}
