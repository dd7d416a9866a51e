package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anuris/anuris/internal/tasks"
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and edit the persistent task board",
		Long: `Inspect and edit the workspace's persistent task board — the same
board the agent's task_list/task_create/task_update tools operate on.

Examples:
  anuris tasks list
  anuris tasks create "fix the flaky test" --description "retry logic races"
  anuris tasks claim 3 --owner me
  anuris tasks update 3 --status completed`,
	}
	cmd.AddCommand(
		newTasksListCmd(),
		newTasksCreateCmd(),
		newTasksClaimCmd(),
		newTasksUpdateCmd(),
	)
	return cmd
}

func openTaskBoard(cmd *cobra.Command) (*tasks.Manager, func(), error) {
	rt, err := buildRuntime(cmd)
	if err != nil {
		return nil, nil, err
	}
	return rt.taskBoard, rt.Close, nil
}

func newTasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every task on the board",
		RunE: func(cmd *cobra.Command, _ []string) error {
			board, closeFn, err := openTaskBoard(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			rendered, err := board.RenderList()
			if err != nil {
				return err
			}
			fmt.Println(rendered)
			return nil
		},
	}
}

func newTasksCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <subject>",
		Short: "Create a new pending task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, closeFn, err := openTaskBoard(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			description, _ := cmd.Flags().GetString("description")
			task, err := board.Create(args[0], description)
			if err != nil {
				return err
			}
			fmt.Printf("Created task #%d: %s\n", task.ID, task.Subject)
			return nil
		},
	}
	cmd.Flags().String("description", "", "longer description of the task")
	return cmd
}

func newTasksClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim <id>",
		Short: "Claim a task and move it to in_progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			owner, _ := cmd.Flags().GetString("owner")
			if strings.TrimSpace(owner) == "" {
				return fmt.Errorf("--owner is required")
			}

			board, closeFn, err := openTaskBoard(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			task, err := board.ClaimTask(id, owner)
			if err != nil {
				return err
			}
			fmt.Printf("Task #%d claimed by %s\n", task.ID, task.Owner)
			return nil
		},
	}
	cmd.Flags().String("owner", "", "who is claiming the task")
	return cmd
}

func newTasksUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task's status, owner, or dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			var params tasks.UpdateParams
			if status, _ := cmd.Flags().GetString("status"); status != "" {
				params.Status = &status
			}
			if owner, _ := cmd.Flags().GetString("owner"); cmd.Flags().Changed("owner") {
				params.Owner = &owner
			}
			if blockedBy, _ := cmd.Flags().GetIntSlice("blocked-by"); len(blockedBy) > 0 {
				params.AddBlockedBy = blockedBy
			}
			if blocks, _ := cmd.Flags().GetIntSlice("blocks"); len(blocks) > 0 {
				params.AddBlocks = blocks
			}

			board, closeFn, err := openTaskBoard(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			task, err := board.Update(id, params)
			if err != nil {
				return err
			}
			if task == nil {
				fmt.Printf("Task #%d deleted\n", id)
				return nil
			}
			fmt.Printf("Task #%d: %s [%s]\n", task.ID, task.Subject, task.Status)
			return nil
		},
	}
	cmd.Flags().String("status", "", "pending|in_progress|completed|deleted")
	cmd.Flags().String("owner", "", "reassign the task's owner")
	cmd.Flags().IntSlice("blocked-by", nil, "task ids that must complete first")
	cmd.Flags().IntSlice("blocks", nil, "task ids this task blocks")
	return cmd
}
