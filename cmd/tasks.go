package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xvierd/pulse-cli/internal/domain"
)

var (
	addFromBranch bool
	listAll       bool
)

// tasksCmd groups the task list commands.
var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task", "t"},
	Short:   "Manage the task list",
}

var tasksAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a task",
	Long: `Add a task to the list. With --from-branch the text is taken from the
current git branch, e.g. "feature/login-form" becomes "feature: login form".`,
	Args: func(cmd *cobra.Command, args []string) error {
		if addFromBranch {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var (
			task *domain.Task
			err  error
		)
		if addFromBranch {
			wd, wdErr := os.Getwd()
			if wdErr != nil {
				return fmt.Errorf("failed to get working directory: %w", wdErr)
			}
			task, err = app.tasks.AddTaskFromBranch(ctx, wd)
		} else {
			task, err = app.tasks.AddTask(ctx, strings.Join(args, " "))
		}
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), taskJSON(task))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s  %s\n", shortID(task.ID), task.Text)
		return nil
	},
}

var tasksListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long:    `List open tasks, or every task with --all.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := app.tasks.ListTasks(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		if !listAll {
			tasks = openTasks(tasks)
		}
		return printTasks(cmd.OutOrStdout(), tasks)
	},
}

var tasksFindCmd = &cobra.Command{
	Use:   "find [query]",
	Short: "Fuzzy search tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := app.tasks.FindTasks(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("failed to search tasks: %w", err)
		}
		return printTasks(cmd.OutOrStdout(), tasks)
	},
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Toggle a task between open and completed",
	Long:  `Toggle a task. The id may be any unique prefix shown by "pulse tasks list".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := app.tasks.ToggleTask(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to toggle task: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), taskJSON(task))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", task.CheckMark(), task.Text)
		return nil
	},
}

var tasksRmCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"delete"},
	Short:   "Remove a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.tasks.DeleteTask(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s\n", args[0])
		return nil
	},
}

var tasksClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all completed tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := app.tasks.ClearCompleted(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear tasks: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"removed": n})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d completed task(s)\n", n)
		return nil
	},
}

func openTasks(tasks []*domain.Task) []*domain.Task {
	open := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	return open
}

func printTasks(w io.Writer, tasks []*domain.Task) error {
	if jsonOutput {
		return printJSON(w, map[string]any{
			"tasks": tasksJSON(tasks),
			"count": len(tasks),
		})
	}

	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return nil
	}

	fmt.Fprintf(w, "📋 Tasks (%d):\n\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(w, "%s %s  %s\n", t.CheckMark(), shortID(t.ID), t.Text)
	}
	return nil
}

func init() {
	tasksAddCmd.Flags().BoolVarP(&addFromBranch, "from-branch", "b", false, "Use the current git branch as the task text")
	tasksListCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include completed tasks")

	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksFindCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
	tasksCmd.AddCommand(tasksRmCmd)
	tasksCmd.AddCommand(tasksClearCmd)
}
