package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/cadence/storage"
	"github.com/c360studio/cadence/workflow"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create and manage tasks",
	}
	cmd.AddCommand(taskCreateCmd(), taskShowCmd(), taskListCmd(),
		taskTransitionCmd("close", workflow.StatusClosed, "Close a task"),
		taskTransitionCmd("request-close", workflow.StatusCloseRequested, "Request that a task be closed"),
		taskTransitionCmd("reopen", workflow.StatusOpen, "Reopen a close-requested task"),
	)
	return cmd
}

func taskCreateCmd() *cobra.Command {
	var (
		cadenceDays int
		owners      []string
		projectID   string
		nextStep    string
	)
	cmd := &cobra.Command{
		Use:   "create <description>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				task, err := app.Tracker.CreateTask(ctx, &workflow.Task{
					Description:         strings.Join(args, " "),
					FollowUpCadenceDays: cadenceDays,
					OwnerIDs:            owners,
					ProjectID:           projectID,
					NextStep:            nextStep,
				})
				if err != nil {
					return err
				}
				fmt.Printf("Created %s (follow up every %d days)\n", task.ID, task.FollowUpCadenceDays)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&cadenceDays, "cadence", 7, "Follow-up cadence in days (1-365)")
	cmd.Flags().StringSliceVar(&owners, "owner", nil, "Owning contact ID (repeatable)")
	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	cmd.Flags().StringVar(&nextStep, "next-step", "", "Explicit next step")
	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its gates and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				task, err := app.Store.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				printTask(task)

				notes, err := app.Store.ListNotes(ctx, task.ID)
				if err != nil {
					return err
				}
				for _, n := range notes {
					fmt.Printf("  note %s [%s]: %s\n", n.CreatedAt.Format("2006-01-02"), n.AuthorID, n.Body)
				}
				return nil
			})
		},
	}
}

func taskListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				var filter storage.TaskFilter
				if status != "" {
					if !workflow.Status(status).IsValid() {
						return fmt.Errorf("unknown status: %q", status)
					}
					filter.Status = workflow.Status(status)
				}
				tasks, err := app.Store.ListTasks(ctx, filter)
				if err != nil {
					return err
				}
				if len(tasks) == 0 {
					fmt.Println("No tasks.")
					return nil
				}
				for _, t := range tasks {
					printTask(t)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (open, close_requested, closed)")
	return cmd
}

func taskTransitionCmd(use string, target workflow.Status, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				task, err := app.Tracker.Transition(ctx, args[0], target)
				if err != nil {
					return err
				}
				fmt.Printf("%s is now %s\n", task.ID, task.Status)
				return nil
			})
		},
	}
}

func printTask(t *workflow.Task) {
	blocked := ""
	if t.Blocked {
		blocked = " [blocked]"
	}
	fmt.Printf("%s (%s)%s: %s\n", t.ID, t.Status, blocked, t.Description)
	for i, g := range t.Gates {
		mark := " "
		if g.Completed {
			mark = "x"
		}
		owner := g.OwnerName
		if owner == "" {
			owner = "-"
		}
		fmt.Printf("  [%s] %d. %s (%s)\n", mark, i+1, g.Name, owner)
	}
}
