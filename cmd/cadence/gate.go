package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/cadence/workflow"
)

func gateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Edit a task's approval gate chain",
	}
	cmd.AddCommand(gateAddCmd(), gateCompleteCmd(), gateRemoveCmd(), gateMoveCmd())
	return cmd
}

func gateAddCmd() *cobra.Command {
	var (
		owner    string
		taskName string
		position int
	)
	cmd := &cobra.Command{
		Use:   "add <task-id> <gate-name>",
		Short: "Insert a gate into the chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				pos := position
				if pos < 0 {
					task, err := app.Store.GetTask(ctx, args[0])
					if err != nil {
						return err
					}
					pos = len(task.Gates)
				}
				task, err := app.Tracker.InsertGate(ctx, args[0], workflow.Gate{
					Name:      args[1],
					OwnerName: owner,
					TaskName:  taskName,
				}, pos)
				if err != nil {
					return err
				}
				printTask(task)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Responsible party name")
	cmd.Flags().StringVar(&taskName, "work", "", "Description of the work behind the gate")
	cmd.Flags().IntVar(&position, "at", -1, "Insert position (0 = before all gates; default append)")
	return cmd
}

func gateCompleteCmd() *cobra.Command {
	var rf restartFlags
	cmd := &cobra.Command{
		Use:   "complete <task-id> <gate-number>",
		Short: "Mark a gate complete; optionally confirm a clock restart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				index, err := gateIndex(args[1])
				if err != nil {
					return err
				}
				restart, err := rf.decision(time.Now())
				if err != nil {
					return err
				}
				task, err := app.Tracker.CompleteGate(ctx, args[0], index, restart)
				if err != nil {
					return err
				}
				printTask(task)
				return nil
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func gateRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <task-id> <gate-number>",
		Short: "Remove a gate from the chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				index, err := gateIndex(args[1])
				if err != nil {
					return err
				}
				task, err := app.Tracker.RemoveGate(ctx, args[0], index)
				if err != nil {
					return err
				}
				printTask(task)
				return nil
			})
		},
	}
}

func gateMoveCmd() *cobra.Command {
	var up, down bool
	cmd := &cobra.Command{
		Use:   "move <task-id> <gate-number>",
		Short: "Move a gate one slot up or down",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if up == down {
				return fmt.Errorf("exactly one of --up or --down is required")
			}
			return withApp(func(ctx context.Context, app *App) error {
				index, err := gateIndex(args[1])
				if err != nil {
					return err
				}
				delta := 1
				if up {
					delta = -1
				}
				task, err := app.Tracker.MoveGate(ctx, args[0], index, delta)
				if err != nil {
					return err
				}
				printTask(task)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&up, "up", false, "Move the gate earlier in the chain")
	cmd.Flags().BoolVar(&down, "down", false, "Move the gate later in the chain")
	return cmd
}

// gateIndex converts the 1-based gate number users see into a 0-based index.
func gateIndex(arg string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 1 {
		return 0, fmt.Errorf("invalid gate number: %q", arg)
	}
	return n - 1, nil
}
