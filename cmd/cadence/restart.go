package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/cadence/workflow"
)

func restartCmd() *cobra.Command {
	var rf restartFlags
	cmd := &cobra.Command{
		Use:   "restart <task-id>",
		Short: "Restart a task's follow-up clock",
		Long: `Restart stamps the task's movement reference to now. Without flags the
current cadence is kept; --restart-days or --restart-date replace it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				restart, err := rf.decision(time.Now())
				if err != nil {
					return err
				}
				if restart == nil {
					// Running the command is itself the confirmation.
					restart = &workflow.ClockRestart{}
				}
				task, err := app.Tracker.RestartClock(ctx, args[0], restart)
				if err != nil {
					return err
				}
				fmt.Printf("%s: clock restarted, follow up every %d days\n",
					task.ID, task.FollowUpCadenceDays)
				return nil
			})
		},
	}
	rf.register(cmd)
	return cmd
}
