package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/cadence/workflow"
)

func caller() workflow.Caller {
	return workflow.Caller{ContactID: flagAs, Admin: flagAdmin}
}

func dailyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Show today's overdue tasks with recommended actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				items, err := app.Tracker.DailyList(ctx, caller())
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Println("All caught up.")
					return nil
				}
				for _, item := range items {
					fmt.Printf("%3dd overdue  %s\n      → %s\n",
						item.DaysOverdue, item.Task.Description, item.Action)
				}
				return nil
			})
		},
	}
}

func focusCmd() *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Work through overdue tasks three at a time",
		Long: `Focus selects up to three overdue tasks clustered by shared gate
contacts, so one sitting can clear several tasks blocked on the same people.
In interactive mode, resolving or skipping a task recomputes the batch from
the remaining pool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				session := workflow.NewSession()
				if !interactive {
					batch, err := app.Tracker.FocusedBatch(ctx, caller(), session)
					if err != nil {
						return err
					}
					printBatch(batch)
					return nil
				}
				return focusLoop(ctx, app, session)
			})
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Resolve tasks one by one")
	return cmd
}

// focusLoop repeatedly shows the current batch and marks tasks handled as
// the user works through them. The batch is re-derived from the store on
// every round.
func focusLoop(ctx context.Context, app *App, session *workflow.Session) error {
	reader := bufio.NewReader(os.Stdin)
	for {
		batch, err := app.Tracker.FocusedBatch(ctx, caller(), session)
		if err != nil {
			return err
		}
		if len(batch.Tasks) == 0 {
			fmt.Println("All caught up.")
			return nil
		}
		printBatch(batch)

		fmt.Print("Task number to mark handled (or q to quit): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "q" || line == "" {
			return nil
		}
		var n int
		if _, err := fmt.Sscanf(line, "%d", &n); err != nil || n < 1 || n > len(batch.Tasks) {
			fmt.Println("Pick a number from the batch.")
			continue
		}
		session.MarkHandled(batch.Tasks[n-1].ID)
	}
}

func printBatch(batch workflow.FocusBatch) {
	if len(batch.Tasks) == 0 {
		fmt.Println("All caught up.")
		return
	}
	if batch.CurrentContact != "" {
		label := batch.CurrentContact
		if batch.NextContact != "" && batch.NextContact != workflow.NoContact {
			label += " then " + batch.NextContact
		}
		fmt.Printf("Batch around %s:\n", label)
	}
	for i, t := range batch.Tasks {
		fmt.Printf("  %d. %s\n", i+1, t.Description)
	}
}

func scoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scores",
		Short: "Show the reliability leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				scores, err := app.Tracker.ScoreBoard(ctx)
				if err != nil {
					return err
				}
				if len(scores) == 0 {
					fmt.Println("No scored contacts yet.")
					return nil
				}
				for _, s := range scores {
					fmt.Printf("%2d. %s %-20s %3d  %s  (%d tasks, %d overdue, streak %dd)\n",
						s.Rank, s.Level.Emoji, s.Contact.Name, s.Score, s.Level.Label,
						s.TotalTasks, s.Overdue, s.Streak)
				}
				return nil
			})
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show project health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				statuses, err := app.Tracker.ProjectHealth(ctx)
				if err != nil {
					return err
				}
				if len(statuses) == 0 {
					fmt.Println("No projects.")
					return nil
				}
				for _, st := range statuses {
					fmt.Printf("%-24s %-16s %d open, %d overdue, %dd to buffered deadline\n",
						st.Project.Name, st.Health, st.OpenTasks, st.OverdueTasks, st.DaysRemaining)
				}
				return nil
			})
		},
	}
}
