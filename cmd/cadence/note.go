package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/cadence/workflow"
)

// restartFlags expresses the restart-the-clock confirm/skip step on the
// command line. Absent flags mean skip: the triggering action persists but
// the clock does not advance.
type restartFlags struct {
	restart bool
	days    int
	date    string
}

func (f *restartFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.restart, "restart", false, "Confirm restarting the clock, keeping the current cadence")
	cmd.Flags().IntVar(&f.days, "restart-days", 0, "Confirm restarting the clock with a new cadence in days")
	cmd.Flags().StringVar(&f.date, "restart-date", "", "Confirm restarting the clock with a cadence derived from a date (YYYY-MM-DD)")
}

// decision converts the flags into a ClockRestart. nil means skip.
func (f *restartFlags) decision(now time.Time) (*workflow.ClockRestart, error) {
	switch {
	case f.date != "":
		target, err := time.ParseInLocation("2006-01-02", f.date, now.Location())
		if err != nil {
			return nil, fmt.Errorf("parse restart date: %w", err)
		}
		days, err := workflow.CadenceFromDate(target, now)
		if err != nil {
			return nil, err
		}
		return &workflow.ClockRestart{Days: days}, nil
	case f.days != 0:
		if err := workflow.ValidateCadence(f.days); err != nil {
			return nil, err
		}
		return &workflow.ClockRestart{Days: f.days}, nil
	case f.restart:
		return &workflow.ClockRestart{}, nil
	default:
		return nil, nil
	}
}

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Append status notes to tasks",
	}
	cmd.AddCommand(noteAddCmd())
	return cmd
}

func noteAddCmd() *cobra.Command {
	var rf restartFlags
	cmd := &cobra.Command{
		Use:   "add <task-id> <text>",
		Short: "Append a note; optionally confirm a clock restart",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				restart, err := rf.decision(time.Now())
				if err != nil {
					return err
				}
				note, err := app.Tracker.AddNote(ctx, args[0], flagAs, strings.Join(args[1:], " "), restart)
				if err != nil {
					return err
				}
				if restart != nil {
					fmt.Printf("Note %s added, clock restarted\n", note.ID)
				} else {
					fmt.Printf("Note %s added (clock unchanged)\n", note.ID)
				}
				return nil
			})
		},
	}
	rf.register(cmd)
	return cmd
}
