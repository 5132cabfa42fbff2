package workflow

import (
	"errors"
	"testing"
	"time"
)

var clockNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func openTask(id string, cadence, daysAgo int) *Task {
	return &Task{
		ID:                  id,
		Description:         id,
		Status:              StatusOpen,
		FollowUpCadenceDays: cadence,
		LastMovementAt:      clockNow.AddDate(0, 0, -daysAgo),
	}
}

func TestDaysBetween_TruncatesToCalendarDays(t *testing.T) {
	// 23h59m apart but on adjacent calendar days still counts as one day.
	a := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 1 {
		t.Errorf("DaysBetween across midnight = %d, want 1", got)
	}

	// Same day, hours apart: zero.
	a = time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, clockNow); got != 0 {
		t.Errorf("DaysBetween same day = %d, want 0", got)
	}

	// Reversed order goes negative.
	if got := DaysBetween(clockNow, clockNow.AddDate(0, 0, -3)); got != -3 {
		t.Errorf("DaysBetween reversed = %d, want -3", got)
	}
}

func TestDaysBetween_AcrossDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("load tz: %v", err)
	}

	// US spring forward 2026: clocks jump at 02:00 on March 8, so the
	// Mar 7 to Mar 9 interval holds only 47 wall-clock hours. It is still
	// two calendar days.
	a := time.Date(2026, 3, 7, 10, 0, 0, 0, loc)
	b := time.Date(2026, 3, 9, 10, 0, 0, 0, loc)
	if got := DaysBetween(a, b); got != 2 {
		t.Errorf("DaysBetween across spring forward = %d, want 2", got)
	}

	// Fall back (Nov 1) stretches a day to 25 hours; still two days.
	a = time.Date(2026, 10, 31, 10, 0, 0, 0, loc)
	b = time.Date(2026, 11, 2, 10, 0, 0, 0, loc)
	if got := DaysBetween(a, b); got != 2 {
		t.Errorf("DaysBetween across fall back = %d, want 2", got)
	}
}

func TestIsOverdue_AcrossSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("load tz: %v", err)
	}

	task := openTask("t1", 1, 0)
	task.LastMovementAt = time.Date(2026, 3, 7, 12, 0, 0, 0, loc)
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, loc)

	if got := DaysSinceMovement(task, now); got != 2 {
		t.Errorf("DaysSinceMovement = %d, want 2", got)
	}
	if !IsOverdue(task, now) {
		t.Error("task two calendar days stale on a one-day cadence not overdue")
	}
}

func TestIsOverdue(t *testing.T) {
	tests := []struct {
		name        string
		task        *Task
		wantOverdue bool
		wantDays    int
	}{
		{
			// Cadence 5, moved 8 days ago: 3 days overdue.
			name:        "overdue open task",
			task:        openTask("t1", 5, 8),
			wantOverdue: true,
			wantDays:    3,
		},
		{
			name:        "on track",
			task:        openTask("t2", 5, 4),
			wantOverdue: false,
			wantDays:    -1,
		},
		{
			name:        "exactly at cadence is not overdue",
			task:        openTask("t3", 5, 5),
			wantOverdue: false,
			wantDays:    0,
		},
		{
			name: "closed task never overdue",
			task: func() *Task {
				tk := openTask("t4", 5, 30)
				tk.Status = StatusClosed
				return tk
			}(),
			wantOverdue: false,
			wantDays:    25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(tt.task, clockNow); got != tt.wantOverdue {
				t.Errorf("IsOverdue = %v, want %v", got, tt.wantOverdue)
			}
			if got := DaysOverdue(tt.task, clockNow); got != tt.wantDays {
				t.Errorf("DaysOverdue = %d, want %d", got, tt.wantDays)
			}
		})
	}
}

func TestValidateCadence(t *testing.T) {
	for _, ok := range []int{1, 7, 365} {
		if err := ValidateCadence(ok); err != nil {
			t.Errorf("ValidateCadence(%d) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []int{0, -3, 366} {
		var vErr *ValidationError
		if err := ValidateCadence(bad); !errors.As(err, &vErr) {
			t.Errorf("ValidateCadence(%d) = %v, want ValidationError", bad, err)
		}
	}
}

func TestCadenceFromDate(t *testing.T) {
	days, err := CadenceFromDate(clockNow.AddDate(0, 0, 14), clockNow)
	if err != nil {
		t.Fatalf("CadenceFromDate: %v", err)
	}
	if days != 14 {
		t.Errorf("days = %d, want 14", days)
	}

	// A date in the past converts to a non-positive count and is rejected.
	if _, err := CadenceFromDate(clockNow.AddDate(0, 0, -2), clockNow); err == nil {
		t.Error("past date accepted, want error")
	}
	if _, err := CadenceFromDate(clockNow.AddDate(0, 0, 400), clockNow); err == nil {
		t.Error("date past the cadence cap accepted, want error")
	}
}

func TestApplyRestart_Confirm(t *testing.T) {
	task := openTask("t1", 5, 8)

	changed, err := ApplyRestart(task, clockNow, &ClockRestart{Days: 10})
	if err != nil {
		t.Fatalf("ApplyRestart: %v", err)
	}
	if !changed {
		t.Fatal("expected change")
	}
	if task.FollowUpCadenceDays != 10 {
		t.Errorf("cadence = %d, want 10", task.FollowUpCadenceDays)
	}
	if got := DaysSinceMovement(task, clockNow); got != 0 {
		t.Errorf("DaysSinceMovement after restart = %d, want 0", got)
	}
	if IsOverdue(task, clockNow) {
		t.Error("task still overdue after restart")
	}
}

func TestApplyRestart_KeepCadence(t *testing.T) {
	task := openTask("t1", 5, 8)
	changed, err := ApplyRestart(task, clockNow, &ClockRestart{})
	if err != nil || !changed {
		t.Fatalf("ApplyRestart = %v, %v", changed, err)
	}
	if task.FollowUpCadenceDays != 5 {
		t.Errorf("cadence = %d, want unchanged 5", task.FollowUpCadenceDays)
	}
}

func TestApplyRestart_Skip(t *testing.T) {
	task := openTask("t1", 5, 8)
	before := task.LastMovementAt

	changed, err := ApplyRestart(task, clockNow, nil)
	if err != nil {
		t.Fatalf("ApplyRestart: %v", err)
	}
	if changed {
		t.Error("skip reported a change")
	}
	if !task.LastMovementAt.Equal(before) {
		t.Error("skip advanced the clock")
	}
	if task.FollowUpCadenceDays != 5 {
		t.Error("skip changed the cadence")
	}
}

func TestApplyRestart_RejectsBadCadenceBeforeMutation(t *testing.T) {
	task := openTask("t1", 5, 8)
	before := task.LastMovementAt

	if _, err := ApplyRestart(task, clockNow, &ClockRestart{Days: 999}); err == nil {
		t.Fatal("out-of-range cadence accepted")
	}
	if !task.LastMovementAt.Equal(before) || task.FollowUpCadenceDays != 5 {
		t.Error("failed restart mutated the task")
	}
}
