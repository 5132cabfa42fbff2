package workflow

import (
	"fmt"
	"time"
)

// Cadence bounds. Cadence values outside this range are rejected at the
// boundary and never stored.
const (
	MinCadenceDays = 1
	MaxCadenceDays = 365
)

// DaysBetween returns the calendar-day difference from a to b (b - a),
// truncating both to their calendar date in b's location. The dates are
// diffed in UTC so a DST transition inside the interval cannot shift the
// count. The result is negative when a is after b.
func DaysBetween(a, b time.Time) int {
	loc := b.Location()
	a = a.In(loc)
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// DaysSinceMovement returns the number of whole calendar days since the
// task's last recorded movement.
func DaysSinceMovement(t *Task, now time.Time) int {
	return DaysBetween(t.LastMovementAt, now)
}

// IsOverdue reports whether the task is open and has gone more days without
// movement than its cadence allows.
func IsOverdue(t *Task, now time.Time) bool {
	return t.Status == StatusOpen && DaysSinceMovement(t, now) > t.FollowUpCadenceDays
}

// DaysOverdue returns daysSinceMovement minus the cadence. It can be zero
// or negative for on-track tasks; it is only meaningful when IsOverdue.
func DaysOverdue(t *Task, now time.Time) int {
	return DaysSinceMovement(t, now) - t.FollowUpCadenceDays
}

// ValidateCadence rejects cadence values outside [MinCadenceDays, MaxCadenceDays].
func ValidateCadence(days int) error {
	if days < MinCadenceDays || days > MaxCadenceDays {
		return &ValidationError{
			Field:   "fu_cadence_days",
			Message: fmt.Sprintf("must be in [%d, %d]", MinCadenceDays, MaxCadenceDays),
		}
	}
	return nil
}

// CadenceFromDate converts a target calendar date into a day count relative
// to today. The resulting count must fall inside the cadence bounds.
func CadenceFromDate(date, now time.Time) (int, error) {
	days := DaysBetween(now, date)
	if err := ValidateCadence(days); err != nil {
		return 0, err
	}
	return days, nil
}

// ClockRestart is a confirmed restart-the-clock decision. A nil *ClockRestart
// means the user skipped: the triggering action still persists, but the clock
// does not advance and the cadence is unchanged. Only an explicit confirm
// moves LastMovementAt.
type ClockRestart struct {
	// Days replaces the task's cadence when > 0. Zero keeps the current
	// cadence and only stamps the reference time.
	Days int
}

// ApplyRestart applies a restart decision to the task in memory. It returns
// true when the task changed. Validation happens before any mutation.
func ApplyRestart(t *Task, now time.Time, restart *ClockRestart) (bool, error) {
	if restart == nil {
		return false, nil
	}
	if restart.Days != 0 {
		if err := ValidateCadence(restart.Days); err != nil {
			return false, err
		}
		t.FollowUpCadenceDays = restart.Days
	}
	t.LastMovementAt = now
	t.UpdatedAt = now
	return true, nil
}
