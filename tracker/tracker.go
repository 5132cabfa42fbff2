// Package tracker orchestrates workflow operations against the Task Store.
// It owns the user-confirmed transitions (note append, gate completion,
// restart-the-clock) and guarantees that a failed write leaves no in-memory
// state advanced: every mutation is applied to a copy and only the store's
// accepted version is returned.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/cadence/metric"
	"github.com/c360studio/cadence/storage"
	"github.com/c360studio/cadence/workflow"
)

// Tracker wires the workflow engine to a Task Store.
type Tracker struct {
	store  storage.Store
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Tracker over the given store.
func New(store storage.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: store, logger: logger, now: time.Now}
}

// CreateTask validates and persists a new task. The clock reference starts
// at now.
func (tr *Tracker) CreateTask(ctx context.Context, t *workflow.Task) (*workflow.Task, error) {
	if t.Description == "" {
		return nil, &workflow.ValidationError{Field: "description", Message: "must not be empty"}
	}
	if err := workflow.ValidateCadence(t.FollowUpCadenceDays); err != nil {
		return nil, err
	}

	task := cloneTask(t)
	task.Status = workflow.StatusOpen
	task.LastMovementAt = tr.now()
	task.Blocked = workflow.GatesBlocked(task.Gates)

	_, err := tr.store.CreateTask(ctx, task)
	metric.RecordStoreOp("create_task", err)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	tr.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.Int("cadence_days", task.FollowUpCadenceDays))
	return task, nil
}

// AddNote appends a note to a task and, only when the caller confirmed a
// restart, advances the clock. A skipped restart (nil) still persists the
// note but leaves last_movement_at and the cadence untouched.
func (tr *Tracker) AddNote(ctx context.Context, taskID, authorID, body string, restart *workflow.ClockRestart) (*workflow.Note, error) {
	if body == "" {
		return nil, &workflow.ValidationError{Field: "body", Message: "must not be empty"}
	}

	task, err := tr.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	note := &workflow.Note{TaskID: taskID, AuthorID: authorID, Body: body}
	_, err = tr.store.AppendNote(ctx, note)
	metric.RecordStoreOp("append_note", err)
	if err != nil {
		return nil, fmt.Errorf("append note: %w", err)
	}
	metric.NotesAppended.Inc()

	if err := tr.applyRestart(ctx, task, restart); err != nil {
		// The note is already persisted; only the clock advance failed.
		return note, err
	}
	return note, nil
}

// RestartClock applies a confirmed restart-the-clock transition. A nil
// restart is the documented skip path and is a no-op.
func (tr *Tracker) RestartClock(ctx context.Context, taskID string, restart *workflow.ClockRestart) (*workflow.Task, error) {
	task, err := tr.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := tr.applyRestart(ctx, task, restart); err != nil {
		return nil, err
	}
	return task, nil
}

func (tr *Tracker) applyRestart(ctx context.Context, task *workflow.Task, restart *workflow.ClockRestart) error {
	updated := cloneTask(task)
	changed, err := workflow.ApplyRestart(updated, tr.now(), restart)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	err = tr.store.UpdateTask(ctx, updated)
	metric.RecordStoreOp("update_task", err)
	if err != nil {
		return fmt.Errorf("restart clock: %w", err)
	}
	metric.ClockRestarts.Inc()

	*task = *updated
	tr.logger.Info("clock restarted",
		slog.String("task_id", task.ID),
		slog.Int("cadence_days", task.FollowUpCadenceDays))
	return nil
}

// InsertGate splices a gate into the task's chain and persists the result.
func (tr *Tracker) InsertGate(ctx context.Context, taskID string, g workflow.Gate, position int) (*workflow.Task, error) {
	return tr.editGates(ctx, taskID, "insert_gate", func(gates []workflow.Gate) ([]workflow.Gate, error) {
		return workflow.InsertGate(gates, g, position)
	})
}

// RemoveGate removes the gate at index and persists the result.
func (tr *Tracker) RemoveGate(ctx context.Context, taskID string, index int) (*workflow.Task, error) {
	return tr.editGates(ctx, taskID, "remove_gate", func(gates []workflow.Gate) ([]workflow.Gate, error) {
		return workflow.RemoveGate(gates, index)
	})
}

// MoveGate reorders the gate at index by delta and persists the result.
func (tr *Tracker) MoveGate(ctx context.Context, taskID string, index, delta int) (*workflow.Task, error) {
	return tr.editGates(ctx, taskID, "move_gate", func(gates []workflow.Gate) ([]workflow.Gate, error) {
		return workflow.MoveGate(gates, index, delta)
	})
}

// CompleteGate marks the gate at index complete and, only when confirmed,
// restarts the clock. Both the gate list and the recomputed blocked flag are
// written in one update.
func (tr *Tracker) CompleteGate(ctx context.Context, taskID string, index int, restart *workflow.ClockRestart) (*workflow.Task, error) {
	task, err := tr.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	gates, blocked, err := workflow.CompleteGate(task.Gates, index)
	if err != nil {
		return nil, err
	}

	updated := cloneTask(task)
	updated.Gates = gates
	updated.Blocked = blocked
	if restart != nil {
		if _, err := workflow.ApplyRestart(updated, tr.now(), restart); err != nil {
			return nil, err
		}
	}

	err = tr.store.UpdateTask(ctx, updated)
	metric.RecordStoreOp("update_task", err)
	if err != nil {
		return nil, fmt.Errorf("complete gate: %w", err)
	}
	if restart != nil {
		metric.ClockRestarts.Inc()
	}

	tr.logger.Info("gate completed",
		slog.String("task_id", taskID),
		slog.Int("gate_index", index),
		slog.Bool("blocked", blocked))
	return updated, nil
}

// editGates runs a gate-list edit and persists the new list together with
// the recomputed blocked flag and regenerated sequential display labels.
// Every mutation routes through here so the blocked cache can never drift
// from the gate state.
func (tr *Tracker) editGates(ctx context.Context, taskID, op string, edit func([]workflow.Gate) ([]workflow.Gate, error)) (*workflow.Task, error) {
	task, err := tr.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	gates, err := edit(task.Gates)
	if err != nil {
		return nil, err
	}

	updated := cloneTask(task)
	updated.Gates = workflow.RenumberGateLabels(gates)
	updated.Blocked = workflow.GatesBlocked(gates)

	err = tr.store.UpdateTask(ctx, updated)
	metric.RecordStoreOp(op, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// Transition moves a task to a new status, enforcing the lifecycle guard.
// Closing stamps ClosedAt and counts as a movement.
func (tr *Tracker) Transition(ctx context.Context, taskID string, target workflow.Status) (*workflow.Task, error) {
	if !target.IsValid() {
		return nil, &workflow.ValidationError{Field: "status", Message: "unknown status"}
	}

	task, err := tr.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s → %s", workflow.ErrInvalidTransition, task.Status, target)
	}

	updated := cloneTask(task)
	updated.Status = target
	if target == workflow.StatusClosed {
		now := tr.now()
		updated.ClosedAt = &now
		updated.LastMovementAt = now
	}

	err = tr.store.UpdateTask(ctx, updated)
	metric.RecordStoreOp("update_task", err)
	if err != nil {
		return nil, fmt.Errorf("transition task: %w", err)
	}

	tr.logger.Info("task status changed",
		slog.String("task_id", taskID),
		slog.String("from", task.Status.String()),
		slog.String("to", target.String()))
	return updated, nil
}

// DailyList builds the daily list for a caller from a fresh snapshot.
func (tr *Tracker) DailyList(ctx context.Context, caller workflow.Caller) ([]workflow.DailyItem, error) {
	tasks, err := tr.store.ListTasks(ctx, storage.TaskFilter{Status: workflow.StatusOpen})
	metric.RecordStoreOp("list_tasks", err)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return workflow.DailyList(tasks, caller, tr.now()), nil
}

// FocusedBatch builds the next focused batch for a caller's session from a
// fresh snapshot. It is re-derived in full on every call.
func (tr *Tracker) FocusedBatch(ctx context.Context, caller workflow.Caller, session *workflow.Session) (workflow.FocusBatch, error) {
	tasks, err := tr.store.ListTasks(ctx, storage.TaskFilter{Status: workflow.StatusOpen})
	metric.RecordStoreOp("list_tasks", err)
	if err != nil {
		return workflow.FocusBatch{}, fmt.Errorf("list tasks: %w", err)
	}
	batch := workflow.FocusedBatch(tasks, caller, session, tr.now())
	if batch.Tier != "" {
		metric.FocusBatches.WithLabelValues(batch.Tier).Inc()
	}
	return batch, nil
}

// ScoreBoard computes the reliability leaderboard from a fresh snapshot of
// all tasks, contacts, and notes.
func (tr *Tracker) ScoreBoard(ctx context.Context) ([]workflow.ContactScore, error) {
	tasks, err := tr.store.ListTasks(ctx, storage.TaskFilter{})
	metric.RecordStoreOp("list_tasks", err)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	contacts, err := tr.store.ListContacts(ctx)
	metric.RecordStoreOp("list_contacts", err)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	notes, err := tr.store.ListAllNotes(ctx)
	metric.RecordStoreOp("list_notes", err)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return workflow.ScoreBoard(tasks, contacts, notes, tr.now()), nil
}

// ProjectHealth classifies every project against a fresh task snapshot.
func (tr *Tracker) ProjectHealth(ctx context.Context) ([]workflow.ProjectStatus, error) {
	projects, err := tr.store.ListProjects(ctx)
	metric.RecordStoreOp("list_projects", err)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	tasks, err := tr.store.ListTasks(ctx, storage.TaskFilter{})
	metric.RecordStoreOp("list_tasks", err)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	statuses := make([]workflow.ProjectStatus, 0, len(projects))
	for _, p := range projects {
		statuses = append(statuses, workflow.ClassifyProject(p, tasks, tr.now()))
	}
	return statuses, nil
}

// cloneTask deep-copies a task so mutations never touch the caller's copy
// before the store accepts the write.
func cloneTask(t *workflow.Task) *workflow.Task {
	out := *t
	if t.Gates != nil {
		out.Gates = make([]workflow.Gate, len(t.Gates))
		copy(out.Gates, t.Gates)
	}
	if t.OwnerIDs != nil {
		out.OwnerIDs = make([]string, len(t.OwnerIDs))
		copy(out.OwnerIDs, t.OwnerIDs)
	}
	if t.ClosedAt != nil {
		closed := *t.ClosedAt
		out.ClosedAt = &closed
	}
	return &out
}
