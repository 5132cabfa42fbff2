package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/cadence/workflow"
)

func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cadence.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteTaskRoundTrip(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	task := &workflow.Task{
		Description:         "confirm vendor contract",
		FollowUpCadenceDays: 5,
		Blocked:             true,
		BlockerDescription:  "waiting on budget",
		NextStep:            "call Sam",
		Gates: []workflow.Gate{
			{Name: "Gate 1", OwnerName: "Sam", TaskName: "approve budget"},
			{Name: "Gate 2"},
		},
		OwnerIDs:  []string{"contact:a", "contact:b"},
		ProjectID: "project:p1",
	}
	id, err := store.CreateTask(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, EntityTypeTask, id.Type)
	assert.Equal(t, id.String(), task.ID)
	assert.Equal(t, workflow.StatusOpen, task.Status)
	assert.False(t, task.LastMovementAt.IsZero())

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Description, got.Description)
	assert.Equal(t, 5, got.FollowUpCadenceDays)
	assert.True(t, got.Blocked)
	assert.Equal(t, "waiting on budget", got.BlockerDescription)
	assert.Equal(t, task.Gates, got.Gates)
	assert.Equal(t, task.OwnerIDs, got.OwnerIDs)
	assert.Nil(t, got.ClosedAt)

	closed := time.Now()
	got.Status = workflow.StatusClosed
	got.ClosedAt = &closed
	got.Gates[1].Completed = true
	got.Blocked = false
	require.NoError(t, store.UpdateTask(ctx, got))

	again, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusClosed, again.Status)
	require.NotNil(t, again.ClosedAt)
	assert.True(t, again.Gates[1].Completed)
	assert.False(t, again.Blocked)
}

func TestSQLiteTaskNotFound(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	_, err := store.GetTask(ctx, "task:does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.UpdateTask(ctx, &workflow.Task{
		ID:                  "task:does-not-exist",
		Description:         "x",
		Status:              workflow.StatusOpen,
		FollowUpCadenceDays: 7,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetTask(ctx, "contact:wrong-type")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound), "wrong type is a caller bug, not a miss")
}

func TestSQLiteListTasksFilter(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	open := &workflow.Task{Description: "open", FollowUpCadenceDays: 7, ProjectID: "project:p1"}
	_, err := store.CreateTask(ctx, open)
	require.NoError(t, err)

	closedTask := &workflow.Task{Description: "done", FollowUpCadenceDays: 7, Status: workflow.StatusClosed}
	_, err = store.CreateTask(ctx, closedTask)
	require.NoError(t, err)

	all, err := store.ListTasks(ctx, TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyOpen, err := store.ListTasks(ctx, TaskFilter{Status: workflow.StatusOpen})
	require.NoError(t, err)
	require.Len(t, onlyOpen, 1)
	assert.Equal(t, open.ID, onlyOpen[0].ID)

	byProject, err := store.ListTasks(ctx, TaskFilter{ProjectID: "project:p1"})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, open.ID, byProject[0].ID)
}

func TestSQLiteContactRoundTrip(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	contact := &workflow.Contact{
		Name:             "Dana",
		CompanyTags:      []string{"acme", "platform"},
		ThirdPartyVendor: false,
		Private:          true,
		PrivateOwnerID:   "contact:owner",
	}
	id, err := store.CreateContact(ctx, contact)
	require.NoError(t, err)
	assert.Equal(t, EntityTypeContact, id.Type)

	got, err := store.GetContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.Name)
	assert.Equal(t, []string{"acme", "platform"}, got.CompanyTags)
	assert.True(t, got.Private)
	assert.Equal(t, "contact:owner", got.PrivateOwnerID)
	assert.True(t, got.IsInternalStaff())

	list, err := store.ListContacts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteNotesAppendOnly(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	task := &workflow.Task{Description: "noted", FollowUpCadenceDays: 7}
	_, err := store.CreateTask(ctx, task)
	require.NoError(t, err)

	other := &workflow.Task{Description: "other", FollowUpCadenceDays: 7}
	_, err = store.CreateTask(ctx, other)
	require.NoError(t, err)

	for _, body := range []string{"left voicemail", "got a callback"} {
		_, err := store.AppendNote(ctx, &workflow.Note{
			TaskID:   task.ID,
			AuthorID: "contact:dana",
			Body:     body,
		})
		require.NoError(t, err)
	}
	_, err = store.AppendNote(ctx, &workflow.Note{TaskID: other.ID, AuthorID: "contact:dana", Body: "unrelated"})
	require.NoError(t, err)

	notes, err := store.ListNotes(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "left voicemail", notes[0].Body)
	assert.Equal(t, "got a callback", notes[1].Body)
	assert.False(t, notes[0].CreatedAt.IsZero())

	all, err := store.ListAllNotes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteProjectRoundTrip(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	project := &workflow.Project{Name: "Q2 launch", Deadline: deadline, BufferDays: 5}
	id, err := store.CreateProject(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, EntityTypeProject, id.Type)

	list, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Q2 launch", list[0].Name)
	assert.Equal(t, 5, list[0].BufferDays)
	assert.True(t, list[0].Deadline.Equal(deadline))
}
