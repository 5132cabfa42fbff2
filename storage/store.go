// Package storage provides the Task Store: persistence for tasks, contacts,
// notes, and projects behind one narrow contract. The workflow engine never
// talks to a backend directly; it operates on snapshots fetched through this
// interface and writes results back through it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/cadence/workflow"
)

// Common storage errors.
var (
	// ErrNotFound is returned when an entity is not found.
	ErrNotFound = errors.New("entity not found")
)

// EntityType represents the type of a stored entity.
type EntityType string

const (
	EntityTypeTask    EntityType = "task"
	EntityTypeContact EntityType = "contact"
	EntityTypeNote    EntityType = "note"
	EntityTypeProject EntityType = "project"
)

// EntityID represents a typed entity identifier.
type EntityID struct {
	Type EntityType
	ID   string
}

// String returns the string representation of the entity ID.
func (e EntityID) String() string {
	return fmt.Sprintf("%s:%s", e.Type, e.ID)
}

// ParseEntityID parses an entity ID string into its components.
func ParseEntityID(s string) (EntityID, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return EntityID{}, fmt.Errorf("invalid entity ID format: %s", s)
	}
	entityType := EntityType(parts[0])
	switch entityType {
	case EntityTypeTask, EntityTypeContact, EntityTypeNote, EntityTypeProject:
		return EntityID{Type: entityType, ID: parts[1]}, nil
	default:
		return EntityID{}, fmt.Errorf("unknown entity type: %s", parts[0])
	}
}

// NewEntityID generates a new unique entity ID for the given type.
func NewEntityID(t EntityType) EntityID {
	return EntityID{
		Type: t,
		ID:   uuid.New().String(),
	}
}

// TaskFilter narrows ListTasks. Zero values mean "no constraint".
type TaskFilter struct {
	// Status keeps only tasks with the given status.
	Status workflow.Status
	// ProjectID keeps only tasks belonging to the given project.
	ProjectID string
}

// Matches reports whether a task passes the filter.
func (f TaskFilter) Matches(t *workflow.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	return true
}

// Store is the Task Store contract. Implementations are expected to be safe
// for concurrent use; writes are last-write-wins, with no optimistic
// concurrency check.
type Store interface {
	CreateTask(ctx context.Context, t *workflow.Task) (EntityID, error)
	GetTask(ctx context.Context, id string) (*workflow.Task, error)
	// UpdateTask replaces the task's mutable fields wholesale, including the
	// full gate list and the cached blocked flag.
	UpdateTask(ctx context.Context, t *workflow.Task) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]*workflow.Task, error)

	CreateContact(ctx context.Context, c *workflow.Contact) (EntityID, error)
	GetContact(ctx context.Context, id string) (*workflow.Contact, error)
	ListContacts(ctx context.Context) ([]*workflow.Contact, error)

	// AppendNote adds a note row. Notes are append-only: there is no update
	// or delete.
	AppendNote(ctx context.Context, n *workflow.Note) (EntityID, error)
	ListNotes(ctx context.Context, taskID string) ([]*workflow.Note, error)
	// ListAllNotes returns every note, for streak aggregation.
	ListAllNotes(ctx context.Context) ([]*workflow.Note, error)

	CreateProject(ctx context.Context, p *workflow.Project) (EntityID, error)
	ListProjects(ctx context.Context) ([]*workflow.Project, error)

	Close() error
}
