package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/cadence/workflow"
)

// Bucket names for each entity type.
const (
	BucketTasks    = "CADENCE_TASKS"
	BucketContacts = "CADENCE_CONTACTS"
	BucketNotes    = "CADENCE_NOTES"
	BucketProjects = "CADENCE_PROJECTS"
)

// KVStore provides Task Store operations backed by NATS JetStream KV.
type KVStore struct {
	tasks    jetstream.KeyValue
	contacts jetstream.KeyValue
	notes    jetstream.KeyValue
	projects jetstream.KeyValue
}

// NewKVStore creates a KVStore with the given JetStream context. It creates
// the necessary KV buckets if they don't exist.
func NewKVStore(ctx context.Context, js jetstream.JetStream) (*KVStore, error) {
	tasks, err := getOrCreateBucket(ctx, js, BucketTasks)
	if err != nil {
		return nil, fmt.Errorf("create tasks bucket: %w", err)
	}

	contacts, err := getOrCreateBucket(ctx, js, BucketContacts)
	if err != nil {
		return nil, fmt.Errorf("create contacts bucket: %w", err)
	}

	notes, err := getOrCreateBucket(ctx, js, BucketNotes)
	if err != nil {
		return nil, fmt.Errorf("create notes bucket: %w", err)
	}

	projects, err := getOrCreateBucket(ctx, js, BucketProjects)
	if err != nil {
		return nil, fmt.Errorf("create projects bucket: %w", err)
	}

	return &KVStore{
		tasks:    tasks,
		contacts: contacts,
		notes:    notes,
		projects: projects,
	}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Cadence %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// CreateTask creates a new task and returns its ID.
func (s *KVStore) CreateTask(ctx context.Context, t *workflow.Task) (EntityID, error) {
	id := NewEntityID(EntityTypeTask)
	t.ID = id.String()
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.LastMovementAt.IsZero() {
		t.LastMovementAt = now
	}
	if t.Status == "" {
		t.Status = workflow.StatusOpen
	}

	data, err := json.Marshal(t)
	if err != nil {
		return EntityID{}, fmt.Errorf("marshal task: %w", err)
	}

	if _, err := s.tasks.Create(ctx, id.ID, data); err != nil {
		return EntityID{}, fmt.Errorf("store task: %w", err)
	}

	return id, nil
}

// GetTask retrieves a task by ID.
func (s *KVStore) GetTask(ctx context.Context, id string) (*workflow.Task, error) {
	parsed, err := parseTypedID(id, EntityTypeTask)
	if err != nil {
		return nil, err
	}

	entry, err := s.tasks.Get(ctx, parsed.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	var t workflow.Task
	if err := json.Unmarshal(entry.Value(), &t); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}

	return &t, nil
}

// UpdateTask replaces the task record. Last write wins.
func (s *KVStore) UpdateTask(ctx context.Context, t *workflow.Task) error {
	parsed, err := parseTypedID(t.ID, EntityTypeTask)
	if err != nil {
		return err
	}

	t.UpdatedAt = time.Now()

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	if _, err := s.tasks.Put(ctx, parsed.ID, data); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	return nil
}

// ListTasks returns all tasks matching the filter.
func (s *KVStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*workflow.Task, error) {
	keys, err := s.tasks.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list task keys: %w", err)
	}

	tasks := make([]*workflow.Task, 0, len(keys))
	for _, key := range keys {
		entry, err := s.tasks.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var t workflow.Task
		if err := json.Unmarshal(entry.Value(), &t); err != nil {
			continue
		}
		if filter.Matches(&t) {
			tasks = append(tasks, &t)
		}
	}

	return tasks, nil
}

// CreateContact creates a new contact and returns its ID.
func (s *KVStore) CreateContact(ctx context.Context, c *workflow.Contact) (EntityID, error) {
	id := NewEntityID(EntityTypeContact)
	c.ID = id.String()
	c.CreatedAt = time.Now()

	data, err := json.Marshal(c)
	if err != nil {
		return EntityID{}, fmt.Errorf("marshal contact: %w", err)
	}

	if _, err := s.contacts.Create(ctx, id.ID, data); err != nil {
		return EntityID{}, fmt.Errorf("store contact: %w", err)
	}

	return id, nil
}

// GetContact retrieves a contact by ID.
func (s *KVStore) GetContact(ctx context.Context, id string) (*workflow.Contact, error) {
	parsed, err := parseTypedID(id, EntityTypeContact)
	if err != nil {
		return nil, err
	}

	entry, err := s.contacts.Get(ctx, parsed.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}

	var c workflow.Contact
	if err := json.Unmarshal(entry.Value(), &c); err != nil {
		return nil, fmt.Errorf("unmarshal contact: %w", err)
	}

	return &c, nil
}

// ListContacts returns all contacts.
func (s *KVStore) ListContacts(ctx context.Context) ([]*workflow.Contact, error) {
	keys, err := s.contacts.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list contact keys: %w", err)
	}

	contacts := make([]*workflow.Contact, 0, len(keys))
	for _, key := range keys {
		entry, err := s.contacts.Get(ctx, key)
		if err != nil {
			continue
		}
		var c workflow.Contact
		if err := json.Unmarshal(entry.Value(), &c); err != nil {
			continue
		}
		contacts = append(contacts, &c)
	}

	return contacts, nil
}

// AppendNote adds a note and returns its ID. Notes are never updated.
func (s *KVStore) AppendNote(ctx context.Context, n *workflow.Note) (EntityID, error) {
	if _, err := parseTypedID(n.TaskID, EntityTypeTask); err != nil {
		return EntityID{}, err
	}

	id := NewEntityID(EntityTypeNote)
	n.ID = id.String()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return EntityID{}, fmt.Errorf("marshal note: %w", err)
	}

	if _, err := s.notes.Create(ctx, id.ID, data); err != nil {
		return EntityID{}, fmt.Errorf("store note: %w", err)
	}

	return id, nil
}

// ListNotes returns all notes for a given task.
func (s *KVStore) ListNotes(ctx context.Context, taskID string) ([]*workflow.Note, error) {
	all, err := s.ListAllNotes(ctx)
	if err != nil {
		return nil, err
	}

	notes := make([]*workflow.Note, 0, len(all))
	for _, n := range all {
		if n.TaskID == taskID {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

// ListAllNotes returns every note.
func (s *KVStore) ListAllNotes(ctx context.Context) ([]*workflow.Note, error) {
	keys, err := s.notes.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list note keys: %w", err)
	}

	notes := make([]*workflow.Note, 0, len(keys))
	for _, key := range keys {
		entry, err := s.notes.Get(ctx, key)
		if err != nil {
			continue
		}
		var n workflow.Note
		if err := json.Unmarshal(entry.Value(), &n); err != nil {
			continue
		}
		notes = append(notes, &n)
	}

	return notes, nil
}

// CreateProject creates a new project and returns its ID.
func (s *KVStore) CreateProject(ctx context.Context, p *workflow.Project) (EntityID, error) {
	id := NewEntityID(EntityTypeProject)
	p.ID = id.String()

	data, err := json.Marshal(p)
	if err != nil {
		return EntityID{}, fmt.Errorf("marshal project: %w", err)
	}

	if _, err := s.projects.Create(ctx, id.ID, data); err != nil {
		return EntityID{}, fmt.Errorf("store project: %w", err)
	}

	return id, nil
}

// ListProjects returns all projects.
func (s *KVStore) ListProjects(ctx context.Context) ([]*workflow.Project, error) {
	keys, err := s.projects.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list project keys: %w", err)
	}

	projects := make([]*workflow.Project, 0, len(keys))
	for _, key := range keys {
		entry, err := s.projects.Get(ctx, key)
		if err != nil {
			continue
		}
		var p workflow.Project
		if err := json.Unmarshal(entry.Value(), &p); err != nil {
			continue
		}
		projects = append(projects, &p)
	}

	return projects, nil
}

// Close is a no-op for the KV store; the NATS connection is owned by the app.
func (s *KVStore) Close() error {
	return nil
}

// parseTypedID parses an entity ID string and checks its type.
func parseTypedID(id string, want EntityType) (EntityID, error) {
	parsed, err := ParseEntityID(id)
	if err != nil {
		return EntityID{}, err
	}
	if parsed.Type != want {
		return EntityID{}, fmt.Errorf("invalid entity type: expected %s, got %s", want, parsed.Type)
	}
	return parsed, nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
