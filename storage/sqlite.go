package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/c360studio/cadence/workflow"
)

// SQLiteStore provides Task Store operations backed by a local SQLite file.
// It exists for single-machine setups where running NATS is overkill; the
// contract is identical to KVStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps concurrent readers cheap; busy_timeout covers writer overlap.
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			description TEXT,
			status TEXT DEFAULT 'open',
			fu_cadence_days INTEGER NOT NULL,
			last_movement_at DATETIME NOT NULL,
			is_blocked INTEGER DEFAULT 0,
			blocker_description TEXT,
			next_step TEXT,
			gates_json TEXT,
			owner_ids_json TEXT,
			project_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			closed_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			company_tags_json TEXT,
			is_third_party_vendor INTEGER DEFAULT 0,
			is_private INTEGER DEFAULT 0,
			private_owner_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			author_id TEXT,
			body TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (task_id) REFERENCES tasks(id)
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			deadline DATETIME,
			buffer_days INTEGER DEFAULT 0
		)`,
	}
	for _, q := range schemas {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)",
		"CREATE INDEX IF NOT EXISTS idx_notes_task ON notes(task_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_notes_author ON notes(author_id, created_at)",
	}
	for _, q := range indexes {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// CreateTask creates a new task and returns its ID.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *workflow.Task) (EntityID, error) {
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

	gates, owners, err := marshalTaskLists(t)
	if err != nil {
		return EntityID{}, err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO tasks
		(id, description, status, fu_cadence_days, last_movement_at, is_blocked,
		 blocker_description, next_step, gates_json, owner_ids_json, project_id,
		 created_at, updated_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Description, string(t.Status), t.FollowUpCadenceDays, t.LastMovementAt,
		t.Blocked, t.BlockerDescription, t.NextStep, gates, owners, t.ProjectID,
		t.CreatedAt, t.UpdatedAt, t.ClosedAt)
	if err != nil {
		return EntityID{}, fmt.Errorf("store task: %w", err)
	}
	return id, nil
}

// GetTask retrieves a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*workflow.Task, error) {
	if _, err := parseTypedID(id, EntityTypeTask); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, description, status,
		fu_cadence_days, last_movement_at, is_blocked, blocker_description,
		next_step, gates_json, owner_ids_json, project_id, created_at,
		updated_at, closed_at FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// UpdateTask replaces the task record. Last write wins.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t *workflow.Task) error {
	if _, err := parseTypedID(t.ID, EntityTypeTask); err != nil {
		return err
	}
	t.UpdatedAt = time.Now()

	gates, owners, err := marshalTaskLists(t)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET description = ?,
		status = ?, fu_cadence_days = ?, last_movement_at = ?, is_blocked = ?,
		blocker_description = ?, next_step = ?, gates_json = ?,
		owner_ids_json = ?, project_id = ?, updated_at = ?, closed_at = ?
		WHERE id = ?`,
		t.Description, string(t.Status), t.FollowUpCadenceDays, t.LastMovementAt,
		t.Blocked, t.BlockerDescription, t.NextStep, gates, owners, t.ProjectID,
		t.UpdatedAt, t.ClosedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTasks returns all tasks matching the filter.
func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*workflow.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, description, status,
		fu_cadence_days, last_movement_at, is_blocked, blocker_description,
		next_step, gates_json, owner_ids_json, project_id, created_at,
		updated_at, closed_at FROM tasks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*workflow.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		if filter.Matches(t) {
			tasks = append(tasks, t)
		}
	}
	return tasks, rows.Err()
}

// CreateContact creates a new contact and returns its ID.
func (s *SQLiteStore) CreateContact(ctx context.Context, c *workflow.Contact) (EntityID, error) {
	id := NewEntityID(EntityTypeContact)
	c.ID = id.String()
	c.CreatedAt = time.Now()

	tags, err := json.Marshal(c.CompanyTags)
	if err != nil {
		return EntityID{}, fmt.Errorf("marshal company tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO contacts
		(id, name, company_tags_json, is_third_party_vendor, is_private,
		 private_owner_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(tags), c.ThirdPartyVendor, c.Private,
		c.PrivateOwnerID, c.CreatedAt)
	if err != nil {
		return EntityID{}, fmt.Errorf("store contact: %w", err)
	}
	return id, nil
}

// GetContact retrieves a contact by ID.
func (s *SQLiteStore) GetContact(ctx context.Context, id string) (*workflow.Contact, error) {
	if _, err := parseTypedID(id, EntityTypeContact); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, name, company_tags_json,
		is_third_party_vendor, is_private, private_owner_id, created_at
		FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListContacts returns all contacts.
func (s *SQLiteStore) ListContacts(ctx context.Context) ([]*workflow.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, company_tags_json,
		is_third_party_vendor, is_private, private_owner_id, created_at
		FROM contacts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*workflow.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// AppendNote adds a note and returns its ID. Notes are never updated.
func (s *SQLiteStore) AppendNote(ctx context.Context, n *workflow.Note) (EntityID, error) {
	if _, err := parseTypedID(n.TaskID, EntityTypeTask); err != nil {
		return EntityID{}, err
	}

	id := NewEntityID(EntityTypeNote)
	n.ID = id.String()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO notes
		(id, task_id, author_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.TaskID, n.AuthorID, n.Body, n.CreatedAt)
	if err != nil {
		return EntityID{}, fmt.Errorf("store note: %w", err)
	}
	return id, nil
}

// ListNotes returns all notes for a given task, oldest first.
func (s *SQLiteStore) ListNotes(ctx context.Context, taskID string) ([]*workflow.Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task_id, author_id, body,
		created_at FROM notes WHERE task_id = ? ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

// ListAllNotes returns every note.
func (s *SQLiteStore) ListAllNotes(ctx context.Context) ([]*workflow.Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task_id, author_id, body,
		created_at FROM notes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

// CreateProject creates a new project and returns its ID.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *workflow.Project) (EntityID, error) {
	id := NewEntityID(EntityTypeProject)
	p.ID = id.String()

	_, err := s.db.ExecContext(ctx, `INSERT INTO projects
		(id, name, deadline, buffer_days) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Deadline, p.BufferDays)
	if err != nil {
		return EntityID{}, fmt.Errorf("store project: %w", err)
	}
	return id, nil
}

// ListProjects returns all projects.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*workflow.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, deadline, buffer_days
		FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*workflow.Project
	for rows.Next() {
		var p workflow.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Deadline, &p.BufferDays); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (*workflow.Task, error) {
	var (
		t          workflow.Task
		status     string
		gatesJSON  sql.NullString
		ownersJSON sql.NullString
		blocker    sql.NullString
		nextStep   sql.NullString
		projectID  sql.NullString
		closedAt   sql.NullTime
	)
	err := sc.Scan(&t.ID, &t.Description, &status, &t.FollowUpCadenceDays,
		&t.LastMovementAt, &t.Blocked, &blocker, &nextStep, &gatesJSON,
		&ownersJSON, &projectID, &t.CreatedAt, &t.UpdatedAt, &closedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	t.Status = workflow.Status(status)
	t.BlockerDescription = blocker.String
	t.NextStep = nextStep.String
	t.ProjectID = projectID.String
	if closedAt.Valid {
		t.ClosedAt = &closedAt.Time
	}
	if gatesJSON.Valid && gatesJSON.String != "" {
		if err := json.Unmarshal([]byte(gatesJSON.String), &t.Gates); err != nil {
			return nil, fmt.Errorf("unmarshal gates: %w", err)
		}
	}
	if ownersJSON.Valid && ownersJSON.String != "" {
		if err := json.Unmarshal([]byte(ownersJSON.String), &t.OwnerIDs); err != nil {
			return nil, fmt.Errorf("unmarshal owner ids: %w", err)
		}
	}
	return &t, nil
}

func scanContact(sc scanner) (*workflow.Contact, error) {
	var (
		c        workflow.Contact
		tagsJSON sql.NullString
		privID   sql.NullString
	)
	err := sc.Scan(&c.ID, &c.Name, &tagsJSON, &c.ThirdPartyVendor, &c.Private,
		&privID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan contact: %w", err)
	}
	c.PrivateOwnerID = privID.String
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &c.CompanyTags); err != nil {
			return nil, fmt.Errorf("unmarshal company tags: %w", err)
		}
	}
	return &c, nil
}

func collectNotes(rows *sql.Rows) ([]*workflow.Note, error) {
	var notes []*workflow.Note
	for rows.Next() {
		var (
			n      workflow.Note
			author sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.TaskID, &author, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.AuthorID = author.String
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

func marshalTaskLists(t *workflow.Task) (gates, owners string, err error) {
	g, err := json.Marshal(t.Gates)
	if err != nil {
		return "", "", fmt.Errorf("marshal gates: %w", err)
	}
	o, err := json.Marshal(t.OwnerIDs)
	if err != nil {
		return "", "", fmt.Errorf("marshal owner ids: %w", err)
	}
	return string(g), string(o), nil
}
