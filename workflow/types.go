// Package workflow implements the follow-up and gate workflow engine:
// gate sequencing, cadence staleness, action prioritization, and
// reliability scoring over task snapshots.
package workflow

import (
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	// StatusOpen indicates the task is active and subject to follow-up.
	StatusOpen Status = "open"
	// StatusCloseRequested indicates a close has been requested but not confirmed.
	StatusCloseRequested Status = "close_requested"
	// StatusClosed indicates the task is done. Closed is terminal.
	StatusClosed Status = "closed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known task status.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusCloseRequested, StatusClosed:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusOpen:
		// open → close_requested (normal) or closed (direct close)
		return target == StatusCloseRequested || target == StatusClosed
	case StatusCloseRequested:
		// close_requested → closed (confirm) or open (close request rejected)
		return target == StatusClosed || target == StatusOpen
	default:
		return false
	}
}

// Gate is one step in a task's ordered sequence of external approvals.
// Order is significant and user-controlled.
type Gate struct {
	// Name is the display label for the gate.
	Name string `json:"name"`
	// OwnerName is the responsible party. May be empty when nobody is assigned.
	OwnerName string `json:"owner_name"`
	// TaskName optionally describes the work behind the gate.
	TaskName string `json:"task_name,omitempty"`
	// Completed marks the gate as done.
	Completed bool `json:"completed"`
}

// Task is a unit of work with a follow-up cadence and an optional gate chain.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      Status `json:"status"`

	// FollowUpCadenceDays is the number of days the task may go without
	// movement before it is overdue. Always >= 1.
	FollowUpCadenceDays int `json:"fu_cadence_days"`
	// LastMovementAt is the clock reference for staleness.
	LastMovementAt time.Time `json:"last_movement_at"`

	// Blocked caches whether any incomplete gate has a responsible party.
	// It is derived state: every gate mutation recomputes it via GatesBlocked.
	Blocked            bool   `json:"is_blocked"`
	BlockerDescription string `json:"blocker_description,omitempty"`
	NextStep           string `json:"next_step,omitempty"`

	Gates    []Gate   `json:"gates,omitempty"`
	OwnerIDs []string `json:"owner_ids,omitempty"`

	// ProjectID links the task to a project for health classification.
	ProjectID string `json:"project_id,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// OwnedBy returns true if the given contact ID appears among the task's owners.
func (t *Task) OwnedBy(contactID string) bool {
	for _, id := range t.OwnerIDs {
		if id == contactID {
			return true
		}
	}
	return false
}

// Contact is an owner record: a person who can own tasks and appear on gates.
type Contact struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// CompanyTags lists internal-employee affiliations. A contact with at
	// least one tag counts as internal staff for scoring, regardless of the
	// vendor flag.
	CompanyTags      []string `json:"company_tags,omitempty"`
	ThirdPartyVendor bool     `json:"is_third_party_vendor"`

	// Private restricts visibility of the contact to PrivateOwnerID.
	Private        bool   `json:"is_private"`
	PrivateOwnerID string `json:"private_owner_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsInternalStaff reports whether the contact counts as internal staff for
// reliability scoring. Third-party vendors are excluded unless they also
// hold an employee affiliation.
func (c *Contact) IsInternalStaff() bool {
	return len(c.CompanyTags) > 0
}

// Note is an append-only free-text status entry on a task.
type Note struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Project groups tasks under a deadline for health classification.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Deadline is the project due date.
	Deadline time.Time `json:"deadline"`
	// BufferDays is subtracted from the deadline when classifying health.
	BufferDays int `json:"buffer_days"`
}

// Caller identifies who is asking for a view. Visibility rules and the
// focused batch are functions of the caller; there is no ambient identity.
type Caller struct {
	// ContactID links the caller to an owner record. Empty means no linked
	// owner: a non-admin caller with no ContactID sees nothing.
	ContactID string
	// Admin grants global visibility over open tasks.
	Admin bool
}

// Session carries per-session state for the focused batch: the set of tasks
// already handled (resolved or skipped) this sitting. It is owned by the
// caller and passed in, never read from ambient storage.
type Session struct {
	handled map[string]bool
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{handled: make(map[string]bool)}
}

// MarkHandled removes a task from the focused-batch candidate pool for the
// remainder of the session.
func (s *Session) MarkHandled(taskID string) {
	if s.handled == nil {
		s.handled = make(map[string]bool)
	}
	s.handled[taskID] = true
}

// Handled reports whether the task was already handled this session.
func (s *Session) Handled(taskID string) bool {
	return s.handled[taskID]
}
