package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a cleaning task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// LiveStatus is the attendance classification maintained by the geofence tracker.
type LiveStatus string

const (
	LiveUnknown LiveStatus = "unknown"
	LiveOnSite  LiveStatus = "on-site"
	LiveAway    LiveStatus = "away"
)

// Task sources
const (
	SourceSmoobu = "smoobu"
	SourceManual = "manual"
)

// Photo phases
const (
	PhaseBefore = "before"
	PhaseAfter  = "after"
)

// Photos groups photo references by cleaning phase.
type Photos struct {
	Before []string `json:"before"`
	After  []string `json:"after"`
}

// Add appends a reference to the given phase.
func (p *Photos) Add(phase, ref string) error {
	switch phase {
	case PhaseBefore:
		p.Before = append(p.Before, ref)
	case PhaseAfter:
		p.After = append(p.After, ref)
	default:
		return fmt.Errorf("unknown photo phase %q", phase)
	}
	return nil
}

// Scan implements sql.Scanner for photos stored as JSONB.
func (p *Photos) Scan(value interface{}) error {
	if value == nil {
		*p = Photos{Before: []string{}, After: []string{}}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to scan Photos: expected []byte or string, got %T", value)
	}

	var decoded Photos
	if err := json.Unmarshal(bytes, &decoded); err != nil {
		return fmt.Errorf("failed to unmarshal photos: %w", err)
	}
	if decoded.Before == nil {
		decoded.Before = []string{}
	}
	if decoded.After == nil {
		decoded.After = []string{}
	}

	*p = decoded
	return nil
}

// Value implements driver.Valuer for photos stored as JSONB.
func (p Photos) Value() (driver.Value, error) {
	normalized := Photos{Before: p.Before, After: p.After}
	if normalized.Before == nil {
		normalized.Before = []string{}
	}
	if normalized.After == nil {
		normalized.After = []string{}
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal photos: %w", err)
	}
	return string(data), nil
}

// Task is a single cleaning job at a property on a given date.
// Date is an ISO calendar date (YYYY-MM-DD).
type Task struct {
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	StartedAt     *time.Time      `json:"startedAt"`
	CompletedAt   *time.Time      `json:"completedAt"`
	AutoLeftAt    *time.Time      `json:"autoLeftAt"`
	ApartmentID   *string         `json:"apartmentId"`
	IssueReport   *string         `json:"issueReport"`
	ID            string          `json:"id"`
	TeamID        string          `json:"teamId"`
	PropertyID    string          `json:"propertyId"`
	Apartment     string          `json:"apartment"`
	Date          string          `json:"date"`
	Status        TaskStatus      `json:"status"`
	LiveStatus    LiveStatus      `json:"liveStatus"`
	GuestName     string          `json:"guestName"`
	Notes         string          `json:"notes"`
	Source        string          `json:"source"`
	AssignedTo    StaffIDs        `json:"assignedTo"`
	Checklist     []string        `json:"checklist"`
	ChecklistDone []int           `json:"checklistDone"`
	Photos        Photos          `json:"photos"`
	OriginalData  json.RawMessage `json:"originalData,omitempty"`
}

// IsExternal reports whether the task was created from the reservation feed.
func (t *Task) IsExternal() bool {
	return t.Source == SourceSmoobu
}

// ToggleChecklistItem flips the done state of the checklist entry at index.
func (t *Task) ToggleChecklistItem(index int) error {
	if index < 0 || index >= len(t.Checklist) {
		return fmt.Errorf("checklist index %d out of range [0,%d)", index, len(t.Checklist))
	}

	next := make([]int, 0, len(t.ChecklistDone)+1)
	found := false
	for _, done := range t.ChecklistDone {
		if done == index {
			found = true
			continue
		}
		next = append(next, done)
	}
	if !found {
		next = append(next, index)
	}
	t.ChecklistDone = next
	return nil
}
