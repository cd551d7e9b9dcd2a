// Package lifecycle implements the task status state machine:
// pending -> in-progress -> completed, with issue reports as a side channel.
//
// Each operation evaluates a guard against the task as read by the caller and
// returns a Transition describing a single conditional write. Applying the
// same Transition twice never moves startedAt.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/cleanteam/internal/models"
)

// Lifecycle errors
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyIssue        = errors.New("issue report text is required")
)

// Action names a lifecycle operation.
type Action string

const (
	ActionStart       Action = "start"
	ActionComplete    Action = "complete"
	ActionReportIssue Action = "report-issue"
)

// Transition is the guarded write produced by a lifecycle operation.
// From is the status the write is conditioned on. StartedAt is written only
// when the stored value is unset; CompletedAt and IssueReport overwrite.
type Transition struct {
	StartedAt   *time.Time
	CompletedAt *time.Time
	IssueReport *string
	Action      Action
	From        models.TaskStatus
	To          models.TaskStatus
	NoOp        bool
}

// ChangesStatus reports whether applying the transition moves the task.
func (t Transition) ChangesStatus() bool {
	return !t.NoOp && t.From != t.To
}

// Apply performs the transition on an in-memory task using the same field
// guards as the stored write.
func (t Transition) Apply(task *models.Task) {
	if t.NoOp {
		return
	}
	task.Status = t.To
	if t.StartedAt != nil && task.StartedAt == nil {
		started := *t.StartedAt
		task.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		task.CompletedAt = &completed
	}
	if t.IssueReport != nil {
		issue := *t.IssueReport
		task.IssueReport = &issue
	}
}

// Start moves a pending task to in-progress. Starting a task that is already
// in progress is a no-op so a racing second start cannot re-stamp startedAt.
func Start(task *models.Task, now time.Time) (Transition, error) {
	switch task.Status {
	case models.StatusPending:
		t := Transition{
			Action: ActionStart,
			From:   models.StatusPending,
			To:     models.StatusInProgress,
		}
		if task.StartedAt == nil {
			t.StartedAt = &now
		}
		return t, nil
	case models.StatusInProgress:
		return Transition{
			Action: ActionStart,
			From:   models.StatusInProgress,
			To:     models.StatusInProgress,
			NoOp:   true,
		}, nil
	default:
		return Transition{}, fmt.Errorf("%w: cannot start a %s task", ErrInvalidTransition, task.Status)
	}
}

// Complete moves an in-progress task to completed and stamps completedAt
// with now. Operators may complete a pending task directly.
func Complete(task *models.Task, now time.Time, byOperator bool) (Transition, error) {
	switch {
	case task.Status == models.StatusInProgress,
		task.Status == models.StatusPending && byOperator:
		return Transition{
			Action:      ActionComplete,
			From:        task.Status,
			To:          models.StatusCompleted,
			CompletedAt: &now,
		}, nil
	default:
		return Transition{}, fmt.Errorf("%w: cannot complete a %s task", ErrInvalidTransition, task.Status)
	}
}

// ReportIssue attaches an issue report to a task that is not completed.
// The status is unchanged.
func ReportIssue(task *models.Task, text string) (Transition, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Transition{}, ErrEmptyIssue
	}
	if task.Status == models.StatusCompleted || !task.Status.Valid() {
		return Transition{}, fmt.Errorf("%w: cannot report an issue on a %s task", ErrInvalidTransition, task.Status)
	}
	return Transition{
		Action:      ActionReportIssue,
		From:        task.Status,
		To:          task.Status,
		IssueReport: &text,
	}, nil
}
