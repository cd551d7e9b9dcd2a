package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/cleanteam/internal/attendance"
	"github.com/stwalsh4118/cleanteam/internal/config"
	"github.com/stwalsh4118/cleanteam/internal/geo"
	"github.com/stwalsh4118/cleanteam/internal/lifecycle"
	"github.com/stwalsh4118/cleanteam/internal/logger"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/repository"
)

// ManualTaskPrefix prefixes ids of operator-created tasks.
const ManualTaskPrefix = "task_manual_"

// ManualTask is the input of an operator-created task. A nil crew takes the
// property's default crew.
type ManualTask struct {
	AssignedTo models.StaffIDs
	PropertyID string
	Date       string
	GuestName  string
	Notes      string
}

// TaskEdit is an operator edit; nil fields are left unchanged.
type TaskEdit struct {
	AssignedTo *models.StaffIDs
	Date       *string
	GuestName  *string
	Notes      *string
}

// WorkLogView is a work log with its point verification against the property.
type WorkLogView struct {
	*models.WorkLog
	StartDeviation *geo.Deviation `json:"startDeviation"`
	EndDeviation   *geo.Deviation `json:"endDeviation"`
	Flagged        bool           `json:"flagged"`
}

// TaskService defines the task operations of staff and operators.
type TaskService interface {
	List(ctx context.Context, teamID string) ([]*models.Task, error)
	Get(ctx context.Context, teamID, taskID string) (*models.Task, error)
	CreateManual(ctx context.Context, teamID string, in ManualTask) (*models.Task, error)
	Update(ctx context.Context, teamID, taskID string, edit TaskEdit) (*models.Task, error)
	ClearAll(ctx context.Context, teamID string) (int64, error)

	// Start moves the task to in-progress, records the staff member's start
	// snapshot and begins attendance tracking for them.
	Start(ctx context.Context, teamID, taskID, staffID string, position *models.Position) (*models.Task, error)

	// Complete moves the task to completed, records the staff member's end
	// snapshot and ends attendance tracking for the task.
	Complete(ctx context.Context, teamID, taskID, staffID string, position *models.Position, byOperator bool) (*models.Task, error)

	ReportIssue(ctx context.Context, teamID, taskID, text string) (*models.Task, error)

	// PushPosition hands a live position sample to the tracker. A nil
	// position reports that geolocation is unavailable.
	PushPosition(ctx context.Context, teamID, taskID, staffID string, position *models.Position) error

	ToggleChecklist(ctx context.Context, teamID, taskID string, index int) (*models.Task, error)
	AddPhoto(ctx context.Context, teamID, taskID, phase, ref string) (*models.Task, error)
	WorkLogs(ctx context.Context, teamID, taskID string) ([]WorkLogView, error)
}

// taskService is the concrete implementation of TaskService.
type taskService struct {
	tasks    repository.TaskRepository
	props    repository.PropertyRepository
	worklogs repository.WorkLogRepository
	tracker  Tracker
	geofence config.GeofenceConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(
	tasks repository.TaskRepository,
	props repository.PropertyRepository,
	worklogs repository.WorkLogRepository,
	tracker Tracker,
	geofence config.GeofenceConfig,
	log *logger.Logger,
) TaskService {
	return &taskService{
		tasks:    tasks,
		props:    props,
		worklogs: worklogs,
		tracker:  tracker,
		geofence: geofence,
		log:      log.WithComponent("tasks"),
		now:      time.Now,
	}
}

// List returns every task of the team.
func (s *taskService) List(ctx context.Context, teamID string) ([]*models.Task, error) {
	tasks, err := s.tasks.ListByTeam(ctx, teamID)
	if err != nil {
		s.log.Error("Failed to list tasks", err, map[string]interface{}{"team_id": teamID})
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Get returns one task or ErrTaskNotFound.
func (s *taskService) Get(ctx context.Context, teamID, taskID string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, teamID, taskID)
	if err != nil {
		s.log.Error("Failed to load task", err, map[string]interface{}{
			"team_id": teamID,
			"task_id": taskID,
		})
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return task, nil
}

// CreateManual creates a pending task that snapshots the property's crew
// and checklist.
func (s *taskService) CreateManual(ctx context.Context, teamID string, in ManualTask) (*models.Task, error) {
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrInvalidInput, in.Date)
	}

	prop, err := s.props.FindByID(ctx, teamID, in.PropertyID)
	if err != nil {
		s.log.Error("Failed to load property", err, map[string]interface{}{
			"team_id":     teamID,
			"property_id": in.PropertyID,
		})
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if prop == nil {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, in.PropertyID)
	}

	crew := prop.DefaultStaff.Copy()
	if in.AssignedTo != nil {
		crew = models.NewStaffIDs(in.AssignedTo...)
	}

	now := s.now().UTC()
	task := &models.Task{
		ID:            ManualTaskPrefix + uuid.NewString(),
		TeamID:        teamID,
		PropertyID:    prop.ID,
		Apartment:     prop.Name,
		ApartmentID:   prop.ApartmentID,
		Date:          in.Date,
		Status:        models.StatusPending,
		LiveStatus:    models.LiveUnknown,
		GuestName:     strings.TrimSpace(in.GuestName),
		Notes:         strings.TrimSpace(in.Notes),
		Source:        models.SourceManual,
		AssignedTo:    crew,
		Checklist:     prop.EffectiveChecklist(),
		ChecklistDone: []int{},
		Photos:        models.Photos{Before: []string{}, After: []string{}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		s.log.Error("Failed to create task", err, map[string]interface{}{
			"team_id": teamID,
			"task_id": task.ID,
		})
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.log.Info("Manual task created", map[string]interface{}{
		"team_id":     teamID,
		"task_id":     task.ID,
		"property_id": prop.ID,
		"date":        task.Date,
	})
	return task, nil
}

// Update applies an operator edit. Staff removed from the assignment stop
// being tracked.
func (s *taskService) Update(ctx context.Context, teamID, taskID string, edit TaskEdit) (*models.Task, error) {
	task, err := s.Get(ctx, teamID, taskID)
	if err != nil {
		return nil, err
	}

	previous := task.AssignedTo.Copy()
	if edit.AssignedTo != nil {
		task.AssignedTo = models.NewStaffIDs((*edit.AssignedTo)...)
	}
	if edit.Date != nil {
		if _, err := time.Parse("2006-01-02", *edit.Date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrInvalidInput, *edit.Date)
		}
		task.Date = *edit.Date
	}
	if edit.GuestName != nil {
		task.GuestName = strings.TrimSpace(*edit.GuestName)
	}
	if edit.Notes != nil {
		task.Notes = strings.TrimSpace(*edit.Notes)
	}
	task.UpdatedAt = s.now().UTC()

	updated, err := s.tasks.Update(ctx, task)
	if err != nil {
		s.log.Error("Failed to update task", err, map[string]interface{}{
			"team_id": teamID,
			"task_id": taskID,
		})
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	if removed := previous.Without(updated.AssignedTo); removed.Len() > 0 {
		s.tracker.StopStaff(teamID, taskID, removed)
		s.log.Info("Stopped tracking unassigned staff", map[string]interface{}{
			"team_id": teamID,
			"task_id": taskID,
			"staff":   removed.Strings(),
		})
	}

	return updated, nil
}

// ClearAll deletes every task of the team and ends all of its tracking.
func (s *taskService) ClearAll(ctx context.Context, teamID string) (int64, error) {
	s.tracker.StopTeam(teamID)

	deleted, err := s.tasks.DeleteAll(ctx, teamID)
	if err != nil {
		s.log.Error("Failed to clear tasks", err, map[string]interface{}{"team_id": teamID})
		return 0, fmt.Errorf("failed to clear tasks: %w", err)
	}

	s.log.Warn("All tasks cleared", map[string]interface{}{
		"team_id": teamID,
		"deleted": deleted,
	})
	return deleted, nil
}

// Start moves the task to in-progress for the acting staff member.
func (s *taskService) Start(ctx context.Context, teamID, taskID, staffID string, position *models.Position) (*models.Task, error) {
	if err := validatePosition(position); err != nil {
		return nil, err
	}
	task, err := s.Get(ctx, teamID, taskID)
	if err != nil {
		return nil, err
	}
	if staffID != "" && !task.AssignedTo.Contains(staffID) {
		return nil, fmt.Errorf("%w: %s", ErrNotAssigned, staffID)
	}

	now := s.now().UTC()
	tr, err := lifecycle.Start(task, now)
	if err != nil {
		return nil, err
	}
	started, err := s.transition(ctx, task, tr, now)
	if err != nil {
		return nil, err
	}

	if staffID != "" {
		if _, err := s.worklogs.Upsert(ctx, &models.WorkLog{
			TeamID:        teamID,
			TaskID:        taskID,
			StaffID:       staffID,
			StartedAt:     &now,
			StartLocation: position,
			UpdatedAt:     now,
		}); err != nil {
			// The transition is committed; a missing snapshot never fails the start.
			s.log.Error("Failed to record work log start", err, map[string]interface{}{
				"team_id":  teamID,
				"task_id":  taskID,
				"staff_id": staffID,
			})
		}
		s.tracker.Start(attendance.Key{TeamID: teamID, TaskID: taskID, StaffID: staffID})
	}

	s.log.Info("Task started", map[string]interface{}{
		"team_id":  teamID,
		"task_id":  taskID,
		"staff_id": staffID,
		"no_op":    tr.NoOp,
	})
	return started, nil
}

// Complete moves the task to completed.
func (s *taskService) Complete(ctx context.Context, teamID, taskID, staffID string, position *models.Position, byOperator bool) (*models.Task, error) {
	if err := validatePosition(position); err != nil {
		return nil, err
	}
	task, err := s.Get(ctx, teamID, taskID)
	if err != nil {
		return nil, err
	}
	if !byOperator && staffID != "" && !task.AssignedTo.Contains(staffID) {
		return nil, fmt.Errorf("%w: %s", ErrNotAssigned, staffID)
	}

	now := s.now().UTC()
	tr, err := lifecycle.Complete(task, now, byOperator)
	if err != nil {
		return nil, err
	}
	completed, err := s.transition(ctx, task, tr, now)
	if err != nil {
		return nil, err
	}
	s.tracker.StopTask(teamID, taskID)

	if staffID != "" && task.AssignedTo.Contains(staffID) {
		if _, err := s.worklogs.Upsert(ctx, &models.WorkLog{
			TeamID:      teamID,
			TaskID:      taskID,
			StaffID:     staffID,
			CompletedAt: &now,
			EndLocation: position,
			UpdatedAt:   now,
		}); err != nil {
			s.log.Error("Failed to record work log completion", err, map[string]interface{}{
				"team_id":  teamID,
				"task_id":  taskID,
				"staff_id": staffID,
			})
		}
	}

	s.log.Info("Task completed", map[string]interface{}{
		"team_id":     teamID,
		"task_id":     taskID,
		"staff_id":    staffID,
		"by_operator": byOperator,
	})
	return completed, nil
}

// ReportIssue attaches an issue report without changing the status.
func (s *taskService) ReportIssue(ctx context.Context, teamID, taskID, text string) (*models.Task, error) {
	task, err := s.Get(ctx, teamID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	tr, err := lifecycle.ReportIssue(task, text)
	if err != nil {
		return nil, err
	}
	updated, err := s.transition(ctx, task, tr, now)
	if err != nil {
		return nil, err
	}

	s.log.Warn("Issue reported", map[string]interface{}{
		"team_id": teamID,
		"task_id": taskID,
	})
	return updated, nil
}

// transition performs the conditional write. When the guard fails because a
// concurrent caller already moved the task to the same target, the stored
// task is returned; any other status is an invalid transition.
func (s *taskService) transition(ctx context.Context, task *models.Task, tr lifecycle.Transition, now time.Time) (*models.Task, error) {
	if tr.NoOp {
		return task, nil
	}

	updated, err := s.tasks.ApplyTransition(ctx, task.TeamID, task.ID, tr, now)
	if err != nil {
		s.log.Error("Failed to apply transition", err, map[string]interface{}{
			"task_id": task.ID,
			"action":  tr.Action,
		})
		return nil, fmt.Errorf("failed to %s task: %w", tr.Action, err)
	}
	if updated != nil {
		return updated, nil
	}

	current, err := s.Get(ctx, task.TeamID, task.ID)
	if err != nil {
		return nil, err
	}
	if current.Status == tr.To && tr.ChangesStatus() {
		s.log.Debug("Transition already applied concurrently", map[string]interface{}{
			"task_id": task.ID,
			"action":  tr.Action,
		})
		return current, nil
	}
	return nil, fmt.Errorf("%w: task is now %s", lifecycle.ErrInvalidTransition, current.Status)
}

// PushPosition forwards a sample to the staff member's subscription,
// resubscribing when the task is still in progress and assigned.
func (s *taskService) PushPosition(ctx context.Context, teamID, taskID, staffID string, position *models.Position) error {
	if staffID == "" {
		return fmt.Errorf("%w: staff id is required", ErrInvalidInput)
	}
	if err := validatePosition(position); err != nil {
		return err
	}

	key := attendance.Key{TeamID: teamID, TaskID: taskID, StaffID: staffID}
	err := s.tracker.Push(key, position)
	if err == nil || !errors.Is(err, attendance.ErrNotTracking) {
		return err
	}

	task, err := s.Get(ctx, teamID, taskID)
	if err != nil {
		return err
	}
	if !task.AssignedTo.Contains(staffID) {
		return fmt.Errorf("%w: %s", ErrNotAssigned, staffID)
	}
	if task.Status != models.StatusInProgress {
		return fmt.Errorf("%w: task is %s", attendance.ErrNotTracking, task.Status)
	}

	s.log.Debug("Resubscribing attendance tracking", map[string]interface{}{
		"team_id":  teamID,
		"task_id":  taskID,
		"staff_id": staffID,
	})
	s.tracker.Start(key)
	return s.tracker.Push(key, position)
}

// ToggleChecklist flips one checklist item.
func (s *taskService) ToggleChecklist(ctx context.Context, teamID, taskID string, index int) (*models.Task, error) {
	task, err := s.Get(ctx, teamID, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.ToggleChecklistItem(index); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.tasks.SetChecklistDone(ctx, teamID, taskID, task.ChecklistDone)
	if err != nil {
		s.log.Error("Failed to update checklist", err, map[string]interface{}{
			"team_id": teamID,
			"task_id": taskID,
			"index":   index,
		})
		return nil, fmt.Errorf("failed to update checklist: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return updated, nil
}

// AddPhoto appends a photo reference to the before or after phase.
func (s *taskService) AddPhoto(ctx context.Context, teamID, taskID, phase, ref string) (*models.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: photo reference is required", ErrInvalidInput)
	}
	if phase != models.PhaseBefore && phase != models.PhaseAfter {
		return nil, fmt.Errorf("%w: phase must be %q or %q", ErrInvalidInput, models.PhaseBefore, models.PhaseAfter)
	}

	updated, err := s.tasks.AppendPhoto(ctx, teamID, taskID, phase, ref)
	if err != nil {
		s.log.Error("Failed to append photo", err, map[string]interface{}{
			"team_id": teamID,
			"task_id": taskID,
		})
		return nil, fmt.Errorf("failed to append photo: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return updated, nil
}

// WorkLogs returns the task's work logs verified against the property
// coordinates. Without coordinates no log is flagged.
func (s *taskService) WorkLogs(ctx context.Context, teamID, taskID string) ([]WorkLogView, error) {
	task, err := s.Get(ctx, teamID, taskID)
	if err != nil {
		return nil, err
	}

	prop, err := s.props.FindByID(ctx, teamID, task.PropertyID)
	if err != nil {
		s.log.Error("Failed to load property", err, map[string]interface{}{
			"team_id":     teamID,
			"property_id": task.PropertyID,
		})
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	var site *models.Coordinates
	if prop.HasCoordinates() {
		site = prop.Coordinates
	}

	logs, err := s.worklogs.ListByTask(ctx, teamID, taskID)
	if err != nil {
		s.log.Error("Failed to list work logs", err, map[string]interface{}{
			"team_id": teamID,
			"task_id": taskID,
		})
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}

	views := make([]WorkLogView, 0, len(logs))
	for _, wl := range logs {
		view := WorkLogView{
			WorkLog:        wl,
			StartDeviation: geo.Verify(site, wl.StartLocation, s.geofence.DeviationMeters),
			EndDeviation:   geo.Verify(site, wl.EndLocation, s.geofence.DeviationMeters),
		}
		view.Flagged = (view.StartDeviation != nil && view.StartDeviation.Flagged) ||
			(view.EndDeviation != nil && view.EndDeviation.Flagged)
		views = append(views, view)
	}
	return views, nil
}

func validatePosition(p *models.Position) error {
	if p == nil {
		return nil
	}
	if !p.Coordinates().Valid() {
		return fmt.Errorf("%w: lat=%f lng=%f", ErrInvalidCoordinates, p.Lat, p.Lng)
	}
	return nil
}
