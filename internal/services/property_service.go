package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/cleanteam/internal/logger"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/repository"
)

// PropertyEdit replaces the operator-owned fields of a property. A nil
// Coordinates clears them; an empty checklist restores the default.
type PropertyEdit struct {
	Coordinates  *models.Coordinates
	DefaultStaff models.StaffIDs
	Checklist    []string
}

// PropertyUpdate is the saved property and the number of pending tasks that
// received its default crew.
type PropertyUpdate struct {
	Property      *models.Property `json:"property"`
	AssignedTasks int64            `json:"assignedTasks"`
}

// PropertyService defines the property operations of operators.
type PropertyService interface {
	List(ctx context.Context, teamID string) ([]*models.Property, error)

	// Update saves the edit and assigns the default crew to every pending,
	// unassigned task of the property.
	Update(ctx context.Context, teamID, propertyID string, edit PropertyEdit) (*PropertyUpdate, error)
}

// propertyService is the concrete implementation of PropertyService.
type propertyService struct {
	props repository.PropertyRepository
	tasks repository.TaskRepository
	log   *logger.Logger
	now   func() time.Time
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(props repository.PropertyRepository, tasks repository.TaskRepository, log *logger.Logger) PropertyService {
	return &propertyService{
		props: props,
		tasks: tasks,
		log:   log.WithComponent("properties"),
		now:   time.Now,
	}
}

// List returns every property of the team.
func (s *propertyService) List(ctx context.Context, teamID string) ([]*models.Property, error) {
	props, err := s.props.ListByTeam(ctx, teamID)
	if err != nil {
		s.log.Error("Failed to list properties", err, map[string]interface{}{"team_id": teamID})
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return props, nil
}

// Update saves a property edit and propagates the default crew.
func (s *propertyService) Update(ctx context.Context, teamID, propertyID string, edit PropertyEdit) (*PropertyUpdate, error) {
	if edit.Coordinates != nil && !edit.Coordinates.Valid() {
		s.log.Warn("Invalid property coordinates", map[string]interface{}{
			"property_id": propertyID,
			"lat":         edit.Coordinates.Lat,
			"lng":         edit.Coordinates.Lng,
		})
		return nil, fmt.Errorf("%w: lat=%f lng=%f", ErrInvalidCoordinates, edit.Coordinates.Lat, edit.Coordinates.Lng)
	}

	prop, err := s.props.FindByID(ctx, teamID, propertyID)
	if err != nil {
		s.log.Error("Failed to load property", err, map[string]interface{}{
			"team_id":     teamID,
			"property_id": propertyID,
		})
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if prop == nil {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, propertyID)
	}

	prop.DefaultStaff = models.NewStaffIDs(edit.DefaultStaff...)
	prop.Checklist = cleanChecklist(edit.Checklist)
	prop.Coordinates = edit.Coordinates
	prop.UpdatedAt = s.now().UTC()

	saved, err := s.props.Update(ctx, prop)
	if err != nil {
		s.log.Error("Failed to save property", err, map[string]interface{}{
			"team_id":     teamID,
			"property_id": propertyID,
		})
		return nil, fmt.Errorf("failed to save property: %w", err)
	}
	if saved == nil {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, propertyID)
	}

	assigned, err := s.propagateCrew(ctx, saved)
	if err != nil {
		return nil, err
	}

	s.log.Info("Property updated", map[string]interface{}{
		"team_id":         teamID,
		"property_id":     propertyID,
		"crew":            saved.DefaultStaff.Len(),
		"has_coordinates": saved.HasCoordinates(),
		"assigned_tasks":  assigned,
	})
	return &PropertyUpdate{Property: saved, AssignedTasks: assigned}, nil
}

func (s *propertyService) propagateCrew(ctx context.Context, prop *models.Property) (int64, error) {
	if prop.DefaultStaff.Len() == 0 {
		return 0, nil
	}

	tasks, err := s.tasks.ListByTeam(ctx, prop.TeamID)
	if err != nil {
		s.log.Error("Failed to list tasks for crew propagation", err, map[string]interface{}{
			"property_id": prop.ID,
		})
		return 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	ids := make([]string, 0)
	for _, task := range tasks {
		if task.Status == models.StatusPending && task.AssignedTo.Len() == 0 && prop.Matches(task) {
			ids = append(ids, task.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	assigned, err := s.tasks.AssignPending(ctx, prop.TeamID, ids, prop.DefaultStaff)
	if err != nil {
		s.log.Error("Failed to propagate crew", err, map[string]interface{}{
			"property_id": prop.ID,
			"tasks":       len(ids),
		})
		return 0, fmt.Errorf("failed to propagate crew: %w", err)
	}
	return assigned, nil
}

func cleanChecklist(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return append([]string(nil), models.DefaultChecklist...)
	}
	return cleaned
}
