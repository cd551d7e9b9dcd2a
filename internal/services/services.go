// Package services orchestrates the domain packages over the repositories:
// reservation sync, task actions, property edits, billing and team settings.
package services

import (
	"context"
	"errors"

	"github.com/stwalsh4118/cleanteam/internal/attendance"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/smoobu"
)

// Service-level errors
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrStaffNotFound      = errors.New("staff member not found")
	ErrNotAssigned        = errors.New("staff member is not assigned to this task")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidInput       = errors.New("invalid input")
)

// ReservationFetcher loads reservations from the external booking feed.
type ReservationFetcher interface {
	FetchReservations(ctx context.Context, apiKey string, window smoobu.Window) ([]models.Reservation, error)
}

// Tracker is the attendance tracking driven by task actions.
type Tracker interface {
	Start(key attendance.Key) bool
	Push(key attendance.Key, sample *models.Position) error
	StopTask(teamID, taskID string)
	StopStaff(teamID, taskID string, staff models.StaffIDs)
	StopTeam(teamID string)
}

// Rescheduler owns the per-team auto-sync timers.
type Rescheduler interface {
	Schedule(teamID string, intervalMinutes int) error
	Remove(teamID string)
}
