package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/cleanteam/internal/billing"
	"github.com/stwalsh4118/cleanteam/internal/logger"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/repository"
)

// BillingService defines billing reports and staff billing profiles.
type BillingService interface {
	Report(ctx context.Context, teamID string, filter billing.Filter) (*billing.Report, error)
	ExportCSV(ctx context.Context, teamID string, filter billing.Filter) ([]byte, error)
	ExportXLSX(ctx context.Context, teamID string, filter billing.Filter) ([]byte, error)

	ListStaff(ctx context.Context, teamID string) ([]*models.StaffMember, error)
	SaveStaff(ctx context.Context, teamID, staffID, name, role string) (*models.StaffMember, error)
	GetProfile(ctx context.Context, teamID, staffID string) (*models.StaffMember, error)
	UpdateProfile(ctx context.Context, teamID, staffID string, profile models.BillingProfile) (*models.StaffMember, error)
}

// billingService is the concrete implementation of BillingService.
type billingService struct {
	tasks    repository.TaskRepository
	staff    repository.StaffRepository
	validate *validator.Validate
	log      *logger.Logger
	now      func() time.Time
}

// NewBillingService creates a new instance of BillingService.
func NewBillingService(tasks repository.TaskRepository, staff repository.StaffRepository, log *logger.Logger) BillingService {
	return &billingService{
		tasks:    tasks,
		staff:    staff,
		validate: validator.New(),
		log:      log.WithComponent("billing"),
		now:      time.Now,
	}
}

// Report builds the billing report of the tasks matching filter.
func (s *billingService) Report(ctx context.Context, teamID string, filter billing.Filter) (*billing.Report, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListByTeam(ctx, teamID)
	if err != nil {
		s.log.Error("Failed to load tasks for billing", err, map[string]interface{}{"team_id": teamID})
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	staff, err := s.staff.ListByTeam(ctx, teamID)
	if err != nil {
		s.log.Error("Failed to load staff for billing", err, map[string]interface{}{"team_id": teamID})
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}

	report := billing.Build(tasks, staff, filter)

	s.log.Info("Billing report built", map[string]interface{}{
		"team_id":  teamID,
		"from":     filter.From,
		"to":       filter.To,
		"staff_id": filter.StaffID,
		"property": filter.Property,
		"rows":     len(report.Rows),
		"total":    report.Total,
	})
	return &report, nil
}

// ExportCSV renders the report as semicolon-separated text.
func (s *billingService) ExportCSV(ctx context.Context, teamID string, filter billing.Filter) ([]byte, error) {
	report, err := s.Report(ctx, teamID, filter)
	if err != nil {
		return nil, err
	}
	return billing.CSV(*report)
}

// ExportXLSX renders the report as a spreadsheet with numeric amounts.
func (s *billingService) ExportXLSX(ctx context.Context, teamID string, filter billing.Filter) ([]byte, error) {
	report, err := s.Report(ctx, teamID, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := billing.WriteXLSX(&buf, *report); err != nil {
		s.log.Error("Failed to render billing spreadsheet", err, map[string]interface{}{"team_id": teamID})
		return nil, fmt.Errorf("failed to render spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

// ListStaff returns the team roster.
func (s *billingService) ListStaff(ctx context.Context, teamID string) ([]*models.StaffMember, error) {
	staff, err := s.staff.ListByTeam(ctx, teamID)
	if err != nil {
		s.log.Error("Failed to list staff", err, map[string]interface{}{"team_id": teamID})
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

// SaveStaff creates a staff member or renames an existing one.
func (s *billingService) SaveStaff(ctx context.Context, teamID, staffID, name, role string) (*models.StaffMember, error) {
	staffID = strings.TrimSpace(staffID)
	name = strings.TrimSpace(name)
	if staffID == "" || name == "" {
		return nil, fmt.Errorf("%w: staff id and name are required", ErrInvalidInput)
	}

	member, err := s.staff.Upsert(ctx, &models.StaffMember{
		TeamID:    teamID,
		ID:        staffID,
		Name:      name,
		Role:      strings.TrimSpace(role),
		Billing:   models.BillingProfile{Mode: models.BillingFixed},
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.log.Error("Failed to save staff member", err, map[string]interface{}{
			"team_id":  teamID,
			"staff_id": staffID,
		})
		return nil, fmt.Errorf("failed to save staff member: %w", err)
	}
	return member, nil
}

// GetProfile returns a staff member with their billing profile.
func (s *billingService) GetProfile(ctx context.Context, teamID, staffID string) (*models.StaffMember, error) {
	member, err := s.staff.FindByID(ctx, teamID, staffID)
	if err != nil {
		s.log.Error("Failed to load staff member", err, map[string]interface{}{
			"team_id":  teamID,
			"staff_id": staffID,
		})
		return nil, fmt.Errorf("failed to load staff member: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("%w: %s", ErrStaffNotFound, staffID)
	}
	return member, nil
}

// UpdateProfile replaces a staff member's billing mode and rates.
func (s *billingService) UpdateProfile(ctx context.Context, teamID, staffID string, profile models.BillingProfile) (*models.StaffMember, error) {
	if err := s.validate.Struct(profile); err != nil {
		s.log.Warn("Invalid billing profile", map[string]interface{}{
			"staff_id": staffID,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	profile.Mode = profile.ActiveMode()

	member, err := s.staff.UpdateBilling(ctx, teamID, staffID, profile)
	if err != nil {
		s.log.Error("Failed to update billing profile", err, map[string]interface{}{
			"team_id":  teamID,
			"staff_id": staffID,
		})
		return nil, fmt.Errorf("failed to update billing profile: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("%w: %s", ErrStaffNotFound, staffID)
	}

	s.log.Info("Billing profile updated", map[string]interface{}{
		"team_id":  teamID,
		"staff_id": staffID,
		"mode":     member.Billing.Mode,
	})
	return member, nil
}
