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

// MaxAutoSyncIntervalMinutes caps the auto-sync interval at one day.
const MaxAutoSyncIntervalMinutes = 1440

// SettingsEdit changes team settings; nil fields are left unchanged.
type SettingsEdit struct {
	APIKey                  *string
	AutoSyncIntervalMinutes *int
}

// SettingsService defines the team settings operations.
type SettingsService interface {
	// Get returns the team's settings, or the defaults when none were saved.
	Get(ctx context.Context, teamID string) (*models.TeamSettings, error)

	// Update saves the edit and reschedules the team's auto-sync.
	Update(ctx context.Context, teamID string, edit SettingsEdit) (*models.TeamSettings, error)
}

// settingsService is the concrete implementation of SettingsService.
type settingsService struct {
	repo      repository.SettingsRepository
	scheduler Rescheduler
	log       *logger.Logger
	now       func() time.Time
}

// NewSettingsService creates a new instance of SettingsService.
func NewSettingsService(repo repository.SettingsRepository, scheduler Rescheduler, log *logger.Logger) SettingsService {
	return &settingsService{
		repo:      repo,
		scheduler: scheduler,
		log:       log.WithComponent("settings"),
		now:       time.Now,
	}
}

// Get returns the team's settings.
func (s *settingsService) Get(ctx context.Context, teamID string) (*models.TeamSettings, error) {
	settings, err := s.repo.Get(ctx, teamID)
	if err != nil {
		s.log.Error("Failed to load settings", err, map[string]interface{}{"team_id": teamID})
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		return &models.TeamSettings{
			TeamID:                  teamID,
			AutoSyncIntervalMinutes: models.DefaultAutoSyncIntervalMinutes,
		}, nil
	}
	return settings, nil
}

// Update saves the edit. Interval 0 disables auto-sync, as does a missing key.
func (s *settingsService) Update(ctx context.Context, teamID string, edit SettingsEdit) (*models.TeamSettings, error) {
	if edit.AutoSyncIntervalMinutes != nil {
		minutes := *edit.AutoSyncIntervalMinutes
		if minutes < 0 || minutes > MaxAutoSyncIntervalMinutes {
			return nil, fmt.Errorf("%w: auto-sync interval must be between 0 and %d minutes, got %d",
				ErrInvalidInput, MaxAutoSyncIntervalMinutes, minutes)
		}
	}

	current, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if edit.APIKey != nil {
		current.APIKey = strings.TrimSpace(*edit.APIKey)
	}
	if edit.AutoSyncIntervalMinutes != nil {
		current.AutoSyncIntervalMinutes = *edit.AutoSyncIntervalMinutes
	}
	current.UpdatedAt = s.now().UTC()

	saved, err := s.repo.Upsert(ctx, current)
	if err != nil {
		s.log.Error("Failed to save settings", err, map[string]interface{}{"team_id": teamID})
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	if saved.HasAPIKey() && saved.AutoSyncIntervalMinutes > 0 {
		if err := s.scheduler.Schedule(teamID, saved.AutoSyncIntervalMinutes); err != nil {
			s.log.Error("Failed to reschedule auto-sync", err, map[string]interface{}{"team_id": teamID})
			return nil, fmt.Errorf("failed to reschedule auto-sync: %w", err)
		}
	} else {
		s.scheduler.Remove(teamID)
	}

	s.log.Info("Team settings updated", map[string]interface{}{
		"team_id":            teamID,
		"has_api_key":        saved.HasAPIKey(),
		"auto_sync_interval": saved.AutoSyncIntervalMinutes,
	})
	return saved, nil
}
