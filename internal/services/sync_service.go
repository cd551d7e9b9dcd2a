package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/cleanteam/internal/config"
	"github.com/stwalsh4118/cleanteam/internal/logger"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/reconcile"
	"github.com/stwalsh4118/cleanteam/internal/repository"
	"github.com/stwalsh4118/cleanteam/internal/smoobu"
)

// Sync result messages
const (
	MsgMissingTeam    = "missing team context"
	MsgMissingAPIKey  = "no reservation feed API key configured"
	MsgNoBookings     = "no upcoming bookings"
	MsgAlreadyCurrent = "already up to date"
)

// SyncService runs reservation reconciliation for a team.
type SyncService interface {
	// Sync fetches the team's reservations for the configured window and
	// merges them into tasks and properties. It never returns an error;
	// failures are reported in the result.
	Sync(ctx context.Context, teamID string) models.SyncResult
}

// syncService is the concrete implementation of SyncService.
type syncService struct {
	fetcher  ReservationFetcher
	tasks    repository.TaskRepository
	props    repository.PropertyRepository
	settings repository.SettingsRepository
	writer   repository.SyncRepository
	cfg      config.SyncConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewSyncService creates a new instance of SyncService.
func NewSyncService(
	fetcher ReservationFetcher,
	tasks repository.TaskRepository,
	props repository.PropertyRepository,
	settings repository.SettingsRepository,
	writer repository.SyncRepository,
	cfg config.SyncConfig,
	log *logger.Logger,
) SyncService {
	return &syncService{
		fetcher:  fetcher,
		tasks:    tasks,
		props:    props,
		settings: settings,
		writer:   writer,
		cfg:      cfg,
		log:      log.WithComponent("sync"),
		now:      time.Now,
	}
}

func failure(message string, stats models.SyncStats) models.SyncResult {
	return models.SyncResult{Success: false, Message: message, Stats: stats}
}

// Sync runs one reconciliation pass for a team.
func (s *syncService) Sync(ctx context.Context, teamID string) models.SyncResult {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		s.log.Warn("Sync requested without team", nil)
		return failure(MsgMissingTeam, models.SyncStats{})
	}
	log := s.log.WithTeam(teamID)

	settings, err := s.settings.Get(ctx, teamID)
	if err != nil {
		log.Error("Failed to load team settings", err, nil)
		return failure("failed to load team settings", models.SyncStats{})
	}
	if !settings.HasAPIKey() {
		log.Warn("Sync skipped, no API key", nil)
		return failure(MsgMissingAPIKey, models.SyncStats{})
	}

	now := s.now()
	window := smoobu.NewWindow(now, s.cfg.WindowPastDays, s.cfg.WindowFutureDays)

	log.Info("Starting reservation sync", map[string]interface{}{
		"from": window.FromDate(),
		"to":   window.ToDate(),
	})

	reservations, err := s.fetcher.FetchReservations(ctx, strings.TrimSpace(settings.APIKey), window)
	if err != nil {
		log.Error("Reservation fetch failed", err, nil)
		return failure(fmt.Sprintf("failed to fetch reservations: %v", err), models.SyncStats{})
	}
	if len(reservations) == 0 {
		log.Info("No upcoming bookings", nil)
		return models.SyncResult{Success: true, Message: MsgNoBookings}
	}

	existingTasks, err := s.tasks.ListByTeam(ctx, teamID)
	if err != nil {
		log.Error("Failed to load tasks", err, nil)
		return failure("failed to load existing tasks", models.SyncStats{})
	}
	existingProps, err := s.props.ListByTeam(ctx, teamID)
	if err != nil {
		log.Error("Failed to load properties", err, nil)
		return failure("failed to load existing properties", models.SyncStats{})
	}

	out := reconcile.Reconcile(reconcile.Input{
		Now:                now,
		TeamID:             teamID,
		Reservations:       reservations,
		ExistingTasks:      existingTasks,
		ExistingProperties: existingProps,
	})
	stats := out.Stats()

	if out.Empty() {
		log.Info("Reservations already up to date", map[string]interface{}{
			"reservations": len(reservations),
			"skipped":      stats.Skipped,
		})
		return models.SyncResult{Success: true, Message: MsgAlreadyCurrent, Stats: stats}
	}

	commits, err := s.writer.Apply(ctx, out, s.cfg.BatchSize)
	stats.Commits = commits
	if err != nil {
		log.Error("Sync write failed", err, map[string]interface{}{
			"commits": commits,
		})
		return failure(fmt.Sprintf("sync stopped after %d committed chunks: %v", commits, err), stats)
	}

	log.Info("Reservation sync finished", map[string]interface{}{
		"created_tasks":      stats.CreatedTasks,
		"updated_tasks":      stats.UpdatedTasks,
		"created_properties": stats.CreatedProperties,
		"skipped":            stats.Skipped,
		"commits":            commits,
	})

	return models.SyncResult{
		Success: true,
		Message: fmt.Sprintf("created %d / updated %d / new properties %d",
			stats.CreatedTasks, stats.UpdatedTasks, stats.CreatedProperties),
		Stats: stats,
	}
}
