// Package scheduler runs the periodic reservation sync of every team with
// one cron entry per team.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stwalsh4118/cleanteam/internal/logger"
	"github.com/stwalsh4118/cleanteam/internal/models"
)

// RunTimeout bounds a single scheduled sync.
const RunTimeout = 5 * time.Minute

// ErrInvalidInterval is returned for non-positive intervals.
var ErrInvalidInterval = errors.New("auto-sync interval must be positive")

// Syncer runs one reconciliation pass for a team.
type Syncer interface {
	Sync(ctx context.Context, teamID string) models.SyncResult
}

// SettingsLister lists the teams that have auto-sync enabled.
type SettingsLister interface {
	ListAutoSync(ctx context.Context) ([]*models.TeamSettings, error)
}

// Scheduler owns one cron entry per team. A run that is still in flight when
// its next tick fires is skipped, and a rescheduled team keeps its in-flight
// run until it finishes.
type Scheduler struct {
	cron    *cron.Cron
	syncer  Syncer
	log     *logger.Logger
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a scheduler; call Start to begin firing entries.
func New(syncer Syncer, log *logger.Logger) *Scheduler {
	log = log.WithComponent("scheduler")
	cl := cronLogger{log: log}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		syncer:  syncer,
		log:     log,
		timeout: RunTimeout,
		entries: make(map[string]cron.EntryID),
	}
}

// Schedule replaces the team's entry with one firing every intervalMinutes.
func (s *Scheduler) Schedule(teamID string, intervalMinutes int) error {
	if intervalMinutes <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, intervalMinutes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[teamID]; ok {
		s.cron.Remove(id)
		delete(s.entries, teamID)
	}

	job := cron.NewChain(cron.SkipIfStillRunning(cronLogger{log: s.log})).Then(cron.FuncJob(func() {
		s.run(teamID)
	}))
	id, err := s.cron.AddJob(fmt.Sprintf("@every %dm", intervalMinutes), job)
	if err != nil {
		return fmt.Errorf("failed to schedule auto-sync for team %s: %w", teamID, err)
	}
	s.entries[teamID] = id

	s.log.Info("Auto-sync scheduled", map[string]interface{}{
		"team_id":  teamID,
		"interval": intervalMinutes,
	})
	return nil
}

// Remove drops the team's entry. An in-flight run is not interrupted.
func (s *Scheduler) Remove(teamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[teamID]
	if !ok {
		return
	}
	s.cron.Remove(id)
	delete(s.entries, teamID)

	s.log.Info("Auto-sync removed", map[string]interface{}{"team_id": teamID})
}

// Scheduled reports whether the team has an entry.
func (s *Scheduler) Scheduled(teamID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[teamID]
	return ok
}

// Count returns the number of scheduled teams.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Restore schedules every team with a saved positive interval and API key.
// It returns the number of teams scheduled.
func (s *Scheduler) Restore(ctx context.Context, lister SettingsLister) (int, error) {
	settings, err := lister.ListAutoSync(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load auto-sync settings: %w", err)
	}

	restored := 0
	for _, team := range settings {
		if !team.HasAPIKey() || team.AutoSyncIntervalMinutes <= 0 {
			continue
		}
		if err := s.Schedule(team.TeamID, team.AutoSyncIntervalMinutes); err != nil {
			s.log.Error("Failed to restore auto-sync", err, map[string]interface{}{"team_id": team.TeamID})
			continue
		}
		restored++
	}
	return restored, nil
}

// Start begins firing entries in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for in-flight runs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(teamID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	result := s.syncer.Sync(ctx, teamID)

	fields := map[string]interface{}{
		"team_id":     teamID,
		"success":     result.Success,
		"message":     result.Message,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if !result.Success {
		s.log.Warn("Scheduled sync failed", fields)
		return
	}
	s.log.Info("Scheduled sync finished", fields)
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, pairs(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, err, pairs(keysAndValues))
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
