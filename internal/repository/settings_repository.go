package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/cleanteam/internal/database"
	"github.com/stwalsh4118/cleanteam/internal/models"
)

// SettingsRepository defines the interface for team settings data access operations.
type SettingsRepository interface {
	// Get returns the settings of a team, or nil, nil when none were saved.
	Get(ctx context.Context, teamID string) (*models.TeamSettings, error)

	// Upsert saves the settings of a team.
	Upsert(ctx context.Context, settings *models.TeamSettings) (*models.TeamSettings, error)

	// ListAutoSync returns the settings of every team with a credential and
	// a positive auto-sync interval.
	ListAutoSync(ctx context.Context) ([]*models.TeamSettings, error)
}

// settingsRepository is the concrete implementation of SettingsRepository.
type settingsRepository struct {
	db *database.Database
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db *database.Database) SettingsRepository {
	return &settingsRepository{
		db: db,
	}
}

const settingsColumns = `team_id, api_key, auto_sync_interval, updated_at`

func scanSettings(row pgx.Row) (*models.TeamSettings, error) {
	var s models.TeamSettings
	if err := row.Scan(&s.TeamID, &s.APIKey, &s.AutoSyncIntervalMinutes, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get returns the settings of a team, or nil, nil.
func (r *settingsRepository) Get(ctx context.Context, teamID string) (*models.TeamSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM team_settings WHERE team_id = $1`

	s, err := scanSettings(r.db.Pool.QueryRow(ctx, query, teamID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query settings (team=%s): %w", teamID, err)
	}
	return s, nil
}

// Upsert saves the settings of a team.
func (r *settingsRepository) Upsert(ctx context.Context, settings *models.TeamSettings) (*models.TeamSettings, error) {
	query := `
		INSERT INTO team_settings (team_id, api_key, auto_sync_interval, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id) DO UPDATE SET
			api_key = EXCLUDED.api_key,
			auto_sync_interval = EXCLUDED.auto_sync_interval,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + settingsColumns

	s, err := scanSettings(r.db.Pool.QueryRow(ctx, query,
		settings.TeamID,
		settings.APIKey,
		settings.AutoSyncIntervalMinutes,
		settings.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to save settings (team=%s): %w", settings.TeamID, err)
	}
	return s, nil
}

// ListAutoSync returns the teams the scheduler should run.
func (r *settingsRepository) ListAutoSync(ctx context.Context) ([]*models.TeamSettings, error) {
	query := `
		SELECT ` + settingsColumns + ` FROM team_settings
		WHERE api_key <> '' AND auto_sync_interval > 0
		ORDER BY team_id`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query auto-sync settings: %w", err)
	}
	defer rows.Close()

	result := make([]*models.TeamSettings, 0)
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settings row: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings rows: %w", err)
	}

	return result, nil
}
