package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/cleanteam/internal/database"
	"github.com/stwalsh4118/cleanteam/internal/models"
)

// WorkLogRepository defines the interface for work log data access operations.
type WorkLogRepository interface {
	// Find returns the log of one staff member on a task, or nil, nil.
	Find(ctx context.Context, teamID, taskID, staffID string) (*models.WorkLog, error)

	// ListByTask returns every log of a task ordered by staff id.
	ListByTask(ctx context.Context, teamID, taskID string) ([]*models.WorkLog, error)

	// Upsert merges a start or completion snapshot into the (task, staff) log.
	// The first recorded start is kept; a completion always replaces the
	// previous one.
	Upsert(ctx context.Context, log *models.WorkLog) (*models.WorkLog, error)
}

// workLogRepository is the concrete implementation of WorkLogRepository.
type workLogRepository struct {
	db *database.Database
}

// NewWorkLogRepository creates a new instance of WorkLogRepository.
func NewWorkLogRepository(db *database.Database) WorkLogRepository {
	return &workLogRepository{
		db: db,
	}
}

const workLogColumns = `
	team_id,
	task_id,
	staff_id,
	started_at,
	completed_at,
	start_location,
	end_location,
	updated_at`

func scanWorkLog(row pgx.Row) (*models.WorkLog, error) {
	var (
		log   models.WorkLog
		start []byte
		end   []byte
	)

	if err := row.Scan(
		&log.TeamID,
		&log.TaskID,
		&log.StaffID,
		&log.StartedAt,
		&log.CompletedAt,
		&start,
		&end,
		&log.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if log.StartLocation, err = decodePosition(start); err != nil {
		return nil, fmt.Errorf("failed to parse start location: %w", err)
	}
	if log.EndLocation, err = decodePosition(end); err != nil {
		return nil, fmt.Errorf("failed to parse end location: %w", err)
	}
	return &log, nil
}

func decodePosition(raw []byte) (*models.Position, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var p models.Position
	if err := p.Scan(raw); err != nil {
		return nil, err
	}
	return &p, nil
}

// Find returns the log of one staff member on a task, or nil, nil.
func (r *workLogRepository) Find(ctx context.Context, teamID, taskID, staffID string) (*models.WorkLog, error) {
	query := `SELECT ` + workLogColumns + ` FROM work_logs WHERE team_id = $1 AND task_id = $2 AND staff_id = $3`

	log, err := scanWorkLog(r.db.Pool.QueryRow(ctx, query, teamID, taskID, staffID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query work log (task=%s, staff=%s): %w", taskID, staffID, err)
	}
	return log, nil
}

// ListByTask returns every log of a task.
func (r *workLogRepository) ListByTask(ctx context.Context, teamID, taskID string) ([]*models.WorkLog, error) {
	query := `SELECT ` + workLogColumns + ` FROM work_logs WHERE team_id = $1 AND task_id = $2 ORDER BY staff_id`

	rows, err := r.db.Pool.Query(ctx, query, teamID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query work logs (task=%s): %w", taskID, err)
	}
	defer rows.Close()

	logs := make([]*models.WorkLog, 0)
	for rows.Next() {
		log, err := scanWorkLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work log row: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work log rows: %w", err)
	}

	return logs, nil
}

// Upsert merges a snapshot into the (task, staff) log.
func (r *workLogRepository) Upsert(ctx context.Context, log *models.WorkLog) (*models.WorkLog, error) {
	query := `
		INSERT INTO work_logs (team_id, task_id, staff_id, started_at, completed_at, start_location, end_location, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (team_id, task_id, staff_id) DO UPDATE SET
			start_location = CASE
				WHEN work_logs.started_at IS NULL THEN EXCLUDED.start_location
				ELSE work_logs.start_location
			END,
			started_at = COALESCE(work_logs.started_at, EXCLUDED.started_at),
			end_location = CASE
				WHEN EXCLUDED.completed_at IS NOT NULL THEN EXCLUDED.end_location
				ELSE work_logs.end_location
			END,
			completed_at = COALESCE(EXCLUDED.completed_at, work_logs.completed_at),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + workLogColumns

	saved, err := scanWorkLog(r.db.Pool.QueryRow(ctx, query,
		log.TeamID,
		log.TaskID,
		log.StaffID,
		log.StartedAt,
		log.CompletedAt,
		log.StartLocation,
		log.EndLocation,
		log.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert work log (task=%s, staff=%s): %w", log.TaskID, log.StaffID, err)
	}
	return saved, nil
}
