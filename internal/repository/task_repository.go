package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/cleanteam/internal/database"
	"github.com/stwalsh4118/cleanteam/internal/lifecycle"
	"github.com/stwalsh4118/cleanteam/internal/models"
)

// TaskRepository defines the interface for task data access operations.
// All lookups are scoped to a team.
type TaskRepository interface {
	// ListByTeam returns every task of a team ordered by date.
	ListByTeam(ctx context.Context, teamID string) ([]*models.Task, error)

	// FindByID returns a task, or nil, nil when it does not exist.
	FindByID(ctx context.Context, teamID, taskID string) (*models.Task, error)

	// Create inserts a new task.
	Create(ctx context.Context, task *models.Task) error

	// Update writes the operator-editable fields of a task.
	// Returns nil, nil when the task does not exist.
	Update(ctx context.Context, task *models.Task) (*models.Task, error)

	// ApplyTransition performs a lifecycle transition as a single write
	// conditioned on the transition's From status. Returns nil, nil when the
	// stored status no longer matches.
	ApplyTransition(ctx context.Context, teamID, taskID string, tr lifecycle.Transition, now time.Time) (*models.Task, error)

	// UpdateLiveStatus writes the attendance status. autoLeftAt is only
	// stored while the task is in progress and not already set.
	UpdateLiveStatus(ctx context.Context, teamID, taskID string, status models.LiveStatus, autoLeftAt *time.Time) error

	// SetChecklistDone replaces the set of completed checklist indices.
	SetChecklistDone(ctx context.Context, teamID, taskID string, done []int) (*models.Task, error)

	// AppendPhoto atomically appends a photo reference to a phase.
	AppendPhoto(ctx context.Context, teamID, taskID, phase, ref string) (*models.Task, error)

	// AssignPending sets the crew of the given tasks that are still pending
	// and unassigned. It returns the number of tasks changed.
	AssignPending(ctx context.Context, teamID string, taskIDs []string, crew models.StaffIDs) (int64, error)

	// DeleteAll removes every task of a team.
	DeleteAll(ctx context.Context, teamID string) (int64, error)
}

// taskRepository is the concrete implementation of TaskRepository.
type taskRepository struct {
	db *database.Database
}

// NewTaskRepository creates a new instance of TaskRepository.
func NewTaskRepository(db *database.Database) TaskRepository {
	return &taskRepository{
		db: db,
	}
}

const taskColumns = `
	team_id,
	id,
	property_id,
	apartment,
	apartment_id,
	to_char(date, 'YYYY-MM-DD'),
	status,
	live_status,
	guest_name,
	notes,
	source,
	assigned_to,
	checklist,
	checklist_done,
	photos,
	issue_report,
	started_at,
	completed_at,
	auto_left_at,
	original_data,
	created_at,
	updated_at`

// insertTaskSQL never overwrites an existing task.
const insertTaskSQL = `
	INSERT INTO tasks (
		team_id, id, property_id, apartment, apartment_id, date, status, live_status,
		guest_name, notes, source, assigned_to, checklist, checklist_done, photos,
		original_data, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (team_id, id) DO NOTHING`

// refreshTaskSQL only touches tasks that are still pending at write time.
const refreshTaskSQL = `
	UPDATE tasks
	SET date = $3::date, apartment = $4, property_id = $5, guest_name = $6, notes = $7, updated_at = $8
	WHERE team_id = $1 AND id = $2 AND status = 'pending'`

func insertTaskArgs(t *models.Task) []any {
	var original any
	if len(t.OriginalData) > 0 {
		original = string(t.OriginalData)
	}
	return []any{
		t.TeamID,
		t.ID,
		t.PropertyID,
		t.Apartment,
		t.ApartmentID,
		t.Date,
		string(t.Status),
		string(liveOrUnknown(t.LiveStatus)),
		t.GuestName,
		t.Notes,
		t.Source,
		t.AssignedTo.Strings(),
		nonNilStrings(t.Checklist),
		toInt32s(t.ChecklistDone),
		t.Photos,
		original,
		t.CreatedAt,
		t.UpdatedAt,
	}
}

func refreshTaskArgs(t *models.Task) []any {
	return []any{t.TeamID, t.ID, t.Date, t.Apartment, t.PropertyID, t.GuestName, t.Notes, t.UpdatedAt}
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var (
		task          models.Task
		status        string
		live          string
		assigned      []string
		checklistDone []int32
		photos        []byte
		original      []byte
	)

	err := row.Scan(
		&task.TeamID,
		&task.ID,
		&task.PropertyID,
		&task.Apartment,
		&task.ApartmentID,
		&task.Date,
		&status,
		&live,
		&task.GuestName,
		&task.Notes,
		&task.Source,
		&assigned,
		&task.Checklist,
		&checklistDone,
		&photos,
		&task.IssueReport,
		&task.StartedAt,
		&task.CompletedAt,
		&task.AutoLeftAt,
		&original,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = models.TaskStatus(status)
	task.LiveStatus = models.LiveStatus(live)
	task.AssignedTo = models.NewStaffIDs(assigned...)
	task.Checklist = nonNilStrings(task.Checklist)
	task.ChecklistDone = fromInt32s(checklistDone)
	if len(original) > 0 {
		task.OriginalData = original
	}
	if err := task.Photos.Scan(photos); err != nil {
		return nil, fmt.Errorf("failed to parse photos for task %s: %w", task.ID, err)
	}

	return &task, nil
}

// queryOneTask runs a single-row task query, mapping no rows to nil, nil.
func (r *taskRepository) queryOneTask(ctx context.Context, query string, args ...any) (*models.Task, error) {
	task, err := scanTask(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

// ListByTeam returns every task of a team ordered by date, then id.
func (r *taskRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE team_id = $1 ORDER BY date, id`

	rows, err := r.db.Pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks (team=%s): %w", teamID, err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// FindByID returns a task, or nil, nil when it does not exist.
func (r *taskRepository) FindByID(ctx context.Context, teamID, taskID string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE team_id = $1 AND id = $2`

	task, err := r.queryOneTask(ctx, query, teamID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task %s: %w", taskID, err)
	}
	return task, nil
}

// Create inserts a new task. Inserting an id that already exists is an error.
func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	tag, err := r.db.Pool.Exec(ctx, insertTaskSQL, insertTaskArgs(task)...)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, ErrAlreadyExists)
	}
	return nil
}

// Update writes the operator-editable fields of a task.
func (r *taskRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET date = $3::date,
			guest_name = $4,
			notes = $5,
			assigned_to = $6,
			checklist = $7,
			checklist_done = $8,
			updated_at = $9
		WHERE team_id = $1 AND id = $2
		RETURNING ` + taskColumns

	updated, err := r.queryOneTask(ctx, query,
		task.TeamID,
		task.ID,
		task.Date,
		task.GuestName,
		task.Notes,
		task.AssignedTo.Strings(),
		nonNilStrings(task.Checklist),
		toInt32s(task.ChecklistDone),
		task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", task.ID, err)
	}
	return updated, nil
}

// ApplyTransition performs a guarded lifecycle write. startedAt is only
// written when unset, so a racing second start keeps the first stamp.
func (r *taskRepository) ApplyTransition(ctx context.Context, teamID, taskID string, tr lifecycle.Transition, now time.Time) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET status = $3,
			started_at = COALESCE(started_at, $4),
			completed_at = COALESCE($5, completed_at),
			issue_report = COALESCE($6, issue_report),
			updated_at = $7
		WHERE team_id = $1 AND id = $2 AND status = $8
		RETURNING ` + taskColumns

	task, err := r.queryOneTask(ctx, query,
		teamID,
		taskID,
		string(tr.To),
		tr.StartedAt,
		tr.CompletedAt,
		tr.IssueReport,
		now,
		string(tr.From),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s to task %s: %w", tr.Action, taskID, err)
	}
	return task, nil
}

// UpdateLiveStatus writes the attendance status of a task.
func (r *taskRepository) UpdateLiveStatus(ctx context.Context, teamID, taskID string, status models.LiveStatus, autoLeftAt *time.Time) error {
	query := `
		UPDATE tasks
		SET live_status = $3,
			auto_left_at = CASE
				WHEN status = 'in-progress' THEN COALESCE(auto_left_at, $4)
				ELSE auto_left_at
			END,
			updated_at = now()
		WHERE team_id = $1 AND id = $2`

	if _, err := r.db.Pool.Exec(ctx, query, teamID, taskID, string(status), autoLeftAt); err != nil {
		return fmt.Errorf("failed to update live status of task %s: %w", taskID, err)
	}
	return nil
}

// SetChecklistDone replaces the completed checklist indices.
func (r *taskRepository) SetChecklistDone(ctx context.Context, teamID, taskID string, done []int) (*models.Task, error) {
	query := `
		UPDATE tasks SET checklist_done = $3, updated_at = now()
		WHERE team_id = $1 AND id = $2
		RETURNING ` + taskColumns

	task, err := r.queryOneTask(ctx, query, teamID, taskID, toInt32s(done))
	if err != nil {
		return nil, fmt.Errorf("failed to update checklist of task %s: %w", taskID, err)
	}
	return task, nil
}

// AppendPhoto appends a reference to the phase array inside the photos document.
func (r *taskRepository) AppendPhoto(ctx context.Context, teamID, taskID, phase, ref string) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET photos = jsonb_set(
				photos,
				ARRAY[$3::text],
				COALESCE(photos -> $3::text, '[]'::jsonb) || to_jsonb($4::text)
			),
			updated_at = now()
		WHERE team_id = $1 AND id = $2
		RETURNING ` + taskColumns

	task, err := r.queryOneTask(ctx, query, teamID, taskID, phase, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to append photo to task %s: %w", taskID, err)
	}
	return task, nil
}

// AssignPending sets the crew of pending, unassigned tasks among taskIDs.
func (r *taskRepository) AssignPending(ctx context.Context, teamID string, taskIDs []string, crew models.StaffIDs) (int64, error) {
	if len(taskIDs) == 0 || crew.Len() == 0 {
		return 0, nil
	}

	query := `
		UPDATE tasks SET assigned_to = $3, updated_at = now()
		WHERE team_id = $1
			AND id = ANY($2)
			AND status = 'pending'
			AND cardinality(assigned_to) = 0`

	tag, err := r.db.Pool.Exec(ctx, query, teamID, taskIDs, crew.Strings())
	if err != nil {
		return 0, fmt.Errorf("failed to assign crew (team=%s): %w", teamID, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAll removes every task of a team.
func (r *taskRepository) DeleteAll(ctx context.Context, teamID string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM tasks WHERE team_id = $1`, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks (team=%s): %w", teamID, err)
	}
	return tag.RowsAffected(), nil
}

func liveOrUnknown(s models.LiveStatus) models.LiveStatus {
	if s == "" {
		return models.LiveUnknown
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toInt32s(values []int) []int32 {
	out := make([]int32, len(values))
	for i, v := range values {
		out[i] = int32(v)
	}
	return out
}

func fromInt32s(values []int32) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
