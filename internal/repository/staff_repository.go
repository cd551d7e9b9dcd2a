package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/cleanteam/internal/database"
	"github.com/stwalsh4118/cleanteam/internal/models"
)

// StaffRepository defines the interface for staff member data access operations.
type StaffRepository interface {
	// ListByTeam returns every staff member of a team ordered by name.
	ListByTeam(ctx context.Context, teamID string) ([]*models.StaffMember, error)

	// FindByID returns a staff member, or nil, nil when they do not exist.
	FindByID(ctx context.Context, teamID, staffID string) (*models.StaffMember, error)

	// Upsert creates a staff member or updates their name and role.
	Upsert(ctx context.Context, member *models.StaffMember) (*models.StaffMember, error)

	// UpdateBilling replaces the billing profile of a staff member.
	// Returns nil, nil when the staff member does not exist.
	UpdateBilling(ctx context.Context, teamID, staffID string, profile models.BillingProfile) (*models.StaffMember, error)
}

// staffRepository is the concrete implementation of StaffRepository.
type staffRepository struct {
	db *database.Database
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *database.Database) StaffRepository {
	return &staffRepository{
		db: db,
	}
}

const staffColumns = `team_id, id, name, role, billing_mode, fixed_rate, hourly_rate, created_at`

func scanStaff(row pgx.Row) (*models.StaffMember, error) {
	var (
		m    models.StaffMember
		mode string
	)
	if err := row.Scan(&m.TeamID, &m.ID, &m.Name, &m.Role, &mode, &m.Billing.FixedRate, &m.Billing.HourlyRate, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Billing.Mode = models.BillingMode(mode)
	return &m, nil
}

func (r *staffRepository) queryOne(ctx context.Context, query string, args ...any) (*models.StaffMember, error) {
	m, err := scanStaff(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// ListByTeam returns every staff member of a team.
func (r *staffRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE team_id = $1 ORDER BY name, id`

	rows, err := r.db.Pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff (team=%s): %w", teamID, err)
	}
	defer rows.Close()

	staff := make([]*models.StaffMember, 0)
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff row: %w", err)
		}
		staff = append(staff, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff rows: %w", err)
	}

	return staff, nil
}

// FindByID returns a staff member, or nil, nil.
func (r *staffRepository) FindByID(ctx context.Context, teamID, staffID string) (*models.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE team_id = $1 AND id = $2`

	m, err := r.queryOne(ctx, query, teamID, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff member %s: %w", staffID, err)
	}
	return m, nil
}

// Upsert creates a staff member or updates name and role. The billing
// profile of an existing member is left untouched.
func (r *staffRepository) Upsert(ctx context.Context, member *models.StaffMember) (*models.StaffMember, error) {
	query := `
		INSERT INTO staff_members (team_id, id, name, role, billing_mode, fixed_rate, hourly_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (team_id, id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role
		RETURNING ` + staffColumns

	m, err := r.queryOne(ctx, query,
		member.TeamID,
		member.ID,
		member.Name,
		member.Role,
		string(member.Billing.ActiveMode()),
		member.Billing.FixedRate,
		member.Billing.HourlyRate,
		member.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert staff member %s: %w", member.ID, err)
	}
	return m, nil
}

// UpdateBilling replaces the billing profile of a staff member.
func (r *staffRepository) UpdateBilling(ctx context.Context, teamID, staffID string, profile models.BillingProfile) (*models.StaffMember, error) {
	query := `
		UPDATE staff_members SET billing_mode = $3, fixed_rate = $4, hourly_rate = $5
		WHERE team_id = $1 AND id = $2
		RETURNING ` + staffColumns

	m, err := r.queryOne(ctx, query, teamID, staffID, string(profile.ActiveMode()), profile.FixedRate, profile.HourlyRate)
	if err != nil {
		return nil, fmt.Errorf("failed to update billing of staff member %s: %w", staffID, err)
	}
	return m, nil
}
