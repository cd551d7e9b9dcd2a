package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/cleanteam/internal/database"
	"github.com/stwalsh4118/cleanteam/internal/models"
)

// PropertyRepository defines the interface for property data access operations.
type PropertyRepository interface {
	// ListByTeam returns every property of a team ordered by name.
	ListByTeam(ctx context.Context, teamID string) ([]*models.Property, error)

	// FindByID returns a property, or nil, nil when it does not exist.
	FindByID(ctx context.Context, teamID, propertyID string) (*models.Property, error)

	// Update writes the operator-editable fields: crew, checklist and
	// coordinates. Returns nil, nil when the property does not exist.
	Update(ctx context.Context, property *models.Property) (*models.Property, error)
}

// propertyRepository is the concrete implementation of PropertyRepository.
type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{
		db: db,
	}
}

const propertyColumns = `
	team_id,
	id,
	name,
	apartment_id,
	lat,
	lng,
	default_staff,
	checklist,
	created_at,
	updated_at`

// insertPropertySQL never overwrites an existing or operator-edited property.
const insertPropertySQL = `
	INSERT INTO properties (team_id, id, name, apartment_id, default_staff, checklist, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT DO NOTHING`

func insertPropertyArgs(p *models.Property) []any {
	return []any{
		p.TeamID,
		p.ID,
		p.Name,
		p.ApartmentID,
		p.DefaultStaff.Strings(),
		nonNilStrings(p.Checklist),
		p.CreatedAt,
		p.UpdatedAt,
	}
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var (
		p     models.Property
		lat   *float64
		lng   *float64
		staff []string
	)

	err := row.Scan(
		&p.TeamID,
		&p.ID,
		&p.Name,
		&p.ApartmentID,
		&lat,
		&lng,
		&staff,
		&p.Checklist,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.DefaultStaff = models.NewStaffIDs(staff...)
	p.Checklist = nonNilStrings(p.Checklist)
	if lat != nil && lng != nil {
		p.Coordinates = &models.Coordinates{Lat: *lat, Lng: *lng}
	}
	return &p, nil
}

// ListByTeam returns every property of a team ordered by name.
func (r *propertyRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE team_id = $1 ORDER BY name, id`

	rows, err := r.db.Pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties (team=%s): %w", teamID, err)
	}
	defer rows.Close()

	properties := make([]*models.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	return properties, nil
}

// FindByID returns a property, or nil, nil when it does not exist.
func (r *propertyRepository) FindByID(ctx context.Context, teamID, propertyID string) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE team_id = $1 AND id = $2`

	p, err := scanProperty(r.db.Pool.QueryRow(ctx, query, teamID, propertyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %s: %w", propertyID, err)
	}
	return p, nil
}

// Update writes crew, checklist and coordinates of a property.
func (r *propertyRepository) Update(ctx context.Context, property *models.Property) (*models.Property, error) {
	query := `
		UPDATE properties
		SET default_staff = $3,
			checklist = $4,
			lat = $5,
			lng = $6,
			updated_at = $7
		WHERE team_id = $1 AND id = $2
		RETURNING ` + propertyColumns

	var lat, lng *float64
	if property.Coordinates != nil {
		lat = &property.Coordinates.Lat
		lng = &property.Coordinates.Lng
	}

	p, err := scanProperty(r.db.Pool.QueryRow(ctx, query,
		property.TeamID,
		property.ID,
		property.DefaultStaff.Strings(),
		nonNilStrings(property.Checklist),
		lat,
		lng,
		property.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update property %s: %w", property.ID, err)
	}
	return p, nil
}
