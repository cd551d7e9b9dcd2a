// Package reconcile merges reservation feed data into tasks and properties.
// Everything here works on explicit snapshots and performs no I/O; callers
// load the snapshots and persist the returned writes.
package reconcile

import (
	"strings"
	"time"

	"github.com/stwalsh4118/cleanteam/internal/models"
)

// Property id prefixes
const (
	apartmentPrefix = "apt_"
	namePrefix      = "name_"
)

// MaxSlugLength caps the slug part of name-derived property ids.
const MaxSlugLength = 60

// Slug lowercases name, collapses every run of non-alphanumeric characters
// into a single underscore, trims underscores at both ends and caps the
// result at MaxSlugLength. An empty result becomes "unknown".
func Slug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	slug := b.String()
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "_")
	}
	if slug == "" {
		return "unknown"
	}
	return slug
}

// PropertyID derives the deterministic property id for an upstream apartment.
func PropertyID(apartmentID *string, name string) string {
	if apartmentID != nil {
		if id := strings.TrimSpace(*apartmentID); id != "" {
			return apartmentPrefix + id
		}
	}
	return namePrefix + Slug(name)
}

// Resolver maps upstream apartments to properties for one reconciliation
// pass. Properties it creates are visible to every later call on the same
// Resolver, so one apartment never yields two properties in a run.
type Resolver struct {
	teamID      string
	now         time.Time
	byApartment map[string]*models.Property
	byID        map[string]*models.Property
	created     []*models.Property
}

// NewResolver indexes the existing properties of a team.
func NewResolver(teamID string, existing []*models.Property, now time.Time) *Resolver {
	r := &Resolver{
		teamID:      teamID,
		now:         now,
		byApartment: make(map[string]*models.Property, len(existing)),
		byID:        make(map[string]*models.Property, len(existing)),
	}
	for _, p := range existing {
		if p == nil {
			continue
		}
		r.index(p)
	}
	return r
}

// Resolve returns the property for the apartment, creating it when unseen.
// The second return value reports whether the property was created by this call.
func (r *Resolver) Resolve(apartmentID *string, name string) (*models.Property, bool) {
	if apartmentID != nil {
		if p, ok := r.byApartment[strings.TrimSpace(*apartmentID)]; ok {
			return p, false
		}
	}

	id := PropertyID(apartmentID, name)
	if p, ok := r.byID[id]; ok {
		return p, false
	}

	p := &models.Property{
		ID:           id,
		TeamID:       r.teamID,
		Name:         strings.TrimSpace(name),
		DefaultStaff: models.StaffIDs{},
		Checklist:    append([]string{}, models.DefaultChecklist...),
		CreatedAt:    r.now,
		UpdatedAt:    r.now,
	}
	if apartmentID != nil {
		if trimmed := strings.TrimSpace(*apartmentID); trimmed != "" {
			p.ApartmentID = &trimmed
		}
	}

	r.index(p)
	r.created = append(r.created, p)
	return p, true
}

// Created returns the properties created so far, in creation order.
func (r *Resolver) Created() []*models.Property {
	return r.created
}

func (r *Resolver) index(p *models.Property) {
	r.byID[p.ID] = p
	if p.ApartmentID != nil {
		if key := strings.TrimSpace(*p.ApartmentID); key != "" {
			r.byApartment[key] = p
		}
	}
}
