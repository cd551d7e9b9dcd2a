package models

import "time"

// DefaultChecklist is seeded into every property created by reconciliation
// and used whenever a property's own checklist is empty.
var DefaultChecklist = []string{
	"Bed linen changed",
	"Trash emptied and new bags",
	"Bathroom and kitchen disinfected",
	"Floors vacuumed and mopped",
	"Surfaces dusted",
}

// Property is a rental unit that cleaning tasks are scheduled for.
// Nullable fields use pointers to distinguish between zero values and NULL.
type Property struct {
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	ApartmentID  *string      `json:"apartmentId"`
	Coordinates  *Coordinates `json:"coordinates"`
	ID           string       `json:"id"`
	TeamID       string       `json:"teamId"`
	Name         string       `json:"name"`
	DefaultStaff StaffIDs     `json:"defaultStaff"`
	Checklist    []string     `json:"checklist"`
}

// HasCoordinates reports whether the property can take part in geofencing.
func (p *Property) HasCoordinates() bool {
	return p != nil && p.Coordinates != nil
}

// EffectiveChecklist returns the property checklist, or the default one when empty.
func (p *Property) EffectiveChecklist() []string {
	if p == nil || len(p.Checklist) == 0 {
		return append([]string{}, DefaultChecklist...)
	}
	return append([]string{}, p.Checklist...)
}

// Matches reports whether a task belongs to this property. Apartment ids win
// when both sides carry one, otherwise the display name decides.
func (p *Property) Matches(task *Task) bool {
	if p.ApartmentID != nil && task.ApartmentID != nil {
		return *p.ApartmentID == *task.ApartmentID
	}
	if task.PropertyID != "" && task.PropertyID == p.ID {
		return true
	}
	return p.Name != "" && task.Apartment == p.Name
}
