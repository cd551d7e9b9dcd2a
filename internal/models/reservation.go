package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexString decodes a JSON string or number into its string form.
// Upstream ids arrive as either depending on the endpoint.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(trimmed))
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the decoded value.
func (f FlexString) String() string {
	return string(f)
}

// ReservationApartment is the nested apartment object of a reservation.
type ReservationApartment struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

// Reservation is one booking from the external reservation feed. Raw keeps
// the untouched upstream payload for audit.
type Reservation struct {
	Apartment    *ReservationApartment `json:"apartment"`
	ID           FlexString            `json:"id"`
	ApartmentID  FlexString            `json:"apartmentId"`
	Departure    string                `json:"departure"`
	GuestName    string                `json:"guestName"`
	GuestNameAlt string                `json:"guest-name"`
	Notice       string                `json:"notice"`
	Raw          json.RawMessage       `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the raw payload.
func (r *Reservation) UnmarshalJSON(data []byte) error {
	type plain Reservation
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("failed to unmarshal reservation: %w", err)
	}
	*r = Reservation(decoded)
	r.Raw = append(json.RawMessage{}, data...)
	return nil
}

// ApartmentKey returns the upstream apartment identifier, or nil when absent.
func (r *Reservation) ApartmentKey() *string {
	id := strings.TrimSpace(r.ApartmentID.String())
	if id == "" && r.Apartment != nil {
		id = strings.TrimSpace(r.Apartment.ID.String())
	}
	if id == "" {
		return nil
	}
	return &id
}

// ApartmentName returns the display name, falling back to the apartment id.
func (r *Reservation) ApartmentName() string {
	if r.Apartment != nil {
		if name := strings.TrimSpace(r.Apartment.Name); name != "" {
			return name
		}
	}
	if key := r.ApartmentKey(); key != nil {
		return "Apartment ID " + *key
	}
	return "Apartment ID unknown"
}

// Guest returns the guest name from whichever field carries it.
func (r *Reservation) Guest() string {
	if name := strings.TrimSpace(r.GuestName); name != "" {
		return name
	}
	return strings.TrimSpace(r.GuestNameAlt)
}

// DepartureDate returns the departure as YYYY-MM-DD, or "" when missing.
// Timestamps are cut to their date part.
func (r *Reservation) DepartureDate() string {
	d := strings.TrimSpace(r.Departure)
	if len(d) > len("2006-01-02") {
		d = d[:len("2006-01-02")]
	}
	return d
}

// PayloadJSON returns the raw payload, re-encoding when it was built in code.
func (r *Reservation) PayloadJSON() json.RawMessage {
	if len(r.Raw) > 0 {
		return r.Raw
	}
	type plain Reservation
	data, err := json.Marshal(plain(*r))
	if err != nil {
		return nil
	}
	return data
}

// SyncStats counts the writes of one reconciliation run.
type SyncStats struct {
	CreatedTasks      int `json:"createdTasks"`
	UpdatedTasks      int `json:"updatedTasks"`
	CreatedProperties int `json:"createdProps"`
	Skipped           int `json:"skipped"`
	Commits           int `json:"commits"`
}

// Writes returns the number of document writes counted in the stats.
func (s SyncStats) Writes() int {
	return s.CreatedTasks + s.UpdatedTasks + s.CreatedProperties
}

// SyncResult is the structured, non-throwing outcome of a reconciliation run.
type SyncResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Stats   SyncStats `json:"stats"`
}
