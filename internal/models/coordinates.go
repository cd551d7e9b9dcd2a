package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within the WGS84 latitude/longitude ranges.
func (c Coordinates) Valid() bool {
	return c.Lat >= MinLatitude && c.Lat <= MaxLatitude &&
		c.Lng >= MinLongitude && c.Lng <= MaxLongitude
}

// Position is a device location sample as delivered by a staff client.
// Accuracy is the reported radius of uncertainty in meters.
type Position struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Accuracy   float64   `json:"accuracy"`
	CapturedAt time.Time `json:"capturedAt,omitempty"`
}

// Coordinates returns the position as a plain point.
func (p Position) Coordinates() Coordinates {
	return Coordinates{Lat: p.Lat, Lng: p.Lng}
}

// Scan implements sql.Scanner for positions stored as JSONB.
func (p *Position) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to scan Position: expected []byte or string, got %T", value)
	}

	var decoded Position
	if err := json.Unmarshal(bytes, &decoded); err != nil {
		return fmt.Errorf("failed to unmarshal position: %w", err)
	}

	*p = decoded
	return nil
}

// Value implements driver.Valuer for positions stored as JSONB.
func (p Position) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal position: %w", err)
	}
	return string(data), nil
}
