// Package geo provides the distance math used for geofencing and for
// verifying work log position snapshots.
package geo

import (
	"math"

	"github.com/stwalsh4118/cleanteam/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6371000.0

// DefaultRadiusMeters is the on-site threshold around a property.
const DefaultRadiusMeters = 200.0

// DefaultDeviationMeters is the distance above which a work log snapshot is flagged.
const DefaultDeviationMeters = 100.0

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b models.Coordinates) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h marginally above 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Classify maps a distance to an attendance status. Strictly less than
// radius is on-site.
func Classify(distanceMeters, radiusMeters float64) models.LiveStatus {
	if distanceMeters < radiusMeters {
		return models.LiveOnSite
	}
	return models.LiveAway
}

// Deviation is the result of verifying a position snapshot against a site.
type Deviation struct {
	DistanceMeters float64 `json:"distanceMeters"`
	Flagged        bool    `json:"flagged"`
}

// Verify compares a snapshot with the site coordinates. It returns nil when
// either side is unknown.
func Verify(site *models.Coordinates, snapshot *models.Position, thresholdMeters float64) *Deviation {
	if site == nil || snapshot == nil {
		return nil
	}
	distance := Haversine(*site, snapshot.Coordinates())
	return &Deviation{
		DistanceMeters: distance,
		Flagged:        distance > thresholdMeters,
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
