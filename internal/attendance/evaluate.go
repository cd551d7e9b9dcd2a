// Package attendance keeps a task's live on-site/away status in line with the
// positions pushed by the assigned staff member's device.
package attendance

import (
	"time"

	"github.com/stwalsh4118/cleanteam/internal/geo"
	"github.com/stwalsh4118/cleanteam/internal/models"
)

// Decision is the outcome of evaluating one position sample.
type Decision struct {
	// AutoLeftAt is set when this sample is the first away reading of an
	// in-progress episode.
	AutoLeftAt     *time.Time
	DistanceMeters *float64
	Status         models.LiveStatus
	Changed        bool
}

// NeedsWrite reports whether the decision must be persisted.
func (d Decision) NeedsWrite() bool {
	return d.Changed || d.AutoLeftAt != nil
}

// Evaluate classifies a sample against the site of a task. A nil sample
// means geolocation is unavailable and degrades to unknown. A site without
// coordinates makes the evaluation a no-op.
func Evaluate(task *models.Task, site *models.Property, sample *models.Position, now time.Time, radiusMeters float64) Decision {
	current := task.LiveStatus
	if current == "" {
		current = models.LiveUnknown
	}

	if !site.HasCoordinates() {
		return Decision{Status: current}
	}

	if sample == nil {
		return Decision{Status: models.LiveUnknown, Changed: current != models.LiveUnknown}
	}

	distance := geo.Haversine(*site.Coordinates, sample.Coordinates())
	status := geo.Classify(distance, radiusMeters)

	d := Decision{
		Status:         status,
		Changed:        status != current,
		DistanceMeters: &distance,
	}
	if status == models.LiveAway && task.Status == models.StatusInProgress && task.AutoLeftAt == nil {
		d.AutoLeftAt = &now
	}
	return d
}
