package reconcile

import (
	"strings"
	"time"

	"github.com/stwalsh4118/cleanteam/internal/models"
)

// DefaultGuestName is used for new tasks whose reservation names no guest.
const DefaultGuestName = "Unknown guest"

const taskPrefix = "task_"

// TaskID derives the deterministic task id for a reservation.
func TaskID(reservationID string) string {
	return taskPrefix + strings.TrimSpace(reservationID)
}

// Input is the snapshot a reconciliation pass works on.
type Input struct {
	Now                time.Time
	TeamID             string
	Reservations       []models.Reservation
	ExistingTasks      []*models.Task
	ExistingProperties []*models.Property
}

// Output lists the writes a reconciliation pass produced. Updated tasks are
// copies; the input snapshots are never mutated.
type Output struct {
	CreatedTasks      []*models.Task
	UpdatedTasks      []*models.Task
	CreatedProperties []*models.Property
	Skipped           int
}

// Stats summarizes the output.
func (o Output) Stats() models.SyncStats {
	return models.SyncStats{
		CreatedTasks:      len(o.CreatedTasks),
		UpdatedTasks:      len(o.UpdatedTasks),
		CreatedProperties: len(o.CreatedProperties),
		Skipped:           o.Skipped,
	}
}

// Empty reports whether the pass produced no writes.
func (o Output) Empty() bool {
	return len(o.CreatedTasks) == 0 && len(o.UpdatedTasks) == 0 && len(o.CreatedProperties) == 0
}

// Reconcile merges reservations into the task and property snapshots.
//
// Reservations without a usable id or departure date are skipped. A new
// reservation creates a pending task seeded with its property's crew and
// checklist. An existing task is refreshed only while it is pending and its
// date or apartment name changed; assignment and checklist are never touched.
// Running Reconcile again on its own applied output yields an empty Output.
func Reconcile(in Input) Output {
	resolver := NewResolver(in.TeamID, in.ExistingProperties, in.Now)

	tasks := make(map[string]*models.Task, len(in.ExistingTasks))
	for _, t := range in.ExistingTasks {
		if t != nil {
			tasks[t.ID] = t
		}
	}

	var out Output
	seen := make(map[string]struct{}, len(in.Reservations))
	updated := make(map[string]int)

	for i := range in.Reservations {
		res := &in.Reservations[i]

		reservationID := strings.TrimSpace(res.ID.String())
		date := res.DepartureDate()
		if reservationID == "" || !validDate(date) {
			out.Skipped++
			continue
		}

		name := res.ApartmentName()
		prop, _ := resolver.Resolve(res.ApartmentKey(), name)

		id := TaskID(reservationID)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		existing, ok := tasks[id]
		if !ok {
			task := newTask(in.TeamID, id, prop, res, name, date, in.Now)
			tasks[id] = task
			out.CreatedTasks = append(out.CreatedTasks, task)
			continue
		}

		refreshed, changed := refresh(existing, prop, res, name, date, in.Now)
		if !changed {
			continue
		}
		tasks[id] = refreshed
		if pos, again := updated[id]; again {
			out.UpdatedTasks[pos] = refreshed
			continue
		}
		updated[id] = len(out.UpdatedTasks)
		out.UpdatedTasks = append(out.UpdatedTasks, refreshed)
	}

	out.CreatedProperties = resolver.Created()
	return out
}

func newTask(teamID, id string, prop *models.Property, res *models.Reservation, name, date string, now time.Time) *models.Task {
	guest := res.Guest()
	if guest == "" {
		guest = DefaultGuestName
	}

	return &models.Task{
		ID:            id,
		TeamID:        teamID,
		PropertyID:    prop.ID,
		Apartment:     name,
		ApartmentID:   res.ApartmentKey(),
		Date:          date,
		Status:        models.StatusPending,
		LiveStatus:    models.LiveUnknown,
		GuestName:     guest,
		Notes:         strings.TrimSpace(res.Notice),
		Source:        models.SourceSmoobu,
		AssignedTo:    prop.DefaultStaff.Copy(),
		Checklist:     prop.EffectiveChecklist(),
		ChecklistDone: []int{},
		Photos:        models.Photos{Before: []string{}, After: []string{}},
		OriginalData:  res.PayloadJSON(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// refresh returns an updated copy of a pending task whose schedule drifted.
func refresh(existing *models.Task, prop *models.Property, res *models.Reservation, name, date string, now time.Time) (*models.Task, bool) {
	if existing.Status != models.StatusPending {
		return existing, false
	}
	if existing.Date == date && existing.Apartment == name {
		return existing, false
	}

	next := *existing
	next.Date = date
	next.Apartment = name
	next.PropertyID = prop.ID
	if guest := res.Guest(); guest != "" {
		next.GuestName = guest
	}
	if notes := strings.TrimSpace(res.Notice); notes != "" {
		next.Notes = notes
	}
	next.UpdatedAt = now
	return &next, true
}

func validDate(date string) bool {
	if date == "" {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}
