package billing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/stwalsh4118/cleanteam/internal/models"
)

// ErrInvalidFilter is returned for malformed report filters.
var ErrInvalidFilter = errors.New("invalid billing filter")

const dateLayout = "2006-01-02"

// Filter narrows a report. Empty fields do not filter. From and To are
// inclusive ISO dates; Property matches the task's apartment name.
type Filter struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	StaffID  string `json:"staffId,omitempty"`
	Property string `json:"property,omitempty"`
}

// Validate checks the date bounds.
func (f Filter) Validate() error {
	for name, value := range map[string]string{"from": f.From, "to": f.To} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, value); err != nil {
			return fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", ErrInvalidFilter, name, value)
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilter, f.From, f.To)
	}
	return nil
}

// Matches reports whether a task belongs in the report. Only completed tasks
// match. Tasks without a date are not excluded by the date bounds.
func (f Filter) Matches(task *models.Task) bool {
	if task == nil || task.Status != models.StatusCompleted {
		return false
	}
	if f.From != "" && task.Date != "" && task.Date < f.From {
		return false
	}
	if f.To != "" && task.Date != "" && task.Date > f.To {
		return false
	}
	if f.Property != "" && task.Apartment != f.Property {
		return false
	}
	if f.StaffID != "" && !models.NewStaffIDs(task.AssignedTo...).Contains(f.StaffID) {
		return false
	}
	return true
}

// Row is one billed task.
type Row struct {
	Amount          *float64        `json:"amount"`
	DurationMinutes *int            `json:"durationMinutes"`
	TaskID          string          `json:"taskId"`
	Date            string          `json:"date"`
	Property        string          `json:"property"`
	StaffIDs        models.StaffIDs `json:"staffIds"`
	StaffNames      []string        `json:"staffNames"`
}

// Report is the filtered set of billed tasks and their sum.
type Report struct {
	Filter Filter  `json:"filter"`
	Rows   []Row   `json:"rows"`
	Total  float64 `json:"total"`
}

// Build computes a report over tasks using the current staff profiles.
// Rows are ordered by date, then task id.
func Build(tasks []*models.Task, staff []*models.StaffMember, filter Filter) Report {
	profiles := ProfilesFromStaff(staff)
	names := make(map[string]string, len(staff))
	for _, member := range staff {
		if member != nil && strings.TrimSpace(member.Name) != "" {
			names[member.ID] = member.Name
		}
	}

	report := Report{Filter: filter, Rows: []Row{}}
	for _, task := range tasks {
		if !filter.Matches(task) {
			continue
		}

		assigned := models.NewStaffIDs(task.AssignedTo...)
		staffNames := make([]string, 0, assigned.Len())
		for _, id := range assigned {
			if name, ok := names[id]; ok {
				staffNames = append(staffNames, name)
				continue
			}
			staffNames = append(staffNames, id)
		}

		amount := ComputeAmount(task, profiles, filter.StaffID)
		if amount != nil {
			report.Total += *amount
		}

		report.Rows = append(report.Rows, Row{
			TaskID:          task.ID,
			Date:            task.Date,
			Property:        task.Apartment,
			StaffIDs:        assigned,
			StaffNames:      staffNames,
			DurationMinutes: durationMinutes(task.StartedAt, task.CompletedAt),
			Amount:          amount,
		})
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		if report.Rows[i].Date != report.Rows[j].Date {
			return report.Rows[i].Date < report.Rows[j].Date
		}
		return report.Rows[i].TaskID < report.Rows[j].TaskID
	})
	return report
}

// durationMinutes rounds the worked time to minutes; nil when unknown or not positive.
func durationMinutes(start, end *time.Time) *int {
	if start == nil || end == nil {
		return nil
	}
	diff := end.Sub(*start)
	if diff <= 0 {
		return nil
	}
	minutes := int(math.Round(diff.Minutes()))
	return &minutes
}
