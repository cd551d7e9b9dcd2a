// Package billing computes per-task amounts from staff billing profiles and
// projects filtered completed tasks into reports and exports.
package billing

import (
	"github.com/stwalsh4118/cleanteam/internal/models"
)

// Profiles maps staff ids to their current billing profile.
type Profiles map[string]models.BillingProfile

// ProfilesFromStaff indexes the billing profiles of staff members.
func ProfilesFromStaff(staff []*models.StaffMember) Profiles {
	profiles := make(Profiles, len(staff))
	for _, member := range staff {
		if member != nil {
			profiles[member.ID] = member.Billing
		}
	}
	return profiles
}

// ComputeAmount returns the amount billed for a task, or nil when the task
// is not billable: not completed, unassigned, or not assigned to
// targetStaffID when one is given.
//
// The amount is split evenly across the assigned staff. With a target only
// that member's share is returned. Staff without a profile contribute
// nothing. Hourly members contribute nothing unless both startedAt and
// completedAt are set.
func ComputeAmount(task *models.Task, profiles Profiles, targetStaffID string) *float64 {
	if task == nil || task.Status != models.StatusCompleted {
		return nil
	}

	assigned := models.NewStaffIDs(task.AssignedTo...)
	if assigned.Len() == 0 {
		return nil
	}
	if targetStaffID != "" && !assigned.Contains(targetStaffID) {
		return nil
	}

	targets := assigned
	if targetStaffID != "" {
		targets = models.StaffIDs{targetStaffID}
	}

	split := float64(assigned.Len())
	var total float64
	for _, id := range targets {
		profile, ok := profiles[id]
		if !ok {
			continue
		}
		total += memberAmount(task, profile) / split
	}
	return &total
}

func memberAmount(task *models.Task, profile models.BillingProfile) float64 {
	if profile.ActiveMode() == models.BillingFixed {
		return profile.FixedRate
	}
	if task.StartedAt == nil || task.CompletedAt == nil {
		return 0
	}
	hours := task.CompletedAt.Sub(*task.StartedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return hours * profile.HourlyRate
}
