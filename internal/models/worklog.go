package models

import "time"

// WorkLog is the per-(task, staff) record of where and when a staff member
// started and completed their portion of a task.
type WorkLog struct {
	UpdatedAt     time.Time  `json:"updatedAt"`
	StartedAt     *time.Time `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt"`
	StartLocation *Position  `json:"startLocation"`
	EndLocation   *Position  `json:"endLocation"`
	TeamID        string     `json:"teamId"`
	TaskID        string     `json:"taskId"`
	StaffID       string     `json:"staffId"`
}
