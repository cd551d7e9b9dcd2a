package models

import "time"

// BillingMode selects how a staff member is compensated.
type BillingMode string

const (
	BillingFixed  BillingMode = "fixed"
	BillingHourly BillingMode = "hourly"
)

// BillingProfile holds a staff member's compensation settings. Only the rate
// of the active mode is ever used.
type BillingProfile struct {
	Mode       BillingMode `json:"billingMode" validate:"omitempty,oneof=fixed hourly"`
	FixedRate  float64     `json:"fixedRate" validate:"gte=0"`
	HourlyRate float64     `json:"hourlyRate" validate:"gte=0"`
}

// ActiveMode returns the evaluated mode; an unset mode means fixed.
func (b BillingProfile) ActiveMode() BillingMode {
	if b.Mode == BillingHourly {
		return BillingHourly
	}
	return BillingFixed
}

// StaffMember is a team member that can be assigned to tasks.
type StaffMember struct {
	CreatedAt time.Time      `json:"createdAt"`
	ID        string         `json:"id"`
	TeamID    string         `json:"teamId"`
	Name      string         `json:"name"`
	Role      string         `json:"role"`
	Billing   BillingProfile `json:"billing"`
}
