package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/cleanteam/internal/billing"
	"github.com/stwalsh4118/cleanteam/internal/logger"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/xuri/excelize/v2"
)

func billingFixtures() ([]*models.Task, []*models.StaffMember) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	tasks := []*models.Task{
		{ID: "t1", Date: "2024-06-01", Apartment: "Loft A", Status: models.StatusCompleted,
			AssignedTo: models.NewStaffIDs("u1", "u2"), StartedAt: &start, CompletedAt: &end},
		{ID: "t2", Date: "2024-06-02", Apartment: "Loft A", Status: models.StatusPending,
			AssignedTo: models.NewStaffIDs("u1")},
	}
	staff := []*models.StaffMember{
		{ID: "u1", Name: "Ann", Billing: models.BillingProfile{Mode: models.BillingFixed, FixedRate: 40}},
		{ID: "u2", Name: "Bob", Billing: models.BillingProfile{Mode: models.BillingHourly, HourlyRate: 20}},
	}
	return tasks, staff
}

func newBillingFixture() (*MockTaskRepository, *MockStaffRepository, BillingService) {
	tasks := new(MockTaskRepository)
	staff := new(MockStaffRepository)
	return tasks, staff, NewBillingService(tasks, staff, logger.Nop())
}

func TestBillingReport(t *testing.T) {
	tasks, staff, svc := newBillingFixture()
	ctx := context.Background()
	taskRows, members := billingFixtures()
	tasks.On("ListByTeam", ctx, "team-1").Return(taskRows, nil)
	staff.On("ListByTeam", ctx, "team-1").Return(members, nil)

	report, err := svc.Report(ctx, "team-1", billing.Filter{})

	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.InDelta(t, 35.0, report.Total, 1e-9, "20 fixed share plus 15 hourly share")
	assert.Equal(t, []string{"Ann", "Bob"}, report.Rows[0].StaffNames)
	tasks.AssertExpectations(t)
	staff.AssertExpectations(t)
}

func TestBillingReport_InvalidFilter(t *testing.T) {
	tasks, _, svc := newBillingFixture()

	_, err := svc.Report(context.Background(), "team-1", billing.Filter{From: "2024-07-01", To: "2024-06-01"})

	assert.ErrorIs(t, err, billing.ErrInvalidFilter)
	tasks.AssertNotCalled(t, "ListByTeam", mock.Anything, mock.Anything)
}

func TestBillingExports(t *testing.T) {
	tasks, staff, svc := newBillingFixture()
	ctx := context.Background()
	taskRows, members := billingFixtures()
	tasks.On("ListByTeam", ctx, "team-1").Return(taskRows, nil)
	staff.On("ListByTeam", ctx, "team-1").Return(members, nil)

	csv, err := svc.ExportCSV(ctx, "team-1", billing.Filter{StaffID: "u2"})
	require.NoError(t, err)
	lines := strings.Split(string(csv), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(billing.CSVHeader, ";"), strings.ReplaceAll(lines[0], `"`, ""))
	assert.Contains(t, lines[1], "15,00\u00a0€")

	data, err := svc.ExportXLSX(ctx, "team-1", billing.Filter{})
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Billing")
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header, one task, total")
}

func TestBillingUpdateProfile(t *testing.T) {
	_, staff, svc := newBillingFixture()
	ctx := context.Background()
	profile := models.BillingProfile{Mode: models.BillingHourly, HourlyRate: 22.5}

	staff.On("UpdateBilling", ctx, "team-1", "u1", profile).
		Return(&models.StaffMember{ID: "u1", Billing: profile}, nil)

	member, err := svc.UpdateProfile(ctx, "team-1", "u1", profile)

	require.NoError(t, err)
	assert.Equal(t, models.BillingHourly, member.Billing.Mode)
	staff.AssertExpectations(t)
}

func TestBillingUpdateProfile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		profile models.BillingProfile
	}{
		{name: "unknown mode", profile: models.BillingProfile{Mode: "daily"}},
		{name: "negative fixed rate", profile: models.BillingProfile{FixedRate: -1}},
		{name: "negative hourly rate", profile: models.BillingProfile{Mode: models.BillingHourly, HourlyRate: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, staff, svc := newBillingFixture()
			_, err := svc.UpdateProfile(context.Background(), "team-1", "u1", tt.profile)
			assert.ErrorIs(t, err, ErrInvalidInput)
			staff.AssertNotCalled(t, "UpdateBilling", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBillingUpdateProfile_UnknownStaff(t *testing.T) {
	_, staff, svc := newBillingFixture()
	ctx := context.Background()
	staff.On("UpdateBilling", ctx, "team-1", "ghost", mock.Anything).Return(nil, nil)

	_, err := svc.UpdateProfile(ctx, "team-1", "ghost", models.BillingProfile{FixedRate: 10})

	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestBillingSaveStaff(t *testing.T) {
	_, staff, svc := newBillingFixture()
	ctx := context.Background()

	_, err := svc.SaveStaff(ctx, "team-1", "u1", " ", "cleaner")
	assert.ErrorIs(t, err, ErrInvalidInput)

	staff.On("Upsert", ctx, mock.MatchedBy(func(m *models.StaffMember) bool {
		return m.ID == "u1" && m.Name == "Ann" && m.TeamID == "team-1"
	})).Return(&models.StaffMember{ID: "u1", Name: "Ann"}, nil)

	member, err := svc.SaveStaff(ctx, "team-1", "u1", " Ann ", "cleaner")
	require.NoError(t, err)
	assert.Equal(t, "Ann", member.Name)
	staff.AssertExpectations(t)
}
