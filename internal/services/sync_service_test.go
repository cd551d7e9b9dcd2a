package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/cleanteam/internal/config"
	"github.com/stwalsh4118/cleanteam/internal/logger"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/reconcile"
	"github.com/stwalsh4118/cleanteam/internal/smoobu"
)

var syncNow = time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)

type syncFixture struct {
	fetcher  *MockFetcher
	tasks    *MockTaskRepository
	props    *MockPropertyRepository
	settings *MockSettingsRepository
	writer   *MockSyncRepository
	service  SyncService
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		fetcher:  new(MockFetcher),
		tasks:    new(MockTaskRepository),
		props:    new(MockPropertyRepository),
		settings: new(MockSettingsRepository),
		writer:   new(MockSyncRepository),
	}
	svc := NewSyncService(f.fetcher, f.tasks, f.props, f.settings, f.writer, config.SyncConfig{
		WindowPastDays:   2,
		WindowFutureDays: 60,
		BatchSize:        450,
	}, logger.Nop())
	svc.(*syncService).now = func() time.Time { return syncNow }
	f.service = svc
	return f
}

func (f *syncFixture) assertExpectations(t *testing.T) {
	f.fetcher.AssertExpectations(t)
	f.tasks.AssertExpectations(t)
	f.props.AssertExpectations(t)
	f.settings.AssertExpectations(t)
	f.writer.AssertExpectations(t)
}

func withKey(team string) *models.TeamSettings {
	return &models.TeamSettings{TeamID: team, APIKey: " secret ", AutoSyncIntervalMinutes: 15}
}

func loftReservation() models.Reservation {
	return models.Reservation{
		ID:          "R1",
		ApartmentID: "7",
		Apartment:   &models.ReservationApartment{ID: "7", Name: "Loft A"},
		Departure:   "2024-06-01",
		GuestName:   "Ann",
	}
}

func TestSync_MissingTeam(t *testing.T) {
	f := newSyncFixture()

	result := f.service.Sync(context.Background(), "  ")

	assert.False(t, result.Success)
	assert.Equal(t, MsgMissingTeam, result.Message)
	f.assertExpectations(t)
}

func TestSync_MissingAPIKey(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()
	f.settings.On("Get", ctx, "team-1").Return(nil, nil)

	result := f.service.Sync(ctx, "team-1")

	assert.False(t, result.Success)
	assert.Equal(t, MsgMissingAPIKey, result.Message)
	f.fetcher.AssertNotCalled(t, "FetchReservations", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestSync_FetchFailureAbortsRun(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()
	window := smoobu.NewWindow(syncNow, 2, 60)

	f.settings.On("Get", ctx, "team-1").Return(withKey("team-1"), nil)
	f.fetcher.On("FetchReservations", ctx, "secret", window).
		Return(nil, errors.New("upstream fetch failed: 503 Service Unavailable"))

	result := f.service.Sync(ctx, "team-1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "503 Service Unavailable")
	f.tasks.AssertNotCalled(t, "ListByTeam", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestSync_NoBookings(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	f.settings.On("Get", ctx, "team-1").Return(withKey("team-1"), nil)
	f.fetcher.On("FetchReservations", ctx, "secret", mock.Anything).Return([]models.Reservation{}, nil)

	result := f.service.Sync(ctx, "team-1")

	assert.True(t, result.Success)
	assert.Equal(t, MsgNoBookings, result.Message)
	f.assertExpectations(t)
}

func TestSync_CreatesTasksAndProperties(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	f.settings.On("Get", ctx, "team-1").Return(withKey("team-1"), nil)
	f.fetcher.On("FetchReservations", ctx, "secret", mock.Anything).
		Return([]models.Reservation{loftReservation()}, nil)
	f.tasks.On("ListByTeam", ctx, "team-1").Return([]*models.Task{}, nil)
	f.props.On("ListByTeam", ctx, "team-1").Return([]*models.Property{}, nil)
	f.writer.On("Apply", ctx, mock.MatchedBy(func(out reconcile.Output) bool {
		return len(out.CreatedTasks) == 1 &&
			out.CreatedTasks[0].ID == "task_R1" &&
			len(out.CreatedProperties) == 1 &&
			out.CreatedProperties[0].ID == "apt_7"
	}), 450).Return(1, nil)

	result := f.service.Sync(ctx, "team-1")

	assert.True(t, result.Success)
	assert.Equal(t, "created 1 / updated 0 / new properties 1", result.Message)
	assert.Equal(t, 1, result.Stats.Commits)
	assert.Equal(t, 2, result.Stats.Writes())
	f.assertExpectations(t)
}

func TestSync_AlreadyUpToDate(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()
	apt := "7"

	f.settings.On("Get", ctx, "team-1").Return(withKey("team-1"), nil)
	f.fetcher.On("FetchReservations", ctx, "secret", mock.Anything).
		Return([]models.Reservation{loftReservation()}, nil)
	f.tasks.On("ListByTeam", ctx, "team-1").Return([]*models.Task{{
		ID: "task_R1", TeamID: "team-1", PropertyID: "apt_7", Apartment: "Loft A",
		Date: "2024-06-01", Status: models.StatusPending,
	}}, nil)
	f.props.On("ListByTeam", ctx, "team-1").Return([]*models.Property{{
		ID: "apt_7", TeamID: "team-1", Name: "Loft A", ApartmentID: &apt,
	}}, nil)

	result := f.service.Sync(ctx, "team-1")

	assert.True(t, result.Success)
	assert.Equal(t, MsgAlreadyCurrent, result.Message)
	f.writer.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestSync_PartialWriteReportsCommits(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	f.settings.On("Get", ctx, "team-1").Return(withKey("team-1"), nil)
	f.fetcher.On("FetchReservations", ctx, "secret", mock.Anything).
		Return([]models.Reservation{loftReservation()}, nil)
	f.tasks.On("ListByTeam", ctx, "team-1").Return([]*models.Task{}, nil)
	f.props.On("ListByTeam", ctx, "team-1").Return([]*models.Property{}, nil)
	f.writer.On("Apply", ctx, mock.Anything, 450).Return(1, errors.New("connection reset"))

	result := f.service.Sync(ctx, "team-1")

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Stats.Commits)
	assert.Contains(t, result.Message, "connection reset")
	f.assertExpectations(t)
}

func TestSync_SettingsError(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()
	f.settings.On("Get", ctx, "team-1").Return(nil, errors.New("db down"))

	result := f.service.Sync(ctx, "team-1")

	assert.False(t, result.Success)
	f.assertExpectations(t)
}
