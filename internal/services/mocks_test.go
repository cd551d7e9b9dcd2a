package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/cleanteam/internal/attendance"
	"github.com/stwalsh4118/cleanteam/internal/lifecycle"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/reconcile"
	"github.com/stwalsh4118/cleanteam/internal/smoobu"
)

// MockTaskRepository is a mock implementation of TaskRepository for testing
type MockTaskRepository struct {
	mock.Mock
}

func taskOrNil(args mock.Arguments) (*models.Task, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.Task, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, teamID, taskID string) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID))
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, task))
}

func (m *MockTaskRepository) ApplyTransition(ctx context.Context, teamID, taskID string, tr lifecycle.Transition, now time.Time) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID, tr, now))
}

func (m *MockTaskRepository) UpdateLiveStatus(ctx context.Context, teamID, taskID string, status models.LiveStatus, autoLeftAt *time.Time) error {
	return m.Called(ctx, teamID, taskID, status, autoLeftAt).Error(0)
}

func (m *MockTaskRepository) SetChecklistDone(ctx context.Context, teamID, taskID string, done []int) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID, done))
}

func (m *MockTaskRepository) AppendPhoto(ctx context.Context, teamID, taskID, phase, ref string) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID, phase, ref))
}

func (m *MockTaskRepository) AssignPending(ctx context.Context, teamID string, taskIDs []string, crew models.StaffIDs) (int64, error) {
	args := m.Called(ctx, teamID, taskIDs, crew)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) DeleteAll(ctx context.Context, teamID string) (int64, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPropertyRepository is a mock implementation of PropertyRepository for testing
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.Property, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, teamID, propertyID string) (*models.Property, error) {
	args := m.Called(ctx, teamID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) Update(ctx context.Context, property *models.Property) (*models.Property, error) {
	args := m.Called(ctx, property)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

// MockWorkLogRepository is a mock implementation of WorkLogRepository for testing
type MockWorkLogRepository struct {
	mock.Mock
}

func (m *MockWorkLogRepository) Find(ctx context.Context, teamID, taskID, staffID string) (*models.WorkLog, error) {
	args := m.Called(ctx, teamID, taskID, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkLog), args.Error(1)
}

func (m *MockWorkLogRepository) ListByTask(ctx context.Context, teamID, taskID string) ([]*models.WorkLog, error) {
	args := m.Called(ctx, teamID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WorkLog), args.Error(1)
}

func (m *MockWorkLogRepository) Upsert(ctx context.Context, log *models.WorkLog) (*models.WorkLog, error) {
	args := m.Called(ctx, log)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkLog), args.Error(1)
}

// MockStaffRepository is a mock implementation of StaffRepository for testing
type MockStaffRepository struct {
	mock.Mock
}

func staffOrNil(args mock.Arguments) (*models.StaffMember, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StaffMember), args.Error(1)
}

func (m *MockStaffRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.StaffMember, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StaffMember), args.Error(1)
}

func (m *MockStaffRepository) FindByID(ctx context.Context, teamID, staffID string) (*models.StaffMember, error) {
	return staffOrNil(m.Called(ctx, teamID, staffID))
}

func (m *MockStaffRepository) Upsert(ctx context.Context, member *models.StaffMember) (*models.StaffMember, error) {
	return staffOrNil(m.Called(ctx, member))
}

func (m *MockStaffRepository) UpdateBilling(ctx context.Context, teamID, staffID string, profile models.BillingProfile) (*models.StaffMember, error) {
	return staffOrNil(m.Called(ctx, teamID, staffID, profile))
}

// MockSettingsRepository is a mock implementation of SettingsRepository for testing
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context, teamID string) (*models.TeamSettings, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamSettings), args.Error(1)
}

func (m *MockSettingsRepository) Upsert(ctx context.Context, settings *models.TeamSettings) (*models.TeamSettings, error) {
	args := m.Called(ctx, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamSettings), args.Error(1)
}

func (m *MockSettingsRepository) ListAutoSync(ctx context.Context) ([]*models.TeamSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TeamSettings), args.Error(1)
}

// MockSyncRepository is a mock implementation of SyncRepository for testing
type MockSyncRepository struct {
	mock.Mock
}

func (m *MockSyncRepository) Apply(ctx context.Context, out reconcile.Output, batchSize int) (int, error) {
	args := m.Called(ctx, out, batchSize)
	return args.Int(0), args.Error(1)
}

// MockFetcher is a mock implementation of ReservationFetcher for testing
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchReservations(ctx context.Context, apiKey string, window smoobu.Window) ([]models.Reservation, error) {
	args := m.Called(ctx, apiKey, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

// MockTracker is a mock implementation of Tracker for testing
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Start(key attendance.Key) bool {
	return m.Called(key).Bool(0)
}

func (m *MockTracker) Push(key attendance.Key, sample *models.Position) error {
	return m.Called(key, sample).Error(0)
}

func (m *MockTracker) StopTask(teamID, taskID string) {
	m.Called(teamID, taskID)
}

func (m *MockTracker) StopStaff(teamID, taskID string, staff models.StaffIDs) {
	m.Called(teamID, taskID, staff)
}

func (m *MockTracker) StopTeam(teamID string) {
	m.Called(teamID)
}

// MockRescheduler is a mock implementation of Rescheduler for testing
type MockRescheduler struct {
	mock.Mock
}

func (m *MockRescheduler) Schedule(teamID string, intervalMinutes int) error {
	return m.Called(teamID, intervalMinutes).Error(0)
}

func (m *MockRescheduler) Remove(teamID string) {
	m.Called(teamID)
}
