package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/cleanteam/internal/billing"
	"github.com/stwalsh4118/cleanteam/internal/models"
	"github.com/stwalsh4118/cleanteam/internal/services"
)

func taskOrNil(args mock.Arguments) (*models.Task, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func staffOrNil(args mock.Arguments) (*models.StaffMember, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StaffMember), args.Error(1)
}

// MockTaskService is a mock implementation of services.TaskService
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) List(ctx context.Context, teamID string) ([]*models.Task, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, teamID, taskID string) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID))
}

func (m *MockTaskService) CreateManual(ctx context.Context, teamID string, in services.ManualTask) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, in))
}

func (m *MockTaskService) Update(ctx context.Context, teamID, taskID string, edit services.TaskEdit) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID, edit))
}

func (m *MockTaskService) ClearAll(ctx context.Context, teamID string) (int64, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskService) Start(ctx context.Context, teamID, taskID, staffID string, position *models.Position) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID, staffID, position))
}

func (m *MockTaskService) Complete(ctx context.Context, teamID, taskID, staffID string, position *models.Position, byOperator bool) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID, staffID, position, byOperator))
}

func (m *MockTaskService) ReportIssue(ctx context.Context, teamID, taskID, text string) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID, text))
}

func (m *MockTaskService) PushPosition(ctx context.Context, teamID, taskID, staffID string, position *models.Position) error {
	return m.Called(ctx, teamID, taskID, staffID, position).Error(0)
}

func (m *MockTaskService) ToggleChecklist(ctx context.Context, teamID, taskID string, index int) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID, index))
}

func (m *MockTaskService) AddPhoto(ctx context.Context, teamID, taskID, phase, ref string) (*models.Task, error) {
	return taskOrNil(m.Called(ctx, teamID, taskID, phase, ref))
}

func (m *MockTaskService) WorkLogs(ctx context.Context, teamID, taskID string) ([]services.WorkLogView, error) {
	args := m.Called(ctx, teamID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.WorkLogView), args.Error(1)
}

// MockPropertyService is a mock implementation of services.PropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) List(ctx context.Context, teamID string) ([]*models.Property, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockPropertyService) Update(ctx context.Context, teamID, propertyID string, edit services.PropertyEdit) (*services.PropertyUpdate, error) {
	args := m.Called(ctx, teamID, propertyID, edit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PropertyUpdate), args.Error(1)
}

// MockSyncService is a mock implementation of services.SyncService
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) Sync(ctx context.Context, teamID string) models.SyncResult {
	return m.Called(ctx, teamID).Get(0).(models.SyncResult)
}

// MockSettingsService is a mock implementation of services.SettingsService
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context, teamID string) (*models.TeamSettings, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamSettings), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, teamID string, edit services.SettingsEdit) (*models.TeamSettings, error) {
	args := m.Called(ctx, teamID, edit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamSettings), args.Error(1)
}

// MockBillingService is a mock implementation of services.BillingService
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) Report(ctx context.Context, teamID string, filter billing.Filter) (*billing.Report, error) {
	args := m.Called(ctx, teamID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Report), args.Error(1)
}

func (m *MockBillingService) ExportCSV(ctx context.Context, teamID string, filter billing.Filter) ([]byte, error) {
	args := m.Called(ctx, teamID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBillingService) ExportXLSX(ctx context.Context, teamID string, filter billing.Filter) ([]byte, error) {
	args := m.Called(ctx, teamID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBillingService) ListStaff(ctx context.Context, teamID string) ([]*models.StaffMember, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StaffMember), args.Error(1)
}

func (m *MockBillingService) SaveStaff(ctx context.Context, teamID, staffID, name, role string) (*models.StaffMember, error) {
	return staffOrNil(m.Called(ctx, teamID, staffID, name, role))
}

func (m *MockBillingService) GetProfile(ctx context.Context, teamID, staffID string) (*models.StaffMember, error) {
	return staffOrNil(m.Called(ctx, teamID, staffID))
}

func (m *MockBillingService) UpdateProfile(ctx context.Context, teamID, staffID string, profile models.BillingProfile) (*models.StaffMember, error) {
	return staffOrNil(m.Called(ctx, teamID, staffID, profile))
}
