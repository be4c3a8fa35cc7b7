package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"timesheet-service/internal/models"
	"timesheet-service/internal/repository"
)

// MockTimesheetRepository is a mock implementation of TimesheetRepositoryInterface
type MockTimesheetRepository struct {
	mock.Mock
}

// Ensure MockTimesheetRepository implements the interface
var _ repository.TimesheetRepositoryInterface = (*MockTimesheetRepository)(nil)

func (m *MockTimesheetRepository) CreateEntry(ctx context.Context, entry *models.TimeEntry) error {
	args := m.Called(ctx, entry)
	if args.Error(0) == nil {
		entry.ID = uuid.New()
		entry.CreatedAt = time.Now()
		entry.Version = 1
	}
	return args.Error(0)
}

func (m *MockTimesheetRepository) GetEntryByID(ctx context.Context, id uuid.UUID) (*models.TimeEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeEntry), args.Error(1)
}

func (m *MockTimesheetRepository) UpdateEntry(ctx context.Context, entry *models.TimeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTimesheetRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTimesheetRepository) UpdateEntryStatus(ctx context.Context, entry *models.TimeEntry, newStatus string, changedBy uuid.UUID, changedAt time.Time, approvedDate *time.Time) error {
	args := m.Called(ctx, entry, newStatus, changedBy, changedAt, approvedDate)
	if args.Error(0) == nil {
		entry.Status = newStatus
		entry.StatusChangedBy = changedBy
		entry.StatusChangedAt = changedAt
		entry.ApprovedDate = approvedDate
		entry.Version++
	}
	return args.Error(0)
}

func (m *MockTimesheetRepository) GetLockingSheet(ctx context.Context, entryID uuid.UUID) (*models.TimeSheet, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeSheet), args.Error(1)
}

func (m *MockTimesheetRepository) FindStaleEntries(ctx context.Context, tenantID string, projectID uuid.UUID, cutoff time.Time) ([]models.TimeEntry, error) {
	args := m.Called(ctx, tenantID, projectID, cutoff)
	return args.Get(0).([]models.TimeEntry), args.Error(1)
}

func (m *MockTimesheetRepository) CreateMessage(ctx context.Context, message *models.EntryMessage) error {
	args := m.Called(ctx, message)
	if args.Error(0) == nil {
		message.ID = uuid.New()
		message.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockTimesheetRepository) ListMessagesByEntry(ctx context.Context, entryID uuid.UUID) ([]models.EntryMessage, error) {
	args := m.Called(ctx, entryID)
	return args.Get(0).([]models.EntryMessage), args.Error(1)
}

func (m *MockTimesheetRepository) CreateSheet(ctx context.Context, sheet *models.TimeSheet) error {
	args := m.Called(ctx, sheet)
	if args.Error(0) == nil {
		sheet.ID = uuid.New()
		sheet.CreatedAt = time.Now()
		sheet.Version = 1
	}
	return args.Error(0)
}

func (m *MockTimesheetRepository) GetSheetByID(ctx context.Context, id uuid.UUID) (*models.TimeSheet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeSheet), args.Error(1)
}

func (m *MockTimesheetRepository) UpdateSheetStatus(ctx context.Context, sheet *models.TimeSheet, newStatus string, submittedAt, resolvedAt *time.Time) error {
	args := m.Called(ctx, sheet, newStatus, submittedAt, resolvedAt)
	if args.Error(0) == nil {
		sheet.Status = newStatus
		sheet.SubmittedAt = submittedAt
		sheet.ResolvedAt = resolvedAt
		sheet.Version++
	}
	return args.Error(0)
}

func (m *MockTimesheetRepository) AddSheetEntry(ctx context.Context, link *models.TimeSheetEntry) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockTimesheetRepository) RemoveSheetEntry(ctx context.Context, sheetID, entryID uuid.UUID) error {
	args := m.Called(ctx, sheetID, entryID)
	return args.Error(0)
}

func (m *MockTimesheetRepository) ListEntriesBySheet(ctx context.Context, sheetID uuid.UUID) ([]models.TimeEntry, error) {
	args := m.Called(ctx, sheetID)
	return args.Get(0).([]models.TimeEntry), args.Error(1)
}

func (m *MockTimesheetRepository) FindStaleSheets(ctx context.Context, tenantID string, projectID uuid.UUID, cutoff time.Time) ([]models.TimeSheet, error) {
	args := m.Called(ctx, tenantID, projectID, cutoff)
	return args.Get(0).([]models.TimeSheet), args.Error(1)
}

func (m *MockTimesheetRepository) CreateApproval(ctx context.Context, approval *models.TimeSheetApproval) error {
	args := m.Called(ctx, approval)
	if args.Error(0) == nil {
		approval.ID = uuid.New()
		approval.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *MockTimesheetRepository) ListApprovalsBySheet(ctx context.Context, sheetID uuid.UUID) ([]models.TimeSheetApproval, error) {
	args := m.Called(ctx, sheetID)
	return args.Get(0).([]models.TimeSheetApproval), args.Error(1)
}

func (m *MockTimesheetRepository) DeleteApprovalsBySheet(ctx context.Context, sheetID uuid.UUID) error {
	args := m.Called(ctx, sheetID)
	return args.Error(0)
}

func (m *MockTimesheetRepository) GetSettingsByProject(ctx context.Context, tenantID string, projectID uuid.UUID) (*models.ProjectApprovalSettings, error) {
	args := m.Called(ctx, tenantID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProjectApprovalSettings), args.Error(1)
}

func (m *MockTimesheetRepository) SaveSettings(ctx context.Context, settings *models.ProjectApprovalSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockTimesheetRepository) ListAutoApproveSettings(ctx context.Context) ([]models.ProjectApprovalSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ProjectApprovalSettings), args.Error(1)
}

func (m *MockTimesheetRepository) CreateAuditLog(ctx context.Context, log *models.ApprovalAuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockTimesheetRepository) GetSheetHistory(ctx context.Context, sheetID uuid.UUID) ([]models.ApprovalAuditLog, error) {
	args := m.Called(ctx, sheetID)
	return args.Get(0).([]models.ApprovalAuditLog), args.Error(1)
}

func (m *MockTimesheetRepository) GetEntryHistory(ctx context.Context, entryID uuid.UUID) ([]models.ApprovalAuditLog, error) {
	args := m.Called(ctx, entryID)
	return args.Get(0).([]models.ApprovalAuditLog), args.Error(1)
}

// WithTransaction executes the callback with the mock itself so business
// logic can be tested without a real database transaction
func (m *MockTimesheetRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.TimesheetRepositoryInterface) error) error {
	return fn(m)
}

// fixedClock pins Now() for deterministic timestamps
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// Helper to create a test entry in pending status
func createTestEntry(tenantID string, projectID, authorID uuid.UUID) *models.TimeEntry {
	return &models.TimeEntry{
		ID:              uuid.New(),
		TenantID:        tenantID,
		ProjectID:       projectID,
		AuthorID:        authorID,
		EntryDate:       time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Hours:           7.5,
		Status:          models.EntryStatusPending,
		StatusChangedAt: time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC),
		StatusChangedBy: authorID,
		Version:         1,
	}
}

// Helper to create a test sheet
func createTestSheet(tenantID string, projectID, authorID uuid.UUID, status string) *models.TimeSheet {
	sheet := &models.TimeSheet{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ProjectID: projectID,
		AuthorID:  authorID,
		Status:    status,
		Version:   1,
	}
	if status != models.SheetStatusDraft {
		submittedAt := time.Date(2025, 6, 6, 9, 0, 0, 0, time.UTC)
		sheet.SubmittedAt = &submittedAt
	}
	return sheet
}

// Helper to create settings for a project
func createTestSettings(tenantID string, projectID uuid.UUID, mode string) *models.ProjectApprovalSettings {
	return &models.ProjectApprovalSettings{
		ID:           uuid.New(),
		TenantID:     tenantID,
		ProjectID:    projectID,
		ApprovalMode: mode,
	}
}
