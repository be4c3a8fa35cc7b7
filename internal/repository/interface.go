package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"timesheet-service/internal/models"
)

// TimesheetRepositoryInterface abstracts database operations for the
// approval workflow engine so services can be tested against mocks.
type TimesheetRepositoryInterface interface {
	// Entries
	CreateEntry(ctx context.Context, entry *models.TimeEntry) error
	GetEntryByID(ctx context.Context, id uuid.UUID) (*models.TimeEntry, error)
	UpdateEntry(ctx context.Context, entry *models.TimeEntry) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	UpdateEntryStatus(ctx context.Context, entry *models.TimeEntry, newStatus string, changedBy uuid.UUID, changedAt time.Time, approvedDate *time.Time) error
	GetLockingSheet(ctx context.Context, entryID uuid.UUID) (*models.TimeSheet, error)
	FindStaleEntries(ctx context.Context, tenantID string, projectID uuid.UUID, cutoff time.Time) ([]models.TimeEntry, error)

	// Entry messages
	CreateMessage(ctx context.Context, message *models.EntryMessage) error
	ListMessagesByEntry(ctx context.Context, entryID uuid.UUID) ([]models.EntryMessage, error)

	// Sheets
	CreateSheet(ctx context.Context, sheet *models.TimeSheet) error
	GetSheetByID(ctx context.Context, id uuid.UUID) (*models.TimeSheet, error)
	UpdateSheetStatus(ctx context.Context, sheet *models.TimeSheet, newStatus string, submittedAt, resolvedAt *time.Time) error
	AddSheetEntry(ctx context.Context, link *models.TimeSheetEntry) error
	RemoveSheetEntry(ctx context.Context, sheetID, entryID uuid.UUID) error
	ListEntriesBySheet(ctx context.Context, sheetID uuid.UUID) ([]models.TimeEntry, error)
	FindStaleSheets(ctx context.Context, tenantID string, projectID uuid.UUID, cutoff time.Time) ([]models.TimeSheet, error)

	// Stage approvals (insert-only append)
	CreateApproval(ctx context.Context, approval *models.TimeSheetApproval) error
	ListApprovalsBySheet(ctx context.Context, sheetID uuid.UUID) ([]models.TimeSheetApproval, error)
	DeleteApprovalsBySheet(ctx context.Context, sheetID uuid.UUID) error

	// Settings
	GetSettingsByProject(ctx context.Context, tenantID string, projectID uuid.UUID) (*models.ProjectApprovalSettings, error)
	SaveSettings(ctx context.Context, settings *models.ProjectApprovalSettings) error
	ListAutoApproveSettings(ctx context.Context) ([]models.ProjectApprovalSettings, error)

	// Audit trail
	CreateAuditLog(ctx context.Context, log *models.ApprovalAuditLog) error
	GetSheetHistory(ctx context.Context, sheetID uuid.UUID) ([]models.ApprovalAuditLog, error)
	GetEntryHistory(ctx context.Context, entryID uuid.UUID) ([]models.ApprovalAuditLog, error)

	// WithTransaction executes fn with a repository bound to a transaction
	WithTransaction(ctx context.Context, fn func(txRepo TimesheetRepositoryInterface) error) error
}
