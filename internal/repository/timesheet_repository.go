package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"timesheet-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict - record was modified by another request")
)

// TimesheetRepository handles database operations for the approval engine
type TimesheetRepository struct {
	db *gorm.DB
}

// Ensure TimesheetRepository implements the interface
var _ TimesheetRepositoryInterface = (*TimesheetRepository)(nil)

// NewTimesheetRepository creates a new TimesheetRepository
func NewTimesheetRepository(db *gorm.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// WithTransaction executes fn with a repository bound to a transaction.
// Every state transition runs as one such unit.
func (r *TimesheetRepository) WithTransaction(ctx context.Context, fn func(txRepo TimesheetRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TimesheetRepository{db: tx})
	})
}

// --- Entry Methods ---

// CreateEntry creates a new time entry
func (r *TimesheetRepository) CreateEntry(ctx context.Context, entry *models.TimeEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetEntryByID retrieves an entry by ID
func (r *TimesheetRepository) GetEntryByID(ctx context.Context, id uuid.UUID) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry updates an entry's editable fields with optimistic locking
func (r *TimesheetRepository) UpdateEntry(ctx context.Context, entry *models.TimeEntry) error {
	oldVersion := entry.Version

	result := r.db.WithContext(ctx).Model(entry).
		Where("id = ? AND version = ?", entry.ID, oldVersion).
		Updates(map[string]interface{}{
			"entry_date":  entry.EntryDate,
			"hours":       entry.Hours,
			"description": entry.Description,
			"version":     oldVersion + 1,
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	entry.Version = oldVersion + 1
	return nil
}

// DeleteEntry soft-deletes an entry and removes its sheet link
func (r *TimesheetRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&models.TimeSheetEntry{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.TimeEntry{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UpdateEntryStatus updates entry review status with optimistic locking.
// approvedDate must be non-nil exactly when newStatus is approved.
func (r *TimesheetRepository) UpdateEntryStatus(ctx context.Context, entry *models.TimeEntry, newStatus string, changedBy uuid.UUID, changedAt time.Time, approvedDate *time.Time) error {
	oldVersion := entry.Version

	result := r.db.WithContext(ctx).Model(entry).
		Where("id = ? AND version = ?", entry.ID, oldVersion).
		Updates(map[string]interface{}{
			"status":            newStatus,
			"status_changed_at": changedAt,
			"status_changed_by": changedBy,
			"approved_date":     approvedDate,
			"version":           oldVersion + 1,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	entry.Status = newStatus
	entry.StatusChangedAt = changedAt
	entry.StatusChangedBy = changedBy
	entry.ApprovedDate = approvedDate
	entry.Version = oldVersion + 1
	return nil
}

// GetLockingSheet returns the non-draft sheet containing the entry, or nil
// when the entry is unlinked or its sheet is still a draft.
func (r *TimesheetRepository) GetLockingSheet(ctx context.Context, entryID uuid.UUID) (*models.TimeSheet, error) {
	var sheet models.TimeSheet
	err := r.db.WithContext(ctx).
		Joins("JOIN time_sheet_entries ON time_sheet_entries.sheet_id = time_sheets.id").
		Where("time_sheet_entries.entry_id = ? AND time_sheets.status <> ?", entryID, models.SheetStatusDraft).
		First(&sheet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sheet, nil
}

// FindStaleEntries finds unresolved entries whose last status change is
// older than the cutoff
func (r *TimesheetRepository) FindStaleEntries(ctx context.Context, tenantID string, projectID uuid.UUID, cutoff time.Time) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Where("status IN ?", []string{models.EntryStatusPending, models.EntryStatusQuestioned}).
		Where("status_changed_at < ?", cutoff).
		Order("status_changed_at ASC").
		Find(&entries).Error
	return entries, err
}

// --- Entry Message Methods ---

// CreateMessage creates an entry message
func (r *TimesheetRepository) CreateMessage(ctx context.Context, message *models.EntryMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListMessagesByEntry retrieves all messages on an entry, oldest first
func (r *TimesheetRepository) ListMessagesByEntry(ctx context.Context, entryID uuid.UUID) ([]models.EntryMessage, error) {
	var messages []models.EntryMessage
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// --- Sheet Methods ---

// CreateSheet creates a new time sheet
func (r *TimesheetRepository) CreateSheet(ctx context.Context, sheet *models.TimeSheet) error {
	return r.db.WithContext(ctx).Create(sheet).Error
}

// GetSheetByID retrieves a sheet with its entry links and stage approvals
func (r *TimesheetRepository) GetSheetByID(ctx context.Context, id uuid.UUID) (*models.TimeSheet, error) {
	var sheet models.TimeSheet
	err := r.db.WithContext(ctx).
		Preload("Entries").
		Preload("Entries.Entry").
		Preload("Approvals").
		Where("id = ?", id).
		First(&sheet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sheet, nil
}

// UpdateSheetStatus updates sheet status with optimistic locking
func (r *TimesheetRepository) UpdateSheetStatus(ctx context.Context, sheet *models.TimeSheet, newStatus string, submittedAt, resolvedAt *time.Time) error {
	oldVersion := sheet.Version

	result := r.db.WithContext(ctx).Model(sheet).
		Where("id = ? AND version = ?", sheet.ID, oldVersion).
		Updates(map[string]interface{}{
			"status":       newStatus,
			"submitted_at": submittedAt,
			"resolved_at":  resolvedAt,
			"version":      oldVersion + 1,
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	sheet.Status = newStatus
	sheet.SubmittedAt = submittedAt
	sheet.ResolvedAt = resolvedAt
	sheet.Version = oldVersion + 1
	return nil
}

// AddSheetEntry links an entry into a sheet
func (r *TimesheetRepository) AddSheetEntry(ctx context.Context, link *models.TimeSheetEntry) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// RemoveSheetEntry unlinks an entry from a sheet
func (r *TimesheetRepository) RemoveSheetEntry(ctx context.Context, sheetID, entryID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("sheet_id = ? AND entry_id = ?", sheetID, entryID).
		Delete(&models.TimeSheetEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEntriesBySheet retrieves the entries linked into a sheet
func (r *TimesheetRepository) ListEntriesBySheet(ctx context.Context, sheetID uuid.UUID) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	err := r.db.WithContext(ctx).
		Joins("JOIN time_sheet_entries ON time_sheet_entries.entry_id = time_entries.id").
		Where("time_sheet_entries.sheet_id = ?", sheetID).
		Order("time_entries.entry_date ASC").
		Find(&entries).Error
	return entries, err
}

// FindStaleSheets finds submitted sheets whose submission is older than the
// cutoff
func (r *TimesheetRepository) FindStaleSheets(ctx context.Context, tenantID string, projectID uuid.UUID, cutoff time.Time) ([]models.TimeSheet, error) {
	var sheets []models.TimeSheet
	err := r.db.WithContext(ctx).
		Preload("Approvals").
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Where("status = ?", models.SheetStatusSubmitted).
		Where("submitted_at < ?", cutoff).
		Order("submitted_at ASC").
		Find(&sheets).Error
	return sheets, err
}

// --- Stage Approval Methods ---

// CreateApproval appends a stage approval row. Rows are never updated.
func (r *TimesheetRepository) CreateApproval(ctx context.Context, approval *models.TimeSheetApproval) error {
	return r.db.WithContext(ctx).Create(approval).Error
}

// ListApprovalsBySheet retrieves all stage approvals for a sheet
func (r *TimesheetRepository) ListApprovalsBySheet(ctx context.Context, sheetID uuid.UUID) ([]models.TimeSheetApproval, error) {
	var approvals []models.TimeSheetApproval
	err := r.db.WithContext(ctx).
		Where("sheet_id = ?", sheetID).
		Order("created_at ASC").
		Find(&approvals).Error
	return approvals, err
}

// DeleteApprovalsBySheet removes all stage approvals for a sheet. Used only
// on revert-to-draft and sheet deletion.
func (r *TimesheetRepository) DeleteApprovalsBySheet(ctx context.Context, sheetID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("sheet_id = ?", sheetID).
		Delete(&models.TimeSheetApproval{}).Error
}

// --- Settings Methods ---

// GetSettingsByProject retrieves approval settings for a project
func (r *TimesheetRepository) GetSettingsByProject(ctx context.Context, tenantID string, projectID uuid.UUID) (*models.ProjectApprovalSettings, error) {
	var settings models.ProjectApprovalSettings
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

// SaveSettings creates or updates the single settings row for a project
func (r *TimesheetRepository) SaveSettings(ctx context.Context, settings *models.ProjectApprovalSettings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"approval_mode", "auto_approve_after_days", "require_all_entries_approved",
			"allow_self_approve_no_client", "client_id", "approval_stages", "updated_at",
		}),
	}).Create(settings).Error
}

// ListAutoApproveSettings retrieves all settings rows with auto-approval
// enabled
func (r *TimesheetRepository) ListAutoApproveSettings(ctx context.Context) ([]models.ProjectApprovalSettings, error) {
	var settings []models.ProjectApprovalSettings
	err := r.db.WithContext(ctx).
		Where("auto_approve_after_days > 0").
		Find(&settings).Error
	return settings, err
}

// --- Audit Methods ---

// CreateAuditLog creates an audit log entry
func (r *TimesheetRepository) CreateAuditLog(ctx context.Context, log *models.ApprovalAuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetSheetHistory retrieves audit history for a sheet
func (r *TimesheetRepository) GetSheetHistory(ctx context.Context, sheetID uuid.UUID) ([]models.ApprovalAuditLog, error) {
	var logs []models.ApprovalAuditLog
	err := r.db.WithContext(ctx).
		Where("sheet_id = ?", sheetID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

// GetEntryHistory retrieves audit history for an entry
func (r *TimesheetRepository) GetEntryHistory(ctx context.Context, entryID uuid.UUID) ([]models.ApprovalAuditLog, error) {
	var logs []models.ApprovalAuditLog
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
