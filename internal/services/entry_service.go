package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"timesheet-service/internal/events"
	"timesheet-service/internal/models"
	"timesheet-service/internal/repository"
)

var (
	ErrEntryNotFound    = errors.New("time entry not found")
	ErrSheetNotFound    = errors.New("time sheet not found")
	ErrSettingsNotFound = errors.New("approval settings not found")
	ErrEntryLocked      = errors.New("entry belongs to a submitted sheet and cannot be modified")
	ErrInvalidStatus    = errors.New("invalid entry status")
)

// EntryService implements the time entry state machine: pending, questioned
// and approved are all reachable from each other, and every transition is
// recorded with who and when.
type EntryService struct {
	repo      repository.TimesheetRepositoryInterface
	publisher *events.Publisher
	clock     Clock
}

// NewEntryService creates a new EntryService
func NewEntryService(repo repository.TimesheetRepositoryInterface, publisher *events.Publisher, clock Clock) *EntryService {
	if clock == nil {
		clock = SystemClock()
	}
	return &EntryService{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
	}
}

// CreateEntryInput represents input for logging a new time entry
type CreateEntryInput struct {
	ProjectID   uuid.UUID `json:"projectId" binding:"required"`
	EntryDate   time.Time `json:"entryDate" binding:"required"`
	Hours       float64   `json:"hours" binding:"required"`
	Description string    `json:"description,omitempty"`
}

// UpdateEntryInput represents input for editing an entry's logged fields
type UpdateEntryInput struct {
	EntryDate   *time.Time `json:"entryDate,omitempty"`
	Hours       *float64   `json:"hours,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// CreateEntry logs a new time entry in pending status
func (s *EntryService) CreateEntry(ctx context.Context, tenantID string, authorID uuid.UUID, input CreateEntryInput) (*models.TimeEntry, error) {
	now := s.clock.Now()
	entry := &models.TimeEntry{
		TenantID:        tenantID,
		ProjectID:       input.ProjectID,
		AuthorID:        authorID,
		EntryDate:       input.EntryDate,
		Hours:           input.Hours,
		Description:     input.Description,
		Status:          models.EntryStatusPending,
		StatusChangedAt: now,
		StatusChangedBy: authorID,
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return entry, nil
}

// GetEntry retrieves an entry by ID
func (s *EntryService) GetEntry(ctx context.Context, tenantID string, entryID uuid.UUID) (*models.TimeEntry, error) {
	return s.getTenantEntry(ctx, tenantID, entryID)
}

// UpdateEntry edits an entry's logged fields. Entries inside a non-draft
// sheet are edit-locked.
func (s *EntryService) UpdateEntry(ctx context.Context, tenantID string, entryID uuid.UUID, input UpdateEntryInput) (*models.TimeEntry, error) {
	entry, err := s.getTenantEntry(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}

	if err := s.checkEditLock(ctx, s.repo, entryID); err != nil {
		return nil, err
	}

	if input.EntryDate != nil {
		entry.EntryDate = *input.EntryDate
	}
	if input.Hours != nil {
		entry.Hours = *input.Hours
	}
	if input.Description != nil {
		entry.Description = *input.Description
	}

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry removes an entry. Entries referenced by a non-draft sheet are
// never hard-deleted.
func (s *EntryService) DeleteEntry(ctx context.Context, tenantID string, entryID uuid.UUID) error {
	if _, err := s.getTenantEntry(ctx, tenantID, entryID); err != nil {
		return err
	}
	if err := s.checkEditLock(ctx, s.repo, entryID); err != nil {
		return err
	}
	return s.repo.DeleteEntry(ctx, entryID)
}

// SetEntryStatus applies a status transition on behalf of an actor. All
// status values are reachable from all others; the edit lock is the only
// gate.
func (s *EntryService) SetEntryStatus(ctx context.Context, tenantID string, entryID uuid.UUID, newStatus string, actorID uuid.UUID) (*models.TimeEntry, error) {
	return s.setStatus(ctx, tenantID, entryID, newStatus, actorID, false, models.AuditEventEntryStatusChanged)
}

// ResetEntryToPending is the administrative reset. It bypasses the edit
// lock so a reviewer can reopen an entry inside a submitted sheet.
func (s *EntryService) ResetEntryToPending(ctx context.Context, tenantID string, entryID uuid.UUID, actorID uuid.UUID) (*models.TimeEntry, error) {
	return s.setStatus(ctx, tenantID, entryID, models.EntryStatusPending, actorID, true, models.AuditEventEntryStatusChanged)
}

// AutoApproveEntry promotes a stale entry on behalf of the system actor.
// Called by the auto-approval sweep; bypasses the edit lock.
func (s *EntryService) AutoApproveEntry(ctx context.Context, entry *models.TimeEntry) (*models.TimeEntry, error) {
	return s.setStatus(ctx, entry.TenantID, entry.ID, models.EntryStatusApproved, models.SystemActorID, true, models.AuditEventEntryAutoApproved)
}

// AddMessageInput represents input for commenting on an entry
type AddMessageInput struct {
	Body         string  `json:"body" binding:"required"`
	StatusChange *string `json:"statusChange,omitempty"`
}

// AddMessage posts a comment on an entry. A message carrying a status
// change applies the entry transition in the same transaction as the
// message insert: the comment is the UI's trigger, the transition is the
// engine's.
func (s *EntryService) AddMessage(ctx context.Context, tenantID string, entryID uuid.UUID, authorID uuid.UUID, input AddMessageInput) (*models.EntryMessage, error) {
	if input.StatusChange != nil && !models.ValidEntryStatus(*input.StatusChange) {
		return nil, ErrInvalidStatus
	}

	entry, err := s.getTenantEntry(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}

	if input.StatusChange != nil {
		if err := s.checkEditLock(ctx, s.repo, entryID); err != nil {
			return nil, err
		}
	}

	message := &models.EntryMessage{
		TenantID:     tenantID,
		EntryID:      entryID,
		AuthorID:     authorID,
		Body:         input.Body,
		StatusChange: input.StatusChange,
	}

	now := s.clock.Now()
	previous := entry.Status

	err = s.repo.WithTransaction(ctx, func(txRepo repository.TimesheetRepositoryInterface) error {
		if err := txRepo.CreateMessage(ctx, message); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		if input.StatusChange == nil {
			return nil
		}

		// Re-fetch within the transaction so the version guard sees the
		// current row, and re-check the lock in case a submission landed
		// between the pre-check and here.
		txEntry, err := txRepo.GetEntryByID(ctx, entryID)
		if err != nil {
			return err
		}
		if err := s.checkEditLock(ctx, txRepo, entryID); err != nil {
			return err
		}
		if err := s.applyStatus(ctx, txRepo, txEntry, *input.StatusChange, authorID, now); err != nil {
			return err
		}
		return s.audit(ctx, txRepo, txEntry, *input.StatusChange, previous, authorID, models.AuditEventEntryStatusChanged)
	})
	if err != nil {
		return nil, err
	}

	if input.StatusChange != nil {
		s.publisher.PublishEntryStatusChanged(ctx, entry, previous, *input.StatusChange, authorID)
	}
	return message, nil
}

// ListMessages retrieves all messages on an entry
func (s *EntryService) ListMessages(ctx context.Context, tenantID string, entryID uuid.UUID) ([]models.EntryMessage, error) {
	if _, err := s.getTenantEntry(ctx, tenantID, entryID); err != nil {
		return nil, err
	}
	return s.repo.ListMessagesByEntry(ctx, entryID)
}

// GetEntryHistory retrieves the audit history for an entry
func (s *EntryService) GetEntryHistory(ctx context.Context, tenantID string, entryID uuid.UUID) ([]models.ApprovalAuditLog, error) {
	if _, err := s.getTenantEntry(ctx, tenantID, entryID); err != nil {
		return nil, err
	}
	return s.repo.GetEntryHistory(ctx, entryID)
}

// --- Helper Methods ---

func (s *EntryService) getTenantEntry(ctx context.Context, tenantID string, entryID uuid.UUID) (*models.TimeEntry, error) {
	entry, err := s.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.TenantID != tenantID {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

// checkEditLock rejects mutations on entries linked into a non-draft sheet
func (s *EntryService) checkEditLock(ctx context.Context, repo repository.TimesheetRepositoryInterface, entryID uuid.UUID) error {
	sheet, err := repo.GetLockingSheet(ctx, entryID)
	if err != nil {
		return err
	}
	if sheet != nil {
		return ErrEntryLocked
	}
	return nil
}

func (s *EntryService) setStatus(ctx context.Context, tenantID string, entryID uuid.UUID, newStatus string, actorID uuid.UUID, override bool, eventType string) (*models.TimeEntry, error) {
	if !models.ValidEntryStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	entry, err := s.getTenantEntry(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}

	if !override {
		if err := s.checkEditLock(ctx, s.repo, entryID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	previous := entry.Status

	err = s.repo.WithTransaction(ctx, func(txRepo repository.TimesheetRepositoryInterface) error {
		txEntry, err := txRepo.GetEntryByID(ctx, entryID)
		if err != nil {
			return err
		}
		// A sheet submission can lock the entry between the pre-check and
		// the transaction, so the lock is re-checked against the tx state.
		if !override {
			if err := s.checkEditLock(ctx, txRepo, entryID); err != nil {
				return err
			}
		}
		if err := s.applyStatus(ctx, txRepo, txEntry, newStatus, actorID, now); err != nil {
			return err
		}
		if err := s.audit(ctx, txRepo, txEntry, newStatus, previous, actorID, eventType); err != nil {
			return err
		}
		entry = txEntry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishEntryStatusChanged(ctx, entry, previous, newStatus, actorID)

	return entry, nil
}

// applyStatus writes the transition, maintaining the invariant that
// approved_date is non-null exactly when the status is approved.
func (s *EntryService) applyStatus(ctx context.Context, txRepo repository.TimesheetRepositoryInterface, entry *models.TimeEntry, newStatus string, actorID uuid.UUID, now time.Time) error {
	var approvedDate *time.Time
	if newStatus == models.EntryStatusApproved {
		approvedDate = &now
	}
	return txRepo.UpdateEntryStatus(ctx, entry, newStatus, actorID, now, approvedDate)
}

// audit appends the trail row through the transaction repo so the history
// write commits or rolls back together with the status change.
func (s *EntryService) audit(ctx context.Context, repo repository.TimesheetRepositoryInterface, entry *models.TimeEntry, newStatus, previousStatus string, actorID uuid.UUID, eventType string) error {
	metadata := metadataJSON(map[string]interface{}{
		"from_status": previousStatus,
		"to_status":   newStatus,
	})

	log := &models.ApprovalAuditLog{
		TenantID:  entry.TenantID,
		EntryID:   &entry.ID,
		EventType: eventType,
		ActorID:   actorID,
		Metadata:  metadata,
	}
	if err := repo.CreateAuditLog(ctx, log); err != nil {
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}
