package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"timesheet-service/internal/cache"
	"timesheet-service/internal/events"
	"timesheet-service/internal/models"
	"timesheet-service/internal/repository"
	"gorm.io/datatypes"
)

var (
	ErrSheetNotDraft        = errors.New("sheet is not in draft status")
	ErrSheetNotSubmitted    = errors.New("sheet is not in submitted status")
	ErrEntriesNotApproved   = errors.New("all entries must be approved before submission")
	ErrInvalidStageForMode  = errors.New("stage approval is not valid for the project's approval mode")
	ErrUnauthorizedApprover = errors.New("actor is not authorized to approve this sheet")
	ErrEntryProjectMismatch = errors.New("entry belongs to a different project")
)

// RoleResolver answers whether an actor holds a stage-relevant role on a
// project. Identity lives in the staff service; the engine only consumes it.
type RoleResolver interface {
	HasProjectRole(ctx context.Context, tenantID string, actorID, projectID uuid.UUID, role string) (bool, error)
}

// SheetService implements the time sheet lifecycle: draft, submitted,
// approved/rejected, plus the explicit revert back to draft. It consults the
// project's approval settings and the stage sequencer to decide whether a
// transition is legal.
type SheetService struct {
	repo          repository.TimesheetRepositoryInterface
	publisher     *events.Publisher
	roles         RoleResolver
	settingsCache *cache.SettingsCache
	clock         Clock
}

// NewSheetService creates a new SheetService
func NewSheetService(repo repository.TimesheetRepositoryInterface, publisher *events.Publisher, roles RoleResolver, settingsCache *cache.SettingsCache, clock Clock) *SheetService {
	if clock == nil {
		clock = SystemClock()
	}
	return &SheetService{
		repo:          repo,
		publisher:     publisher,
		roles:         roles,
		settingsCache: settingsCache,
		clock:         clock,
	}
}

// CreateSheetInput represents input for creating a draft sheet
type CreateSheetInput struct {
	ProjectID uuid.UUID `json:"projectId" binding:"required"`
	Name      string    `json:"name,omitempty"`
}

// CreateSheet creates a new sheet in draft status
func (s *SheetService) CreateSheet(ctx context.Context, tenantID string, authorID uuid.UUID, input CreateSheetInput) (*models.TimeSheet, error) {
	sheet := &models.TimeSheet{
		TenantID:  tenantID,
		ProjectID: input.ProjectID,
		AuthorID:  authorID,
		Name:      input.Name,
		Status:    models.SheetStatusDraft,
	}
	if err := s.repo.CreateSheet(ctx, sheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	return sheet, nil
}

// GetSheet retrieves a sheet together with its next required stage. The
// next stage is nil when the multi-stage requirement is satisfied or the
// project is not in multi-stage mode.
func (s *SheetService) GetSheet(ctx context.Context, tenantID string, sheetID uuid.UUID) (*models.TimeSheet, *string, error) {
	sheet, err := s.getTenantSheet(ctx, tenantID, sheetID)
	if err != nil {
		return nil, nil, err
	}

	settings, err := s.getSettings(ctx, tenantID, sheet.ProjectID)
	if err != nil && !errors.Is(err, ErrSettingsNotFound) {
		return nil, nil, err
	}

	next, _ := NextStageForSettings(settings, sheet.Approvals)
	return sheet, next, nil
}

// AddEntry links an entry into a draft sheet
func (s *SheetService) AddEntry(ctx context.Context, tenantID string, sheetID, entryID uuid.UUID) error {
	sheet, err := s.getTenantSheet(ctx, tenantID, sheetID)
	if err != nil {
		return err
	}
	if sheet.Status != models.SheetStatusDraft {
		return ErrSheetNotDraft
	}

	entry, err := s.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	if entry.TenantID != tenantID {
		return ErrEntryNotFound
	}
	if entry.ProjectID != sheet.ProjectID {
		return ErrEntryProjectMismatch
	}

	return s.repo.AddSheetEntry(ctx, &models.TimeSheetEntry{
		SheetID: sheetID,
		EntryID: entryID,
	})
}

// RemoveEntry unlinks an entry from a draft sheet
func (s *SheetService) RemoveEntry(ctx context.Context, tenantID string, sheetID, entryID uuid.UUID) error {
	sheet, err := s.getTenantSheet(ctx, tenantID, sheetID)
	if err != nil {
		return err
	}
	if sheet.Status != models.SheetStatusDraft {
		return ErrSheetNotDraft
	}
	return s.repo.RemoveSheetEntry(ctx, sheetID, entryID)
}

// Submit moves a draft sheet to submitted. When the project requires all
// entries approved, a single unresolved entry fails the whole submission
// and the sheet stays a draft.
func (s *SheetService) Submit(ctx context.Context, tenantID string, sheetID uuid.UUID, actorID uuid.UUID) (*models.TimeSheet, error) {
	sheet, err := s.getTenantSheet(ctx, tenantID, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.Status != models.SheetStatusDraft {
		return nil, ErrSheetNotDraft
	}

	settings, err := s.getSettings(ctx, tenantID, sheet.ProjectID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	err = s.repo.WithTransaction(ctx, func(txRepo repository.TimesheetRepositoryInterface) error {
		txSheet, err := txRepo.GetSheetByID(ctx, sheetID)
		if err != nil {
			return err
		}
		if txSheet.Status != models.SheetStatusDraft {
			return ErrSheetNotDraft
		}

		if settings.RequireAllEntriesApproved {
			entries, err := txRepo.ListEntriesBySheet(ctx, sheetID)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if entry.Status != models.EntryStatusApproved {
					return ErrEntriesNotApproved
				}
			}
		}

		if err := txRepo.UpdateSheetStatus(ctx, txSheet, models.SheetStatusSubmitted, &now, nil); err != nil {
			return err
		}
		if err := s.audit(ctx, txRepo, txSheet, models.AuditEventSheetSubmitted, actorID, nil); err != nil {
			return err
		}
		sheet = txSheet
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishSheetSubmitted(ctx, sheet, actorID)

	return sheet, nil
}

// RecordStageApproval appends a stage approval for a submitted multi-stage
// sheet. When the recorded stage completes the configured chain the sheet is
// promoted to approved in the same transaction; the promotion re-checks the
// persisted status through the version guard, so two racing final stages
// cannot double-promote.
func (s *SheetService) RecordStageApproval(ctx context.Context, tenantID string, sheetID uuid.UUID, stage string, actorID uuid.UUID, notes string) (*models.TimeSheet, *string, error) {
	sheet, err := s.getTenantSheet(ctx, tenantID, sheetID)
	if err != nil {
		return nil, nil, err
	}

	settings, err := s.getSettings(ctx, tenantID, sheet.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if settings.ApprovalMode != models.ModeMultiStage {
		return nil, nil, ErrInvalidStageForMode
	}
	if !models.ValidStage(stage) || !settings.StageConfigured(stage) {
		return nil, nil, ErrInvalidStageForMode
	}

	if err := s.requireRole(ctx, tenantID, actorID, sheet.ProjectID, stage); err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	var nextStage *string
	var promoted bool
	var recorded bool

	err = s.repo.WithTransaction(ctx, func(txRepo repository.TimesheetRepositoryInterface) error {
		txSheet, err := txRepo.GetSheetByID(ctx, sheetID)
		if err != nil {
			return err
		}
		if txSheet.Status != models.SheetStatusSubmitted {
			return ErrSheetNotSubmitted
		}

		approvals, err := txRepo.ListApprovalsBySheet(ctx, sheetID)
		if err != nil {
			return err
		}

		// A second approval of an already-completed stage is a no-op, not an
		// error, and must not create a duplicate row.
		alreadyCompleted := false
		for _, a := range approvals {
			if a.Stage == stage {
				alreadyCompleted = true
				break
			}
		}

		if !alreadyCompleted {
			approval := &models.TimeSheetApproval{
				TenantID:   tenantID,
				SheetID:    sheetID,
				Stage:      stage,
				ApproverID: actorID,
				Notes:      notes,
			}
			if err := txRepo.CreateApproval(ctx, approval); err != nil {
				return fmt.Errorf("failed to record stage approval: %w", err)
			}
			if err := s.audit(ctx, txRepo, txSheet, models.AuditEventStageApproved, actorID, map[string]interface{}{
				"stage": stage,
				"notes": notes,
			}); err != nil {
				return err
			}
			approvals = append(approvals, *approval)
			recorded = true
		}

		next, fullyApproved := NextStage(settings.ApprovalStages, approvals)
		nextStage = next

		// Multi-stage completion is a derived transition, not an explicitly
		// requested one.
		if fullyApproved {
			if err := txRepo.UpdateSheetStatus(ctx, txSheet, models.SheetStatusApproved, txSheet.SubmittedAt, &now); err != nil {
				return err
			}
			if err := s.audit(ctx, txRepo, txSheet, models.AuditEventSheetApproved, actorID, nil); err != nil {
				return err
			}
			promoted = true
		}
		sheet = txSheet
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if recorded {
		s.publisher.PublishStageApproved(ctx, sheet, stage, actorID)
	}
	if promoted {
		s.publisher.PublishSheetApproved(ctx, sheet, actorID)
	}

	return sheet, nextStage, nil
}

// Approve resolves a submitted sheet in the single-stage modes. Multi-stage
// sheets are approved only through their stage chain.
func (s *SheetService) Approve(ctx context.Context, tenantID string, sheetID uuid.UUID, actorID uuid.UUID) (*models.TimeSheet, error) {
	return s.resolve(ctx, tenantID, sheetID, actorID, models.SheetStatusApproved, models.AuditEventSheetApproved)
}

// Reject resolves a submitted sheet as rejected
func (s *SheetService) Reject(ctx context.Context, tenantID string, sheetID uuid.UUID, actorID uuid.UUID) (*models.TimeSheet, error) {
	return s.resolve(ctx, tenantID, sheetID, actorID, models.SheetStatusRejected, models.AuditEventSheetRejected)
}

// AutoApproveSheet promotes a stale submitted sheet on behalf of the system
// actor. Called by the auto-approval sweep; policy checks are the sweep's
// responsibility.
func (s *SheetService) AutoApproveSheet(ctx context.Context, sheet *models.TimeSheet) (*models.TimeSheet, error) {
	now := s.clock.Now()
	var result *models.TimeSheet

	err := s.repo.WithTransaction(ctx, func(txRepo repository.TimesheetRepositoryInterface) error {
		txSheet, err := txRepo.GetSheetByID(ctx, sheet.ID)
		if err != nil {
			return err
		}
		if txSheet.Status != models.SheetStatusSubmitted {
			return ErrSheetNotSubmitted
		}
		if err := txRepo.UpdateSheetStatus(ctx, txSheet, models.SheetStatusApproved, txSheet.SubmittedAt, &now); err != nil {
			return err
		}
		if err := s.audit(ctx, txRepo, txSheet, models.AuditEventSheetAutoApproved, models.SystemActorID, nil); err != nil {
			return err
		}
		result = txSheet
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishSheetApproved(ctx, result, models.SystemActorID)

	return result, nil
}

// RevertToDraft moves a sheet back to draft and wipes its stage approvals.
// Partial approval history never survives a revert: resubmission re-runs
// the full chain.
func (s *SheetService) RevertToDraft(ctx context.Context, tenantID string, sheetID uuid.UUID, actorID uuid.UUID) (*models.TimeSheet, error) {
	sheet, err := s.getTenantSheet(ctx, tenantID, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.Status == models.SheetStatusDraft {
		return sheet, nil
	}

	var reverted bool

	err = s.repo.WithTransaction(ctx, func(txRepo repository.TimesheetRepositoryInterface) error {
		txSheet, err := txRepo.GetSheetByID(ctx, sheetID)
		if err != nil {
			return err
		}
		if txSheet.Status == models.SheetStatusDraft {
			sheet = txSheet
			return nil
		}
		if err := txRepo.DeleteApprovalsBySheet(ctx, sheetID); err != nil {
			return err
		}
		if err := txRepo.UpdateSheetStatus(ctx, txSheet, models.SheetStatusDraft, nil, nil); err != nil {
			return err
		}
		if err := s.audit(ctx, txRepo, txSheet, models.AuditEventSheetReverted, actorID, nil); err != nil {
			return err
		}
		reverted = true
		sheet = txSheet
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reverted {
		s.publisher.PublishSheetReverted(ctx, sheet, actorID)
	}

	return sheet, nil
}

// GetSheetHistory retrieves the audit history for a sheet
func (s *SheetService) GetSheetHistory(ctx context.Context, tenantID string, sheetID uuid.UUID) ([]models.ApprovalAuditLog, error) {
	if _, err := s.getTenantSheet(ctx, tenantID, sheetID); err != nil {
		return nil, err
	}
	return s.repo.GetSheetHistory(ctx, sheetID)
}

// --- Helper Methods ---

func (s *SheetService) getTenantSheet(ctx context.Context, tenantID string, sheetID uuid.UUID) (*models.TimeSheet, error) {
	sheet, err := s.repo.GetSheetByID(ctx, sheetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSheetNotFound
		}
		return nil, err
	}
	if sheet.TenantID != tenantID {
		return nil, ErrSheetNotFound
	}
	return sheet, nil
}

// getSettings loads the project's approval policy, via the redis cache when
// one is wired.
func (s *SheetService) getSettings(ctx context.Context, tenantID string, projectID uuid.UUID) (*models.ProjectApprovalSettings, error) {
	if cached, err := s.settingsCache.Get(ctx, tenantID, projectID); err == nil && cached != nil {
		return cached, nil
	}

	settings, err := s.repo.GetSettingsByProject(ctx, tenantID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	_ = s.settingsCache.Set(ctx, settings)
	return settings, nil
}

// resolve applies the single-stage approve/reject policy and flips the
// sheet status.
func (s *SheetService) resolve(ctx context.Context, tenantID string, sheetID uuid.UUID, actorID uuid.UUID, newStatus, eventType string) (*models.TimeSheet, error) {
	sheet, err := s.getTenantSheet(ctx, tenantID, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet.Status != models.SheetStatusSubmitted {
		return nil, ErrSheetNotSubmitted
	}

	settings, err := s.getSettings(ctx, tenantID, sheet.ProjectID)
	if err != nil {
		return nil, err
	}
	if settings.ApprovalMode == models.ModeMultiStage {
		return nil, ErrInvalidStageForMode
	}

	if err := s.authorizeResolver(ctx, settings, sheet, actorID); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	err = s.repo.WithTransaction(ctx, func(txRepo repository.TimesheetRepositoryInterface) error {
		txSheet, err := txRepo.GetSheetByID(ctx, sheetID)
		if err != nil {
			return err
		}
		if txSheet.Status != models.SheetStatusSubmitted {
			return ErrSheetNotSubmitted
		}
		if err := txRepo.UpdateSheetStatus(ctx, txSheet, newStatus, txSheet.SubmittedAt, &now); err != nil {
			return err
		}
		if err := s.audit(ctx, txRepo, txSheet, eventType, actorID, nil); err != nil {
			return err
		}
		sheet = txSheet
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newStatus == models.SheetStatusApproved {
		s.publisher.PublishSheetApproved(ctx, sheet, actorID)
	} else {
		s.publisher.PublishSheetRejected(ctx, sheet, actorID)
	}

	return sheet, nil
}

// authorizeResolver decides who may approve/reject in the single-stage
// modes. The author qualifies only under the self-approval exception: mode
// self_approve, the flag set, and no client assigned to the project — an
// assigned client always overrides the exception.
func (s *SheetService) authorizeResolver(ctx context.Context, settings *models.ProjectApprovalSettings, sheet *models.TimeSheet, actorID uuid.UUID) error {
	if actorID == sheet.AuthorID {
		if settings.ApprovalMode == models.ModeSelfApprove &&
			settings.AllowSelfApproveNoClient && !settings.HasClient() {
			return nil
		}
		return ErrUnauthorizedApprover
	}

	for _, role := range []string{models.StageReviewer, models.StageClient} {
		ok, err := s.roles.HasProjectRole(ctx, settings.TenantID, actorID, sheet.ProjectID, role)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrUnauthorizedApprover
}

func (s *SheetService) requireRole(ctx context.Context, tenantID string, actorID, projectID uuid.UUID, role string) error {
	ok, err := s.roles.HasProjectRole(ctx, tenantID, actorID, projectID, role)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorizedApprover
	}
	return nil
}

// audit appends the trail row through the transaction repo so the history
// write commits or rolls back together with the lifecycle change.
func (s *SheetService) audit(ctx context.Context, repo repository.TimesheetRepositoryInterface, sheet *models.TimeSheet, eventType string, actorID uuid.UUID, metadata map[string]interface{}) error {
	log := &models.ApprovalAuditLog{
		TenantID:  sheet.TenantID,
		SheetID:   &sheet.ID,
		EventType: eventType,
		ActorID:   actorID,
		Metadata:  metadataJSON(metadata),
	}
	if err := repo.CreateAuditLog(ctx, log); err != nil {
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}

func metadataJSON(metadata map[string]interface{}) datatypes.JSON {
	if metadata == nil {
		return nil
	}
	raw, _ := json.Marshal(metadata)
	return datatypes.JSON(raw)
}
