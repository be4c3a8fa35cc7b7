package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"timesheet-service/internal/cache"
	"timesheet-service/internal/models"
	"timesheet-service/internal/repository"
)

var (
	ErrInvalidApprovalMode    = errors.New("invalid approval mode")
	ErrInvalidStage           = errors.New("invalid approval stage")
	ErrStagesNotAllowed       = errors.New("approval stages are only configurable in multi_stage mode")
	ErrStagesRequired         = errors.New("multi_stage mode requires at least one approval stage")
	ErrInvalidAutoApproveDays = errors.New("auto-approve days cannot be negative")
)

// SettingsService manages per-project approval policy
type SettingsService struct {
	repo          repository.TimesheetRepositoryInterface
	settingsCache *cache.SettingsCache
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo repository.TimesheetRepositoryInterface, settingsCache *cache.SettingsCache) *SettingsService {
	return &SettingsService{
		repo:          repo,
		settingsCache: settingsCache,
	}
}

// SaveSettingsInput represents input for configuring a project's approval policy
type SaveSettingsInput struct {
	ApprovalMode              string     `json:"approvalMode" binding:"required"`
	AutoApproveAfterDays      int        `json:"autoApproveAfterDays"`
	RequireAllEntriesApproved bool       `json:"requireAllEntriesApproved"`
	AllowSelfApproveNoClient  bool       `json:"allowSelfApproveNoClient"`
	ClientID                  *uuid.UUID `json:"clientId,omitempty"`
	ApprovalStages            []string   `json:"approvalStages,omitempty"`
}

// GetSettings retrieves the approval settings for a project
func (s *SettingsService) GetSettings(ctx context.Context, tenantID string, projectID uuid.UUID) (*models.ProjectApprovalSettings, error) {
	settings, err := s.repo.GetSettingsByProject(ctx, tenantID, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return settings, nil
}

// SaveSettings upserts the approval settings for a project. Stage lists are
// validated here so the engine never sees an unknown stage at approval time.
func (s *SettingsService) SaveSettings(ctx context.Context, tenantID string, projectID uuid.UUID, input SaveSettingsInput) (*models.ProjectApprovalSettings, error) {
	if !models.ValidApprovalMode(input.ApprovalMode) {
		return nil, ErrInvalidApprovalMode
	}
	if input.AutoApproveAfterDays < 0 {
		return nil, ErrInvalidAutoApproveDays
	}
	if len(input.ApprovalStages) > 0 && input.ApprovalMode != models.ModeMultiStage {
		return nil, ErrStagesNotAllowed
	}
	// A multi-stage project with no stages could never complete its chain,
	// so an empty stage list is rejected up front.
	if input.ApprovalMode == models.ModeMultiStage && len(input.ApprovalStages) == 0 {
		return nil, ErrStagesRequired
	}
	seen := make(map[string]bool, len(input.ApprovalStages))
	for _, stage := range input.ApprovalStages {
		if !models.ValidStage(stage) || seen[stage] {
			return nil, ErrInvalidStage
		}
		seen[stage] = true
	}

	settings := &models.ProjectApprovalSettings{
		TenantID:                  tenantID,
		ProjectID:                 projectID,
		ApprovalMode:              input.ApprovalMode,
		AutoApproveAfterDays:      input.AutoApproveAfterDays,
		RequireAllEntriesApproved: input.RequireAllEntriesApproved,
		AllowSelfApproveNoClient:  input.AllowSelfApproveNoClient,
		ClientID:                  input.ClientID,
		ApprovalStages:            input.ApprovalStages,
	}

	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}

	_ = s.settingsCache.Invalidate(ctx, tenantID, projectID)

	return settings, nil
}
