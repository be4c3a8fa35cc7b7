package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"timesheet-service/internal/models"
)

// MockRoleResolver is a mock implementation of RoleResolver
type MockRoleResolver struct {
	mock.Mock
}

var _ RoleResolver = (*MockRoleResolver)(nil)

func (m *MockRoleResolver) HasProjectRole(ctx context.Context, tenantID string, actorID, projectID uuid.UUID, role string) (bool, error) {
	args := m.Called(ctx, tenantID, actorID, projectID, role)
	return args.Bool(0), args.Error(1)
}

func grantOnly(resolver *MockRoleResolver, granted string) {
	resolver.On("HasProjectRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything, granted).Return(true, nil)
	resolver.On("HasProjectRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
}

func denyAll(resolver *MockRoleResolver) {
	resolver.On("HasProjectRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
}

// ===========================================
// Submit Tests
// ===========================================

func TestSubmit_AllEntriesApproved(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	actorID := uuid.New()
	now := time.Date(2025, 6, 6, 9, 0, 0, 0, time.UTC)

	sheet := createTestSheet(tenantID, uuid.New(), actorID, models.SheetStatusDraft)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeRequired)
	settings.RequireAllEntriesApproved = true

	approved := createTestEntry(tenantID, sheet.ProjectID, actorID)
	approved.Status = models.EntryStatusApproved

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)
	mockRepo.On("ListEntriesBySheet", ctx, sheet.ID).Return([]models.TimeEntry{*approved}, nil)
	mockRepo.On("UpdateSheetStatus", ctx, sheet, models.SheetStatusSubmitted, mock.AnythingOfType("*time.Time"), (*time.Time)(nil)).Return(nil)
	mockRepo.On("CreateAuditLog", ctx, mock.AnythingOfType("*models.ApprovalAuditLog")).Return(nil)

	service := NewSheetService(mockRepo, nil, nil, nil, fixedClock{now: now})

	submitted, err := service.Submit(ctx, tenantID, sheet.ID, actorID)

	assert.NoError(t, err)
	assert.Equal(t, models.SheetStatusSubmitted, submitted.Status)
	if assert.NotNil(t, submitted.SubmittedAt) {
		assert.Equal(t, now, *submitted.SubmittedAt)
	}
	mockRepo.AssertExpectations(t)
}

func TestSubmit_UnresolvedEntryBlocksSubmission(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	actorID := uuid.New()

	sheet := createTestSheet(tenantID, uuid.New(), actorID, models.SheetStatusDraft)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeRequired)
	settings.RequireAllEntriesApproved = true

	approved := createTestEntry(tenantID, sheet.ProjectID, actorID)
	approved.Status = models.EntryStatusApproved
	questioned := createTestEntry(tenantID, sheet.ProjectID, actorID)
	questioned.Status = models.EntryStatusQuestioned

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)
	mockRepo.On("ListEntriesBySheet", ctx, sheet.ID).Return([]models.TimeEntry{*approved, *questioned}, nil)

	service := NewSheetService(mockRepo, nil, nil, nil, nil)

	_, err := service.Submit(ctx, tenantID, sheet.ID, actorID)

	assert.ErrorIs(t, err, ErrEntriesNotApproved)
	assert.Equal(t, models.SheetStatusDraft, sheet.Status)
	mockRepo.AssertNotCalled(t, "UpdateSheetStatus")
}

func TestSubmit_WithoutEntryGate(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	actorID := uuid.New()

	sheet := createTestSheet(tenantID, uuid.New(), actorID, models.SheetStatusDraft)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeOptional)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)
	mockRepo.On("UpdateSheetStatus", ctx, sheet, models.SheetStatusSubmitted, mock.AnythingOfType("*time.Time"), (*time.Time)(nil)).Return(nil)
	mockRepo.On("CreateAuditLog", ctx, mock.AnythingOfType("*models.ApprovalAuditLog")).Return(nil)

	service := NewSheetService(mockRepo, nil, nil, nil, nil)

	_, err := service.Submit(ctx, tenantID, sheet.ID, actorID)

	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "ListEntriesBySheet")
}

func TestSubmit_AuditFailureFailsSubmission(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	actorID := uuid.New()

	sheet := createTestSheet(tenantID, uuid.New(), actorID, models.SheetStatusDraft)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeOptional)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)
	mockRepo.On("UpdateSheetStatus", ctx, sheet, models.SheetStatusSubmitted, mock.AnythingOfType("*time.Time"), (*time.Time)(nil)).Return(nil)
	mockRepo.On("CreateAuditLog", ctx, mock.AnythingOfType("*models.ApprovalAuditLog")).Return(errors.New("connection reset"))

	service := NewSheetService(mockRepo, nil, nil, nil, nil)

	// The audit row is part of the submission transaction; a failed insert
	// fails the submission instead of leaving a gap in the history.
	_, err := service.Submit(ctx, tenantID, sheet.ID, actorID)

	assert.Error(t, err)
	mockRepo.AssertExpectations(t)
}

func TestSubmit_NotDraft(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"

	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusSubmitted)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)

	service := NewSheetService(mockRepo, nil, nil, nil, nil)

	_, err := service.Submit(ctx, tenantID, sheet.ID, uuid.New())

	assert.ErrorIs(t, err, ErrSheetNotDraft)
}

// ===========================================
// Single-Stage Approve/Reject Tests
// ===========================================

func TestApprove_ByReviewer(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	reviewerID := uuid.New()
	now := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)

	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusSubmitted)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeRequired)

	resolver := new(MockRoleResolver)
	grantOnly(resolver, models.StageReviewer)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)
	mockRepo.On("UpdateSheetStatus", ctx, sheet, models.SheetStatusApproved, sheet.SubmittedAt, mock.AnythingOfType("*time.Time")).Return(nil)
	mockRepo.On("CreateAuditLog", ctx, mock.AnythingOfType("*models.ApprovalAuditLog")).Return(nil)

	service := NewSheetService(mockRepo, nil, resolver, nil, fixedClock{now: now})

	resolved, err := service.Approve(ctx, tenantID, sheet.ID, reviewerID)

	assert.NoError(t, err)
	assert.Equal(t, models.SheetStatusApproved, resolved.Status)
	if assert.NotNil(t, resolved.ResolvedAt) {
		assert.Equal(t, now, *resolved.ResolvedAt)
	}
	mockRepo.AssertExpectations(t)
}

func TestApprove_AuthorCannotApproveOwnSheet(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	authorID := uuid.New()

	sheet := createTestSheet(tenantID, uuid.New(), authorID, models.SheetStatusSubmitted)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeRequired)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)

	service := NewSheetService(mockRepo, nil, new(MockRoleResolver), nil, nil)

	_, err := service.Approve(ctx, tenantID, sheet.ID, authorID)

	assert.ErrorIs(t, err, ErrUnauthorizedApprover)
	mockRepo.AssertNotCalled(t, "UpdateSheetStatus")
}

func TestApprove_SelfApproveExceptionWithoutClient(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	authorID := uuid.New()

	sheet := createTestSheet(tenantID, uuid.New(), authorID, models.SheetStatusSubmitted)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeSelfApprove)
	settings.AllowSelfApproveNoClient = true

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)
	mockRepo.On("UpdateSheetStatus", ctx, sheet, models.SheetStatusApproved, sheet.SubmittedAt, mock.AnythingOfType("*time.Time")).Return(nil)
	mockRepo.On("CreateAuditLog", ctx, mock.AnythingOfType("*models.ApprovalAuditLog")).Return(nil)

	service := NewSheetService(mockRepo, nil, new(MockRoleResolver), nil, nil)

	resolved, err := service.Approve(ctx, tenantID, sheet.ID, authorID)

	assert.NoError(t, err)
	assert.Equal(t, models.SheetStatusApproved, resolved.Status)
}

func TestApprove_AssignedClientDisablesSelfApproval(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	authorID := uuid.New()
	clientID := uuid.New()

	sheet := createTestSheet(tenantID, uuid.New(), authorID, models.SheetStatusSubmitted)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeSelfApprove)
	settings.AllowSelfApproveNoClient = true
	settings.ClientID = &clientID

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)

	service := NewSheetService(mockRepo, nil, new(MockRoleResolver), nil, nil)

	_, err := service.Approve(ctx, tenantID, sheet.ID, authorID)

	assert.ErrorIs(t, err, ErrUnauthorizedApprover)
}

func TestApprove_MultiStageModeRejectsDirectApproval(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"

	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusSubmitted)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeMultiStage)
	settings.ApprovalStages = []string{models.StageReviewer, models.StageClient}

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)

	service := NewSheetService(mockRepo, nil, new(MockRoleResolver), nil, nil)

	_, err := service.Approve(ctx, tenantID, sheet.ID, uuid.New())

	assert.ErrorIs(t, err, ErrInvalidStageForMode)
}

func TestReject_ByClient(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	clientID := uuid.New()
	now := time.Date(2025, 6, 9, 16, 0, 0, 0, time.UTC)

	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusSubmitted)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeRequired)

	resolver := new(MockRoleResolver)
	grantOnly(resolver, models.StageClient)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)
	mockRepo.On("UpdateSheetStatus", ctx, sheet, models.SheetStatusRejected, sheet.SubmittedAt, mock.AnythingOfType("*time.Time")).Return(nil)
	mockRepo.On("CreateAuditLog", ctx, mock.MatchedBy(func(log *models.ApprovalAuditLog) bool {
		return log.EventType == models.AuditEventSheetRejected
	})).Return(nil)

	service := NewSheetService(mockRepo, nil, resolver, nil, fixedClock{now: now})

	resolved, err := service.Reject(ctx, tenantID, sheet.ID, clientID)

	assert.NoError(t, err)
	assert.Equal(t, models.SheetStatusRejected, resolved.Status)
	mockRepo.AssertExpectations(t)
}

func TestApprove_NotSubmitted(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"

	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusDraft)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)

	service := NewSheetService(mockRepo, nil, nil, nil, nil)

	_, err := service.Approve(ctx, tenantID, sheet.ID, uuid.New())

	assert.ErrorIs(t, err, ErrSheetNotSubmitted)
}

// ===========================================
// Multi-Stage Approval Tests
// ===========================================

func multiStageFixture(tenantID string) (*models.TimeSheet, *models.ProjectApprovalSettings) {
	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusSubmitted)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeMultiStage)
	settings.ApprovalStages = []string{models.StageReviewer, models.StageClient}
	return sheet, settings
}

func TestRecordStageApproval_FirstStage(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	reviewerID := uuid.New()

	sheet, settings := multiStageFixture(tenantID)

	resolver := new(MockRoleResolver)
	grantOnly(resolver, models.StageReviewer)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)
	mockRepo.On("ListApprovalsBySheet", ctx, sheet.ID).Return([]models.TimeSheetApproval{}, nil)
	mockRepo.On("CreateApproval", ctx, mock.AnythingOfType("*models.TimeSheetApproval")).Return(nil)
	mockRepo.On("CreateAuditLog", ctx, mock.AnythingOfType("*models.ApprovalAuditLog")).Return(nil)

	service := NewSheetService(mockRepo, nil, resolver, nil, nil)

	updated, nextStage, err := service.RecordStageApproval(ctx, tenantID, sheet.ID, models.StageReviewer, reviewerID, "")

	assert.NoError(t, err)
	assert.Equal(t, models.SheetStatusSubmitted, updated.Status)
	if assert.NotNil(t, nextStage) {
		assert.Equal(t, models.StageClient, *nextStage)
	}
	mockRepo.AssertNotCalled(t, "UpdateSheetStatus")
}

func TestRecordStageApproval_FinalStagePromotesSheet(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	clientID := uuid.New()
	now := time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)

	sheet, settings := multiStageFixture(tenantID)
	existing := []models.TimeSheetApproval{
		{ID: uuid.New(), SheetID: sheet.ID, Stage: models.StageReviewer, ApproverID: uuid.New()},
	}

	resolver := new(MockRoleResolver)
	grantOnly(resolver, models.StageClient)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)
	mockRepo.On("ListApprovalsBySheet", ctx, sheet.ID).Return(existing, nil)
	mockRepo.On("CreateApproval", ctx, mock.AnythingOfType("*models.TimeSheetApproval")).Return(nil)
	mockRepo.On("UpdateSheetStatus", ctx, sheet, models.SheetStatusApproved, sheet.SubmittedAt, mock.AnythingOfType("*time.Time")).Return(nil)
	mockRepo.On("CreateAuditLog", ctx, mock.AnythingOfType("*models.ApprovalAuditLog")).Return(nil)

	service := NewSheetService(mockRepo, nil, resolver, nil, fixedClock{now: now})

	updated, nextStage, err := service.RecordStageApproval(ctx, tenantID, sheet.ID, models.StageClient, clientID, "ship it")

	assert.NoError(t, err)
	assert.Equal(t, models.SheetStatusApproved, updated.Status)
	assert.Nil(t, nextStage)
	mockRepo.AssertExpectations(t)
}

func TestRecordStageApproval_DuplicateStageIsNoOp(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	reviewerID := uuid.New()

	sheet, settings := multiStageFixture(tenantID)
	existing := []models.TimeSheetApproval{
		{ID: uuid.New(), SheetID: sheet.ID, Stage: models.StageReviewer, ApproverID: uuid.New()},
	}

	resolver := new(MockRoleResolver)
	grantOnly(resolver, models.StageReviewer)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)
	mockRepo.On("ListApprovalsBySheet", ctx, sheet.ID).Return(existing, nil)

	service := NewSheetService(mockRepo, nil, resolver, nil, nil)

	_, nextStage, err := service.RecordStageApproval(ctx, tenantID, sheet.ID, models.StageReviewer, reviewerID, "")

	assert.NoError(t, err)
	if assert.NotNil(t, nextStage) {
		assert.Equal(t, models.StageClient, *nextStage)
	}
	mockRepo.AssertNotCalled(t, "CreateApproval")
	mockRepo.AssertNotCalled(t, "CreateAuditLog")
}

func TestRecordStageApproval_StageNotConfigured(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"

	sheet, settings := multiStageFixture(tenantID)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)

	service := NewSheetService(mockRepo, nil, new(MockRoleResolver), nil, nil)

	_, _, err := service.RecordStageApproval(ctx, tenantID, sheet.ID, models.StageOwner, uuid.New(), "")

	assert.ErrorIs(t, err, ErrInvalidStageForMode)
}

func TestRecordStageApproval_ActorLacksStageRole(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"

	sheet, settings := multiStageFixture(tenantID)

	resolver := new(MockRoleResolver)
	denyAll(resolver)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)

	service := NewSheetService(mockRepo, nil, resolver, nil, nil)

	_, _, err := service.RecordStageApproval(ctx, tenantID, sheet.ID, models.StageReviewer, uuid.New(), "")

	assert.ErrorIs(t, err, ErrUnauthorizedApprover)
	mockRepo.AssertNotCalled(t, "CreateApproval")
}

func TestRecordStageApproval_SingleStageMode(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"

	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusSubmitted)
	settings := createTestSettings(tenantID, sheet.ProjectID, models.ModeRequired)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetSettingsByProject", ctx, tenantID, sheet.ProjectID).Return(settings, nil)

	service := NewSheetService(mockRepo, nil, new(MockRoleResolver), nil, nil)

	_, _, err := service.RecordStageApproval(ctx, tenantID, sheet.ID, models.StageReviewer, uuid.New(), "")

	assert.ErrorIs(t, err, ErrInvalidStageForMode)
}

// ===========================================
// Revert Tests
// ===========================================

func TestRevertToDraft_WipesStageApprovals(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	actorID := uuid.New()

	sheet := createTestSheet(tenantID, uuid.New(), actorID, models.SheetStatusSubmitted)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("DeleteApprovalsBySheet", ctx, sheet.ID).Return(nil)
	mockRepo.On("UpdateSheetStatus", ctx, sheet, models.SheetStatusDraft, (*time.Time)(nil), (*time.Time)(nil)).Return(nil)
	mockRepo.On("CreateAuditLog", ctx, mock.MatchedBy(func(log *models.ApprovalAuditLog) bool {
		return log.EventType == models.AuditEventSheetReverted
	})).Return(nil)

	service := NewSheetService(mockRepo, nil, nil, nil, nil)

	reverted, err := service.RevertToDraft(ctx, tenantID, sheet.ID, actorID)

	assert.NoError(t, err)
	assert.Equal(t, models.SheetStatusDraft, reverted.Status)
	assert.Nil(t, reverted.SubmittedAt)
	assert.Nil(t, reverted.ResolvedAt)
	mockRepo.AssertExpectations(t)
}

func TestRevertToDraft_AlreadyDraft(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"

	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusDraft)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)

	service := NewSheetService(mockRepo, nil, nil, nil, nil)

	reverted, err := service.RevertToDraft(ctx, tenantID, sheet.ID, uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, models.SheetStatusDraft, reverted.Status)
	mockRepo.AssertNotCalled(t, "DeleteApprovalsBySheet")
	mockRepo.AssertNotCalled(t, "UpdateSheetStatus")
}

// ===========================================
// Sheet Composition Tests
// ===========================================

func TestAddEntry_ProjectMismatch(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"

	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusDraft)
	entry := createTestEntry(tenantID, uuid.New(), uuid.New())

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetEntryByID", ctx, entry.ID).Return(entry, nil)

	service := NewSheetService(mockRepo, nil, nil, nil, nil)

	err := service.AddEntry(ctx, tenantID, sheet.ID, entry.ID)

	assert.ErrorIs(t, err, ErrEntryProjectMismatch)
	mockRepo.AssertNotCalled(t, "AddSheetEntry")
}

func TestAddEntry_SheetNotDraft(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"

	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusSubmitted)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)

	service := NewSheetService(mockRepo, nil, nil, nil, nil)

	err := service.AddEntry(ctx, tenantID, sheet.ID, uuid.New())

	assert.ErrorIs(t, err, ErrSheetNotDraft)
}

func TestAddEntry_LinksMatchingEntry(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"

	sheet := createTestSheet(tenantID, uuid.New(), uuid.New(), models.SheetStatusDraft)
	entry := createTestEntry(tenantID, sheet.ProjectID, sheet.AuthorID)

	mockRepo := new(MockTimesheetRepository)
	mockRepo.On("GetSheetByID", ctx, sheet.ID).Return(sheet, nil)
	mockRepo.On("GetEntryByID", ctx, entry.ID).Return(entry, nil)
	mockRepo.On("AddSheetEntry", ctx, mock.MatchedBy(func(link *models.TimeSheetEntry) bool {
		return link.SheetID == sheet.ID && link.EntryID == entry.ID
	})).Return(nil)

	service := NewSheetService(mockRepo, nil, nil, nil, nil)

	err := service.AddEntry(ctx, tenantID, sheet.ID, entry.ID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
