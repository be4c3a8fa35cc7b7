package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"timesheet-service/internal/repository"
	"timesheet-service/internal/services"
)

// SheetHandler handles HTTP requests for time sheets
type SheetHandler struct {
	service *services.SheetService
}

// NewSheetHandler creates a new SheetHandler
func NewSheetHandler(service *services.SheetService) *SheetHandler {
	return &SheetHandler{service: service}
}

// CreateSheet creates a new draft sheet
// @Summary Create a time sheet
// @Tags Sheets
// @Accept json
// @Produce json
// @Param request body services.CreateSheetInput true "Sheet"
// @Success 201 {object} models.TimeSheet
// @Router /api/v1/sheets [post]
func (h *SheetHandler) CreateSheet(c *gin.Context) {
	tenantID, authorID, ok := actorContext(c)
	if !ok {
		return
	}

	var input services.CreateSheetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sheet, err := h.service.CreateSheet(c.Request.Context(), tenantID, authorID, input)
	if err != nil {
		respondSheetError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sheet)
}

// GetSheet retrieves a sheet with its next required stage
// @Summary Get a time sheet
// @Tags Sheets
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sheets/{id} [get]
func (h *SheetHandler) GetSheet(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	sheetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sheet, nextStage, err := h.service.GetSheet(c.Request.Context(), tenantID, sheetID)
	if err != nil {
		respondSheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sheet":     sheet,
		"nextStage": nextStage,
	})
}

// addEntryRequest is the body for linking an entry into a sheet
type addEntryRequest struct {
	EntryID uuid.UUID `json:"entryId" binding:"required"`
}

// AddEntry links an entry into a draft sheet
// @Summary Add an entry to a sheet
// @Tags Sheets
// @Accept json
// @Param id path string true "Sheet ID"
// @Param request body addEntryRequest true "Entry"
// @Success 204
// @Router /api/v1/sheets/{id}/entries [post]
func (h *SheetHandler) AddEntry(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	sheetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req addEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.AddEntry(c.Request.Context(), tenantID, sheetID, req.EntryID); err != nil {
		respondSheetError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveEntry unlinks an entry from a draft sheet
// @Summary Remove an entry from a sheet
// @Tags Sheets
// @Param id path string true "Sheet ID"
// @Param entryId path string true "Entry ID"
// @Success 204
// @Router /api/v1/sheets/{id}/entries/{entryId} [delete]
func (h *SheetHandler) RemoveEntry(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	sheetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "entryId")
	if !ok {
		return
	}

	if err := h.service.RemoveEntry(c.Request.Context(), tenantID, sheetID, entryID); err != nil {
		respondSheetError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Submit moves a draft sheet to submitted
// @Summary Submit a sheet for approval
// @Tags Sheets
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} models.TimeSheet
// @Router /api/v1/sheets/{id}/submit [post]
func (h *SheetHandler) Submit(c *gin.Context) {
	tenantID, actorID, ok := actorContext(c)
	if !ok {
		return
	}
	sheetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sheet, err := h.service.Submit(c.Request.Context(), tenantID, sheetID, actorID)
	if err != nil {
		respondSheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, sheet)
}

// stageApprovalRequest is the body for recording a stage approval
type stageApprovalRequest struct {
	Stage string `json:"stage" binding:"required"`
	Notes string `json:"notes,omitempty"`
}

// RecordStageApproval records a stage approval on a multi-stage sheet
// @Summary Record a stage approval
// @Tags Sheets
// @Accept json
// @Produce json
// @Param id path string true "Sheet ID"
// @Param request body stageApprovalRequest true "Stage"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sheets/{id}/stage-approvals [post]
func (h *SheetHandler) RecordStageApproval(c *gin.Context) {
	tenantID, actorID, ok := actorContext(c)
	if !ok {
		return
	}
	sheetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req stageApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sheet, nextStage, err := h.service.RecordStageApproval(c.Request.Context(), tenantID, sheetID, req.Stage, actorID, req.Notes)
	if err != nil {
		respondSheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sheet":     sheet,
		"nextStage": nextStage,
	})
}

// Approve resolves a submitted sheet as approved
// @Summary Approve a sheet
// @Tags Sheets
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} models.TimeSheet
// @Router /api/v1/sheets/{id}/approve [post]
func (h *SheetHandler) Approve(c *gin.Context) {
	tenantID, actorID, ok := actorContext(c)
	if !ok {
		return
	}
	sheetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sheet, err := h.service.Approve(c.Request.Context(), tenantID, sheetID, actorID)
	if err != nil {
		respondSheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, sheet)
}

// Reject resolves a submitted sheet as rejected
// @Summary Reject a sheet
// @Tags Sheets
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} models.TimeSheet
// @Router /api/v1/sheets/{id}/reject [post]
func (h *SheetHandler) Reject(c *gin.Context) {
	tenantID, actorID, ok := actorContext(c)
	if !ok {
		return
	}
	sheetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sheet, err := h.service.Reject(c.Request.Context(), tenantID, sheetID, actorID)
	if err != nil {
		respondSheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, sheet)
}

// Revert moves a sheet back to draft and clears its stage approvals
// @Summary Revert a sheet to draft
// @Tags Sheets
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} models.TimeSheet
// @Router /api/v1/sheets/{id}/revert [post]
func (h *SheetHandler) Revert(c *gin.Context) {
	tenantID, actorID, ok := actorContext(c)
	if !ok {
		return
	}
	sheetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sheet, err := h.service.RevertToDraft(c.Request.Context(), tenantID, sheetID, actorID)
	if err != nil {
		respondSheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, sheet)
}

// GetHistory lists the audit trail of a sheet
// @Summary Get sheet history
// @Tags Sheets
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {array} models.ApprovalAuditLog
// @Router /api/v1/sheets/{id}/history [get]
func (h *SheetHandler) GetHistory(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	sheetID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	history, err := h.service.GetSheetHistory(c.Request.Context(), tenantID, sheetID)
	if err != nil {
		respondSheetError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func respondSheetError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrSheetNotFound),
		errors.Is(err, services.ErrEntryNotFound),
		errors.Is(err, services.ErrSettingsNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrSheetNotDraft),
		errors.Is(err, services.ErrSheetNotSubmitted),
		errors.Is(err, services.ErrEntriesNotApproved),
		errors.Is(err, repository.ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidStageForMode),
		errors.Is(err, services.ErrEntryProjectMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorizedApprover):
		status = http.StatusForbidden
	default:
		c.JSON(status, gin.H{"error": "An internal error occurred"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
