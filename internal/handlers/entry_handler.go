package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"timesheet-service/internal/repository"
	"timesheet-service/internal/services"
)

// EntryHandler handles HTTP requests for time entries
type EntryHandler struct {
	service *services.EntryService
}

// NewEntryHandler creates a new EntryHandler
func NewEntryHandler(service *services.EntryService) *EntryHandler {
	return &EntryHandler{service: service}
}

// CreateEntry logs a new time entry
// @Summary Log a time entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param request body services.CreateEntryInput true "Entry"
// @Success 201 {object} models.TimeEntry
// @Router /api/v1/entries [post]
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	tenantID, authorID, ok := actorContext(c)
	if !ok {
		return
	}

	var input services.CreateEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.CreateEntry(c.Request.Context(), tenantID, authorID, input)
	if err != nil {
		respondEntryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// GetEntry retrieves a time entry by ID
// @Summary Get a time entry
// @Tags Entries
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} models.TimeEntry
// @Router /api/v1/entries/{id} [get]
func (h *EntryHandler) GetEntry(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	entry, err := h.service.GetEntry(c.Request.Context(), tenantID, entryID)
	if err != nil {
		respondEntryError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// UpdateEntry edits an entry's logged fields
// @Summary Update a time entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param request body services.UpdateEntryInput true "Fields"
// @Success 200 {object} models.TimeEntry
// @Router /api/v1/entries/{id} [put]
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input services.UpdateEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.UpdateEntry(c.Request.Context(), tenantID, entryID, input)
	if err != nil {
		respondEntryError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// DeleteEntry removes a time entry
// @Summary Delete a time entry
// @Tags Entries
// @Param id path string true "Entry ID"
// @Success 204
// @Router /api/v1/entries/{id} [delete]
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteEntry(c.Request.Context(), tenantID, entryID); err != nil {
		respondEntryError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// setStatusRequest is the body for an explicit status transition
type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus applies a status transition to an entry
// @Summary Change entry status
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param request body setStatusRequest true "New status"
// @Success 200 {object} models.TimeEntry
// @Router /api/v1/entries/{id}/status [post]
func (h *EntryHandler) SetStatus(c *gin.Context) {
	tenantID, actorID, ok := actorContext(c)
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.SetEntryStatus(c.Request.Context(), tenantID, entryID, req.Status, actorID)
	if err != nil {
		respondEntryError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// AddMessage posts a comment on an entry, optionally changing its status
// @Summary Comment on an entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param request body services.AddMessageInput true "Message"
// @Success 201 {object} models.EntryMessage
// @Router /api/v1/entries/{id}/messages [post]
func (h *EntryHandler) AddMessage(c *gin.Context) {
	tenantID, authorID, ok := actorContext(c)
	if !ok {
		return
	}
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input services.AddMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.service.AddMessage(c.Request.Context(), tenantID, entryID, authorID, input)
	if err != nil {
		respondEntryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// ListMessages lists the comments on an entry
// @Summary List entry messages
// @Tags Entries
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {array} models.EntryMessage
// @Router /api/v1/entries/{id}/messages [get]
func (h *EntryHandler) ListMessages(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	messages, err := h.service.ListMessages(c.Request.Context(), tenantID, entryID)
	if err != nil {
		respondEntryError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// GetHistory lists the audit trail of an entry
// @Summary Get entry history
// @Tags Entries
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {array} models.ApprovalAuditLog
// @Router /api/v1/entries/{id}/history [get]
func (h *EntryHandler) GetHistory(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	entryID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	history, err := h.service.GetEntryHistory(c.Request.Context(), tenantID, entryID)
	if err != nil {
		respondEntryError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func respondEntryError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrEntryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrEntryLocked),
		errors.Is(err, repository.ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidStatus):
		status = http.StatusBadRequest
	default:
		c.JSON(status, gin.H{"error": "An internal error occurred"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
