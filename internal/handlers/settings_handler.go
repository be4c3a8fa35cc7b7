package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"timesheet-service/internal/services"
)

// SettingsHandler handles HTTP requests for per-project approval settings
type SettingsHandler struct {
	service *services.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(service *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// GetSettings retrieves a project's approval settings
// @Summary Get project approval settings
// @Tags Settings
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} models.ProjectApprovalSettings
// @Router /api/v1/admin/projects/{projectId}/approval-settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	projectID, ok := pathUUID(c, "projectId")
	if !ok {
		return
	}

	settings, err := h.service.GetSettings(c.Request.Context(), tenantID, projectID)
	if err != nil {
		if errors.Is(err, services.ErrSettingsNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// SaveSettings upserts a project's approval settings
// @Summary Configure project approval settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param request body services.SaveSettingsInput true "Settings"
// @Success 200 {object} models.ProjectApprovalSettings
// @Router /api/v1/admin/projects/{projectId}/approval-settings [put]
func (h *SettingsHandler) SaveSettings(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	projectID, ok := pathUUID(c, "projectId")
	if !ok {
		return
	}

	var input services.SaveSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.service.SaveSettings(c.Request.Context(), tenantID, projectID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidApprovalMode),
			errors.Is(err, services.ErrInvalidStage),
			errors.Is(err, services.ErrStagesNotAllowed),
			errors.Is(err, services.ErrStagesRequired),
			errors.Is(err, services.ErrInvalidAutoApproveDays):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		}
		return
	}

	c.JSON(http.StatusOK, settings)
}

// --- shared handler helpers ---

// actorContext pulls tenant and user identity set by the auth middleware
func actorContext(c *gin.Context) (string, uuid.UUID, bool) {
	tenantID := c.GetString("tenant_id")
	userIDStr := c.GetString("user_id")
	if tenantID == "" || userIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id and user_id are required"})
		return "", uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return "", uuid.Nil, false
	}
	return tenantID, userID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
