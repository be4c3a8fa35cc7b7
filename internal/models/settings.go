package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProjectApprovalSettings holds the per-project approval policy. Exactly one
// row exists per (tenant, project).
type ProjectApprovalSettings struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID  string    `gorm:"type:varchar(255);not null;index:idx_settings_project,unique" json:"tenantId"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_settings_project,unique" json:"projectId"`

	ApprovalMode              string `gorm:"type:varchar(30);not null;default:'required'" json:"approvalMode"`
	AutoApproveAfterDays      int    `gorm:"not null;default:0" json:"autoApproveAfterDays"` // 0 = disabled
	RequireAllEntriesApproved bool   `gorm:"not null;default:false" json:"requireAllEntriesApproved"`
	AllowSelfApproveNoClient  bool   `gorm:"not null;default:false" json:"allowSelfApproveNoClient"`

	// ClientID is the project's assigned client, if any. An assigned client
	// disables the self-approval exception regardless of the flag above.
	ClientID *uuid.UUID `gorm:"type:uuid" json:"clientId,omitempty"`

	// ApprovalStages is the ordered sign-off chain. Meaningful only when
	// ApprovalMode is multi_stage; order is the configuration order.
	ApprovalStages pq.StringArray `gorm:"type:text[]" json:"approvalStages,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for ProjectApprovalSettings
func (ProjectApprovalSettings) TableName() string {
	return "project_approval_settings"
}

// Approval mode constants
const (
	ModeRequired    = "required"
	ModeOptional    = "optional"
	ModeSelfApprove = "self_approve"
	ModeMultiStage  = "multi_stage"
)

// Stage name constants
const (
	StageExpert   = "expert"
	StageReviewer = "reviewer"
	StageClient   = "client"
	StageOwner    = "owner"
)

// ValidApprovalMode reports whether m is a known approval mode
func ValidApprovalMode(m string) bool {
	switch m {
	case ModeRequired, ModeOptional, ModeSelfApprove, ModeMultiStage:
		return true
	}
	return false
}

// ValidStage reports whether s is a known stage name
func ValidStage(s string) bool {
	switch s {
	case StageExpert, StageReviewer, StageClient, StageOwner:
		return true
	}
	return false
}

// HasClient returns true if the project has an assigned client
func (s *ProjectApprovalSettings) HasClient() bool {
	return s.ClientID != nil && *s.ClientID != uuid.Nil
}

// StageConfigured reports whether stage is part of the configured chain
func (s *ProjectApprovalSettings) StageConfigured(stage string) bool {
	for _, cfg := range s.ApprovalStages {
		if cfg == stage {
			return true
		}
	}
	return false
}
