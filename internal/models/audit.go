package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ApprovalAuditLog is an append-only record of entry status changes and
// sheet lifecycle events, exposed to reporting and the history endpoints.
type ApprovalAuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID  string         `gorm:"type:varchar(255);not null;index" json:"tenantId"`
	SheetID   *uuid.UUID     `gorm:"type:uuid;index" json:"sheetId,omitempty"`
	EntryID   *uuid.UUID     `gorm:"type:uuid;index" json:"entryId,omitempty"`
	EventType string         `gorm:"type:varchar(50);not null;index" json:"eventType"`
	ActorID   uuid.UUID      `gorm:"type:uuid;not null" json:"actorId"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for ApprovalAuditLog
func (ApprovalAuditLog) TableName() string {
	return "approval_audit_log"
}

// AuditEventType constants
const (
	AuditEventEntryStatusChanged = "entry.status_changed"
	AuditEventEntryAutoApproved  = "entry.auto_approved"
	AuditEventSheetSubmitted     = "sheet.submitted"
	AuditEventStageApproved      = "sheet.stage_approved"
	AuditEventSheetApproved      = "sheet.approved"
	AuditEventSheetAutoApproved  = "sheet.auto_approved"
	AuditEventSheetRejected      = "sheet.rejected"
	AuditEventSheetReverted      = "sheet.reverted"
)
