package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeSheet aggregates entries submitted together for review
type TimeSheet struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID  string    `gorm:"type:varchar(255);not null;index" json:"tenantId"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"projectId"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"authorId"`
	Name      string    `gorm:"type:varchar(255)" json:"name,omitempty"`

	Status      string     `gorm:"type:varchar(30);not null;default:'draft';index" json:"status"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`

	Version   int       `gorm:"not null;default:1" json:"version"` // Optimistic locking
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relations
	Entries   []TimeSheetEntry    `gorm:"foreignKey:SheetID" json:"entries,omitempty"`
	Approvals []TimeSheetApproval `gorm:"foreignKey:SheetID" json:"approvals,omitempty"`
}

// TableName returns the table name for TimeSheet
func (TimeSheet) TableName() string {
	return "time_sheets"
}

// Sheet status constants
const (
	SheetStatusDraft     = "draft"
	SheetStatusSubmitted = "submitted"
	SheetStatusApproved  = "approved"
	SheetStatusRejected  = "rejected"
)

// IsResolved returns true if the sheet has reached a terminal review outcome
func (s *TimeSheet) IsResolved() bool {
	return s.Status == SheetStatusApproved || s.Status == SheetStatusRejected
}

// TimeSheetEntry links an entry into a sheet. The unique index on entry_id
// enforces one sheet per entry, which is what makes the edit lock derivable
// from the owning sheet's status.
type TimeSheetEntry struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SheetID uuid.UUID `gorm:"type:uuid;not null;index" json:"sheetId"`
	EntryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"entryId"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Entry *TimeEntry `gorm:"foreignKey:EntryID" json:"entry,omitempty"`
}

// TableName returns the table name for TimeSheetEntry
func (TimeSheetEntry) TableName() string {
	return "time_sheet_entries"
}

// TimeSheetApproval records that one named stage has been completed for one
// sheet by one actor. Rows are append-only: never updated, deleted en masse
// only on revert-to-draft or sheet deletion.
type TimeSheetApproval struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID   string    `gorm:"type:varchar(255);not null;index" json:"tenantId"`
	SheetID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sheetId"`
	Stage      string    `gorm:"type:varchar(30);not null" json:"stage"`
	ApproverID uuid.UUID `gorm:"type:uuid;not null" json:"approverId"`
	Notes      string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for TimeSheetApproval
func (TimeSheetApproval) TableName() string {
	return "time_sheet_approvals"
}
