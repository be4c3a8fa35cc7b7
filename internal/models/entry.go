package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeEntry represents one logged unit of work on a project
type TimeEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID    string    `gorm:"type:varchar(255);not null;index" json:"tenantId"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"projectId"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"authorId"`
	EntryDate   time.Time `gorm:"type:date;not null" json:"entryDate"`
	Hours       float64   `gorm:"not null" json:"hours"`
	Description string    `gorm:"type:text" json:"description,omitempty"`

	Status          string     `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	StatusChangedAt time.Time  `gorm:"not null" json:"statusChangedAt"`
	StatusChangedBy uuid.UUID  `gorm:"type:uuid;not null" json:"statusChangedBy"`
	// ApprovedDate mirrors StatusChangedAt while the entry is approved and is
	// null otherwise. Kept for backward-compatible reporting.
	ApprovedDate *time.Time `json:"approvedDate,omitempty"`

	Version   int            `gorm:"not null;default:1" json:"version"` // Optimistic locking
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the table name for TimeEntry
func (TimeEntry) TableName() string {
	return "time_entries"
}

// Entry status constants
const (
	EntryStatusPending    = "pending"
	EntryStatusQuestioned = "questioned"
	EntryStatusApproved   = "approved"
)

// ValidEntryStatus reports whether s is a known entry status value.
// Every status is reachable from every other; only the value itself is
// validated, never the edge.
func ValidEntryStatus(s string) bool {
	switch s {
	case EntryStatusPending, EntryStatusQuestioned, EntryStatusApproved:
		return true
	}
	return false
}

// IsResolved returns true if the entry no longer awaits review
func (e *TimeEntry) IsResolved() bool {
	return e.Status == EntryStatusApproved
}

// SystemActorID attributes transitions applied by the auto-approval sweep.
var SystemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// EntryMessage is a comment on a time entry. A message may carry a status
// change; creating such a message applies the entry transition in the same
// transaction as the message insert.
type EntryMessage struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID     string    `gorm:"type:varchar(255);not null;index" json:"tenantId"`
	EntryID      uuid.UUID `gorm:"type:uuid;not null;index" json:"entryId"`
	AuthorID     uuid.UUID `gorm:"type:uuid;not null" json:"authorId"`
	Body         string    `gorm:"type:text;not null" json:"body"`
	StatusChange *string   `gorm:"type:varchar(30)" json:"statusChange,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for EntryMessage
func (EntryMessage) TableName() string {
	return "entry_messages"
}
