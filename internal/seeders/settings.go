package seeders

import (
	"log"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"timesheet-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedDemoSettings creates or updates approval settings for the demo tenant,
// one project per approval mode. Only wired up in development environments.
func SeedDemoSettings(db *gorm.DB) error {
	settings := []models.ProjectApprovalSettings{
		{
			TenantID:                  "demo",
			ProjectID:                 uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			ApprovalMode:              models.ModeRequired,
			AutoApproveAfterDays:      14,
			RequireAllEntriesApproved: true,
		},
		{
			TenantID:             "demo",
			ProjectID:            uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			ApprovalMode:         models.ModeOptional,
			AutoApproveAfterDays: 7,
		},
		{
			TenantID:                 "demo",
			ProjectID:                uuid.MustParse("33333333-3333-3333-3333-333333333333"),
			ApprovalMode:             models.ModeSelfApprove,
			AllowSelfApproveNoClient: true,
		},
		{
			TenantID:                  "demo",
			ProjectID:                 uuid.MustParse("44444444-4444-4444-4444-444444444444"),
			ApprovalMode:              models.ModeMultiStage,
			RequireAllEntriesApproved: true,
			ApprovalStages:            pq.StringArray{models.StageExpert, models.StageReviewer, models.StageClient},
		},
	}

	for _, s := range settings {
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"approval_mode", "auto_approve_after_days", "require_all_entries_approved", "allow_self_approve_no_client", "approval_stages", "updated_at"}),
		}).Create(&s)

		if result.Error != nil {
			log.Printf("Failed to seed settings for project %s: %v", s.ProjectID, result.Error)
			return result.Error
		}
		log.Printf("Seeded approval settings: project %s mode %s", s.ProjectID, s.ApprovalMode)
	}

	return nil
}
