package services

import (
	"timesheet-service/internal/models"
)

// NextStage computes the next required approval stage for a sheet from the
// configured stage order and the recorded stage approvals. It is pure and
// idempotent: given the same inputs it always answers the same.
//
// Both return values come from one scan so they can never drift apart:
// next is nil exactly when fullyApproved is true. An empty configuration
// means the multi-stage requirement is trivially satisfied (single-mode
// approval is the sheet state machine's business, not the sequencer's).
// Order is solely the configuration order; duplicate approvals for a stage
// are tolerated and change nothing.
func NextStage(configuredStages []string, approvals []models.TimeSheetApproval) (next *string, fullyApproved bool) {
	if len(configuredStages) == 0 {
		return nil, true
	}

	completed := make(map[string]bool, len(approvals))
	for _, a := range approvals {
		completed[a.Stage] = true
	}

	for _, stage := range configuredStages {
		if !completed[stage] {
			s := stage
			return &s, false
		}
	}
	return nil, true
}

// NextStageForSettings applies NextStage under the project's policy: any
// mode other than multi_stage has no stage chain to satisfy.
func NextStageForSettings(settings *models.ProjectApprovalSettings, approvals []models.TimeSheetApproval) (next *string, fullyApproved bool) {
	if settings == nil || settings.ApprovalMode != models.ModeMultiStage {
		return nil, true
	}
	return NextStage(settings.ApprovalStages, approvals)
}
