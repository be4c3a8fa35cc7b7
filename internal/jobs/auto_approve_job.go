package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"timesheet-service/internal/models"
	"timesheet-service/internal/repository"
	"timesheet-service/internal/services"
)

// AutoApproveJob periodically sweeps for unresolved entries and submitted
// sheets older than each project's auto-approval window and promotes them to
// approved on behalf of the system actor. Projects with the window disabled
// are never touched.
type AutoApproveJob struct {
	repo     repository.TimesheetRepositoryInterface
	entries  *services.EntryService
	sheets   *services.SheetService
	logger   *logrus.Logger
	clock    services.Clock
	interval time.Duration
	stopCh   chan struct{}
}

// NewAutoApproveJob creates a new auto-approval sweep job
func NewAutoApproveJob(repo repository.TimesheetRepositoryInterface, entries *services.EntryService, sheets *services.SheetService, logger *logrus.Logger, clock services.Clock) *AutoApproveJob {
	if clock == nil {
		clock = services.SystemClock()
	}
	return &AutoApproveJob{
		repo:     repo,
		entries:  entries,
		sheets:   sheets,
		logger:   logger,
		clock:    clock,
		interval: 15 * time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop
func (j *AutoApproveJob) Start(ctx context.Context) {
	j.logger.Info("Auto-approval job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start
	j.RunSweep(ctx)

	for {
		select {
		case <-ticker.C:
			j.RunSweep(ctx)
		case <-j.stopCh:
			j.logger.Info("Auto-approval job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Auto-approval job context cancelled")
			return
		}
	}
}

// Stop signals the job to stop
func (j *AutoApproveJob) Stop() {
	close(j.stopCh)
}

// RunSweep performs a single pass over every project with an auto-approval
// window. The sweep is idempotent: already-resolved rows fall out of the
// stale queries, so running it twice approves nothing twice.
func (j *AutoApproveJob) RunSweep(ctx context.Context) {
	settingsList, err := j.repo.ListAutoApproveSettings(ctx)
	if err != nil {
		j.logger.Errorf("Failed to list auto-approval settings: %v", err)
		return
	}

	for _, settings := range settingsList {
		cutoff := j.clock.Now().AddDate(0, 0, -settings.AutoApproveAfterDays)
		j.sweepEntries(ctx, &settings, cutoff)
		j.sweepSheets(ctx, &settings, cutoff)
	}
}

func (j *AutoApproveJob) sweepEntries(ctx context.Context, settings *models.ProjectApprovalSettings, cutoff time.Time) {
	entries, err := j.repo.FindStaleEntries(ctx, settings.TenantID, settings.ProjectID, cutoff)
	if err != nil {
		j.logger.Errorf("Failed to find stale entries for project %s: %v", settings.ProjectID, err)
		return
	}

	for i := range entries {
		entry := &entries[i]
		if _, err := j.entries.AutoApproveEntry(ctx, entry); err != nil {
			// A version conflict means someone resolved the entry between the
			// query and the update; the next sweep simply won't see it.
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			j.logger.Errorf("Failed to auto-approve entry %s: %v", entry.ID, err)
			continue
		}
		j.logger.Infof("Auto-approved entry %s in project %s", entry.ID, settings.ProjectID)
	}
}

func (j *AutoApproveJob) sweepSheets(ctx context.Context, settings *models.ProjectApprovalSettings, cutoff time.Time) {
	sheets, err := j.repo.FindStaleSheets(ctx, settings.TenantID, settings.ProjectID, cutoff)
	if err != nil {
		j.logger.Errorf("Failed to find stale sheets for project %s: %v", settings.ProjectID, err)
		return
	}

	for i := range sheets {
		sheet := &sheets[i]

		// A multi-stage sheet with recorded approvals is mid-chain; forcing
		// it through would discard the remaining stages. Only untouched
		// sheets qualify.
		if settings.ApprovalMode == models.ModeMultiStage && len(sheet.Approvals) > 0 {
			continue
		}

		if _, err := j.sheets.AutoApproveSheet(ctx, sheet); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) || errors.Is(err, services.ErrSheetNotSubmitted) {
				continue
			}
			j.logger.Errorf("Failed to auto-approve sheet %s: %v", sheet.ID, err)
			continue
		}
		j.logger.Infof("Auto-approved sheet %s in project %s", sheet.ID, settings.ProjectID)
	}
}
