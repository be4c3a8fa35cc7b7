package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"timesheet-service/internal/models"
)

// Subjects for timesheet lifecycle events. Downstream services (billing,
// notifications) subscribe to these.
const (
	SubjectEntryStatusChanged = "timesheet.entry.status_changed"
	SubjectEntryAutoApproved  = "timesheet.entry.auto_approved"
	SubjectSheetSubmitted     = "timesheet.sheet.submitted"
	SubjectStageApproved      = "timesheet.sheet.stage_approved"
	SubjectSheetApproved      = "timesheet.sheet.approved"
	SubjectSheetRejected      = "timesheet.sheet.rejected"
	SubjectSheetReverted      = "timesheet.sheet.reverted"
)

// EntryEvent is the payload for entry status transitions
type EntryEvent struct {
	EventType      string    `json:"event_type"`
	TenantID       string    `json:"tenant_id"`
	EntryID        string    `json:"entry_id"`
	ProjectID      string    `json:"project_id"`
	AuthorID       string    `json:"author_id"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
	ActorID        string    `json:"actor_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// SheetEvent is the payload for sheet lifecycle transitions
type SheetEvent struct {
	EventType string    `json:"event_type"`
	TenantID  string    `json:"tenant_id"`
	SheetID   string    `json:"sheet_id"`
	ProjectID string    `json:"project_id"`
	AuthorID  string    `json:"author_id"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes timesheet events to NATS. A nil Publisher is valid
// and publishes nothing, so callers never have to branch on whether
// eventing is configured.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS and returns a publisher
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logrus.New()
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("timesheet-service-publisher"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "timesheet-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// PublishEntryStatusChanged publishes a timesheet.entry.status_changed event
func (p *Publisher) PublishEntryStatusChanged(ctx context.Context, entry *models.TimeEntry, previousStatus, newStatus string, actorID uuid.UUID) error {
	subject := SubjectEntryStatusChanged
	if actorID == models.SystemActorID {
		subject = SubjectEntryAutoApproved
	}
	return p.publish(ctx, subject, EntryEvent{
		EventType:      subject,
		TenantID:       entry.TenantID,
		EntryID:        entry.ID.String(),
		ProjectID:      entry.ProjectID.String(),
		AuthorID:       entry.AuthorID.String(),
		PreviousStatus: previousStatus,
		Status:         newStatus,
		ActorID:        actorID.String(),
		Timestamp:      time.Now().UTC(),
	})
}

// PublishSheetSubmitted publishes a timesheet.sheet.submitted event
func (p *Publisher) PublishSheetSubmitted(ctx context.Context, sheet *models.TimeSheet, actorID uuid.UUID) error {
	return p.publishSheet(ctx, SubjectSheetSubmitted, sheet, "", actorID)
}

// PublishStageApproved publishes a timesheet.sheet.stage_approved event
func (p *Publisher) PublishStageApproved(ctx context.Context, sheet *models.TimeSheet, stage string, actorID uuid.UUID) error {
	return p.publishSheet(ctx, SubjectStageApproved, sheet, stage, actorID)
}

// PublishSheetApproved publishes a timesheet.sheet.approved event
func (p *Publisher) PublishSheetApproved(ctx context.Context, sheet *models.TimeSheet, actorID uuid.UUID) error {
	return p.publishSheet(ctx, SubjectSheetApproved, sheet, "", actorID)
}

// PublishSheetRejected publishes a timesheet.sheet.rejected event
func (p *Publisher) PublishSheetRejected(ctx context.Context, sheet *models.TimeSheet, actorID uuid.UUID) error {
	return p.publishSheet(ctx, SubjectSheetRejected, sheet, "", actorID)
}

// PublishSheetReverted publishes a timesheet.sheet.reverted event
func (p *Publisher) PublishSheetReverted(ctx context.Context, sheet *models.TimeSheet, actorID uuid.UUID) error {
	return p.publishSheet(ctx, SubjectSheetReverted, sheet, "", actorID)
}

func (p *Publisher) publishSheet(ctx context.Context, subject string, sheet *models.TimeSheet, stage string, actorID uuid.UUID) error {
	return p.publish(ctx, subject, SheetEvent{
		EventType: subject,
		TenantID:  sheet.TenantID,
		SheetID:   sheet.ID.String(),
		ProjectID: sheet.ProjectID.String(),
		AuthorID:  sheet.AuthorID.String(),
		Status:    sheet.Status,
		Stage:     stage,
		ActorID:   actorID.String(),
		Timestamp: time.Now().UTC(),
	})
}

// publish marshals and publishes asynchronously. Event delivery is best
// effort; a failed publish is logged, never surfaced to the caller.
func (p *Publisher) publish(ctx context.Context, subject string, event interface{}) error {
	if p == nil || p.conn == nil {
		return nil
	}

	go func() {
		data, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).WithField("subject", subject).Error("Failed to marshal event")
			return
		}
		if err := p.conn.Publish(subject, data); err != nil {
			p.logger.WithError(err).WithField("subject", subject).Error("Failed to publish event")
			return
		}
		p.logger.WithField("subject", subject).Debug("Event published")
	}()

	return nil
}
