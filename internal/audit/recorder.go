package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsubv2 "cloud.google.com/go/pubsub/v2"
	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Entry describes one auditable action.
type Entry struct {
	ActorID     uuid.UUID
	Action      string
	Description string
	Module      string
	Severity    enums.AuditSeverity
}

// Recorder writes the audit trail. Recording is best-effort: failures are
// logged and swallowed so they can never block or roll back the operation
// being audited.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Publisher is the topic surface the recorder fans entries out to.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
}

type recorder struct {
	repo      Repository
	publisher Publisher
	logg      *logger.Logger
}

// NewRecorder wires an audit recorder. The publisher is optional; with a nil
// publisher entries land in the database only.
func NewRecorder(repo Repository, publisher Publisher, logg *logger.Logger) (Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &recorder{repo: repo, publisher: publisher, logg: logg}, nil
}

func (r *recorder) Record(ctx context.Context, entry Entry) {
	severity := entry.Severity
	if !severity.IsValid() {
		severity = enums.AuditSeverityInfo
	}

	row := &models.AuditEntry{
		ActorID:     entry.ActorID,
		Action:      entry.Action,
		Description: entry.Description,
		Module:      entry.Module,
		Severity:    severity,
	}

	var combined error
	if err := r.repo.Create(ctx, row); err != nil {
		combined = multierr.Append(combined, fmt.Errorf("persist audit entry: %w", err))
	}
	if r.publisher != nil {
		if err := r.publish(ctx, row); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("publish audit entry: %w", err))
		}
	}

	if combined != nil {
		ctx = r.logg.WithFields(ctx, map[string]any{
			"action": entry.Action,
			"module": entry.Module,
		})
		r.logg.Error(ctx, "audit record failed", combined)
	}
}

type auditMessage struct {
	ID          uuid.UUID `json:"id"`
	ActorID     uuid.UUID `json:"actor_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Module      string    `json:"module"`
	Severity    string    `json:"severity"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *recorder) publish(ctx context.Context, row *models.AuditEntry) error {
	payload, err := json.Marshal(auditMessage{
		ID:          row.ID,
		ActorID:     row.ActorID,
		Action:      row.Action,
		Description: row.Description,
		Module:      row.Module,
		Severity:    row.Severity.String(),
		CreatedAt:   row.CreatedAt,
	})
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, payload)
}

// TopicPublisher adapts a Pub/Sub publisher handle to the Publisher surface.
type TopicPublisher struct {
	publisher *pubsubv2.Publisher
}

// NewTopicPublisher wraps a Pub/Sub publisher handle.
func NewTopicPublisher(publisher *pubsubv2.Publisher) *TopicPublisher {
	return &TopicPublisher{publisher: publisher}
}

func (p *TopicPublisher) Publish(ctx context.Context, data []byte) error {
	if p == nil || p.publisher == nil {
		return fmt.Errorf("publisher not configured")
	}
	result := p.publisher.Publish(ctx, &pubsubv2.Message{Data: data})
	_, err := result.Get(ctx)
	return err
}
