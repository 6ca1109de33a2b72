package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/google/uuid"
)

// Type names a lifecycle event; it doubles as the routing key suffix
type Type string

const (
	TypeSubmitted     Type = "submitted"
	TypeStatusChanged Type = "status_changed"
	TypeResultFetched Type = "result_fetched"
	TypeCancelled     Type = "cancelled"
)

// Event is the JSON message published for every job transition
type Event struct {
	EventID        string        `json:"event_id"`
	Type           Type          `json:"type"`
	JobID          string        `json:"job_id"`
	Status         domain.Status `json:"status"`
	PreviousStatus domain.Status `json:"previous_status,omitempty"`
	ContentHash    string        `json:"content_hash,omitempty"`
	ResultHash     string        `json:"result_hash,omitempty"`
	ResultPath     string        `json:"result_path,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

// Sink delivers an encoded message; satisfied by the shared RabbitMQ client
type Sink interface {
	PublishWithRetry(ctx context.Context, suffix string, body []byte, contentType string) error
}

// Publisher encodes lifecycle events and hands them to a Sink
type Publisher struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher creates a Publisher writing to sink
func NewPublisher(sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

// Publish stamps the event with an id and time when missing and sends it
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = p.now().UTC()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.sink.PublishWithRetry(ctx, string(ev.Type), body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish %s event for job %s: %w", ev.Type, ev.JobID, err)
	}

	p.logger.Debug("Event published",
		slog.String("event_id", ev.EventID),
		slog.String("type", string(ev.Type)),
		slog.String("job_id", ev.JobID),
	)
	return nil
}
