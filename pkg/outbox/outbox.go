// Package outbox implements the transactional outbox pattern: domain services
// persist events in the same database transaction as their state change, and
// a background publisher delivers them to Kafka. Side effects therefore never
// roll back the financial write they accompany, and are never lost with it.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mfadhilr/edupay/internal/common/kafka"
	"github.com/mfadhilr/edupay/internal/common/logger"
)

const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusFailed    = "failed"

	maxAttempts = 5
)

type OutboxEvent struct {
	ID          string                 `json:"id"`
	AggregateID string                 `json:"aggregate_id"`
	EventType   string                 `json:"event_type"`
	Topic       string                 `json:"topic"`
	Payload     map[string]interface{} `json:"payload"`
	Status      string                 `json:"status"`
	Attempts    int                    `json:"attempts"`
	LastError   string                 `json:"last_error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	PublishedAt *time.Time             `json:"published_at,omitempty"`
}

type Repository struct {
	db     *sql.DB
	logger *logger.Logger
}

func NewRepository(db *sql.DB, log *logger.Logger) *Repository {
	return &Repository{db: db, logger: log}
}

// SaveEvent inserts the event within the caller's transaction so it commits
// or rolls back together with the domain write.
func (r *Repository) SaveEvent(ctx context.Context, tx *sql.Tx, event *OutboxEvent) error {
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO outbox_events (aggregate_id, event_type, topic, payload, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	event.Status = StatusPending
	err = tx.QueryRowContext(
		ctx,
		query,
		event.AggregateID,
		event.EventType,
		event.Topic,
		payloadJSON,
		event.Status,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}

// GetPendingEvents returns unpublished events that still have retry budget,
// oldest first.
func (r *Repository) GetPendingEvents(ctx context.Context, limit int) ([]OutboxEvent, error) {
	query := `
		SELECT id, aggregate_id, event_type, topic, payload, status, attempts, COALESCE(last_error, ''), created_at
		FROM outbox_events
		WHERE status = $1 AND attempts < $2
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, StatusPending, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var event OutboxEvent
		var payloadJSON []byte

		err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.EventType,
			&event.Topic,
			&payloadJSON,
			&event.Status,
			&event.Attempts,
			&event.LastError,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		if err := json.Unmarshal(payloadJSON, &event.Payload); err != nil {
			r.logger.Warnf("Failed to unmarshal payload for event %s: %v", event.ID, err)
		}

		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *Repository) MarkAsPublished(ctx context.Context, eventID string) error {
	query := `
		UPDATE outbox_events
		SET status = $1, published_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, StatusPublished, eventID); err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}
	return nil
}

func (r *Repository) MarkAsFailed(ctx context.Context, eventID, reason string) error {
	query := `
		UPDATE outbox_events
		SET status = $1, last_error = $2
		WHERE id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, StatusFailed, reason, eventID); err != nil {
		return fmt.Errorf("failed to mark event as failed: %w", err)
	}
	return nil
}

func (r *Repository) IncrementAttempt(ctx context.Context, eventID, reason string) error {
	query := `
		UPDATE outbox_events
		SET attempts = attempts + 1, last_error = $1
		WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, reason, eventID); err != nil {
		return fmt.Errorf("failed to increment attempt: %w", err)
	}
	return nil
}

// Publisher polls the outbox and publishes pending events to Kafka.
type Publisher struct {
	repo     *Repository
	producer *kafka.Producer
	logger   *logger.Logger
	interval time.Duration
}

func NewPublisher(repo *Repository, producer *kafka.Producer, log *logger.Logger, interval time.Duration) *Publisher {
	return &Publisher{
		repo:     repo,
		producer: producer,
		logger:   log,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled, publishing pending events every
// interval.
func (p *Publisher) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox publisher stopped")
			return
		case <-ticker.C:
			if err := p.publishBatch(ctx); err != nil {
				p.logger.Errorf("Outbox publish cycle failed: %v", err)
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) error {
	events, err := p.repo.GetPendingEvents(ctx, 100)
	if err != nil {
		return err
	}

	for _, event := range events {
		err := p.producer.PublishEvent(ctx, event.Topic, event.AggregateID, event.Payload)
		if err != nil {
			p.logger.Warnf("Failed to publish event %s (attempt %d): %v", event.ID, event.Attempts+1, err)

			if event.Attempts+1 >= maxAttempts {
				if err := p.repo.MarkAsFailed(ctx, event.ID, err.Error()); err != nil {
					p.logger.Errorf("Failed to mark event %s as failed: %v", event.ID, err)
				}
			} else if err := p.repo.IncrementAttempt(ctx, event.ID, err.Error()); err != nil {
				p.logger.Errorf("Failed to increment attempt for event %s: %v", event.ID, err)
			}
			continue
		}

		if err := p.repo.MarkAsPublished(ctx, event.ID); err != nil {
			p.logger.Errorf("Failed to mark event %s as published: %v", event.ID, err)
		}
	}

	return nil
}
