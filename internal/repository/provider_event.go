package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ProviderEventStatus string

const (
	ProviderEventStatusPending   ProviderEventStatus = "pending"
	ProviderEventStatusProcessed ProviderEventStatus = "processed"
	ProviderEventStatusFailed    ProviderEventStatus = "failed"
)

// ProviderEvent is one inbound confirmation webhook from the payment
// provider, stored before processing so redeliveries collapse on the
// provider's event id.
type ProviderEvent struct {
	ID             uuid.UUID
	IdempotencyKey string
	EventType      string
	Payload        []byte
	Status         ProviderEventStatus
	Attempts       int
	LastAttempt    *time.Time
	CreatedAt      time.Time
}

type ProviderEventRepository struct {
	db *sql.DB
}

func NewProviderEventRepository(db *sql.DB) *ProviderEventRepository {
	return &ProviderEventRepository{db: db}
}

func (r *ProviderEventRepository) Create(ctx context.Context, e *ProviderEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO provider_events (id, idempotency_key, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.IdempotencyKey, e.EventType, e.Payload, e.Status, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ProviderEventRepository) GetPending(ctx context.Context, limit int) ([]ProviderEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, idempotency_key, event_type, payload, status, attempts, last_attempt, created_at
		FROM provider_events
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("GetPending: %w", err)
	}
	defer rows.Close()

	var events []ProviderEvent
	for rows.Next() {
		var e ProviderEvent
		err := rows.Scan(&e.ID, &e.IdempotencyKey, &e.EventType, &e.Payload, &e.Status, &e.Attempts, &e.LastAttempt, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("GetPending: scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPending: rows: %w", err)
	}
	return events, nil
}

func (r *ProviderEventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status ProviderEventStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE provider_events
		SET status = $2, attempts = attempts + 1, last_attempt = now()
		WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	return nil
}
