package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
)

// WebhookEventRepository implements ports.WebhookEventRepository
type WebhookEventRepository struct {
	db ports.DBTX
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db ports.DBPort) *WebhookEventRepository {
	return &WebhookEventRepository{db: db.GetDB()}
}

func (r *WebhookEventRepository) conn(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db
}

// ExistsByPayloadHash reports whether a payload with this hash was recorded
func (r *WebhookEventRepository) ExistsByPayloadHash(ctx context.Context, db ports.DBTX, payloadHash string) (bool, error) {
	var exists bool
	err := r.conn(db).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM webhook_events WHERE payload_hash = $1)`, payloadHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check webhook payload hash: %w", err)
	}
	return exists, nil
}

// Insert records the event unless the payload hash already exists. The
// unique constraint arbitrates concurrent deliveries of the same payload.
func (r *WebhookEventRepository) Insert(ctx context.Context, tx ports.DBTX, event *domain.WebhookEvent) (bool, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	id, err := uuid.Parse(event.ID)
	if err != nil {
		return false, fmt.Errorf("invalid webhook event ID: %w", err)
	}

	tag, err := r.conn(tx).Exec(ctx, `
		INSERT INTO webhook_events (id, provider, external_ref, payload_hash, raw_payload, status, processed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (payload_hash) DO NOTHING`,
		id, event.Provider, event.ExternalRef, event.PayloadHash, event.RawPayload,
		nullText(event.Status), event.Processed,
	)
	if err != nil {
		return false, fmt.Errorf("insert webhook event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByExternalRef returns ledger rows for a donation, newest first
func (r *WebhookEventRepository) ListByExternalRef(ctx context.Context, db ports.DBTX, externalRef string, limit int32) ([]*domain.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.conn(db).Query(ctx, `
		SELECT id, provider, external_ref, payload_hash, raw_payload, status, processed, received_at
		FROM webhook_events
		WHERE external_ref = $1
		ORDER BY received_at DESC
		LIMIT $2`, externalRef, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list webhook events: %w", err)
	}
	defer rows.Close()

	var events []*domain.WebhookEvent
	for rows.Next() {
		var e domain.WebhookEvent
		var id uuid.UUID
		var status pgtype.Text
		if err := rows.Scan(&id, &e.Provider, &e.ExternalRef, &e.PayloadHash, &e.RawPayload, &status, &e.Processed, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan webhook event: %w", err)
		}
		e.ID = id.String()
		e.Status = textValue(status)
		e.ReceivedAt = e.ReceivedAt.UTC()
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook events: %w", err)
	}
	return events, nil
}
