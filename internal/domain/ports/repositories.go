package ports

import (
	"context"
	"time"

	"github.com/kevin07696/etaca-service/internal/domain"
)

// OrganizationRepository defines persistence for tenants
type OrganizationRepository interface {
	// GetByID returns domain.ErrOrganizationNotFound when no row exists
	GetByID(ctx context.Context, db DBTX, id string) (*domain.Organization, error)

	// GetBySlug looks up an organization by its public slug
	GetBySlug(ctx context.Context, db DBTX, slug string) (*domain.Organization, error)

	// Upsert inserts or updates an organization keyed by slug
	Upsert(ctx context.Context, db DBTX, org *domain.Organization) error

	// UpdateCredentials rotates the Fiserv store id and secret reference
	UpdateCredentials(ctx context.Context, db DBTX, id, storeID, secretPath string) error
}

// GoalRepository defines persistence for fundraising goals
type GoalRepository interface {
	// GetByID returns (nil, nil) when the goal does not exist
	GetByID(ctx context.Context, db DBTX, id string) (*domain.Goal, error)

	// Upsert inserts or updates a goal by id
	Upsert(ctx context.Context, db DBTX, goal *domain.Goal) error
}

// DonationRepository defines persistence for donations
type DonationRepository interface {
	// Create inserts a pending donation. A duplicate external reference returns
	// domain.ErrDonationReferenceConflict.
	Create(ctx context.Context, db DBTX, donation *domain.Donation) error

	// GetByExternalRef returns domain.ErrDonationNotFound when no row exists
	GetByExternalRef(ctx context.Context, db DBTX, externalRef string) (*domain.Donation, error)

	// GetByExternalRefForUpdate locks the donation row for the rest of the transaction
	GetByExternalRefForUpdate(ctx context.Context, tx DBTX, externalRef string) (*domain.Donation, error)

	// UpdateStatus persists a status transition
	UpdateStatus(ctx context.Context, tx DBTX, id string, status domain.DonationStatus, paidAt *time.Time) error
}

// WebhookEventRepository is the idempotency ledger for gateway notifications
type WebhookEventRepository interface {
	// ExistsByPayloadHash reports whether the payload was already recorded
	ExistsByPayloadHash(ctx context.Context, db DBTX, payloadHash string) (bool, error)

	// Insert records the event. inserted is false when another delivery with
	// the same payload hash won the race.
	Insert(ctx context.Context, tx DBTX, event *domain.WebhookEvent) (inserted bool, err error)

	// ListByExternalRef returns ledger rows for a donation, newest first
	ListByExternalRef(ctx context.Context, db DBTX, externalRef string, limit int32) ([]*domain.WebhookEvent, error)
}
