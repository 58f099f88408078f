package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
)

const organizationColumns = `id, name, slug, status, fiserv_store_id, fiserv_secret, fiserv_secret_path, created_at, updated_at`

// OrganizationRepository implements ports.OrganizationRepository
type OrganizationRepository struct {
	db ports.DBTX
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db ports.DBPort) *OrganizationRepository {
	return &OrganizationRepository{db: db.GetDB()}
}

func (r *OrganizationRepository) conn(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db
}

// GetByID retrieves an organization by id
func (r *OrganizationRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Organization, error) {
	orgID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrOrganizationNotFound
	}
	row := r.conn(db).QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, orgID)
	org, err := scanOrganization(row)
	if err != nil {
		return nil, fmt.Errorf("get organization by id: %w", err)
	}
	return org, nil
}

// GetBySlug retrieves an organization by slug
func (r *OrganizationRepository) GetBySlug(ctx context.Context, db ports.DBTX, slug string) (*domain.Organization, error) {
	row := r.conn(db).QueryRow(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE slug = $1`, slug)
	org, err := scanOrganization(row)
	if err != nil {
		return nil, fmt.Errorf("get organization by slug: %w", err)
	}
	return org, nil
}

// Upsert inserts an organization or updates the existing row with the same slug
func (r *OrganizationRepository) Upsert(ctx context.Context, db ports.DBTX, org *domain.Organization) error {
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	orgID, err := uuid.Parse(org.ID)
	if err != nil {
		return fmt.Errorf("invalid organization ID: %w", err)
	}

	row := r.conn(db).QueryRow(ctx, `
		INSERT INTO organizations (id, name, slug, status, fiserv_store_id, fiserv_secret, fiserv_secret_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			fiserv_store_id = EXCLUDED.fiserv_store_id,
			fiserv_secret = EXCLUDED.fiserv_secret,
			fiserv_secret_path = EXCLUDED.fiserv_secret_path,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		orgID, org.Name, org.Slug, string(org.Status),
		nullText(org.FiservStoreID), nullText(org.FiservSecret), nullText(org.FiservSecretPath),
	)

	var id uuid.UUID
	if err := row.Scan(&id, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return fmt.Errorf("upsert organization: %w", err)
	}
	org.ID = id.String()
	return nil
}

// UpdateCredentials replaces the store id and points the secret at the
// secret manager. Any inline secret is cleared.
func (r *OrganizationRepository) UpdateCredentials(ctx context.Context, db ports.DBTX, id, storeID, secretPath string) error {
	orgID, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrOrganizationNotFound
	}
	tag, err := r.conn(db).Exec(ctx, `
		UPDATE organizations
		SET fiserv_store_id = $2, fiserv_secret = NULL, fiserv_secret_path = $3, updated_at = NOW()
		WHERE id = $1`,
		orgID, nullText(storeID), nullText(secretPath),
	)
	if err != nil {
		return fmt.Errorf("update organization credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

func scanOrganization(row pgx.Row) (*domain.Organization, error) {
	var org domain.Organization
	var id uuid.UUID
	var status string
	var storeID, secret, secretPath pgtype.Text
	err := row.Scan(&id, &org.Name, &org.Slug, &status, &storeID, &secret, &secretPath, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	org.ID = id.String()
	org.Status = domain.OrganizationStatus(status)
	org.FiservStoreID = textValue(storeID)
	org.FiservSecret = textValue(secret)
	org.FiservSecretPath = textValue(secretPath)
	return &org, nil
}
