package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
)

const (
	donationColumns = `id, organization_id, donation_goal_id, external_ref, amount, currency,
		donor_email, donor_name, status, consent, utm_source, utm_medium, utm_campaign,
		created_at, updated_at, paid_at`

	externalRefConstraint = "uq_donations_external_ref"
)

// DonationRepository implements ports.DonationRepository
type DonationRepository struct {
	db ports.DBTX
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db ports.DBPort) *DonationRepository {
	return &DonationRepository{db: db.GetDB()}
}

func (r *DonationRepository) conn(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db
}

// Create inserts a new donation
func (r *DonationRepository) Create(ctx context.Context, db ports.DBTX, donation *domain.Donation) error {
	id, err := uuid.Parse(donation.ID)
	if err != nil {
		return fmt.Errorf("invalid donation ID: %w", err)
	}
	orgID, err := uuid.Parse(donation.OrganizationID)
	if err != nil {
		return fmt.Errorf("invalid organization ID: %w", err)
	}
	var goalID pgtype.UUID
	if donation.GoalID != nil {
		parsed, err := uuid.Parse(*donation.GoalID)
		if err != nil {
			return fmt.Errorf("invalid goal ID: %w", err)
		}
		goalID = pgtype.UUID{Bytes: parsed, Valid: true}
	}
	amount, err := decimalToNumeric(donation.Amount)
	if err != nil {
		return err
	}

	err = r.conn(db).QueryRow(ctx, `
		INSERT INTO donations (id, organization_id, donation_goal_id, external_ref, amount, currency,
			donor_email, donor_name, status, consent, utm_source, utm_medium, utm_campaign, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		id, orgID, goalID, donation.ExternalRef, amount, donation.Currency,
		donation.DonorEmail, nullText(donation.DonorName), string(donation.Status), donation.Consent,
		nullText(donation.UTM.Source), nullText(donation.UTM.Medium), nullText(donation.UTM.Campaign),
		nullTimestamptz(donation.PaidAt),
	).Scan(&donation.CreatedAt, &donation.UpdatedAt)
	if isUniqueViolation(err, externalRefConstraint) {
		return domain.WrapError(domain.ErrorCodeDonationReferenceConflict, domain.ErrDonationReferenceConflict.Message, err).
			WithDetail("external_ref", donation.ExternalRef)
	}
	if err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

// GetByExternalRef retrieves a donation by its gateway order id
func (r *DonationRepository) GetByExternalRef(ctx context.Context, db ports.DBTX, externalRef string) (*domain.Donation, error) {
	row := r.conn(db).QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE external_ref = $1`, externalRef)
	d, err := scanDonation(row)
	if err != nil {
		return nil, fmt.Errorf("get donation by external ref: %w", err)
	}
	return d, nil
}

// GetByExternalRefForUpdate locks the row so concurrent notifications for the
// same donation serialize on it. Must run inside a transaction.
func (r *DonationRepository) GetByExternalRefForUpdate(ctx context.Context, tx ports.DBTX, externalRef string) (*domain.Donation, error) {
	row := r.conn(tx).QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE external_ref = $1 FOR UPDATE`, externalRef)
	d, err := scanDonation(row)
	if err != nil {
		return nil, fmt.Errorf("lock donation by external ref: %w", err)
	}
	return d, nil
}

// UpdateStatus persists a status transition
func (r *DonationRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id string, status domain.DonationStatus, paidAt *time.Time) error {
	donationID, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrDonationNotFound
	}
	tag, err := r.conn(tx).Exec(ctx, `
		UPDATE donations SET status = $2, paid_at = $3, updated_at = NOW()
		WHERE id = $1`,
		donationID, string(status), nullTimestamptz(paidAt),
	)
	if err != nil {
		return fmt.Errorf("update donation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDonationNotFound
	}
	return nil
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var d domain.Donation
	var id, orgID uuid.UUID
	var goalID pgtype.UUID
	var amount pgtype.Numeric
	var status string
	var donorName, utmSource, utmMedium, utmCampaign pgtype.Text
	var paidAt pgtype.Timestamptz

	err := row.Scan(&id, &orgID, &goalID, &d.ExternalRef, &amount, &d.Currency,
		&d.DonorEmail, &donorName, &status, &d.Consent, &utmSource, &utmMedium, &utmCampaign,
		&d.CreatedAt, &d.UpdatedAt, &paidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDonationNotFound
	}
	if err != nil {
		return nil, err
	}

	d.Amount, err = pgNumericToDecimal(amount)
	if err != nil {
		return nil, err
	}
	d.ID = id.String()
	d.OrganizationID = orgID.String()
	if goalID.Valid {
		g := uuid.UUID(goalID.Bytes).String()
		d.GoalID = &g
	}
	d.Status = domain.DonationStatus(status)
	d.DonorName = textValue(donorName)
	d.UTM = domain.UTM{
		Source:   textValue(utmSource),
		Medium:   textValue(utmMedium),
		Campaign: textValue(utmCampaign),
	}
	d.PaidAt = timestamptzPtr(paidAt)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}
