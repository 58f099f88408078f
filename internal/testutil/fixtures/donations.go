package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/shopspring/decimal"
)

// DonationBuilder provides fluent API for building test donations.
type DonationBuilder struct {
	donation *domain.Donation
}

// NewDonation creates a pending 50.00 PLN donation.
func NewDonation(organizationID string) *DonationBuilder {
	now := time.Now().UTC()
	return &DonationBuilder{
		donation: &domain.Donation{
			ID:             uuid.NewString(),
			OrganizationID: organizationID,
			ExternalRef:    "DON-1700000000-12345",
			DonorEmail:     "jan.kowalski@example.pl",
			Amount:         decimal.RequireFromString("50.00"),
			Currency:       domain.CurrencyPLN,
			Status:         domain.DonationStatusPending,
			Consent:        true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

func (b *DonationBuilder) WithExternalRef(ref string) *DonationBuilder {
	b.donation.ExternalRef = ref
	return b
}

func (b *DonationBuilder) WithAmount(amount string) *DonationBuilder {
	b.donation.Amount = decimal.RequireFromString(amount)
	return b
}

func (b *DonationBuilder) WithGoal(goalID string) *DonationBuilder {
	b.donation.GoalID = &goalID
	return b
}

// WithStatus sets the status, stamping PaidAt for paid donations
func (b *DonationBuilder) WithStatus(status domain.DonationStatus) *DonationBuilder {
	b.donation.Status = status
	if status == domain.DonationStatusPaid {
		b.donation.PaidAt = TimePtr(time.Now().UTC())
	} else {
		b.donation.PaidAt = nil
	}
	return b
}

func (b *DonationBuilder) Build() *domain.Donation {
	return b.donation
}
