package ports

import (
	"context"

	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/shopspring/decimal"
)

// DonationService defines the donation initiation use cases
type DonationService interface {
	// Initiate validates the request, persists a pending donation and returns
	// the signed auto-submitting gateway form
	Initiate(ctx context.Context, req InitiateDonationRequest) (*InitiateDonationResult, error)

	// GetByExternalRef returns the current state of a donation
	GetByExternalRef(ctx context.Context, externalRef string) (*domain.Donation, error)
}

// InitiateDonationRequest is the donor's checkout submission
type InitiateDonationRequest struct {
	OrganizationID string
	GoalID         string // Optional
	DonorEmail     string
	DonorName      string // Optional
	UTM            domain.UTM
	Amount         decimal.Decimal
	Consent        bool
}

// InitiateDonationResult is returned to the frontend which renders FormHTML
type InitiateDonationResult struct {
	ExternalRef string `json:"externalRef"`
	FormHTML    string `json:"formHtml"`
	DonationID  string `json:"donationId"`
}

// WebhookOutcome classifies how a notification was handled
type WebhookOutcome string

const (
	WebhookOutcomeMissingReference  WebhookOutcome = "missing_reference"
	WebhookOutcomeDuplicate         WebhookOutcome = "duplicate"
	WebhookOutcomeUnknownDonation   WebhookOutcome = "unknown_donation"
	WebhookOutcomeSignatureMismatch WebhookOutcome = "signature_mismatch"
	WebhookOutcomeRecorded          WebhookOutcome = "recorded"
	WebhookOutcomeTransitioned      WebhookOutcome = "transitioned"
)

// WebhookResult reports the processing outcome. Handled is false when the
// notification could not be tied to a donation.
type WebhookResult struct {
	Outcome     WebhookOutcome
	ExternalRef string
	NewStatus   domain.DonationStatus
	Handled     bool
}

// WebhookProcessor defines inbound gateway notification handling
type WebhookProcessor interface {
	// Process applies a notification. Errors are returned for signature
	// mismatches and infrastructure failures only.
	Process(ctx context.Context, fields map[string]string) (*WebhookResult, error)
}
