package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/kevin07696/etaca-service/pkg/errors"
	"github.com/shopspring/decimal"
)

// DonationStatus represents the payment lifecycle of a donation
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusPaid      DonationStatus = "paid"
	DonationStatusFailed    DonationStatus = "failed"
	DonationStatusCancelled DonationStatus = "cancelled"
)

// CurrencyPLN is the only currency donations are collected in
const CurrencyPLN = "PLN"

const (
	MaxEmailLength = 254
	MaxNameLength  = 200
	MaxUTMLength   = 255
)

// MaxDonationAmount is the inclusive upper bound for a single donation
var MaxDonationAmount = decimal.NewFromInt(100000)

// UTM carries optional campaign attribution from the donation page
type UTM struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
}

// Donation is a single payment attempt by a donor toward an organization
type Donation struct {
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	GoalID         *string         `json:"goal_id,omitempty"`
	UTM            UTM             `json:"utm"`
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	ExternalRef    string          `json:"external_ref"`
	DonorEmail     string          `json:"donor_email"`
	DonorName      string          `json:"donor_name,omitempty"`
	Currency       string          `json:"currency"`
	Status         DonationStatus  `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	Consent        bool            `json:"consent"`
}

// IsPending returns true while the donation awaits a gateway result
func (d *Donation) IsPending() bool {
	return d.Status == DonationStatusPending
}

// IsTerminal returns true once the donation reached a final status
func (d *Donation) IsTerminal() bool {
	return d.Status == DonationStatusPaid ||
		d.Status == DonationStatusFailed ||
		d.Status == DonationStatusCancelled
}

// TransitionTo moves a pending donation to a final status. PaidAt is stamped
// only for Paid. Terminal donations are never changed.
func (d *Donation) TransitionTo(status DonationStatus, at time.Time) error {
	if !d.IsPending() {
		return ErrDonationNotPending
	}
	switch status {
	case DonationStatusPaid:
		paidAt := at.UTC()
		d.PaidAt = &paidAt
	case DonationStatusFailed, DonationStatusCancelled:
		d.PaidAt = nil
	default:
		return NewDomainError(ErrorCodeValidationFailed, "unsupported donation status").
			WithDetail("status", string(status))
	}
	d.Status = status
	d.UpdatedAt = at.UTC()
	return nil
}

// ValidateAmount checks amount is in (0, 100000]
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(MaxDonationAmount) {
		return NewDomainError(ErrorCodeValidationAmountInvalid, ErrValidationAmountInvalid.Message).
			WithDetail("amount", amount.String())
	}
	return nil
}

// ValidateEmail checks the donor email is a bare RFC 5322 address of at most
// 254 characters
func ValidateEmail(email string) error {
	if email == "" {
		return NewDomainError(ErrorCodeValidationEmailInvalid, "donor email is required")
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return NewDomainError(ErrorCodeValidationEmailInvalid, "donor email is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return NewDomainError(ErrorCodeValidationEmailInvalid, ErrValidationEmailInvalid.Message)
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return NewDomainError(ErrorCodeValidationEmailInvalid, ErrValidationEmailInvalid.Message)
	}
	return nil
}

// ValidateMaxLength rejects values longer than max characters
func ValidateMaxLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return WrapError(ErrorCodeValidationFieldTooLong, field+" is too long",
			pkgerrors.NewValidationError(field, fmt.Sprintf("must be at most %d characters", max))).
			WithDetail("field", field).
			WithDetail("max_length", max)
	}
	return nil
}
