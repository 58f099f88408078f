package ports

import (
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/shopspring/decimal"
)

// CheckoutParams are the per-donation values of a hosted payment page sale.
// Store, timezone and timestamp are supplied by the adapter.
type CheckoutParams struct {
	Amount          decimal.Decimal
	OrderID         string // The donation external reference
	SuccessURL      string
	FailURL         string
	NotificationURL string
	DonorEmail      string // Optional, never signed
	DonorName       string // Optional, never signed
}

// FormField is one hidden input of the checkout form
type FormField struct {
	Name  string
	Value string
}

// CheckoutForm is a ready-to-render gateway redirect
type CheckoutForm struct {
	Action string
	Fields []FormField
	HTML   string // Auto-submitting document posting Fields to Action
}

// Value returns the value of the named field, or "" when absent
func (f *CheckoutForm) Value(name string) string {
	for _, field := range f.Fields {
		if field.Name == name {
			return field.Value
		}
	}
	return ""
}

// SignatureVerdict is the result of checking a notification hash
type SignatureVerdict string

const (
	SignatureValid           SignatureVerdict = "valid"
	SignatureMismatch        SignatureVerdict = "mismatch"
	SignatureSkippedNoHash   SignatureVerdict = "skipped_no_hash"
	SignatureSkippedNoSecret SignatureVerdict = "skipped_no_secret"
)

// Skipped reports whether verification could not run
func (v SignatureVerdict) Skipped() bool {
	return v == SignatureSkippedNoHash || v == SignatureSkippedNoSecret
}

// HostedPaymentGateway builds signed checkout redirects and verifies the
// server-to-server notifications that follow them
type HostedPaymentGateway interface {
	// BuildCheckoutForm signs the sale fields with the tenant credentials and
	// renders the auto-submitting form
	BuildCheckoutForm(creds domain.PaymentCredentials, params CheckoutParams) (*CheckoutForm, error)

	// VerifyNotification checks the notification hash against the tenant secret
	VerifyNotification(fields map[string]string, creds domain.PaymentCredentials) SignatureVerdict
}
