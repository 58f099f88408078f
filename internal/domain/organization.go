package domain

import (
	"strings"
	"time"
)

// OrganizationStatus represents the onboarding state of an organization
type OrganizationStatus string

const (
	OrganizationStatusPending  OrganizationStatus = "pending"
	OrganizationStatusActive   OrganizationStatus = "active"
	OrganizationStatusDisabled OrganizationStatus = "disabled"
)

// Organization is a tenant receiving donations. Each organization carries its
// own Fiserv store and shared secret. The secret lives either inline or in the
// secret manager under FiservSecretPath.
type Organization struct {
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Slug             string             `json:"slug"`
	FiservStoreID    string             `json:"fiserv_store_id"`
	FiservSecret     string             `json:"-"`
	FiservSecretPath string             `json:"fiserv_secret_path"`
	Status           OrganizationStatus `json:"status"`
}

// IsActive returns true if the organization can accept donations
func (o *Organization) IsActive() bool {
	return o.Status == OrganizationStatusActive
}

// HasStoreID returns true if a Fiserv store id is configured
func (o *Organization) HasStoreID() bool {
	return strings.TrimSpace(o.FiservStoreID) != ""
}

// HasSecretSource returns true if the organization has an inline secret or a
// secret manager reference
func (o *Organization) HasSecretSource() bool {
	return o.FiservSecret != "" || strings.TrimSpace(o.FiservSecretPath) != ""
}

// PaymentCredentials are the per-tenant values the gateway signature is
// computed with. An empty Secret means the tenant has no shared secret.
type PaymentCredentials struct {
	StoreID string
	Secret  string
}

// HasSecret reports whether a shared secret is available
func (c PaymentCredentials) HasSecret() bool {
	return c.Secret != ""
}

// Goal is an optional fundraising target within an organization
type Goal struct {
	CreatedAt      time.Time `json:"created_at"`
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Title          string    `json:"title"`
	IsActive       bool      `json:"is_active"`
}

// AcceptsDonationsFor returns true if the goal belongs to the organization
// and is still open
func (g *Goal) AcceptsDonationsFor(organizationID string) bool {
	return g != nil && g.IsActive && g.OrganizationID == organizationID
}
