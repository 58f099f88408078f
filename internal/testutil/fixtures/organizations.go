package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/etaca-service/internal/domain"
)

// Test credentials shared by signature-dependent tests
const (
	TestStoreID = "3300001"
	TestSecret  = "s3cr3t"
)

// OrganizationBuilder provides fluent API for building test organizations.
type OrganizationBuilder struct {
	org *domain.Organization
}

// NewOrganization creates an active organization with inline credentials.
func NewOrganization() *OrganizationBuilder {
	now := time.Now().UTC()
	return &OrganizationBuilder{
		org: &domain.Organization{
			ID:            uuid.NewString(),
			Name:          "Parafia św. Anny",
			Slug:          "parafia-sw-anny",
			FiservStoreID: TestStoreID,
			FiservSecret:  TestSecret,
			Status:        domain.OrganizationStatusActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

func (b *OrganizationBuilder) WithStatus(status domain.OrganizationStatus) *OrganizationBuilder {
	b.org.Status = status
	return b
}

func (b *OrganizationBuilder) WithStoreID(storeID string) *OrganizationBuilder {
	b.org.FiservStoreID = storeID
	return b
}

func (b *OrganizationBuilder) WithSecret(secret string) *OrganizationBuilder {
	b.org.FiservSecret = secret
	return b
}

// WithSecretPath moves the secret to the secret manager
func (b *OrganizationBuilder) WithSecretPath(path string) *OrganizationBuilder {
	b.org.FiservSecret = ""
	b.org.FiservSecretPath = path
	return b
}

func (b *OrganizationBuilder) Build() *domain.Organization {
	return b.org
}

// GoalBuilder provides fluent API for building test goals.
type GoalBuilder struct {
	goal *domain.Goal
}

// NewGoal creates an active goal owned by organizationID.
func NewGoal(organizationID string) *GoalBuilder {
	return &GoalBuilder{
		goal: &domain.Goal{
			ID:             uuid.NewString(),
			OrganizationID: organizationID,
			Title:          "Remont dachu",
			IsActive:       true,
			CreatedAt:      time.Now().UTC(),
		},
	}
}

func (b *GoalBuilder) Inactive() *GoalBuilder {
	b.goal.IsActive = false
	return b
}

func (b *GoalBuilder) Build() *domain.Goal {
	return b.goal
}
