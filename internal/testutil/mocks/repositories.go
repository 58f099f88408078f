// Package mocks provides shared testify mocks for the repository and adapter
// ports so service tests do not each redeclare them.
package mocks

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

// MockTransactionManager runs fn inline with a nil transaction. Repository
// mocks ignore the DBTX argument so nothing dereferences it.
type MockTransactionManager struct {
	mock.Mock
}

var _ ports.TransactionManager = (*MockTransactionManager)(nil)

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, nil)
}

func (m *MockTransactionManager) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, nil)
}

// MockOrganizationRepository mocks ports.OrganizationRepository
type MockOrganizationRepository struct {
	mock.Mock
}

var _ ports.OrganizationRepository = (*MockOrganizationRepository)(nil)

func (m *MockOrganizationRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) GetBySlug(ctx context.Context, db ports.DBTX, slug string) (*domain.Organization, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) Upsert(ctx context.Context, db ports.DBTX, org *domain.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *MockOrganizationRepository) UpdateCredentials(ctx context.Context, db ports.DBTX, id, storeID, secretPath string) error {
	return m.Called(ctx, id, storeID, secretPath).Error(0)
}

// MockGoalRepository mocks ports.GoalRepository
type MockGoalRepository struct {
	mock.Mock
}

var _ ports.GoalRepository = (*MockGoalRepository)(nil)

func (m *MockGoalRepository) GetByID(ctx context.Context, db ports.DBTX, id string) (*domain.Goal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Goal), args.Error(1)
}

func (m *MockGoalRepository) Upsert(ctx context.Context, db ports.DBTX, goal *domain.Goal) error {
	return m.Called(ctx, goal).Error(0)
}

// MockDonationRepository mocks ports.DonationRepository
type MockDonationRepository struct {
	mock.Mock
}

var _ ports.DonationRepository = (*MockDonationRepository)(nil)

func (m *MockDonationRepository) Create(ctx context.Context, db ports.DBTX, donation *domain.Donation) error {
	return m.Called(ctx, donation).Error(0)
}

func (m *MockDonationRepository) GetByExternalRef(ctx context.Context, db ports.DBTX, externalRef string) (*domain.Donation, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Donation), args.Error(1)
}

func (m *MockDonationRepository) GetByExternalRefForUpdate(ctx context.Context, tx ports.DBTX, externalRef string) (*domain.Donation, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Donation), args.Error(1)
}

func (m *MockDonationRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id string, status domain.DonationStatus, paidAt *time.Time) error {
	return m.Called(ctx, id, status, paidAt).Error(0)
}

// MockWebhookEventRepository mocks ports.WebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

var _ ports.WebhookEventRepository = (*MockWebhookEventRepository)(nil)

func (m *MockWebhookEventRepository) ExistsByPayloadHash(ctx context.Context, db ports.DBTX, payloadHash string) (bool, error) {
	args := m.Called(ctx, payloadHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookEventRepository) Insert(ctx context.Context, tx ports.DBTX, event *domain.WebhookEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookEventRepository) ListByExternalRef(ctx context.Context, db ports.DBTX, externalRef string, limit int32) ([]*domain.WebhookEvent, error) {
	args := m.Called(ctx, externalRef, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WebhookEvent), args.Error(1)
}
