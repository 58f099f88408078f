package mocks

import (
	"context"

	adapterports "github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockSecretManagerAdapter mocks adapterports.SecretManagerAdapter
type MockSecretManagerAdapter struct {
	mock.Mock
}

var _ adapterports.SecretManagerAdapter = (*MockSecretManagerAdapter)(nil)

func (m *MockSecretManagerAdapter) GetSecret(ctx context.Context, path string) (*adapterports.Secret, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapterports.Secret), args.Error(1)
}

func (m *MockSecretManagerAdapter) PutSecret(ctx context.Context, path, value string, metadata map[string]string) (string, error) {
	args := m.Called(ctx, path, value, metadata)
	return args.String(0), args.Error(1)
}

func (m *MockSecretManagerAdapter) RotateSecret(ctx context.Context, path string, newValue string) (*adapterports.SecretRotationInfo, error) {
	args := m.Called(ctx, path, newValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapterports.SecretRotationInfo), args.Error(1)
}

// MockHostedPaymentGateway mocks adapterports.HostedPaymentGateway
type MockHostedPaymentGateway struct {
	mock.Mock
}

var _ adapterports.HostedPaymentGateway = (*MockHostedPaymentGateway)(nil)

func (m *MockHostedPaymentGateway) BuildCheckoutForm(creds domain.PaymentCredentials, params adapterports.CheckoutParams) (*adapterports.CheckoutForm, error) {
	args := m.Called(creds, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapterports.CheckoutForm), args.Error(1)
}

func (m *MockHostedPaymentGateway) VerifyNotification(fields map[string]string, creds domain.PaymentCredentials) adapterports.SignatureVerdict {
	args := m.Called(fields, creds)
	return args.Get(0).(adapterports.SignatureVerdict)
}
