package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/kevin07696/etaca-service/internal/adapters/fiserv"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
	"github.com/kevin07696/etaca-service/internal/services/credentials"
	"github.com/kevin07696/etaca-service/internal/testutil/fixtures"
	"github.com/kevin07696/etaca-service/internal/testutil/mocks"
	testmocks "github.com/kevin07696/etaca-service/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

type processorDeps struct {
	tx        *mocks.MockTransactionManager
	orgs      *mocks.MockOrganizationRepository
	donations *mocks.MockDonationRepository
	events    *mocks.MockWebhookEventRepository
	logger    *testmocks.MockLogger
}

func setupProcessor(t *testing.T, cfg Config) (*processor, *processorDeps) {
	t.Helper()

	gateway, err := fiserv.NewHostedPaymentAdapter(fiserv.DefaultConfig("test"), zaptest.NewLogger(t))
	require.NoError(t, err)

	deps := &processorDeps{
		tx:        new(mocks.MockTransactionManager),
		orgs:      new(mocks.MockOrganizationRepository),
		donations: new(mocks.MockDonationRepository),
		events:    new(mocks.MockWebhookEventRepository),
		logger:    testmocks.NewMockLogger(),
	}
	p := NewProcessor(cfg, deps.tx, deps.orgs, deps.donations, deps.events,
		credentials.NewResolver(nil, deps.logger), gateway, deps.logger).(*processor)
	p.now = func() time.Time { return fixedNow }
	return p, deps
}

// signed returns a notification for ref re-signed with the test secret
func signed(ref, status string) map[string]string {
	fields := approvedNotification()
	delete(fields, "hash")
	fields["oid"] = ref
	fields["status"] = status
	fields["hash"] = fiserv.SignInbound(fields, fixtures.TestSecret)
	return fields
}

// expectKnownDonation wires the lookups that precede verification
func expectKnownDonation(deps *processorDeps, org *domain.Organization, donation *domain.Donation) {
	deps.events.On("ExistsByPayloadHash", mock.Anything, mock.Anything).Return(false, nil)
	deps.donations.On("GetByExternalRef", mock.Anything, donation.ExternalRef).Return(donation, nil)
	deps.orgs.On("GetByID", mock.Anything, org.ID).Return(org, nil)
}

func TestProcess_MissingOrderID(t *testing.T) {
	p, deps := setupProcessor(t, Config{})

	result, err := p.Process(context.Background(), map[string]string{"status": "APPROVED"})

	require.NoError(t, err)
	assert.Equal(t, ports.WebhookOutcomeMissingReference, result.Outcome)
	assert.False(t, result.Handled)
	deps.events.AssertNotCalled(t, "ExistsByPayloadHash", mock.Anything, mock.Anything)
}

func TestProcess_DuplicatePayloadIsNoop(t *testing.T) {
	p, deps := setupProcessor(t, Config{})
	deps.events.On("ExistsByPayloadHash", mock.Anything,
		"e5ffb9633952e004da9d8d566637ab21da296f98047d0e83cde90502a2e70787").Return(true, nil)

	result, err := p.Process(context.Background(), approvedNotification())

	require.NoError(t, err)
	assert.Equal(t, ports.WebhookOutcomeDuplicate, result.Outcome)
	assert.True(t, result.Handled)
	deps.donations.AssertNotCalled(t, "GetByExternalRef", mock.Anything, mock.Anything)
	deps.tx.AssertNotCalled(t, "WithTransaction", mock.Anything)
}

func TestProcess_UnknownDonation(t *testing.T) {
	p, deps := setupProcessor(t, Config{})
	deps.events.On("ExistsByPayloadHash", mock.Anything, mock.Anything).Return(false, nil)
	deps.donations.On("GetByExternalRef", mock.Anything, "DON-1700000000-12345").
		Return(nil, fmt.Errorf("get donation by external ref: %w", domain.ErrDonationNotFound))

	result, err := p.Process(context.Background(), approvedNotification())

	require.NoError(t, err)
	assert.Equal(t, ports.WebhookOutcomeUnknownDonation, result.Outcome)
	assert.False(t, result.Handled)
	deps.tx.AssertNotCalled(t, "WithTransaction", mock.Anything)
}

func TestProcess_ApprovedMarksPaid(t *testing.T) {
	p, deps := setupProcessor(t, Config{})
	org := fixtures.NewOrganization().Build()
	donation := fixtures.NewDonation(org.ID).Build()
	expectKnownDonation(deps, org, donation)

	deps.tx.On("WithTransaction", mock.Anything).Return(nil)
	deps.events.On("Insert", mock.Anything, mock.MatchedBy(func(e *domain.WebhookEvent) bool {
		return e.Provider == "Fiserv" &&
			e.PayloadHash == "e5ffb9633952e004da9d8d566637ab21da296f98047d0e83cde90502a2e70787" &&
			e.ExternalRef == donation.ExternalRef &&
			e.Processed &&
			e.Status == "APPROVED"
	})).Return(true, nil)
	locked := *donation
	deps.donations.On("GetByExternalRefForUpdate", mock.Anything, donation.ExternalRef).Return(&locked, nil)
	deps.donations.On("UpdateStatus", mock.Anything, donation.ID, domain.DonationStatusPaid,
		mock.MatchedBy(func(at *time.Time) bool { return at != nil && at.Equal(fixedNow) }),
	).Return(nil)

	result, err := p.Process(context.Background(), approvedNotification())

	require.NoError(t, err)
	assert.Equal(t, ports.WebhookOutcomeTransitioned, result.Outcome)
	assert.Equal(t, domain.DonationStatusPaid, result.NewStatus)
	assert.True(t, result.Handled)
	deps.donations.AssertExpectations(t)
}

func TestProcess_StatusMapping(t *testing.T) {
	tests := []struct {
		status string
		want   domain.DonationStatus
	}{
		{"declined", domain.DonationStatusFailed},
		{"FAILED", domain.DonationStatusFailed},
		{"CANCELLED", domain.DonationStatusCancelled},
		{"success", domain.DonationStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			p, deps := setupProcessor(t, Config{RequireSignature: true})
			org := fixtures.NewOrganization().Build()
			donation := fixtures.NewDonation(org.ID).Build()
			expectKnownDonation(deps, org, donation)

			deps.tx.On("WithTransaction", mock.Anything).Return(nil)
			deps.events.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
			deps.donations.On("GetByExternalRefForUpdate", mock.Anything, donation.ExternalRef).Return(donation, nil)
			deps.donations.On("UpdateStatus", mock.Anything, donation.ID, tt.want,
				mock.MatchedBy(func(at *time.Time) bool { return (at != nil) == (tt.want == domain.DonationStatusPaid) }),
			).Return(nil)

			result, err := p.Process(context.Background(), signed(donation.ExternalRef, tt.status))

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.NewStatus)
			deps.donations.AssertExpectations(t)
		})
	}
}

func TestProcess_UnmappedStatusIsRecordedOnly(t *testing.T) {
	p, deps := setupProcessor(t, Config{})
	org := fixtures.NewOrganization().Build()
	donation := fixtures.NewDonation(org.ID).Build()
	expectKnownDonation(deps, org, donation)

	deps.tx.On("WithTransaction", mock.Anything).Return(nil)
	deps.events.On("Insert", mock.Anything, mock.Anything).Return(true, nil)

	result, err := p.Process(context.Background(), signed(donation.ExternalRef, "WAITING"))

	require.NoError(t, err)
	assert.Equal(t, ports.WebhookOutcomeRecorded, result.Outcome)
	deps.events.AssertNumberOfCalls(t, "Insert", 1)
	deps.donations.AssertNotCalled(t, "GetByExternalRefForUpdate", mock.Anything, mock.Anything)
	deps.donations.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_LongMalformedStatusIsRecorded(t *testing.T) {
	p, deps := setupProcessor(t, Config{RequireSignature: true})
	org := fixtures.NewOrganization().Build()
	donation := fixtures.NewDonation(org.ID).Build()
	expectKnownDonation(deps, org, donation)

	status := strings.Repeat("PENDING_REVIEW_", 5) + "\xff"
	deps.tx.On("WithTransaction", mock.Anything).Return(nil)
	deps.events.On("Insert", mock.Anything, mock.MatchedBy(func(e *domain.WebhookEvent) bool {
		return utf8.ValidString(e.Status) &&
			e.Status == strings.Repeat("PENDING_REVIEW_", 5)+"\uFFFD" &&
			utf8.ValidString(e.RawPayload)
	})).Return(true, nil)

	result, err := p.Process(context.Background(), signed(donation.ExternalRef, status))

	require.NoError(t, err)
	assert.Equal(t, ports.WebhookOutcomeRecorded, result.Outcome)
	assert.True(t, result.Handled)
	deps.events.AssertNumberOfCalls(t, "Insert", 1)
	deps.donations.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_SignatureMismatchRejectsWithoutLedgerEntry(t *testing.T) {
	p, deps := setupProcessor(t, Config{})
	org := fixtures.NewOrganization().Build()
	donation := fixtures.NewDonation(org.ID).Build()
	expectKnownDonation(deps, org, donation)

	tampered := approvedNotification()
	tampered["amount"] = "5000.00"

	result, err := p.Process(context.Background(), tampered)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWebhookSignatureMismatch)
	assert.Equal(t, ports.WebhookOutcomeSignatureMismatch, result.Outcome)
	assert.False(t, result.Handled)
	assert.True(t, deps.logger.Warned("Notification rejected"))
	deps.tx.AssertNotCalled(t, "WithTransaction", mock.Anything)
	deps.events.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestProcess_MissingHashLeniency(t *testing.T) {
	unsigned := approvedNotification()
	delete(unsigned, "hash")

	t.Run("lenient accepts with warning", func(t *testing.T) {
		p, deps := setupProcessor(t, Config{RequireSignature: false})
		org := fixtures.NewOrganization().Build()
		donation := fixtures.NewDonation(org.ID).Build()
		expectKnownDonation(deps, org, donation)
		deps.tx.On("WithTransaction", mock.Anything).Return(nil)
		deps.events.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
		deps.donations.On("GetByExternalRefForUpdate", mock.Anything, donation.ExternalRef).Return(donation, nil)
		deps.donations.On("UpdateStatus", mock.Anything, donation.ID, domain.DonationStatusPaid, mock.Anything).Return(nil)

		result, err := p.Process(context.Background(), unsigned)

		require.NoError(t, err)
		assert.Equal(t, ports.WebhookOutcomeTransitioned, result.Outcome)
		assert.True(t, deps.logger.Warned("Notification accepted without signature verification"))
	})

	t.Run("strict rejects", func(t *testing.T) {
		p, deps := setupProcessor(t, Config{RequireSignature: true})
		org := fixtures.NewOrganization().Build()
		donation := fixtures.NewDonation(org.ID).Build()
		expectKnownDonation(deps, org, donation)

		result, err := p.Process(context.Background(), unsigned)

		assert.ErrorIs(t, err, domain.ErrWebhookSignatureMismatch)
		assert.Equal(t, ports.WebhookOutcomeSignatureMismatch, result.Outcome)
		deps.events.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})
}

func TestProcess_MissingSecretLeniency(t *testing.T) {
	p, deps := setupProcessor(t, Config{})
	org := fixtures.NewOrganization().WithSecret("").Build()
	donation := fixtures.NewDonation(org.ID).Build()
	expectKnownDonation(deps, org, donation)
	deps.tx.On("WithTransaction", mock.Anything).Return(nil)
	deps.events.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
	deps.donations.On("GetByExternalRefForUpdate", mock.Anything, donation.ExternalRef).Return(donation, nil)
	deps.donations.On("UpdateStatus", mock.Anything, donation.ID, domain.DonationStatusPaid, mock.Anything).Return(nil)

	tampered := approvedNotification()
	tampered["amount"] = "1.00"
	result, err := p.Process(context.Background(), tampered)

	require.NoError(t, err)
	assert.Equal(t, ports.WebhookOutcomeTransitioned, result.Outcome)
}

func TestProcess_TerminalDonationIsNotChanged(t *testing.T) {
	p, deps := setupProcessor(t, Config{})
	org := fixtures.NewOrganization().Build()
	paid := fixtures.NewDonation(org.ID).WithStatus(domain.DonationStatusPaid).Build()
	expectKnownDonation(deps, org, paid)
	deps.tx.On("WithTransaction", mock.Anything).Return(nil)
	deps.events.On("Insert", mock.Anything, mock.Anything).Return(true, nil)
	deps.donations.On("GetByExternalRefForUpdate", mock.Anything, paid.ExternalRef).Return(paid, nil)

	result, err := p.Process(context.Background(), signed(paid.ExternalRef, "DECLINED"))

	require.NoError(t, err)
	assert.Equal(t, ports.WebhookOutcomeRecorded, result.Outcome)
	assert.Equal(t, domain.DonationStatusPaid, paid.Status)
	deps.events.AssertNumberOfCalls(t, "Insert", 1)
	deps.donations.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_LostInsertRaceIsDuplicate(t *testing.T) {
	p, deps := setupProcessor(t, Config{})
	org := fixtures.NewOrganization().Build()
	donation := fixtures.NewDonation(org.ID).Build()
	expectKnownDonation(deps, org, donation)
	deps.tx.On("WithTransaction", mock.Anything).Return(nil)
	deps.events.On("Insert", mock.Anything, mock.Anything).Return(false, nil)

	result, err := p.Process(context.Background(), approvedNotification())

	require.NoError(t, err)
	assert.Equal(t, ports.WebhookOutcomeDuplicate, result.Outcome)
	deps.donations.AssertNotCalled(t, "GetByExternalRefForUpdate", mock.Anything, mock.Anything)
}

func TestProcess_TransactionFailure(t *testing.T) {
	p, deps := setupProcessor(t, Config{})
	org := fixtures.NewOrganization().Build()
	donation := fixtures.NewDonation(org.ID).Build()
	expectKnownDonation(deps, org, donation)
	deps.tx.On("WithTransaction", mock.Anything).Return(errors.New("could not begin"))

	result, err := p.Process(context.Background(), approvedNotification())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, domain.ErrorCodeDatabaseError, domain.GetErrorCode(err))
}

func TestProcess_LedgerLookupFailure(t *testing.T) {
	p, deps := setupProcessor(t, Config{})
	deps.events.On("ExistsByPayloadHash", mock.Anything, mock.Anything).Return(false, errors.New("timeout"))

	_, err := p.Process(context.Background(), approvedNotification())

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeDatabaseError, domain.GetErrorCode(err))
}
