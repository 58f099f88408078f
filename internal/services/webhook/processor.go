package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	adapterports "github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
	"github.com/kevin07696/etaca-service/internal/services/credentials"
	"github.com/kevin07696/etaca-service/pkg/observability"
	"github.com/kevin07696/etaca-service/pkg/timeutil"
)

// Notification field names read by the processor
const (
	fieldOrderID = "oid"
	fieldStatus  = "status"
)

// Config controls signature strictness
type Config struct {
	// RequireSignature rejects notifications that could not be verified
	// because the hash or the organization secret is absent. When false such
	// notifications are accepted with a warning.
	RequireSignature bool
}

// processor implements ports.WebhookProcessor
type processor struct {
	config        Config
	tx            ports.TransactionManager
	organizations ports.OrganizationRepository
	donations     ports.DonationRepository
	events        ports.WebhookEventRepository
	credentials   *credentials.Resolver
	gateway       adapterports.HostedPaymentGateway
	logger        ports.Logger
	now           timeutil.Clock
}

// NewProcessor creates the gateway notification processor
func NewProcessor(
	config Config,
	tx ports.TransactionManager,
	organizations ports.OrganizationRepository,
	donations ports.DonationRepository,
	events ports.WebhookEventRepository,
	resolver *credentials.Resolver,
	gateway adapterports.HostedPaymentGateway,
	logger ports.Logger,
) ports.WebhookProcessor {
	return &processor{
		config:        config,
		tx:            tx,
		organizations: organizations,
		donations:     donations,
		events:        events,
		credentials:   resolver,
		gateway:       gateway,
		logger:        logger,
		now:           timeutil.Now,
	}
}

// Process applies one notification
func (p *processor) Process(ctx context.Context, fields map[string]string) (*ports.WebhookResult, error) {
	start := time.Now()
	result, err := p.process(ctx, fields)

	outcome := "error"
	if result != nil {
		outcome = string(result.Outcome)
	}
	observability.RecordWebhookNotification(outcome, time.Since(start).Seconds())
	return result, err
}

func (p *processor) process(ctx context.Context, fields map[string]string) (*ports.WebhookResult, error) {
	ref := strings.TrimSpace(fields[fieldOrderID])
	if ref == "" {
		p.logger.Warn("Notification without order id ignored")
		return &ports.WebhookResult{Outcome: ports.WebhookOutcomeMissingReference}, nil
	}

	raw, payloadHash, err := CanonicalPayload(fields)
	if err != nil {
		return nil, err
	}

	seen, err := p.events.ExistsByPayloadHash(ctx, nil, payloadHash)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to check webhook ledger", err)
	}
	if seen {
		p.logger.Info("Duplicate notification acknowledged", ports.ExternalRef(ref))
		return &ports.WebhookResult{Outcome: ports.WebhookOutcomeDuplicate, ExternalRef: ref, Handled: true}, nil
	}

	donation, err := p.donations.GetByExternalRef(ctx, nil, ref)
	if err != nil {
		if errors.Is(err, domain.ErrDonationNotFound) {
			p.logger.Warn("Notification for unknown donation ignored", ports.ExternalRef(ref))
			return &ports.WebhookResult{Outcome: ports.WebhookOutcomeUnknownDonation, ExternalRef: ref}, nil
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to load donation", err)
	}

	org, err := p.organizations.GetByID(ctx, nil, donation.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization of donation %s: %w", ref, err)
	}
	creds, err := p.credentials.Resolve(ctx, org)
	if err != nil {
		return nil, err
	}

	verdict := p.gateway.VerifyNotification(fields, creds)
	observability.RecordSignatureVerification(string(verdict))
	if verdict == adapterports.SignatureMismatch || (verdict.Skipped() && p.config.RequireSignature) {
		p.logger.Warn("Notification rejected",
			ports.ExternalRef(ref),
			ports.OrganizationID(org.ID),
			ports.String("verdict", string(verdict)),
		)
		return &ports.WebhookResult{Outcome: ports.WebhookOutcomeSignatureMismatch, ExternalRef: ref},
			domain.NewDomainError(domain.ErrorCodeWebhookSignatureMismatch, domain.ErrWebhookSignatureMismatch.Message).
				WithDetail("external_ref", ref).
				WithDetail("verdict", string(verdict))
	}
	if verdict.Skipped() {
		p.logger.Warn("Notification accepted without signature verification",
			ports.ExternalRef(ref),
			ports.OrganizationID(org.ID),
			ports.String("verdict", string(verdict)),
		)
	}

	receivedAt := p.now()
	event := &domain.WebhookEvent{
		ID:          uuid.NewString(),
		Provider:    domain.WebhookProviderFiserv,
		ExternalRef: ref,
		PayloadHash: payloadHash,
		RawPayload:  raw,
		Status:      strings.ToValidUTF8(fields[fieldStatus], "\uFFFD"),
		Processed:   true,
		ReceivedAt:  receivedAt,
	}
	target, moves := MapGatewayStatus(fields[fieldStatus])

	result := &ports.WebhookResult{ExternalRef: ref, Handled: true}
	var transitioned *domain.Donation

	err = p.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		inserted, err := p.events.Insert(ctx, tx, event)
		if err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}
		if !inserted {
			result.Outcome = ports.WebhookOutcomeDuplicate
			return nil
		}

		result.Outcome = ports.WebhookOutcomeRecorded
		if !moves {
			return nil
		}

		locked, err := p.donations.GetByExternalRefForUpdate(ctx, tx, ref)
		if err != nil {
			return err
		}
		if locked.IsTerminal() {
			return nil
		}
		if err := locked.TransitionTo(target, receivedAt); err != nil {
			return err
		}
		if err := p.donations.UpdateStatus(ctx, tx, locked.ID, locked.Status, locked.PaidAt); err != nil {
			return err
		}

		result.Outcome = ports.WebhookOutcomeTransitioned
		result.NewStatus = locked.Status
		transitioned = locked
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "failed to apply notification", err)
	}

	switch result.Outcome {
	case ports.WebhookOutcomeTransitioned:
		observability.RecordDonationTransition(string(transitioned.Status), transitioned.Currency, transitioned.Amount.Shift(2).IntPart())
		p.logger.Info("Donation status updated",
			ports.ExternalRef(ref),
			ports.OrganizationID(org.ID),
			ports.String("status", string(transitioned.Status)),
		)
	case ports.WebhookOutcomeDuplicate:
		p.logger.Info("Concurrent duplicate notification acknowledged", ports.ExternalRef(ref))
	default:
		p.logger.Info("Notification recorded without status change",
			ports.ExternalRef(ref),
			ports.String("gateway_status", fields[fieldStatus]),
			ports.String("donation_status", string(donation.Status)),
		)
	}
	return result, nil
}
