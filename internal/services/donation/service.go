package donation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	adapterports "github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
	"github.com/kevin07696/etaca-service/internal/services/credentials"
	"github.com/kevin07696/etaca-service/pkg/observability"
	"github.com/kevin07696/etaca-service/pkg/resilience"
	"github.com/shopspring/decimal"
)

// Config holds the URLs embedded into every checkout form
type Config struct {
	// Donor-facing frontend, e.g. https://etaca.pl
	FrontendBaseURL string
	SuccessPath     string
	FailPath        string

	// Public base of this API and the notification route under it
	PublicAPIBaseURL string
	NotificationPath string

	// Attempts at persisting with a fresh external reference
	MaxReferenceAttempts int
	ReferenceBackoff     resilience.BackoffStrategy
}

// DefaultConfig returns the URL layout of the e-Taca frontend
func DefaultConfig(frontendBaseURL, publicAPIBaseURL, notificationPath string) *Config {
	return &Config{
		FrontendBaseURL:      frontendBaseURL,
		SuccessPath:          "/platnosc/sukces",
		FailPath:             "/platnosc/blad",
		PublicAPIBaseURL:     publicAPIBaseURL,
		NotificationPath:     notificationPath,
		MaxReferenceAttempts: 3,
		ReferenceBackoff:     resilience.ReferenceRetryBackoff(),
	}
}

// service implements ports.DonationService
type service struct {
	config        *Config
	organizations ports.OrganizationRepository
	goals         ports.GoalRepository
	donations     ports.DonationRepository
	credentials   *credentials.Resolver
	gateway       adapterports.HostedPaymentGateway
	references    *ReferenceGenerator
	logger        ports.Logger
}

// NewService creates the donation initiator
func NewService(
	config *Config,
	organizations ports.OrganizationRepository,
	goals ports.GoalRepository,
	donations ports.DonationRepository,
	resolver *credentials.Resolver,
	gateway adapterports.HostedPaymentGateway,
	references *ReferenceGenerator,
	logger ports.Logger,
) ports.DonationService {
	if config.MaxReferenceAttempts < 1 {
		config.MaxReferenceAttempts = 1
	}
	if references == nil {
		references = NewReferenceGenerator()
	}
	return &service{
		config:        config,
		organizations: organizations,
		goals:         goals,
		donations:     donations,
		credentials:   resolver,
		gateway:       gateway,
		references:    references,
		logger:        logger,
	}
}

// Initiate validates the request, persists a pending donation and signs the
// checkout form
func (s *service) Initiate(ctx context.Context, req ports.InitiateDonationRequest) (*ports.InitiateDonationResult, error) {
	result, err := s.initiate(ctx, req)
	if err != nil {
		label := "failed"
		if domain.IsValidationError(err) || domain.IsNotFoundError(err) ||
			domain.IsInvalidOperationError(err) || domain.IsConfigurationError(err) {
			label = "rejected"
		}
		observability.RecordDonationInitiated(label, domain.CurrencyPLN, 0)
		return nil, err
	}
	return result, nil
}

func (s *service) initiate(ctx context.Context, req ports.InitiateDonationRequest) (*ports.InitiateDonationResult, error) {
	// The range check sees the raw amount so nothing above the ceiling can
	// round down into it
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	amount := req.Amount.Round(2)
	email := strings.TrimSpace(req.DonorEmail)
	name := strings.TrimSpace(req.DonorName)
	utm := domain.UTM{
		Source:   strings.TrimSpace(req.UTM.Source),
		Medium:   strings.TrimSpace(req.UTM.Medium),
		Campaign: strings.TrimSpace(req.UTM.Campaign),
	}

	if err := validateRequest(amount, email, name, utm); err != nil {
		return nil, err
	}

	org, err := s.organizations.GetByID(ctx, nil, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !org.IsActive() {
		return nil, domain.NewDomainError(domain.ErrorCodeOrganizationInactive, domain.ErrOrganizationInactive.Message).
			WithDetail("organization_id", org.ID)
	}
	if !org.HasStoreID() || !org.HasSecretSource() {
		return nil, domain.NewDomainError(domain.ErrorCodeOrganizationCredentialsMissing, domain.ErrOrganizationCredentialsMissing.Message).
			WithDetail("organization_id", org.ID)
	}

	var goalID *string
	if trimmed := strings.TrimSpace(req.GoalID); trimmed != "" {
		goal, err := s.goals.GetByID(ctx, nil, trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to load goal: %w", err)
		}
		if !goal.AcceptsDonationsFor(org.ID) {
			return nil, domain.NewDomainError(domain.ErrorCodeGoalUnavailable, domain.ErrGoalUnavailable.Message).
				WithDetail("goal_id", trimmed)
		}
		goalID = &goal.ID
	}

	creds, err := s.credentials.RequireComplete(ctx, org)
	if err != nil {
		return nil, err
	}

	donation := &domain.Donation{
		ID:             uuid.NewString(),
		OrganizationID: org.ID,
		GoalID:         goalID,
		DonorEmail:     email,
		DonorName:      name,
		UTM:            utm,
		Amount:         amount,
		Currency:       domain.CurrencyPLN,
		Status:         domain.DonationStatusPending,
		Consent:        req.Consent,
	}
	if err := s.persistWithFreshReference(ctx, donation); err != nil {
		return nil, err
	}

	form, err := s.gateway.BuildCheckoutForm(creds, adapterports.CheckoutParams{
		Amount:          donation.Amount,
		OrderID:         donation.ExternalRef,
		SuccessURL:      s.frontendURL(s.config.SuccessPath, donation.ExternalRef),
		FailURL:         s.frontendURL(s.config.FailPath, donation.ExternalRef),
		NotificationURL: strings.TrimRight(s.config.PublicAPIBaseURL, "/") + s.config.NotificationPath,
		DonorEmail:      donation.DonorEmail,
		DonorName:       donation.DonorName,
	})
	if err != nil {
		s.logger.Error("Failed to build checkout form",
			ports.ExternalRef(donation.ExternalRef),
			ports.OrganizationID(org.ID),
			ports.Err(err),
		)
		return nil, err
	}

	observability.RecordDonationInitiated("created", donation.Currency, donation.Amount.Shift(2).IntPart())
	s.logger.Info("Donation initiated",
		ports.ExternalRef(donation.ExternalRef),
		ports.OrganizationID(org.ID),
		ports.String("donation_id", donation.ID),
		ports.String("amount", donation.Amount.StringFixed(2)),
	)

	return &ports.InitiateDonationResult{
		ExternalRef: donation.ExternalRef,
		FormHTML:    form.HTML,
		DonationID:  donation.ID,
	}, nil
}

// persistWithFreshReference inserts the donation, regenerating the external
// reference whenever the unique constraint rejects it
func (s *service) persistWithFreshReference(ctx context.Context, donation *domain.Donation) error {
	var lastErr error
	for attempt := 0; attempt < s.config.MaxReferenceAttempts; attempt++ {
		if attempt > 0 && s.config.ReferenceBackoff != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.config.ReferenceBackoff.NextDelay(attempt - 1)):
			}
		}

		donation.ExternalRef = s.references.Next()
		err := s.donations.Create(ctx, nil, donation)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDonationReferenceConflict) {
			return domain.WrapError(domain.ErrorCodeDatabaseError, "failed to create donation", err)
		}

		lastErr = err
		observability.RecordReferenceConflict()
		s.logger.Warn("External reference collision, regenerating",
			ports.ExternalRef(donation.ExternalRef),
			ports.Int("attempt", attempt+1),
		)
	}
	return domain.WrapError(domain.ErrorCodeDatabaseError, "could not allocate a unique external reference", lastErr)
}

func (s *service) frontendURL(path, externalRef string) string {
	u := strings.TrimRight(s.config.FrontendBaseURL, "/") + path
	return u + "?" + url.Values{"oid": []string{externalRef}}.Encode()
}

// GetByExternalRef returns the current donation state for the status page
func (s *service) GetByExternalRef(ctx context.Context, externalRef string) (*domain.Donation, error) {
	externalRef = strings.TrimSpace(externalRef)
	if externalRef == "" {
		return nil, domain.ErrDonationNotFound
	}
	return s.donations.GetByExternalRef(ctx, nil, externalRef)
}

func validateRequest(amount decimal.Decimal, email, name string, utm domain.UTM) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}
	if err := domain.ValidateMaxLength("donor_name", name, domain.MaxNameLength); err != nil {
		return err
	}
	for field, value := range map[string]string{
		"utm_source":   utm.Source,
		"utm_medium":   utm.Medium,
		"utm_campaign": utm.Campaign,
	} {
		if err := domain.ValidateMaxLength(field, value, domain.MaxUTMLength); err != nil {
			return err
		}
	}
	return nil
}
