package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	adapterports "github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
)

// Resolver builds the gateway credentials of an organization. The shared
// secret is read from the secret manager when the organization references a
// path, otherwise the inline column is used.
type Resolver struct {
	secretManager adapterports.SecretManagerAdapter
	logger        ports.Logger
}

// NewResolver creates a resolver. secretManager may be nil when every
// organization stores its secret inline.
func NewResolver(secretManager adapterports.SecretManagerAdapter, logger ports.Logger) *Resolver {
	return &Resolver{
		secretManager: secretManager,
		logger:        logger,
	}
}

// Resolve returns whatever credentials the organization has. A referenced
// secret that does not exist yields an empty Secret, callers decide whether
// that is acceptable.
func (r *Resolver) Resolve(ctx context.Context, org *domain.Organization) (domain.PaymentCredentials, error) {
	creds := domain.PaymentCredentials{
		StoreID: strings.TrimSpace(org.FiservStoreID),
		Secret:  org.FiservSecret,
	}

	path := strings.TrimSpace(org.FiservSecretPath)
	if path == "" {
		return creds, nil
	}
	if r.secretManager == nil {
		return creds, domain.WrapError(domain.ErrorCodeOrganizationCredentialsMissing,
			domain.ErrOrganizationCredentialsMissing.Message,
			fmt.Errorf("organization %s references secret %q but no secret manager is configured", org.ID, path))
	}

	secret, err := r.secretManager.GetSecret(ctx, path)
	if err != nil {
		if errors.Is(err, adapterports.ErrSecretNotFound) {
			r.logger.Warn("Organization secret reference not found",
				ports.OrganizationID(org.ID),
				ports.String("secret_path", path),
			)
			return creds, nil
		}
		return creds, domain.WrapError(domain.ErrorCodeInternalError, "failed to load organization secret", err)
	}

	creds.Secret = secret.Value
	return creds, nil
}

// RequireComplete resolves credentials and fails unless both store id and
// secret are present
func (r *Resolver) RequireComplete(ctx context.Context, org *domain.Organization) (domain.PaymentCredentials, error) {
	creds, err := r.Resolve(ctx, org)
	if err != nil {
		return creds, err
	}
	if creds.StoreID == "" || !creds.HasSecret() {
		return creds, domain.NewDomainError(domain.ErrorCodeOrganizationCredentialsMissing,
			domain.ErrOrganizationCredentialsMissing.Message).
			WithDetail("organization_id", org.ID)
	}
	return creds, nil
}
