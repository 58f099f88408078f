package secrets

import (
	"context"
	"fmt"

	"github.com/kevin07696/etaca-service/internal/adapters/gcp"
	"github.com/kevin07696/etaca-service/internal/adapters/mock"
	"github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/kevin07696/etaca-service/internal/config"
	"go.uber.org/zap"
)

// Closer is implemented by backends holding a client connection
type Closer interface {
	Close() error
}

// New builds the secret manager selected by cfg.Backend. The returned Closer
// is nil for backends with nothing to release.
//
// Backends:
//   - local: JSON files under LOCAL_SECRETS_PATH (development)
//   - aws: AWS Secrets Manager
//   - ssm: AWS SSM Parameter Store SecureString parameters
//   - vault: HashiCorp Vault KV
//   - gcp: Google Cloud Secret Manager
//   - mock: in-memory, never in production
func New(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, Closer, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalSecretManager(cfg.LocalPath, logger), nil, nil

	case "aws":
		awsCfg := DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Profile = cfg.AWSProfile
		awsCfg.Endpoint = cfg.AWSEndpoint
		awsCfg.CacheTTL = cfg.CacheTTL
		sm, err := NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize AWS Secrets Manager: %w", err)
		}
		return sm, nil, nil

	case "ssm":
		sm, err := NewSSMParameterStoreAdapter(ctx, &SSMParameterStoreConfig{
			Region:      cfg.AWSRegion,
			Profile:     cfg.AWSProfile,
			Endpoint:    cfg.AWSEndpoint,
			KMSKeyID:    cfg.SSMKMSKeyID,
			CacheTTL:    cfg.CacheTTL,
			EnableCache: cfg.CacheTTL > 0,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize SSM Parameter Store: %w", err)
		}
		return sm, nil, nil

	case "vault":
		vaultCfg := DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.AuthMethod = cfg.VaultAuthMethod
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.RoleID = cfg.VaultRoleID
		vaultCfg.SecretID = cfg.VaultSecretID
		vaultCfg.K8sRole = cfg.VaultK8sRole
		vaultCfg.Namespace = cfg.VaultNamespace
		vaultCfg.MountPath = cfg.VaultMountPath
		vaultCfg.CacheTTL = cfg.CacheTTL
		sm, err := NewVaultAdapter(ctx, vaultCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize Vault: %w", err)
		}
		return sm, nil, nil

	case "gcp":
		gcpCfg := gcp.DefaultSecretManagerConfig(cfg.GCPProjectID)
		gcpCfg.CacheTTL = cfg.CacheTTL
		sm, err := gcp.NewGCPSecretManager(ctx, gcpCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize GCP Secret Manager: %w", err)
		}
		return sm, sm, nil

	case "mock":
		logger.Warn("Using in-memory mock secret manager, secrets are lost on restart")
		return mock.NewMockSecretManager(logger, nil), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown secret manager backend %q", cfg.Backend)
	}
}
