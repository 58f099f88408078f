package ports

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned when no secret exists at a path
var ErrSecretNotFound = errors.New("secret not found")

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The Fiserv shared secret
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretRotationInfo contains information about secret rotation
type SecretRotationInfo struct {
	CurrentVersion  string // Currently active version
	PreviousVersion string // Previous version, empty on first write
}

// SecretManagerAdapter stores per-organization gateway secrets outside the
// database. Backends: AWS Secrets Manager, AWS SSM Parameter Store, GCP
// Secret Manager, HashiCorp Vault, local files.
//
// Path format depends on implementation:
//   - AWS / SSM: "etaca/organizations/{organization_id}/fiserv"
//   - GCP: secret id, resolved under the configured project
//   - Vault: "secret/data/etaca/organizations/{organization_id}"
type SecretManagerAdapter interface {
	// GetSecret retrieves the latest version of a secret. Implementations may
	// cache values for a short TTL.
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// PutSecret creates or updates a secret and returns the new version
	PutSecret(ctx context.Context, path string, value string, metadata map[string]string) (version string, err error)

	// RotateSecret writes a new version and reports the version it replaced
	RotateSecret(ctx context.Context, path string, newValue string) (*SecretRotationInfo, error)
}
