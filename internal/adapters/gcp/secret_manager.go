package gcp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/kevin07696/etaca-service/internal/adapters/ports"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SecretManagerConfig contains configuration for GCP Secret Manager
type SecretManagerConfig struct {
	ProjectID string        // GCP Project ID (e.g., "etaca-prod")
	CacheTTL  time.Duration // How long to cache secrets in memory (default: 5 minutes)
}

// DefaultSecretManagerConfig returns sensible defaults for GCP Secret Manager
func DefaultSecretManagerConfig(projectID string) *SecretManagerConfig {
	return &SecretManagerConfig{
		ProjectID: projectID,
		CacheTTL:  5 * time.Minute,
	}
}

type cachedSecret struct {
	secret    *ports.Secret
	expiresAt time.Time
}

// GCPSecretManager implements ports.SecretManagerAdapter for Google Cloud Secret Manager
// The cache is per instance and is never shared across replicas.
type GCPSecretManager struct {
	client    *secretmanager.Client
	projectID string
	cacheTTL  time.Duration
	logger    *zap.Logger

	cache   map[string]*cachedSecret
	cacheMu sync.RWMutex
}

// NewGCPSecretManager creates a new GCP Secret Manager adapter.
// Credentials come from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS env var pointing to service account JSON
//   - Or workload identity in GKE
//   - Or default application credentials
func NewGCPSecretManager(ctx context.Context, config *SecretManagerConfig, logger *zap.Logger) (*GCPSecretManager, error) {
	if config.ProjectID == "" {
		return nil, fmt.Errorf("GCP project ID is required")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
	}

	logger.Info("GCP Secret Manager initialized",
		zap.String("project_id", config.ProjectID),
		zap.Duration("cache_ttl", config.CacheTTL),
	)

	return &GCPSecretManager{
		client:    client,
		projectID: config.ProjectID,
		cacheTTL:  config.CacheTTL,
		logger:    logger,
		cache:     make(map[string]*cachedSecret),
	}, nil
}

// Close closes the GCP Secret Manager client
func (sm *GCPSecretManager) Close() error {
	return sm.client.Close()
}

// GetSecret retrieves the latest version of a secret.
// Path "etaca-org-{id}-fiserv" maps to projects/{project}/secrets/{path}/versions/latest
func (sm *GCPSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	sm.cacheMu.RLock()
	cached, exists := sm.cache[path]
	sm.cacheMu.RUnlock()

	if exists && time.Now().Before(cached.expiresAt) {
		return cached.secret, nil
	}

	secretName := latestVersionName(sm.projectID, path)
	result, err := sm.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, path)
		}
		sm.logger.Error("Failed to access GCP secret",
			zap.String("path", path),
			zap.String("secret_name", secretName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to access GCP secret %s: %w", path, err)
	}

	secret := &ports.Secret{
		Value:   string(result.GetPayload().GetData()),
		Version: extractVersionFromName(result.GetName()),
		Metadata: map[string]string{
			"gcp_project_id": sm.projectID,
			"gcp_secret":     path,
		},
	}

	if sm.cacheTTL > 0 {
		sm.cacheMu.Lock()
		sm.cache[path] = &cachedSecret{
			secret:    secret,
			expiresAt: time.Now().Add(sm.cacheTTL),
		}
		sm.cacheMu.Unlock()
	}

	sm.logger.Debug("Secret fetched from GCP",
		zap.String("path", path),
		zap.String("version", secret.Version),
	)

	return secret, nil
}

// PutSecret adds a version, creating the secret with automatic replication
// when it does not exist yet. Metadata becomes secret labels.
func (sm *GCPSecretManager) PutSecret(ctx context.Context, path string, value string, metadata map[string]string) (string, error) {
	defer sm.invalidate(path)

	addReq := &secretmanagerpb.AddSecretVersionRequest{
		Parent: fmt.Sprintf("projects/%s/secrets/%s", sm.projectID, path),
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(value),
		},
	}

	result, err := sm.client.AddSecretVersion(ctx, addReq)
	if err != nil {
		if !isNotFound(err) {
			return "", fmt.Errorf("failed to add version to GCP secret %s: %w", path, err)
		}

		_, err := sm.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", sm.projectID),
			SecretId: path,
			Secret: &secretmanagerpb.Secret{
				Labels: labelsFromMetadata(metadata),
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{
						Automatic: &secretmanagerpb.Replication_Automatic{},
					},
				},
			},
		})
		if err != nil {
			return "", fmt.Errorf("failed to create GCP secret %s: %w", path, err)
		}

		result, err = sm.client.AddSecretVersion(ctx, addReq)
		if err != nil {
			return "", fmt.Errorf("failed to add version to GCP secret %s: %w", path, err)
		}
	}

	version := extractVersionFromName(result.GetName())
	sm.logger.Info("Secret written to GCP",
		zap.String("path", path),
		zap.String("version", version),
	)
	return version, nil
}

// RotateSecret adds a new version. Old versions stay accessible in GCP.
func (sm *GCPSecretManager) RotateSecret(ctx context.Context, path string, newValue string) (*ports.SecretRotationInfo, error) {
	var previous string
	current, err := sm.GetSecret(ctx, path)
	if err == nil {
		previous = current.Version
	}

	newVersion, err := sm.PutSecret(ctx, path, newValue, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new secret version: %w", err)
	}

	return &ports.SecretRotationInfo{
		CurrentVersion:  newVersion,
		PreviousVersion: previous,
	}, nil
}

func (sm *GCPSecretManager) invalidate(path string) {
	sm.cacheMu.Lock()
	delete(sm.cache, path)
	sm.cacheMu.Unlock()
}

func latestVersionName(projectID, path string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, path)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// labelsFromMetadata lowercases keys and values, GCP labels reject uppercase
func labelsFromMetadata(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	labels := make(map[string]string, len(metadata))
	for k, v := range metadata {
		labels[strings.ToLower(k)] = strings.ToLower(v)
	}
	return labels
}

// extractVersionFromName extracts the version from
// projects/{project}/secrets/{secret}/versions/{version}
func extractVersionFromName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return "unknown"
}
