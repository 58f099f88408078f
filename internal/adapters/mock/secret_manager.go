package mock

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/kevin07696/etaca-service/internal/adapters/ports"
	"go.uber.org/zap"
)

// MockSecretManager is an in-memory secret store for local development and tests.
// Versions are monotonically increasing integers per path.
type MockSecretManager struct {
	logger *zap.Logger

	mu      sync.RWMutex
	secrets map[string][]string
}

// NewMockSecretManager creates a new mock secret manager, optionally pre-seeded
// with path -> value pairs at version 1.
func NewMockSecretManager(logger *zap.Logger, seed map[string]string) *MockSecretManager {
	m := &MockSecretManager{
		logger:  logger,
		secrets: make(map[string][]string, len(seed)),
	}
	for path, value := range seed {
		m.secrets[path] = []string{value}
	}
	return m
}

// GetSecret returns the latest version stored at path
func (m *MockSecretManager) GetSecret(ctx context.Context, secretPath string) (*ports.Secret, error) {
	m.mu.RLock()
	versions := m.secrets[secretPath]
	m.mu.RUnlock()

	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, secretPath)
	}

	m.logger.Warn("Using mock secret manager - NOT for production use",
		zap.String("secret_path", secretPath),
	)

	return &ports.Secret{
		Value:    versions[len(versions)-1],
		Version:  strconv.Itoa(len(versions)),
		Metadata: map[string]string{"source": "memory"},
	}, nil
}

// PutSecret appends a new version
func (m *MockSecretManager) PutSecret(ctx context.Context, secretPath, value string, metadata map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.secrets[secretPath] = append(m.secrets[secretPath], value)
	return strconv.Itoa(len(m.secrets[secretPath])), nil
}

// RotateSecret appends a new version and reports the previous one
func (m *MockSecretManager) RotateSecret(ctx context.Context, secretPath, newValue string) (*ports.SecretRotationInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var previous string
	if n := len(m.secrets[secretPath]); n > 0 {
		previous = strconv.Itoa(n)
	}
	m.secrets[secretPath] = append(m.secrets[secretPath], newValue)

	return &ports.SecretRotationInfo{
		CurrentVersion:  strconv.Itoa(len(m.secrets[secretPath])),
		PreviousVersion: previous,
	}, nil
}

var _ ports.SecretManagerAdapter = (*MockSecretManager)(nil)
