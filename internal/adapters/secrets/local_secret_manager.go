package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kevin07696/etaca-service/internal/adapters/ports"
	"go.uber.org/zap"
)

// localSecretManager implements SecretManagerAdapter using local filesystem
// WARNING: This is for development only. Use a remote backend in production.
type localSecretManager struct {
	basePath string
	logger   *zap.Logger
}

type localSecretFile struct {
	Value     string            `json:"value"`
	Version   int               `json:"version"`
	Tags      map[string]string `json:"tags,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewLocalSecretManager creates a new local filesystem secret manager
func NewLocalSecretManager(basePath string, logger *zap.Logger) ports.SecretManagerAdapter {
	return &localSecretManager{
		basePath: basePath,
		logger:   logger,
	}
}

// resolve keeps secret paths inside basePath
func (m *localSecretManager) resolve(secretPath string) (string, error) {
	clean := filepath.Clean("/" + secretPath)
	full := filepath.Join(m.basePath, clean)
	if !strings.HasPrefix(full, filepath.Clean(m.basePath)+string(filepath.Separator)) {
		return "", fmt.Errorf("secret path escapes base directory: %s", secretPath)
	}
	return full, nil
}

// GetSecret reads a JSON secret file, or a plain text file as version 1
func (m *localSecretManager) GetSecret(ctx context.Context, secretPath string) (*ports.Secret, error) {
	filePath, err := m.resolve(secretPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	var file localSecretFile
	if err := json.Unmarshal(data, &file); err == nil && file.Value != "" {
		return &ports.Secret{
			Value:     file.Value,
			Version:   strconv.Itoa(file.Version),
			Metadata:  file.Tags,
			CreatedAt: file.CreatedAt.Format(time.RFC3339),
		}, nil
	}

	return &ports.Secret{
		Value:   strings.TrimRight(string(data), "\r\n"),
		Version: "1",
	}, nil
}

// PutSecret stores the secret as JSON and bumps the version
func (m *localSecretManager) PutSecret(ctx context.Context, secretPath, secretValue string, tags map[string]string) (string, error) {
	filePath, err := m.resolve(secretPath)
	if err != nil {
		return "", err
	}

	version := 1
	if current, err := m.GetSecret(ctx, secretPath); err == nil {
		if v, convErr := strconv.Atoi(current.Version); convErr == nil {
			version = v + 1
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(localSecretFile{
		Value:     secretValue,
		Version:   version,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal secret: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write secret: %w", err)
	}

	m.logger.Info("Stored secret on filesystem",
		zap.String("path", secretPath),
		zap.Int("version", version),
	)
	return strconv.Itoa(version), nil
}

// RotateSecret writes a new version of the file
func (m *localSecretManager) RotateSecret(ctx context.Context, secretPath, newValue string) (*ports.SecretRotationInfo, error) {
	return rotateWith(ctx, m, secretPath, newValue)
}
