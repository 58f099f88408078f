package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalSecretManager_PutGetRotate(t *testing.T) {
	dir := t.TempDir()
	sm := NewLocalSecretManager(dir, zap.NewNop())
	ctx := context.Background()

	_, err := sm.GetSecret(ctx, "organizations/org-1/fiserv")
	require.ErrorIs(t, err, ports.ErrSecretNotFound)

	version, err := sm.PutSecret(ctx, "organizations/org-1/fiserv", "first", map[string]string{"env": "dev"})
	require.NoError(t, err)
	assert.Equal(t, "1", version)

	secret, err := sm.GetSecret(ctx, "organizations/org-1/fiserv")
	require.NoError(t, err)
	assert.Equal(t, "first", secret.Value)
	assert.Equal(t, "dev", secret.Metadata["env"])

	info, err := sm.RotateSecret(ctx, "organizations/org-1/fiserv", "second")
	require.NoError(t, err)
	assert.Equal(t, "2", info.CurrentVersion)
	assert.Equal(t, "1", info.PreviousVersion)

	info, err = sm.RotateSecret(ctx, "organizations/org-2/fiserv", "fresh")
	require.NoError(t, err)
	assert.Equal(t, "1", info.CurrentVersion)
	assert.Empty(t, info.PreviousVersion)
}

func TestLocalSecretManager_PlainTextFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain"), []byte("raw-secret\n"), 0600))

	secret, err := NewLocalSecretManager(dir, zap.NewNop()).GetSecret(context.Background(), "plain")
	require.NoError(t, err)
	assert.Equal(t, "raw-secret", secret.Value)
	assert.Equal(t, "1", secret.Version)
}

func TestLocalSecretManager_PathStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	sm := NewLocalSecretManager(dir, zap.NewNop())

	_, err := sm.PutSecret(context.Background(), "../../escape", "x", nil)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "escape"))
	assert.NoError(t, statErr, "traversal is clamped to the base directory")
}

func TestParseKVSecret(t *testing.T) {
	t.Run("v2 with metadata", func(t *testing.T) {
		secret, err := parseKVSecret("v2", map[string]interface{}{
			"data":     map[string]interface{}{"value": "s3cr3t", "organization_id": "org-1"},
			"metadata": map[string]interface{}{"created_time": "2026-01-01T00:00:00Z"},
		})
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t", secret.Value)
		assert.Equal(t, "org-1", secret.Metadata["organization_id"])
		assert.Equal(t, "2026-01-01T00:00:00Z", secret.CreatedAt)
	})

	t.Run("v1 flat", func(t *testing.T) {
		secret, err := parseKVSecret("v1", map[string]interface{}{"value": "flat"})
		require.NoError(t, err)
		assert.Equal(t, "flat", secret.Value)
		assert.Equal(t, "1", secret.Version)
	})

	t.Run("v2 missing data envelope", func(t *testing.T) {
		_, err := parseKVSecret("v2", map[string]interface{}{"value": "x"})
		require.Error(t, err)
	})

	t.Run("empty value", func(t *testing.T) {
		_, err := parseKVSecret("v1", map[string]interface{}{"other": "x"})
		require.Error(t, err)
	})
}

func TestKVDataPath(t *testing.T) {
	cfg := DefaultVaultConfig("http://127.0.0.1:8200")
	assert.Equal(t, "secret/data/etaca/org-1", kvDataPath(cfg, "etaca/org-1"))

	cfg.KVVersion = "v1"
	assert.Equal(t, "secret/etaca/org-1", kvDataPath(cfg, "etaca/org-1"))
}

func TestSecretCache_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newSecretCache(true, time.Minute)
	c.now = func() time.Time { return now }

	c.set("k", &ports.Secret{Value: "v"})
	require.NotNil(t, c.get("k"))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.get("k"))

	disabled := newSecretCache(false, time.Minute)
	disabled.set("k", &ports.Secret{Value: "v"})
	assert.Nil(t, disabled.get("k"))
}
