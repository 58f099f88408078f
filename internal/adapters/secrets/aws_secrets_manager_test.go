package secrets

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSecretsManagerClient struct {
	values      map[string]string
	versions    map[string]int
	createdTags []types.Tag
	getErr      error
}

func newMockSecretsManagerClient() *mockSecretsManagerClient {
	return &mockSecretsManagerClient{
		values:   make(map[string]string),
		versions: make(map[string]int),
	}
}

func (m *mockSecretsManagerClient) GetSecretValue(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	id := aws.ToString(params.SecretId)
	value, ok := m.values[id]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("missing")}
	}
	return &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(value),
		VersionId:    aws.String(versionID(m.versions[id])),
		ARN:          aws.String("arn:aws:secretsmanager:eu-central-1:000:secret:" + id),
	}, nil
}

func (m *mockSecretsManagerClient) PutSecretValue(_ context.Context, params *secretsmanager.PutSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	id := aws.ToString(params.SecretId)
	if _, ok := m.values[id]; !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("missing")}
	}
	m.values[id] = aws.ToString(params.SecretString)
	m.versions[id]++
	return &secretsmanager.PutSecretValueOutput{VersionId: aws.String(versionID(m.versions[id]))}, nil
}

func (m *mockSecretsManagerClient) CreateSecret(_ context.Context, params *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	id := aws.ToString(params.Name)
	m.values[id] = aws.ToString(params.SecretString)
	m.versions[id] = 1
	m.createdTags = params.Tags
	return &secretsmanager.CreateSecretOutput{VersionId: aws.String(versionID(1))}, nil
}

func versionID(n int) string {
	return "v" + strconv.Itoa(n)
}

func TestAWSSecretsManager_PutCreatesMissingSecret(t *testing.T) {
	client := newMockSecretsManagerClient()
	adapter := NewAWSSecretsManagerAdapterWithClient(client, &AWSSecretsManagerConfig{}, zap.NewNop())
	ctx := context.Background()

	version, err := adapter.PutSecret(ctx, "etaca/organizations/org-1/fiserv", "s3cr3t", map[string]string{"organization_id": "org-1"})
	require.NoError(t, err)
	assert.Equal(t, "v1", version)
	require.Len(t, client.createdTags, 1)
	assert.Equal(t, "organization_id", aws.ToString(client.createdTags[0].Key))

	secret, err := adapter.GetSecret(ctx, "etaca/organizations/org-1/fiserv")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", secret.Value)
	assert.Contains(t, secret.Metadata["arn"], "org-1")
}

func TestAWSSecretsManager_GetSecretNotFound(t *testing.T) {
	adapter := NewAWSSecretsManagerAdapterWithClient(newMockSecretsManagerClient(), &AWSSecretsManagerConfig{}, zap.NewNop())

	_, err := adapter.GetSecret(context.Background(), "missing")
	require.ErrorIs(t, err, ports.ErrSecretNotFound)
}

func TestAWSSecretsManager_Rotate(t *testing.T) {
	client := newMockSecretsManagerClient()
	client.values["p"] = "old"
	client.versions["p"] = 1
	adapter := NewAWSSecretsManagerAdapterWithClient(client, DefaultAWSSecretsManagerConfig("eu-central-1"), zap.NewNop())
	ctx := context.Background()

	info, err := adapter.RotateSecret(ctx, "p", "new")
	require.NoError(t, err)
	assert.Equal(t, "v1", info.PreviousVersion)
	assert.Equal(t, "v2", info.CurrentVersion)

	secret, err := adapter.GetSecret(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "new", secret.Value)
}

func TestAWSSecretsManager_RotatePropagatesReadFailure(t *testing.T) {
	client := newMockSecretsManagerClient()
	client.getErr = errors.New("access denied")
	adapter := NewAWSSecretsManagerAdapterWithClient(client, &AWSSecretsManagerConfig{}, zap.NewNop())

	_, err := adapter.RotateSecret(context.Background(), "p", "new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get current secret")
}
