package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSSMClient struct {
	getParameterFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	putParameterFunc func(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	getCalls         int
}

func (m *mockSSMClient) GetParameter(
	ctx context.Context,
	params *ssm.GetParameterInput,
	optFns ...func(*ssm.Options),
) (*ssm.GetParameterOutput, error) {
	m.getCalls++
	if m.getParameterFunc != nil {
		return m.getParameterFunc(ctx, params, optFns...)
	}
	return &ssm.GetParameterOutput{}, nil
}

func (m *mockSSMClient) PutParameter(
	ctx context.Context,
	params *ssm.PutParameterInput,
	optFns ...func(*ssm.Options),
) (*ssm.PutParameterOutput, error) {
	if m.putParameterFunc != nil {
		return m.putParameterFunc(ctx, params, optFns...)
	}
	return &ssm.PutParameterOutput{}, nil
}

func TestNewSSMParameterStoreAdapterWithClient_NilClient(t *testing.T) {
	adapter, err := NewSSMParameterStoreAdapterWithClient(nil, &SSMParameterStoreConfig{}, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ssm client is required")
	assert.Nil(t, adapter)
}

func TestSSMParameterStore_GetSecret(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		getFunc     func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
		wantValue   string
		wantVersion string
		wantErr     error
		errMsg      string
	}{
		"decrypted value": {
			getFunc: func(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				if !aws.ToBool(params.WithDecryption) {
					return nil, errors.New("decryption not requested")
				}
				return &ssm.GetParameterOutput{
					Parameter: &types.Parameter{
						Value:   aws.String("s3cr3t"),
						Version: 3,
						Type:    types.ParameterTypeSecureString,
					},
				}, nil
			},
			wantValue:   "s3cr3t",
			wantVersion: "3",
		},
		"parameter not found": {
			getFunc: func(context.Context, *ssm.GetParameterInput, ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return nil, &types.ParameterNotFound{Message: aws.String("nope")}
			},
			wantErr: ports.ErrSecretNotFound,
		},
		"nil parameter": {
			getFunc: func(context.Context, *ssm.GetParameterInput, ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return &ssm.GetParameterOutput{}, nil
			},
			wantErr: ports.ErrSecretNotFound,
		},
		"api error": {
			getFunc: func(context.Context, *ssm.GetParameterInput, ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return nil, errors.New("throttled")
			},
			errMsg: "getting parameter from SSM",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			adapter, err := NewSSMParameterStoreAdapterWithClient(
				&mockSSMClient{getParameterFunc: tc.getFunc},
				&SSMParameterStoreConfig{},
				zap.NewNop(),
			)
			require.NoError(t, err)

			secret, err := adapter.GetSecret(context.Background(), "/etaca/organizations/org-1/fiserv")

			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
			case tc.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.wantValue, secret.Value)
				assert.Equal(t, tc.wantVersion, secret.Version)
			}
		})
	}
}

func TestSSMParameterStore_CachesUntilWrite(t *testing.T) {
	client := &mockSSMClient{
		getParameterFunc: func(context.Context, *ssm.GetParameterInput, ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
			return &ssm.GetParameterOutput{
				Parameter: &types.Parameter{Value: aws.String("v"), Version: 1},
			}, nil
		},
		putParameterFunc: func(_ context.Context, params *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
			assert.Equal(t, types.ParameterTypeSecureString, params.Type)
			assert.True(t, aws.ToBool(params.Overwrite))
			assert.Equal(t, "alias/etaca", aws.ToString(params.KeyId))
			return &ssm.PutParameterOutput{Version: 2}, nil
		},
	}

	adapter, err := NewSSMParameterStoreAdapterWithClient(client, &SSMParameterStoreConfig{
		KMSKeyID:    "alias/etaca",
		EnableCache: true,
		CacheTTL:    time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = adapter.GetSecret(ctx, "/p")
	require.NoError(t, err)
	_, err = adapter.GetSecret(ctx, "/p")
	require.NoError(t, err)
	assert.Equal(t, 1, client.getCalls)

	info, err := adapter.RotateSecret(ctx, "/p", "new")
	require.NoError(t, err)
	assert.Equal(t, "2", info.CurrentVersion)
	assert.Equal(t, "1", info.PreviousVersion)

	_, err = adapter.GetSecret(ctx, "/p")
	require.NoError(t, err)
	assert.Equal(t, 2, client.getCalls)
}
