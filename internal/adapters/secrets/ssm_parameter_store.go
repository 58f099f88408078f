package secrets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/kevin07696/etaca-service/internal/adapters/ports"
	"go.uber.org/zap"
)

// SSMAPI defines the SSM operations used by the parameter store adapter
type SSMAPI interface {
	// GetParameter retrieves a parameter from SSM.
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)

	// PutParameter stores a parameter in SSM.
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMParameterStoreConfig contains configuration for the SSM adapter
type SSMParameterStoreConfig struct {
	Region   string
	Profile  string
	Endpoint string

	// Optional KMS key for SecureString parameters, default is the account key
	KMSKeyID string

	CacheTTL    time.Duration
	EnableCache bool
}

// ssmParameterStoreAdapter stores secrets as SecureString parameters
type ssmParameterStoreAdapter struct {
	client   SSMAPI
	kmsKeyID string
	logger   *zap.Logger
	cache    *secretCache
}

// NewSSMParameterStoreAdapter creates an adapter backed by the AWS SDK client
func NewSSMParameterStoreAdapter(ctx context.Context, cfg *SSMParameterStoreConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	awsConfig, err := LoadAWSConfig(ctx, cfg.Region, cfg.Profile)
	if err != nil {
		return nil, err
	}

	var clientOptions []func(*ssm.Options)
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *ssm.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("SSM Parameter Store adapter initialized",
		zap.String("region", cfg.Region),
		zap.Bool("cache_enabled", cfg.EnableCache),
	)

	return NewSSMParameterStoreAdapterWithClient(ssm.NewFromConfig(awsConfig, clientOptions...), cfg, logger)
}

// NewSSMParameterStoreAdapterWithClient wires an existing client
func NewSSMParameterStoreAdapterWithClient(client SSMAPI, cfg *SSMParameterStoreConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	if client == nil {
		return nil, errors.New("ssm client is required")
	}
	return &ssmParameterStoreAdapter{
		client:   client,
		kmsKeyID: cfg.KMSKeyID,
		logger:   logger,
		cache:    newSecretCache(cfg.EnableCache, cfg.CacheTTL),
	}, nil
}

// GetSecret reads and decrypts a SecureString parameter
func (a *ssmParameterStoreAdapter) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := a.cache.get(path); cached != nil {
		return cached, nil
	}

	output, err := a.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFoundErr *types.ParameterNotFound
		if errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, path)
		}
		return nil, fmt.Errorf("getting parameter from SSM: %w", err)
	}
	if output.Parameter == nil || output.Parameter.Value == nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, path)
	}

	secret := &ports.Secret{
		Value:    *output.Parameter.Value,
		Version:  strconv.FormatInt(output.Parameter.Version, 10),
		Metadata: map[string]string{"type": string(output.Parameter.Type)},
	}
	if output.Parameter.LastModifiedDate != nil {
		secret.CreatedAt = output.Parameter.LastModifiedDate.Format(time.RFC3339)
	}
	if output.Parameter.ARN != nil {
		secret.Metadata["arn"] = *output.Parameter.ARN
	}

	a.cache.set(path, secret)
	return secret, nil
}

// PutSecret overwrites the parameter. SSM keeps prior versions in history.
func (a *ssmParameterStoreAdapter) PutSecret(ctx context.Context, path string, value string, metadata map[string]string) (string, error) {
	defer a.cache.invalidate(path)

	input := &ssm.PutParameterInput{
		Name:      aws.String(path),
		Overwrite: aws.Bool(true),
		Type:      types.ParameterTypeSecureString,
		Value:     aws.String(value),
	}
	if a.kmsKeyID != "" {
		input.KeyId = aws.String(a.kmsKeyID)
	}
	if desc, ok := metadata["description"]; ok {
		input.Description = aws.String(desc)
	}

	output, err := a.client.PutParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("putting parameter to SSM: %w", err)
	}

	version := strconv.FormatInt(output.Version, 10)
	a.logger.Info("Parameter updated",
		zap.String("path", path),
		zap.String("version", version),
	)
	return version, nil
}

// RotateSecret writes a new parameter version
func (a *ssmParameterStoreAdapter) RotateSecret(ctx context.Context, path string, newValue string) (*ports.SecretRotationInfo, error) {
	return rotateWith(ctx, a, path, newValue)
}
