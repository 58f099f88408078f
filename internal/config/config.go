package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Fiserv   FiservConfig
	Donation DonationConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// ServerConfig holds listener configuration
type ServerConfig struct {
	Environment     string
	HTTPPort        int
	GRPCHealthPort  int
	MetricsPort     int
	ShutdownTimeout time.Duration
}

// IsProduction reports whether ENVIRONMENT=production
func (s *ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig holds PostgreSQL configuration. URL wins over the
// individual DB_* parts when set.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// FiservConfig holds hosted payment page configuration
type FiservConfig struct {
	GatewayURL string // Empty selects the test or production endpoint by environment
	Timezone   string

	// RequireWebhookSignature rejects notifications that arrive without a hash
	// or for organizations without a secret
	RequireWebhookSignature bool
}

// DonationConfig holds the public URLs embedded into checkout forms
type DonationConfig struct {
	PublicAPIBaseURL string
	FrontendBaseURL  string
}

// SecretsConfig selects and configures the tenant secret backend
type SecretsConfig struct {
	Backend  string // local, aws, ssm, vault, gcp, mock
	CacheTTL time.Duration

	LocalPath string

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string
	SSMKMSKeyID string

	VaultAddress    string
	VaultAuthMethod string
	VaultToken      string
	VaultRoleID     string
	VaultSecretID   string
	VaultK8sRole    string
	VaultNamespace  string
	VaultMountPath  string

	GCPProjectID string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string // debug, info, warn, error
}

var validSecretBackends = map[string]bool{
	"local": true,
	"aws":   true,
	"ssm":   true,
	"vault": true,
	"gcp":   true,
	"mock":  true,
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Environment:     getEnv("ENVIRONMENT", "development"),
			HTTPPort:        getEnvAsInt("HTTP_PORT", 8080),
			GRPCHealthPort:  getEnvAsInt("GRPC_HEALTH_PORT", 50051),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: LoadDatabaseFromEnv(),
		Fiserv: FiservConfig{
			GatewayURL:              getEnv("FISERV_GATEWAY_URL", ""),
			Timezone:                getEnv("FISERV_TIMEZONE", "Europe/Warsaw"),
			RequireWebhookSignature: getEnvAsBool("FISERV_REQUIRE_WEBHOOK_SIGNATURE", false),
		},
		Donation: DonationConfig{
			PublicAPIBaseURL: getEnv("PUBLIC_API_BASE_URL", ""),
			FrontendBaseURL:  getEnv("FRONTEND_BASE_URL", ""),
		},
		Secrets: LoadSecretsFromEnv(),
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseFromEnv reads only the database settings. The migrate and
// admin commands use it without the server's URL requirements.
func LoadDatabaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Database: getEnv("DB_NAME", "etaca"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 20)),
		MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 2)),
	}
}

// LoadSecretsFromEnv reads only the secret backend settings
func LoadSecretsFromEnv() SecretsConfig {
	return SecretsConfig{
		Backend:         strings.ToLower(getEnv("SECRET_MANAGER", "local")),
		CacheTTL:        getEnvAsDuration("SECRET_CACHE_TTL", 5*time.Minute),
		LocalPath:       getEnv("LOCAL_SECRETS_PATH", "./secrets"),
		AWSRegion:       getEnv("AWS_REGION", "eu-central-1"),
		AWSProfile:      getEnv("AWS_PROFILE", ""),
		AWSEndpoint:     getEnv("AWS_ENDPOINT_URL", ""),
		SSMKMSKeyID:     getEnv("SSM_KMS_KEY_ID", ""),
		VaultAddress:    getEnv("VAULT_ADDR", ""),
		VaultAuthMethod: getEnv("VAULT_AUTH_METHOD", "token"),
		VaultToken:      getEnv("VAULT_TOKEN", ""),
		VaultRoleID:     getEnv("VAULT_ROLE_ID", ""),
		VaultSecretID:   getEnv("VAULT_SECRET_ID", ""),
		VaultK8sRole:    getEnv("VAULT_K8S_ROLE", ""),
		VaultNamespace:  getEnv("VAULT_NAMESPACE", ""),
		VaultMountPath:  getEnv("VAULT_MOUNT_PATH", "secret"),
		GCPProjectID:    getEnv("GCP_PROJECT_ID", ""),
	}
}

// Validate checks required fields and cross-field constraints
func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Password == "" {
		return fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
	}
	if err := requireAbsoluteURL("PUBLIC_API_BASE_URL", c.Donation.PublicAPIBaseURL); err != nil {
		return err
	}
	if err := requireAbsoluteURL("FRONTEND_BASE_URL", c.Donation.FrontendBaseURL); err != nil {
		return err
	}
	if c.Fiserv.GatewayURL != "" {
		if err := requireAbsoluteURL("FISERV_GATEWAY_URL", c.Fiserv.GatewayURL); err != nil {
			return err
		}
	}

	if !validSecretBackends[c.Secrets.Backend] {
		return fmt.Errorf("SECRET_MANAGER %q is not one of local, aws, ssm, vault, gcp, mock", c.Secrets.Backend)
	}
	switch c.Secrets.Backend {
	case "vault":
		if c.Secrets.VaultAddress == "" {
			return fmt.Errorf("VAULT_ADDR is required when SECRET_MANAGER=vault")
		}
	case "gcp":
		if c.Secrets.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required when SECRET_MANAGER=gcp")
		}
	case "mock":
		if c.Server.IsProduction() {
			return fmt.Errorf("SECRET_MANAGER=mock is not allowed in production")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

func requireAbsoluteURL(key, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, value)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("30s") or bare seconds ("30")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
