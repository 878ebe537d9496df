package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Stripe   StripeConfig
	PayMongo PayMongoConfig
	PayPal   PayPalConfig
	Notifier NotifierConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// StripeConfig holds Stripe gateway configuration
type StripeConfig struct {
	BaseURL   string
	SecretKey string
	Enabled   bool
}

// PayMongoConfig holds PayMongo gateway configuration
type PayMongoConfig struct {
	BaseURL   string
	SecretKey string
	Enabled   bool
}

// PayPalConfig holds PayPal gateway configuration
type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Enabled      bool
}

// NotifierConfig holds webhook notification configuration.
// Leaving both URLs empty disables outbound notifications.
type NotifierConfig struct {
	TenantWebhookURL   string
	LandlordWebhookURL string
	SigningSecret      string
}

// SecretsConfig selects where gateway credentials are loaded from.
// When Backend is empty, credentials come straight from the environment.
type SecretsConfig struct {
	Backend string // "", "aws", "vault", "local"

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress string
	VaultToken   string

	LocalPath string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "rent_ledger"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Stripe: StripeConfig{
			BaseURL:   getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Enabled:   getEnvAsBool("STRIPE_ENABLED", true),
		},
		PayMongo: PayMongoConfig{
			BaseURL:   getEnv("PAYMONGO_BASE_URL", "https://api.paymongo.com"),
			SecretKey: getEnv("PAYMONGO_SECRET_KEY", ""),
			Enabled:   getEnvAsBool("PAYMONGO_ENABLED", true),
		},
		PayPal: PayPalConfig{
			BaseURL:      getEnv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
			ClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
			ClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
			Enabled:      getEnvAsBool("PAYPAL_ENABLED", true),
		},
		Notifier: NotifierConfig{
			TenantWebhookURL:   getEnv("NOTIFY_TENANT_WEBHOOK_URL", ""),
			LandlordWebhookURL: getEnv("NOTIFY_LANDLORD_WEBHOOK_URL", ""),
			SigningSecret:      getEnv("NOTIFY_SIGNING_SECRET", ""),
		},
		Secrets: SecretsConfig{
			Backend:      getEnv("SECRETS_BACKEND", ""),
			AWSRegion:    getEnv("AWS_REGION", "ap-southeast-1"),
			AWSProfile:   getEnv("AWS_PROFILE", ""),
			AWSEndpoint:  getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress: getEnv("VAULT_ADDR", ""),
			VaultToken:   getEnv("VAULT_TOKEN", ""),
			LocalPath:    getEnv("SECRETS_LOCAL_PATH", "./secrets"),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	// Gateway credentials are only required up front when no secrets
	// backend will supply them at startup.
	if cfg.Secrets.Backend == "" {
		if cfg.Stripe.Enabled && cfg.Stripe.SecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required when Stripe is enabled")
		}
		if cfg.PayMongo.Enabled && cfg.PayMongo.SecretKey == "" {
			return nil, fmt.Errorf("PAYMONGO_SECRET_KEY is required when PayMongo is enabled")
		}
		if cfg.PayPal.Enabled && (cfg.PayPal.ClientID == "" || cfg.PayPal.ClientSecret == "") {
			return nil, fmt.Errorf("PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required when PayPal is enabled")
		}
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
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
