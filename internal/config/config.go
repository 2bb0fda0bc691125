package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
)

// Upload dispatch modes.
const (
	DispatchWebhook = "webhook"
	DispatchQueue   = "queue"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`
	DataBackend                      string `mapstructure:"DATA_BACKEND"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	DatabaseURL                      string `mapstructure:"DATABASE_URL"`

	StripeSecretKey      string  `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret  string  `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripeAccountCountry string  `mapstructure:"STRIPE_ACCOUNT_COUNTRY"`
	PlatformFeePercent   float64 `mapstructure:"PLATFORM_FEE_PERCENT"`
	Currency             string  `mapstructure:"CURRENCY"`

	UploadWebhookURL       string `mapstructure:"UPLOAD_WEBHOOK_URL"`
	UploadDispatch         string `mapstructure:"UPLOAD_DISPATCH"`
	RabbitMQURL            string `mapstructure:"RABBITMQ_URL"`
	RabbitMQQueue          string `mapstructure:"RABBITMQ_QUEUE"`
	WorkflowCallbackSecret string `mapstructure:"WORKFLOW_CALLBACK_SECRET"`
	MaxUploadBytes         int64  `mapstructure:"MAX_UPLOAD_BYTES"`

	RedisAddress  string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	FacetCacheTTL time.Duration `mapstructure:"FACET_CACHE_TTL"`

	DirectPurchaseEnabled bool `mapstructure:"DIRECT_PURCHASE_ENABLED"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
}

var keys = []string{
	"PORT", "GIN_MODE", "CLIENT_URL", "DATA_BACKEND",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"DATABASE_URL",
	"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "STRIPE_ACCOUNT_COUNTRY", "PLATFORM_FEE_PERCENT", "CURRENCY",
	"UPLOAD_WEBHOOK_URL", "UPLOAD_DISPATCH", "RABBITMQ_URL", "RABBITMQ_QUEUE", "WORKFLOW_CALLBACK_SECRET",
	"MAX_UPLOAD_BYTES",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB", "FACET_CACHE_TTL",
	"DIRECT_PURCHASE_ENABLED",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "MAIL_FROM",
}

// LoadConfig loads configuration from environment variables using Viper.
// When PATH_CONFIG names a YAML file, its values sit underneath the environment.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DATA_BACKEND", BackendFirestore)
	v.SetDefault("STRIPE_ACCOUNT_COUNTRY", "FR")
	v.SetDefault("PLATFORM_FEE_PERCENT", 15)
	v.SetDefault("CURRENCY", "eur")
	v.SetDefault("UPLOAD_DISPATCH", DispatchWebhook)
	v.SetDefault("RABBITMQ_QUEUE", "lead_files.uploaded")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("FACET_CACHE_TTL", "60s")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("DIRECT_PURCHASE_ENABLED", false)

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	_ = v.BindEnv("PATH_CONFIG")
	if path := v.GetString("PATH_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	cfg.DataBackend = strings.ToLower(cfg.DataBackend)
	cfg.UploadDispatch = strings.ToLower(cfg.UploadDispatch)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values required by the selected backend and dispatch mode.
func (c *Config) Validate() error {
	switch c.DataBackend {
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when DATA_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("DATA_BACKEND must be %q or %q, got %q", BackendFirestore, BackendPostgres, c.DataBackend)
	}

	switch c.UploadDispatch {
	case DispatchWebhook:
		if c.UploadWebhookURL == "" {
			return errors.New("UPLOAD_WEBHOOK_URL is required")
		}
	case DispatchQueue:
		if c.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required when UPLOAD_DISPATCH=queue")
		}
	default:
		return fmt.Errorf("UPLOAD_DISPATCH must be %q or %q, got %q", DispatchWebhook, DispatchQueue, c.UploadDispatch)
	}

	if c.StripeSecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		return errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	if c.ClientURL == "" {
		return errors.New("CLIENT_URL is required")
	}
	if c.PlatformFeePercent < 0 || c.PlatformFeePercent >= 100 {
		return fmt.Errorf("PLATFORM_FEE_PERCENT must be in [0, 100), got %v", c.PlatformFeePercent)
	}
	return nil
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}
