package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	Port          string `validate:"required"`
	IsProduction  bool
	StorageDriver string `validate:"oneof=postgres memory"`
	DatabaseURL   string `validate:"required_if=StorageDriver postgres"`
	EnableDBCheck bool
	MigrationsDir string `validate:"required"`

	JWTSecret         string `validate:"required,min=16"`
	JWTIssuer         string
	JWTExpiryDuration time.Duration

	// Payment gateway
	GatewayBaseURL       string `validate:"required,url"`
	GatewayKeyID         string
	GatewayKeySecret     string `validate:"required"`
	GatewayWebhookSecret string
	GatewayTimeout       time.Duration `validate:"gt=0"`

	CommissionRate  decimal.Decimal
	DefaultCurrency string `validate:"len=3,uppercase"`

	// Redis status cache and webhook dedupe; empty address disables both.
	RedisAddr        string
	RedisPassword    string
	RedisDB          int `validate:"gte=0"`
	StatusCacheTTL   time.Duration
	WebhookDedupeTTL time.Duration

	// Notifications
	RabbitMQURL   string
	PosthogAPIKey string
	PosthogHost   string

	// Receipt archive; empty bucket disables it.
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	AWSKeyID    string
	AWSSecret   string
	SideEffects time.Duration `validate:"gt=0"`

	FrontendBaseURL string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	v.SetDefault("JWT_ISSUER", "vibecoder")
	v.SetDefault("JWT_EXPIRY_DURATION", "1h")
	v.SetDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com")
	v.SetDefault("RAZORPAY_KEY_ID", "")
	v.SetDefault("RAZORPAY_KEY_SECRET", "")
	v.SetDefault("RAZORPAY_WEBHOOK_SECRET", "")
	v.SetDefault("GATEWAY_TIMEOUT", "10s")
	v.SetDefault("COMMISSION_RATE", "0.10")
	v.SetDefault("DEFAULT_CURRENCY", "INR")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STATUS_CACHE_TTL", "30s")
	v.SetDefault("WEBHOOK_DEDUPE_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_HOST", "https://eu.i.posthog.com")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("SIDE_EFFECT_TIMEOUT", "15s")
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                 v.GetString("PORT"),
		IsProduction:         v.GetBool("IS_PRODUCTION"),
		StorageDriver:        v.GetString("STORAGE_DRIVER"),
		DatabaseURL:          v.GetString("PGSQL_URL"),
		EnableDBCheck:        v.GetBool("ENABLE_DB_CHECK"),
		MigrationsDir:        v.GetString("MIGRATIONS_PATH"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTIssuer:            v.GetString("JWT_ISSUER"),
		GatewayBaseURL:       v.GetString("RAZORPAY_BASE_URL"),
		GatewayKeyID:         v.GetString("RAZORPAY_KEY_ID"),
		GatewayKeySecret:     v.GetString("RAZORPAY_KEY_SECRET"),
		GatewayWebhookSecret: v.GetString("RAZORPAY_WEBHOOK_SECRET"),
		DefaultCurrency:      v.GetString("DEFAULT_CURRENCY"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		RedisDB:              v.GetInt("REDIS_DB"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		PosthogAPIKey:        v.GetString("POSTHOG_API_KEY"),
		PosthogHost:          v.GetString("POSTHOG_HOST"),
		S3Bucket:             v.GetString("S3_BUCKET"),
		S3Region:             v.GetString("S3_REGION"),
		S3Endpoint:           v.GetString("S3_ENDPOINT"),
		AWSKeyID:             v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecret:            v.GetString("AWS_SECRET_ACCESS_KEY"),
		FrontendBaseURL:      v.GetString("FRONTEND_BASE_URL"),
	}

	var err error
	if cfg.JWTExpiryDuration, err = parseDuration(v, "JWT_EXPIRY_DURATION"); err != nil {
		return nil, err
	}
	if cfg.GatewayTimeout, err = parseDuration(v, "GATEWAY_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.StatusCacheTTL, err = parseDuration(v, "STATUS_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.WebhookDedupeTTL, err = parseDuration(v, "WEBHOOK_DEDUPE_TTL"); err != nil {
		return nil, err
	}
	if cfg.SideEffects, err = parseDuration(v, "SIDE_EFFECT_TIMEOUT"); err != nil {
		return nil, err
	}

	rate, err := decimal.NewFromString(v.GetString("COMMISSION_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMMISSION_RATE %q: %w", v.GetString("COMMISSION_RATE"), err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("COMMISSION_RATE must be within [0,1], got %s", rate.String())
	}
	// same precision as the commission_rate column
	if !rate.Equal(rate.Truncate(4)) {
		return nil, fmt.Errorf("COMMISSION_RATE allows at most 4 decimal places, got %s", rate.String())
	}
	cfg.CommissionRate = rate

	if cfg.GatewayWebhookSecret == "" {
		log.Println("Warning: RAZORPAY_WEBHOOK_SECRET not set. Webhook deliveries will be rejected.")
	}
	if cfg.GatewayKeySecret == "" && !cfg.IsProduction {
		log.Println("Warning: RAZORPAY_KEY_SECRET not set. Using an insecure development secret.")
		cfg.GatewayKeySecret = "dev-insecure-gateway-secret"
	}
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
