// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Shopify     ShopifyConfig
	JWT         JWTConfig
	Payment     PaymentConfig
	AWS         AWSConfig
	Admin       AdminConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type ShopifyConfig struct {
	StoreURL      string
	AccessToken   string
	WebhookSecret string
	APIVersion    string
	SyncTimeout   int // in seconds, bounds one price push end to end
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type PaymentConfig struct {
	StripeSecretKey string
	PayoutCurrency  string
	MinimumPayout   float64
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ArchiveBucket   string
}

type AdminConfig struct {
	Email        string
	PasswordHash string // bcrypt
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "pricepulse"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		Shopify: ShopifyConfig{
			StoreURL:      strings.TrimRight(getEnv("SHOPIFY_STORE_URL", ""), "/"),
			AccessToken:   getEnv("SHOPIFY_ACCESS_TOKEN", ""),
			WebhookSecret: getEnv("SHOPIFY_WEBHOOK_SECRET", ""),
			APIVersion:    getEnv("SHOPIFY_API_VERSION", "2023-01"),
			SyncTimeout:   getEnvAsInt("SHOPIFY_SYNC_TIMEOUT", 10),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24), // 24 hours
		},
		Payment: PaymentConfig{
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			PayoutCurrency:  getEnv("PAYOUT_CURRENCY", "usd"),
			MinimumPayout:   getEnvAsFloat("MINIMUM_PAYOUT", 0.01),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ArchiveBucket:   getEnv("AWS_ARCHIVE_BUCKET", "pricepulse-archives"),
		},
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", "admin@pricepulse.local"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Shopify.WebhookSecret == "" && c.Environment == "production" {
		return fmt.Errorf("Shopify webhook secret is required in production")
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
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
