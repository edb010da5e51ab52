package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers string

	// API Configuration
	APIPort string
	APIHost string

	// Zoho
	ZohoClientID       string
	ZohoClientSecret   string
	ZohoRefreshToken   string
	ZohoOrganizationID string
	ZohoAPIBase        string
	ZohoAccountsBase   string

	// Webhooks
	WebhookSecret string

	// Images
	ImageCacheDir string

	// Sync / jobs
	SyncIntervalMinutes int
	FullSyncCron        string
	JobMaxAttempts      int

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		DatabaseURL:         getEnv("DATABASE_URL", "sqlite://wholesale.db"),
		KafkaBrokers:        getEnv("KAFKA_BROKERS", ""),
		APIPort:             getEnv("API_PORT", "8080"),
		APIHost:             getEnv("API_HOST", "0.0.0.0"),
		ZohoClientID:        getEnv("ZOHO_CLIENT_ID", ""),
		ZohoClientSecret:    getEnv("ZOHO_CLIENT_SECRET", ""),
		ZohoRefreshToken:    getEnv("ZOHO_REFRESH_TOKEN", ""),
		ZohoOrganizationID:  getEnv("ZOHO_ORGANIZATION_ID", ""),
		ZohoAPIBase:         getEnv("ZOHO_API_BASE", "https://www.zohoapis.com/inventory/v1"),
		ZohoAccountsBase:    getEnv("ZOHO_ACCOUNTS_BASE", "https://accounts.zoho.com"),
		WebhookSecret:       getEnv("WEBHOOK_SECRET", ""),
		ImageCacheDir:       getEnv("IMAGE_CACHE_DIR", "./data/product-images"),
		SyncIntervalMinutes: getEnvAsInt("SYNC_INTERVAL_MINUTES", 15),
		FullSyncCron:        getEnv("FULL_SYNC_CRON", "0 3 * * *"),
		JobMaxAttempts:      getEnvAsInt("JOB_MAX_ATTEMPTS", 3),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}, nil
}

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
