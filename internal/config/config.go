// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for all databases (always absolute)
	Port            int
	LogLevel        string
	DevMode         bool
	PriceAPIBaseURL string // Historical price API endpoint
	PriceAPIKey     string
	PriceCacheTTL   int    // Price series cache TTL in minutes
	BenchmarkSymbol string // Default benchmark index for performance views
	Backup          *BackupConfig
}

// BackupConfig holds S3-compatible backup storage configuration.
// Backups are disabled when no bucket is configured.
type BackupConfig struct {
	Enabled         bool
	Endpoint        string // S3-compatible endpoint (e.g., Cloudflare R2)
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string // Cron expression for scheduled backups
	Retention       int    // Number of backups to keep
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	// 1. Check FINTRACK_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("FINTRACK_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("FINTRACK_PORT", 8001),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		PriceAPIBaseURL: getEnv("PRICE_API_BASE_URL", "https://eodhistoricaldata.com/api"),
		PriceAPIKey:     getEnv("PRICE_API_KEY", ""),
		PriceCacheTTL:   getEnvAsInt("PRICE_CACHE_TTL_MINUTES", 60),
		BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "GSPC.INDX"),
		Backup:          loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are present and sane
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.PriceCacheTTL < 0 {
		return fmt.Errorf("invalid price cache TTL: %d", c.PriceCacheTTL)
	}
	if c.Backup != nil && c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return fmt.Errorf("backups enabled but BACKUP_BUCKET is not set")
		}
		if c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" {
			return fmt.Errorf("backups enabled but access credentials are not set")
		}
	}
	return nil
}

// loadBackupConfig reads backup storage settings from environment variables.
// Returns a disabled config when BACKUP_ENABLED is unset or false.
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		Bucket:          getEnv("BACKUP_BUCKET", ""),
		AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
		Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		Retention:       getEnvAsInt("BACKUP_RETENTION", 7),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
