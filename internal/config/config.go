// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir string // Base directory for all databases (always absolute)

	Port     int
	LogLevel string
	DevMode  bool

	// External provider credentials. Glassnode is optional: without a key
	// the pipeline runs in basic mode (no on-chain metrics).
	CoinGeckoAPIKey string
	GlassnodeAPIKey string
	FredAPIKey      string

	// TrackedCoins are synced by the background price-history job.
	TrackedCoins []string

	// Scheduler cron expressions (robfig/cron format).
	PriceSyncSchedule    string
	MacroSyncSchedule    string
	CacheCleanupSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine the data directory, resolve it to an absolute path and
	// make sure it exists before any database is opened.
	dataDir := getEnv("ANALYSIS_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:              absDataDir,
		Port:                 getEnvAsInt("PORT", 8080),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		CoinGeckoAPIKey:      getEnv("COINGECKO_API_KEY", ""),
		GlassnodeAPIKey:      getEnv("GLASSNODE_API_KEY", ""),
		FredAPIKey:           getEnv("FRED_API_KEY", ""),
		TrackedCoins:         getEnvAsList("TRACKED_COINS", []string{"bitcoin", "ethereum"}),
		PriceSyncSchedule:    getEnv("PRICE_SYNC_SCHEDULE", "0 * * * *"),  // hourly
		MacroSyncSchedule:    getEnv("MACRO_SYNC_SCHEDULE", "30 6 * * *"), // daily, 06:30
		CacheCleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "0 3 * * *"),
	}

	return cfg, nil
}

// getEnv retrieves an environment variable value, returning a fallback if
// the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvAsBool retrieves an environment variable as a boolean
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvAsList retrieves a comma-separated environment variable
func getEnvAsList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
