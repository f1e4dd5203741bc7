// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"

	"github.com/fintrack/fintrack/internal/modules/settings"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for all databases, always absolute
	LogLevel     string
	Port         int
	DevMode      bool
	HomeCurrency string

	PriceOracle PriceOracleConfig
	PolicyRate  PolicyRateConfig
	Backup      BackupConfig

	WALCheckSchedule string
}

// PriceOracleConfig describes the HTTP quote endpoint.
// URLTemplate receives the routing symbol via {symbol} and the source via {source}.
type PriceOracleConfig struct {
	URLTemplate  string
	APIKey       string
	PricePath    string // jsonpath to the numeric price
	CurrencyPath string // jsonpath to the quote currency; empty means "quote side of the pair"
	Timeout      time.Duration
}

// PolicyRateConfig describes the central-bank policy-rate feed
type PolicyRateConfig struct {
	URL      string
	RatePath string
	Fallback float64 // percentage used when the feed is unavailable; 0 disables
	Timeout  time.Duration
}

// BackupConfig holds S3-compatible object storage settings for ledger backups
type BackupConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string
	RetentionDays   int
}

// Load reads configuration from environment variables (and .env if present)
func Load() (*Config, error) {
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("FINTRACK_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnvAsInt("GO_PORT", 8080),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		HomeCurrency: strings.ToUpper(getEnv("HOME_CURRENCY", "TRY")),
		PriceOracle: PriceOracleConfig{
			URLTemplate:  getEnv("PRICE_ORACLE_URL", ""),
			APIKey:       getEnv("PRICE_ORACLE_API_KEY", ""),
			PricePath:    getEnv("PRICE_ORACLE_PRICE_PATH", "$.price"),
			CurrencyPath: getEnv("PRICE_ORACLE_CURRENCY_PATH", "$.currency"),
			Timeout:      time.Duration(getEnvAsInt("PRICE_ORACLE_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		PolicyRate: PolicyRateConfig{
			URL:      getEnv("POLICY_RATE_URL", ""),
			RatePath: getEnv("POLICY_RATE_JSONPATH", "$.rate"),
			Fallback: getEnvAsFloat("POLICY_RATE_FALLBACK", 0),
			Timeout:  time.Duration(getEnvAsInt("POLICY_RATE_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Backup: BackupConfig{
			Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
			Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
		WALCheckSchedule: getEnv("WAL_CHECK_SCHEDULE", "0 */15 * * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings applies values stored in config.db.
// Settings DB values take precedence over environment variables.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	home, err := settingsRepo.Get(settings.KeyHomeCurrency)
	if err != nil {
		return fmt.Errorf("failed to get %s from settings: %w", settings.KeyHomeCurrency, err)
	}
	if home != nil && *home != "" {
		c.HomeCurrency = strings.ToUpper(*home)
	}

	enabled, err := settingsRepo.Get(settings.KeyBackupEnabled)
	if err != nil {
		return fmt.Errorf("failed to get %s from settings: %w", settings.KeyBackupEnabled, err)
	}
	if enabled != nil {
		if f, err := strconv.ParseFloat(*enabled, 64); err == nil {
			c.Backup.Enabled = f != 0
		}
	}

	return c.Validate()
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if money.GetCurrency(c.HomeCurrency) == nil {
		return fmt.Errorf("invalid home currency: %q", c.HomeCurrency)
	}
	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("backup enabled but BACKUP_S3_BUCKET is empty")
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
