// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/driftline/ballast/internal/modules/settings"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases, always absolute
	Port     int
	LogLevel string
	DevMode  bool // Pretty console logs, relaxed CORS

	// Drift thresholds in percentage points. Both levels are explicit
	// configuration; nothing in the engine hardcodes them.
	MPThresholdPercent    float64
	SubMPThresholdPercent float64

	// EvaluationSchedule is a cron expression (with seconds field) for the
	// periodic drift evaluation job.
	EvaluationSchedule string

	// ModelSeedPath points to an optional YAML file used to bootstrap the
	// model portfolio when the config database is empty.
	ModelSeedPath string

	// RetentionDays bounds how long drift history and superseded
	// snapshots are kept; RetentionSchedule drives the pruning job.
	RetentionDays     int
	RetentionSchedule string

	Backup *BackupConfig
}

// BackupConfig holds S3-compatible backup configuration
type BackupConfig struct {
	Enabled         bool
	Endpoint        string // Custom endpoint for S3-compatible stores, empty for AWS
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string // Cron expression (with seconds field)
	Retain          int    // Number of newest archives to keep, minimum 3
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("BALLAST_DATA_DIR", "")
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
		DataDir:               absDataDir,
		Port:                  getEnvAsInt("PORT", 8080),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DevMode:               getEnvAsBool("DEV_MODE", false),
		MPThresholdPercent:    getEnvAsFloat("MP_THRESHOLD_PERCENT", 3.0),
		SubMPThresholdPercent: getEnvAsFloat("SUB_MP_THRESHOLD_PERCENT", 5.0),
		EvaluationSchedule:    getEnv("EVALUATION_SCHEDULE", "0 */15 * * * *"),
		ModelSeedPath:         getEnv("MODEL_SEED_PATH", ""),
		RetentionDays:         getEnvAsInt("RETENTION_DAYS", 365),
		RetentionSchedule:     getEnv("RETENTION_SCHEDULE", "0 0 4 * * 0"),
		Backup:                loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings overrides configuration from the settings database.
// Called after the config database is initialized; settings values take
// precedence over environment variables.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	mp, err := settingsRepo.GetFloat("mp_threshold_percent", c.MPThresholdPercent)
	if err != nil {
		return fmt.Errorf("failed to get mp_threshold_percent from settings: %w", err)
	}
	if mp > 0 {
		c.MPThresholdPercent = mp
	}

	subMP, err := settingsRepo.GetFloat("sub_mp_threshold_percent", c.SubMPThresholdPercent)
	if err != nil {
		return fmt.Errorf("failed to get sub_mp_threshold_percent from settings: %w", err)
	}
	if subMP > 0 {
		c.SubMPThresholdPercent = subMP
	}

	schedule, err := settingsRepo.Get("evaluation_schedule")
	if err != nil {
		return fmt.Errorf("failed to get evaluation_schedule from settings: %w", err)
	}
	if schedule != nil && *schedule != "" {
		c.EvaluationSchedule = *schedule
	}

	return nil
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MPThresholdPercent <= 0 {
		return fmt.Errorf("MP_THRESHOLD_PERCENT must be positive, got %g", c.MPThresholdPercent)
	}
	if c.SubMPThresholdPercent <= 0 {
		return fmt.Errorf("SUB_MP_THRESHOLD_PERCENT must be positive, got %g", c.SubMPThresholdPercent)
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
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

// loadBackupConfig loads backup configuration; disabled unless a bucket is set
func loadBackupConfig() *BackupConfig {
	retain := getEnvAsInt("BACKUP_RETAIN", 5)
	if retain < 3 {
		retain = 3
	}

	return &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
		AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		Retain:          retain,
	}
}
