// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	window := cfg.Reconcile.DateWindow
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration.
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds HTTP server configuration.
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ReconcileConfig holds the reconciliation policy: which accounts are
// eligible, the tier-3 date window, the amount tolerance and the greedy
// subset-sum pool cap.
type ReconcileConfig struct {
	Accounts       []AccountConfig  `yaml:"accounts"`
	DateWindow     DateWindowConfig `yaml:"date_window"`
	Tolerance      ToleranceConfig  `yaml:"tolerance"`
	GreedyPoolSize int              `yaml:"greedy_pool_size"`
}

// AccountConfig is one entry of the account catalog.
type AccountConfig struct {
	ID           int    `yaml:"id"`
	Name         string `yaml:"name"`
	Reconcilable bool   `yaml:"reconcilable"`
}

// DateWindowConfig bounds the allowed day offset between a ledger entry
// and a bank transaction. Negative MinDays means the entry may precede
// the bank transaction.
type DateWindowConfig struct {
	MinDays int `yaml:"min_days"`
	MaxDays int `yaml:"max_days"`
}

// ToleranceConfig defines the amount tolerance max(Floor, Rate*|amount|).
// Zero is a meaningful setting here (a flat-floor policy sets rate: 0, an
// exact-match policy sets both), so the fields are pointers and only nil
// means unset.
type ToleranceConfig struct {
	Floor *float64 `yaml:"floor"`
	Rate  *float64 `yaml:"rate"`
}

// Values returns the floor and rate, treating absent fields as zero.
func (t ToleranceConfig) Values() (floor, rate float64) {
	if t.Floor != nil {
		floor = *t.Floor
	}
	if t.Rate != nil {
		rate = *t.Rate
	}
	return floor, rate
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// applyDefaults fills in policy values the file left at zero. A window of
// [0,0] is treated as unset; a same-day-only policy would still want
// MaxDays explicit alongside a nonzero tolerance.
func (c *Config) applyDefaults() {
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "reconcile.db"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Reconcile.DateWindow.MinDays == 0 && c.Reconcile.DateWindow.MaxDays == 0 {
		c.Reconcile.DateWindow = DateWindowConfig{MinDays: -3, MaxDays: 15}
	}
	if c.Reconcile.Tolerance.Floor == nil {
		c.Reconcile.Tolerance.Floor = floatPtr(5.0)
	}
	if c.Reconcile.Tolerance.Rate == nil {
		c.Reconcile.Tolerance.Rate = floatPtr(0.01)
	}
	if c.Reconcile.GreedyPoolSize == 0 {
		c.Reconcile.GreedyPoolSize = 20
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// Load reads and parses the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECONCILE_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only. The
// account catalog cannot be expressed in the environment; callers that
// rely on it must provide a config file.
func LoadFromEnv() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			DatabasePath: getEnv("RECONCILE_DB_PATH", "reconcile.db"),
		},
		API: APIConfig{
			Port: getEnvInt("RECONCILE_PORT", 8080),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables.
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the specified path, falls back to
// environment variables.
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func floatPtr(v float64) *float64 {
	return &v
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default.
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
