package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/balancete/internal/model"
)

// FileName is the project configuration file created by init.
const FileName = "balancete.yaml"

// Environment variables that override file settings.
const (
	EnvDBPath   = "BALANCETE_DB_PATH"
	EnvLogLevel = "BALANCETE_LOG_LEVEL"
	EnvAddr     = "BALANCETE_ADDR"
	EnvPretty   = "BALANCETE_LOG_PRETTY"
)

// Config represents the top-level balancete.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Database DatabaseConfig `yaml:"database"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Audit    AuditConfig    `yaml:"audit"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
}

// DatabaseConfig locates the SQLite database. Relative paths are relative
// to the configuration file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig tunes balance computation.
type LedgerConfig struct {
	PageSize             int    `yaml:"page_size"`
	OpeningReferenceType string `yaml:"opening_reference_type"`
	Tolerance            string `yaml:"tolerance"` // trial balance tolerance, decimal string
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// AuditConfig controls the reclassification audit trail.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// Load reads a balancete.yaml file from disk, applies environment overrides
// (including a .env file next to it, if any) and resolves relative paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	dir := filepath.Dir(path)
	// A missing .env file is fine; variables already set win over it.
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	cfg.ApplyEnv()
	cfg.resolvePaths(dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, entityType string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Database: DatabaseConfig{
			Path: filepath.Join("data", "ledger.db"),
		},
		Ledger: LedgerConfig{
			PageSize:             1000,
			OpeningReferenceType: string(model.ReferenceOpeningBalance),
			Tolerance:            "0.01",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Audit: AuditConfig{
			Path: filepath.Join("logs", "audit.csv"),
		},
	}
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	c.Database.Path = getEnv(EnvDBPath, c.Database.Path)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
	c.Server.Addr = getEnv(EnvAddr, c.Server.Addr)
	c.Log.Pretty = getEnvAsBool(EnvPretty, c.Log.Pretty)
}

// Validate checks values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("invalid config: database.path is empty")
	}
	if c.Ledger.PageSize < 0 {
		return fmt.Errorf("invalid config: ledger.page_size must not be negative, got %d", c.Ledger.PageSize)
	}
	if _, err := c.TrialTolerance(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TrialTolerance parses ledger.tolerance. Empty means zero, which the
// aggregator replaces with its default.
func (c *Config) TrialTolerance() (decimal.Decimal, error) {
	if c.Ledger.Tolerance == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(c.Ledger.Tolerance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing ledger.tolerance %q: %w", c.Ledger.Tolerance, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("ledger.tolerance must not be negative, got %s", d)
	}
	return d, nil
}

// OpeningReferenceType returns the reference type marking opening balances.
func (c *Config) OpeningReferenceType() model.ReferenceType {
	if c.Ledger.OpeningReferenceType == "" {
		return model.ReferenceOpeningBalance
	}
	return model.ReferenceType(c.Ledger.OpeningReferenceType)
}

func (c *Config) resolvePaths(dir string) {
	c.Database.Path = resolve(dir, c.Database.Path)
	c.Audit.Path = resolve(dir, c.Audit.Path)
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	return filepath.Join(dir, p)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
