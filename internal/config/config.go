package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when RECIPES_CONFIG_PATH is unset.
const DefaultConfigPath = "config/recipes.yaml"

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Backup   BackupConfig   `yaml:"backup"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port" env:"RECIPES_PORT"`
	ReadTimeout     Duration `yaml:"read_timeout" env:"RECIPES_READ_TIMEOUT"`
	WriteTimeout    Duration `yaml:"write_timeout" env:"RECIPES_WRITE_TIMEOUT"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" env:"RECIPES_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver" env:"RECIPES_DB_DRIVER"`
	// DSN is a file path for sqlite or a connection URL for postgres.
	DSN string `yaml:"dsn" env:"RECIPES_DB_DSN"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"RECIPES_LOG_LEVEL"`
	Format string `yaml:"format" env:"RECIPES_LOG_FORMAT"`
}

// BackupConfig controls periodic database backups. Interval 0 disables the worker.
type BackupConfig struct {
	Interval Duration            `yaml:"interval" env:"RECIPES_BACKUP_INTERVAL"`
	Dir      string              `yaml:"dir" env:"RECIPES_BACKUP_DIR"`
	Storage  BackupStorageConfig `yaml:"storage"`
}

// BackupStorageConfig points at S3-compatible storage. An empty bucket keeps backups local.
type BackupStorageConfig struct {
	Bucket    string   `yaml:"bucket" env:"RECIPES_BACKUP_BUCKET"`
	Endpoint  string   `yaml:"endpoint" env:"RECIPES_BACKUP_ENDPOINT"`
	Region    string   `yaml:"region" env:"RECIPES_BACKUP_REGION"`
	AccessKey string   `yaml:"-" env:"RECIPES_BACKUP_ACCESS_KEY"` // env-only, never in YAML
	SecretKey string   `yaml:"-" env:"RECIPES_BACKUP_SECRET_KEY"` // env-only, never in YAML
	UseSSL    bool     `yaml:"use_ssl" env:"RECIPES_BACKUP_USE_SSL"`
	URLExpiry Duration `yaml:"url_expiry" env:"RECIPES_BACKUP_URL_EXPIRY"`
}

// Duration is a wrapper around time.Duration that supports YAML and env string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, used for env values.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("RECIPES_CONFIG_PATH", DefaultConfigPath)

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath, false); err != nil {
		return nil, err
	}

	return finish(cfg)
}

// LoadFromFile loads configuration from a specific path.
// The file must exist. Used by the --config flag and in tests.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	if err := loadYAMLFile(cfg, path, true); err != nil {
		return nil, err
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "data/recipes.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Backup: BackupConfig{
			Interval: 0,
			Dir:      "data/backups",
			Storage: BackupStorageConfig{
				UseSSL:    true,
				URLExpiry: Duration(15 * time.Minute),
			},
		},
	}
}

// loadYAMLFile loads configuration from a YAML file.
// A missing file is only an error when required is set.
func loadYAMLFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// validate checks that configuration values are usable.
func (c *Config) validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Backup.Interval < 0 {
		return errors.New("backup.interval must not be negative")
	}
	if c.Backup.Interval > 0 && strings.ToLower(c.Database.Driver) == "postgres" {
		return errors.New("backup.interval requires the sqlite driver; back up postgres with its own tooling")
	}
	if c.Backup.Storage.Bucket != "" && c.Backup.Storage.Endpoint == "" {
		return errors.New("backup.storage.endpoint is required when a bucket is set")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
