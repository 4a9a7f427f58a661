// Package config loads server settings from defaults, an optional YAML file
// and GROCERY_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Port       string        `yaml:"port"`
	DBPath     string        `yaml:"db_path"`
	LogLevel   string        `yaml:"log_level"`
	LogFormat  string        `yaml:"log_format"`
	SessionTTL time.Duration `yaml:"session_ttl"`

	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiModel   string `yaml:"gemini_model"`
	GeminiBaseURL string `yaml:"gemini_base_url"`

	Backup Backup `yaml:"backup"`
}

// Backup configures encrypted database snapshots to S3-compatible storage.
// Backups are off unless Bucket is set.
type Backup struct {
	Endpoint   string        `yaml:"s3_endpoint"`
	Bucket     string        `yaml:"s3_bucket"`
	Region     string        `yaml:"s3_region"`
	AccessKey  string        `yaml:"s3_access_key"`
	SecretKey  string        `yaml:"s3_secret_key"`
	Passphrase string        `yaml:"passphrase"`
	Interval   time.Duration `yaml:"interval"`
	// Keep is how many of the newest snapshots survive pruning. Zero keeps all.
	Keep int `yaml:"keep"`
}

func (b Backup) Enabled() bool {
	return b.Bucket != ""
}

func Default() Config {
	return Config{
		Port:          "8080",
		DBPath:        "groceryhub.db",
		LogLevel:      "info",
		LogFormat:     "text",
		SessionTTL:    30 * 24 * time.Hour,
		GeminiModel:   "gemini-2.5-flash",
		GeminiBaseURL: "https://generativelanguage.googleapis.com",
		Backup: Backup{
			Region:   "us-east-1",
			Interval: 24 * time.Hour,
			Keep:     14,
		},
	}
}

// Load reads the file named by GROCERY_CONFIG, if any, then applies
// environment overrides.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv("GROCERY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("GROCERY_PORT", &cfg.Port)
	str("GROCERY_DB_PATH", &cfg.DBPath)
	str("GROCERY_LOG_LEVEL", &cfg.LogLevel)
	str("GROCERY_LOG_FORMAT", &cfg.LogFormat)
	if err := dur("GROCERY_SESSION_TTL", &cfg.SessionTTL); err != nil {
		return err
	}

	// API_KEY is the name the hosted tips endpoint has always read.
	str("API_KEY", &cfg.GeminiAPIKey)
	str("GROCERY_GEMINI_API_KEY", &cfg.GeminiAPIKey)
	str("GROCERY_GEMINI_MODEL", &cfg.GeminiModel)
	str("GROCERY_GEMINI_BASE_URL", &cfg.GeminiBaseURL)

	str("GROCERY_BACKUP_S3_ENDPOINT", &cfg.Backup.Endpoint)
	str("GROCERY_BACKUP_S3_BUCKET", &cfg.Backup.Bucket)
	str("GROCERY_BACKUP_S3_REGION", &cfg.Backup.Region)
	str("GROCERY_BACKUP_S3_ACCESS_KEY", &cfg.Backup.AccessKey)
	str("GROCERY_BACKUP_S3_SECRET_KEY", &cfg.Backup.SecretKey)
	str("GROCERY_BACKUP_PASSPHRASE", &cfg.Backup.Passphrase)
	if v := getenv("GROCERY_BACKUP_KEEP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GROCERY_BACKUP_KEEP: %w", err)
		}
		cfg.Backup.Keep = n
	}
	return dur("GROCERY_BACKUP_INTERVAL", &cfg.Backup.Interval)
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "pretty", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q: want text, pretty or json", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q: want debug, info, warn or error", c.LogLevel))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session_ttl must be positive"))
	}
	if c.Backup.Enabled() {
		if c.Backup.Passphrase == "" {
			errs = append(errs, errors.New("backup.passphrase is required when backups are enabled"))
		}
		if c.Backup.Interval < time.Minute {
			errs = append(errs, errors.New("backup.interval must be at least 1m"))
		}
		if c.Backup.Keep < 0 {
			errs = append(errs, errors.New("backup.keep must not be negative"))
		}
	}
	return errors.Join(errs...)
}
