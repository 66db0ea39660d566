package storage

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the storage backend configuration. Values are loaded from
// a YAML file and may be overridden by environment variables.
type Config struct {
	// DSN is the database source name passed to the driver.
	DSN string `yaml:"dsn"`
	// Echo logs every executed statement.
	Echo bool `yaml:"echo"`
	// ForeignKeys enables foreign-key constraint enforcement
	// (PRAGMA foreign_keys on SQLite).
	ForeignKeys bool `yaml:"foreign_keys"`
	// StringLength is the declared length for bounded string columns when
	// a field carries no explicit MaxLen.
	StringLength int `yaml:"string_length"`
}

// DefaultConfig returns the configuration used when nothing is loaded:
// an in-memory database with constraint enforcement on.
func DefaultConfig() Config {
	return Config{
		DSN:          "file::memory:?cache=shared",
		ForeignKeys:  true,
		StringLength: 255,
	}
}

// LoadConfig reads a YAML config file and applies environment overrides
// (RELMAP_DSN, RELMAP_ECHO, RELMAP_FOREIGN_KEYS) on top of it. A missing
// path loads defaults plus overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if cfg.StringLength <= 0 {
		cfg.StringLength = 255
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("RELMAP_DSN")); v != "" {
		cfg.DSN = v
	}
	if v, ok := envBool("RELMAP_ECHO"); ok {
		cfg.Echo = v
	}
	if v, ok := envBool("RELMAP_FOREIGN_KEYS"); ok {
		cfg.ForeignKeys = v
	}
}

func envBool(key string) (bool, bool) {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}
