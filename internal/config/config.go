// Package config loads the server configuration from an optional YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names for the snippet store.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config is the top-level server configuration.
type Config struct {
	Port     int         `yaml:"port"`
	LogLevel string      `yaml:"log_level"` // debug | info | warn | error
	Store    StoreConfig `yaml:"store"`
	Auth     AuthConfig  `yaml:"auth"`
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	// Backend is "sqlite" (one row per record) or "file" (one JSON
	// document per record).
	Backend string `yaml:"backend"`
	// Path is the database file for sqlite or the record directory for
	// file.
	Path string `yaml:"path"`
}

// AuthConfig carries the admin credential and session settings.
type AuthConfig struct {
	// AdminPasswordHash is a bcrypt hash; generate with cmd/hashpw.
	// Empty disables admin login (the public submit/search surface still
	// works).
	AdminPasswordHash string `yaml:"admin_password_hash"`
	// SessionSecret signs the session cookie. At least 16 characters.
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

// LoadFile reads a YAML configuration file, then applies environment
// overrides and defaults. path == "" skips the file and uses environment
// and defaults only.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("ADMIN_PASSWORD_HASH"); v != "" {
		c.Auth.AdminPasswordHash = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Auth.SessionSecret = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid SESSION_TTL %q: %w", v, err)
		}
		c.Auth.SessionTTL = ttl
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	if c.Store.Path == "" {
		switch c.Store.Backend {
		case BackendSQLite:
			c.Store.Path = "data/snippets.db"
		case BackendFile:
			c.Store.Path = "data/snippets"
		}
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = 12 * time.Hour
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("config: unknown store backend %q (want %q or %q)",
			c.Store.Backend, BackendSQLite, BackendFile)
	}
	if c.Auth.SessionSecret != "" && len(c.Auth.SessionSecret) < 16 {
		return fmt.Errorf("config: session_secret must be at least 16 characters")
	}
	return nil
}
