// Package config loads the CRM configuration from a TOML file with
// environment overrides for secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// SecretEnv holds the shared token-signing secret. It is never read
	// from the config file so it cannot end up in a dotfile backup.
	SecretEnv = "CRM_AUTH_SECRET"

	defaultTokenTTL     = 4 * time.Hour
	defaultRefreshGrace = time.Hour
)

// Config is the runtime configuration of the CRM client.
type Config struct {
	DatabasePath string   `toml:"database_path"`
	SessionPath  string   `toml:"session_path"`
	TokenTTL     duration `toml:"token_ttl"`
	RefreshGrace duration `toml:"refresh_grace"`

	secret string
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Secret returns the token-signing secret resolved at load time.
func (c *Config) Secret() string { return c.secret }

// Load reads the configuration file at path, or the default location when
// path is empty. A missing file yields defaults; a missing or empty
// CRM_AUTH_SECRET is a startup error, never a per-call one.
func Load(path string) (*Config, error) {
	cfg, err := defaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = defaultConfigPath()
	}
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("read config %s: %w", path, statErr)
		}
	}

	if cfg.TokenTTL.Duration <= 0 {
		cfg.TokenTTL.Duration = defaultTokenTTL
	}
	if cfg.RefreshGrace.Duration < 0 {
		cfg.RefreshGrace.Duration = defaultRefreshGrace
	}

	cfg.secret = strings.TrimSpace(os.Getenv(SecretEnv))
	if cfg.secret == "" {
		return nil, fmt.Errorf("%s is not set: configure the token secret before starting", SecretEnv)
	}
	return cfg, nil
}

func defaults() (*Config, error) {
	base, err := stateDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		DatabasePath: filepath.Join(base, "crm.db"),
		SessionPath:  filepath.Join(base, "session"),
		TokenTTL:     duration{defaultTokenTTL},
		RefreshGrace: duration{defaultRefreshGrace},
	}, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "epic-events", "config.toml")
}

func stateDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.New("cannot resolve user config directory")
	}
	return filepath.Join(dir, "epic-events"), nil
}
