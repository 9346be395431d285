// Package config loads smartdiff settings from YAML, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/smartdiff/internal/diff"
	"github.com/sprite-ai/smartdiff/internal/render"
)

// Environment variables that override the file.
const (
	EnvBackendURL = "SMARTDIFF_BACKEND_URL"
	EnvLogLevel   = "SMARTDIFF_LOG_LEVEL"
)

// Config holds user settings.
type Config struct {
	BackendURL     string        `yaml:"backend_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // 0 waits indefinitely
	DefaultMode    string        `yaml:"default_mode"`
	ExportDir      string        `yaml:"export_dir"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
	Include        []string      `yaml:"include"`
	HighlightStyle string        `yaml:"highlight_style"`
}

// DefaultConfig returns a Config with defaults for every field.
func DefaultConfig() Config {
	return Config{
		BackendURL:     "http://127.0.0.1:8000",
		DefaultMode:    render.ModeUnified.String(),
		ExportDir:      ".",
		LogLevel:       "info",
		HighlightStyle: diff.DefaultStyle,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/smartdiff/config.yaml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "smartdiff", "config.yaml")
}

// Load reads the config file at path. A missing file yields defaults.
// Environment overrides are applied but the result is not validated, so
// callers can layer flags on top before calling Validate.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()
	cfg.ApplyEnv(os.Getenv)
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.BackendURL == "" {
		c.BackendURL = defaults.BackendURL
	}
	if c.DefaultMode == "" {
		c.DefaultMode = defaults.DefaultMode
	}
	if c.ExportDir == "" {
		c.ExportDir = defaults.ExportDir
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.HighlightStyle == "" {
		c.HighlightStyle = defaults.HighlightStyle
	}
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvBackendURL)); v != "" {
		c.BackendURL = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

// Mode returns the parsed default render mode.
func (c *Config) Mode() render.Mode {
	m, err := render.ParseMode(c.DefaultMode)
	if err != nil {
		return render.ModeUnified
	}
	return m
}

// Validate reports every invalid field as criterio field errors.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("backend_url", c.BackendURL, validBackendURL),
		c.validateTimeout(),
		criterio.Run("default_mode", c.DefaultMode, validMode),
		criterio.Run("log_level", c.LogLevel, validLogLevel),
		c.validateInclude(),
	)
}

func validBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func (c *Config) validateTimeout() error {
	if c.RequestTimeout < 0 {
		return criterio.NewFieldErrors("request_timeout", fmt.Errorf("must not be negative, got %s", c.RequestTimeout))
	}
	return nil
}

func validMode(s string) error {
	_, err := render.ParseMode(s)
	return err
}

func validLogLevel(s string) error {
	_, err := zerolog.ParseLevel(s)
	return err
}

func (c *Config) validateInclude() error {
	var errs criterio.FieldErrorsBuilder
	for i, p := range c.Include {
		if !doublestar.ValidatePattern(p) {
			errs = errs.Append(fmt.Sprintf("include[%d]", i), fmt.Errorf("invalid glob %q", p))
		}
	}
	return errs.ToError()
}
