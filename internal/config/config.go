package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/cellwatch/internal/alert"
	"github.com/ppiankov/cellwatch/internal/controller"
)

// ControllerConfig holds the order handling knobs of the cell controller.
type ControllerConfig struct {
	MaxOrderLen int    `yaml:"max_order_len"`
	Oversize    string `yaml:"oversize"`
	Interlock   bool   `yaml:"interlock"`
}

// Options converts the section to controller options.
func (c ControllerConfig) Options() []controller.Option {
	return []controller.Option{
		controller.WithMaxOrderLen(c.MaxOrderLen),
		controller.WithOversizePolicy(controller.OversizePolicy(c.Oversize)),
		controller.WithInterlock(c.Interlock),
	}
}

// ServerConfig holds gRPC listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// HistorianConfig controls periodic state sampling.
type HistorianConfig struct {
	Path     string        `yaml:"path"`
	Interval time.Duration `yaml:"interval"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the cellwatch configuration file.
type Config struct {
	Controller ControllerConfig    `yaml:"controller"`
	Server     ServerConfig        `yaml:"server"`
	AuditLog   string              `yaml:"audit_log"`
	Historian  HistorianConfig     `yaml:"historian"`
	Alerts     []alert.AlertConfig `yaml:"alerts"`
	Log        LogConfig           `yaml:"log"`
}

// DefaultPort is the default gRPC listen port.
const DefaultPort = 50502

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Controller: ControllerConfig{
			MaxOrderLen: controller.DefaultMaxOrderLen,
			Oversize:    string(controller.OversizeTruncate),
		},
		Server: ServerConfig{Port: DefaultPort},
		Historian: HistorianConfig{
			Interval: 2 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns ~/.cellwatch/config.yaml, or "" if the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cellwatch", "config.yaml")
}

// Load reads the config file at path. Empty path falls back to
// DefaultPath. A missing file yields defaults; invalid YAML or invalid
// values are errors.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash is Load plus the SHA-256 of the raw file bytes. When no file
// exists the hash is that of empty input.
func LoadWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("failed to read config: %w", err)
		}
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, "", fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, hash, nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Controller.MaxOrderLen < 1 || c.Controller.MaxOrderLen > controller.MaxOrderLenLimit {
		return fmt.Errorf("controller.max_order_len must be in [1,%d], got %d",
			controller.MaxOrderLenLimit, c.Controller.MaxOrderLen)
	}
	if !controller.OversizePolicy(c.Controller.Oversize).Valid() {
		return fmt.Errorf("controller.oversize must be %q or %q, got %q",
			controller.OversizeReject, controller.OversizeTruncate, c.Controller.Oversize)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Historian.Interval < 0 {
		return fmt.Errorf("historian.interval must not be negative")
	}
	for i, a := range c.Alerts {
		if a.URL == "" {
			return fmt.Errorf("alerts[%d]: url is required", i)
		}
	}
	return nil
}

// DefaultConfigYAML returns a commented YAML file for `cellwatch init`.
func DefaultConfigYAML() string {
	return `# cellwatch configuration

controller:
  # Usable order bytes. Longer orders compromise the controller.
  max_order_len: 41
  # truncate: directives that fit are applied before the fail-safe
  # reject: oversized orders apply no directive
  oversize: truncate
  # Force the conveyor off whenever the e-stop is not OK or the
  # controller is compromised.
  interlock: false

server:
  port: 50502

# Hash-chained JSONL record of every order (empty disables).
audit_log: ""

historian:
  # SQLite file for sampled process metrics (empty disables).
  path: ""
  interval: 2s

# Webhooks fired on controller events.
# events: compromised | reset | oversized
alerts: []
#  - url: https://hooks.example.com/cellwatch
#    format: slack
#    events: [compromised]

log:
  level: info
`
}
