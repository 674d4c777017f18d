package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all ganeo configuration.
type Config struct {
	// Tracking mirrors the options of the adapter's initialize call.
	Tracking TrackingConfig `yaml:"tracking"`

	// Transport selects where gtag calls go.
	Transport TransportConfig `yaml:"transport"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// TrackingConfig configures the measurement ids and adapter options.
type TrackingConfig struct {
	MeasurementIDs []string       `yaml:"measurement_ids"`
	TestMode       bool           `yaml:"test_mode"`
	TitleCase      bool           `yaml:"title_case"`
	GAOptions      map[string]any `yaml:"ga_options,omitempty"`
	GtagOptions    map[string]any `yaml:"gtag_options,omitempty"`
}

// Transport kinds.
const (
	TransportLog     = "log"     // log every call through zap
	TransportLocal   = "local"   // log, and answer client id lookups locally
	TransportJournal = "journal" // local, plus append every call to SQLite
)

// ValidTransports lists the supported transport kinds.
var ValidTransports = []string{TransportLog, TransportLocal, TransportJournal}

// TransportConfig configures the gtag transport.
type TransportConfig struct {
	Kind        string `yaml:"kind"`
	Journal     string `yaml:"journal"`      // SQLite path for the journal transport
	LookupDelay string `yaml:"lookup_delay"` // delay before local client id lookups resolve
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Tracking: TrackingConfig{
			TitleCase: true,
		},
		Transport: TransportConfig{
			Kind:        TransportLocal,
			Journal:     "data/ganeo.db",
			LookupDelay: "0s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Comma separated list, replaces the configured ids
	if ids := os.Getenv("GANEO_MEASUREMENT_ID"); ids != "" {
		c.Tracking.MeasurementIDs = nil
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				c.Tracking.MeasurementIDs = append(c.Tracking.MeasurementIDs, id)
			}
		}
	}

	if v, err := strconv.ParseBool(os.Getenv("GANEO_TEST_MODE")); err == nil {
		c.Tracking.TestMode = v
	}
	if v, err := strconv.ParseBool(os.Getenv("GANEO_TITLE_CASE")); err == nil {
		c.Tracking.TitleCase = v
	}

	// A journal path implies the journal transport
	if path := os.Getenv("GANEO_JOURNAL"); path != "" {
		c.Transport.Journal = path
		c.Transport.Kind = TransportJournal
	}

	if level := os.Getenv("GANEO_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetLookupDelay returns the local lookup delay as a duration.
func (c *Config) GetLookupDelay() time.Duration {
	d, err := time.ParseDuration(c.Transport.LookupDelay)
	if err != nil {
		return 0
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for i, id := range c.Tracking.MeasurementIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("measurement_ids[%d] is empty", i)
		}
	}

	validKind := false
	for _, k := range ValidTransports {
		if c.Transport.Kind == k {
			validKind = true
			break
		}
	}
	if !validKind {
		return fmt.Errorf("invalid transport kind: %s (valid: %v)", c.Transport.Kind, ValidTransports)
	}
	if c.Transport.Kind == TransportJournal && c.Transport.Journal == "" {
		return fmt.Errorf("journal transport requires transport.journal")
	}
	if c.Transport.LookupDelay != "" {
		if _, err := time.ParseDuration(c.Transport.LookupDelay); err != nil {
			return fmt.Errorf("invalid transport.lookup_delay: %w", err)
		}
	}

	return c.Logging.Validate()
}
