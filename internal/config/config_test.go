package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GANEO_MEASUREMENT_ID", "GANEO_TEST_MODE", "GANEO_TITLE_CASE", "GANEO_JOURNAL", "GANEO_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Tracking.TitleCase)
	assert.False(t, cfg.Tracking.TestMode)
	assert.Equal(t, TransportLocal, cfg.Transport.Kind)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "ganeo.yaml")
	cfg := DefaultConfig()
	cfg.Tracking.MeasurementIDs = []string{"G-1", "G-2"}
	cfg.Tracking.GAOptions = map[string]any{"cookieUpdate": false}
	cfg.Transport.Kind = TransportLog

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"G-1", "G-2"}, loaded.Tracking.MeasurementIDs)
	assert.Equal(t, map[string]any{"cookieUpdate": false}, loaded.Tracking.GAOptions)
	assert.Equal(t, TransportLog, loaded.Transport.Kind)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracking: [unterminated"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("measurement ids are split and trimmed", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GANEO_MEASUREMENT_ID", " G-1, ,G-2 ")

		cfg := &Config{Tracking: TrackingConfig{MeasurementIDs: []string{"OLD"}}}
		cfg.applyEnvOverrides()

		assert.Equal(t, []string{"G-1", "G-2"}, cfg.Tracking.MeasurementIDs)
	})

	t.Run("booleans", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GANEO_TEST_MODE", "true")
		t.Setenv("GANEO_TITLE_CASE", "0")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.True(t, cfg.Tracking.TestMode)
		assert.False(t, cfg.Tracking.TitleCase)
	})

	t.Run("unparseable booleans are ignored", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GANEO_TITLE_CASE", "maybe")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.True(t, cfg.Tracking.TitleCase)
	})

	t.Run("journal path selects journal transport", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GANEO_JOURNAL", "/tmp/j.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, TransportJournal, cfg.Transport.Kind)
		assert.Equal(t, "/tmp/j.db", cfg.Transport.Journal)
	})

	t.Run("log level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GANEO_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("applied by Load", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GANEO_MEASUREMENT_ID", "G-ENV")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, []string{"G-ENV"}, cfg.Tracking.MeasurementIDs)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty id", func(c *Config) { c.Tracking.MeasurementIDs = []string{"G-1", " "} }, "measurement_ids[1] is empty"},
		{"bad kind", func(c *Config) { c.Transport.Kind = "carrier-pigeon" }, "invalid transport kind"},
		{"journal without path", func(c *Config) {
			c.Transport.Kind = TransportJournal
			c.Transport.Journal = ""
		}, "requires transport.journal"},
		{"bad delay", func(c *Config) { c.Transport.LookupDelay = "soon" }, "invalid transport.lookup_delay"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "invalid logging level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "invalid logging format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGetLookupDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transport.LookupDelay = "250ms"
	assert.Equal(t, 250*time.Millisecond, cfg.GetLookupDelay())

	cfg.Transport.LookupDelay = "garbage"
	assert.Equal(t, time.Duration(0), cfg.GetLookupDelay())
}

func TestIsCategoryEnabled(t *testing.T) {
	c := LoggingConfig{}
	assert.True(t, c.IsCategoryEnabled("dispatch"))

	c.Categories = map[string]bool{"dispatch": false, "journal": true}
	assert.False(t, c.IsCategoryEnabled("dispatch"))
	assert.True(t, c.IsCategoryEnabled("journal"))
	assert.True(t, c.IsCategoryEnabled("script"))
}
