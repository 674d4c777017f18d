package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ganeo/internal/config"
)

func readJSONLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ganeo.log")
	l, err := New(config.LoggingConfig{Level: "info", Format: "json", File: path}, false)
	require.NoError(t, err)

	l.Get(CategoryDispatch).Info("buffered", zap.Int("pending", 3))
	l.Get(CategoryDispatch).Debug("hidden")
	_ = l.Sync()

	lines := readJSONLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "buffered", lines[0]["msg"])
	assert.Equal(t, "dispatch", lines[0]["logger"])
	assert.Equal(t, float64(3), lines[0]["pending"])
}

func TestDebugModeForcesDebugLevel(t *testing.T) {
	for _, tc := range []struct {
		name    string
		cfg     config.LoggingConfig
		verbose bool
	}{
		{"debug_mode", config.LoggingConfig{Level: "error", Format: "json", DebugMode: true}, false},
		{"verbose", config.LoggingConfig{Level: "error", Format: "json"}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.File = filepath.Join(t.TempDir(), "out.log")
			l, err := New(tc.cfg, tc.verbose)
			require.NoError(t, err)

			l.Root().Debug("visible")
			_ = l.Sync()

			assert.Len(t, readJSONLines(t, tc.cfg.File), 1)
		})
	}
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core), config.LoggingConfig{
		Categories: map[string]bool{"journal": false},
	})

	l.Get(CategoryJournal).Info("dropped")
	l.Get(CategoryScript).Info("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "script", logs.All()[0].LoggerName)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"loud":    zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.NotNil(t, l.Get(CategoryCLI))
	l.Get(CategoryCLI).Info("nothing")
	assert.NotNil(t, Wrap(nil, config.LoggingConfig{}).Root())
}
