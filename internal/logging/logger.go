// Package logging builds the zap loggers used across ganeo.
// Output goes to stderr and, optionally, a file. Each subsystem logs under
// its own category, which can be switched off in the config.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ganeo/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryDispatch  Category = "dispatch"  // Buffering and client id lookups
	CategoryTransport Category = "transport" // gtag calls leaving the adapter
	CategoryJournal   Category = "journal"   // SQLite journal
	CategoryScript    Category = "script"    // Call script execution
	CategoryCLI       Category = "cli"       // Command line
)

// Logger hands out per-category zap loggers.
type Logger struct {
	root *zap.Logger
	cfg  config.LoggingConfig
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{root: zap.NewNop()}
}

// Wrap returns a Logger around an existing zap logger.
func Wrap(root *zap.Logger, cfg config.LoggingConfig) *Logger {
	if root == nil {
		root = zap.NewNop()
	}
	return &Logger{root: root, cfg: cfg}
}

// New builds the root logger from cfg. verbose, like debug_mode, forces
// the debug level.
func New(cfg config.LoggingConfig, verbose bool) (*Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" || cfg.Format == "text" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	level := ParseLevel(cfg.Level)
	if verbose || cfg.DebugMode {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	zc.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zc.OutputPaths = append(zc.OutputPaths, cfg.File)
	}

	root, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &Logger{root: root, cfg: cfg}, nil
}

// ParseLevel maps a config level to a zap level. Unknown values are info.
func ParseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Root returns the uncategorized logger.
func (l *Logger) Root() *zap.Logger {
	return l.root
}

// Get returns the logger for a category, or a no-op logger when the
// category is disabled.
func (l *Logger) Get(category Category) *zap.Logger {
	if !l.cfg.IsCategoryEnabled(string(category)) {
		return zap.NewNop()
	}
	return l.root.Named(string(category))
}

// Sync flushes buffered output.
func (l *Logger) Sync() error {
	return l.root.Sync()
}
