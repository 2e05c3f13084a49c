// Package logging builds the zap loggers used across goecon.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names accepted by New.
const (
	DEBUG = "debug"
	INFO  = "info"
	WARN  = "warn"
	ERROR = "error"
)

// New returns a logger writing to stderr at the given level. Development
// loggers use the console encoder; production ones emit JSON.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !development

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a level name to a zap level. The empty string is info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", INFO:
		return zapcore.InfoLevel, nil
	case DEBUG:
		return zapcore.DebugLevel, nil
	case WARN, "warning":
		return zapcore.WarnLevel, nil
	case ERROR:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// NewTestLogger returns a development logger at debug level, falling back
// to a no-op logger if it cannot be built.
func NewTestLogger() *zap.Logger {
	logger, err := New(DEBUG, true)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
