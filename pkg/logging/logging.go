// Package logging provides the Logger interface shared across the
// host, transport, and filesystem-watcher packages, backed by zap.
package logging

import (
	"strings"

	"go.uber.org/zap"
)

// Logger is the logging surface consumed throughout this module. It
// is satisfied by *zap.SugaredLogger, but kept as a narrow interface
// so callers (and tests) can substitute a no-op or recording logger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// New builds a Logger at the given level ("debug", "info", "warn",
// "error"), writing structured logs to stderr. Configured by the
// CIVETLS_LOG environment variable at the call site.
func New(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	var zapLevel zap.AtomicLevel
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn", "warning":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = zapLevel

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return base.Sugar(), nil
}

// Nop returns a Logger that discards everything, for tests.
func Nop() Logger {
	return zap.NewNop().Sugar()
}
