// Package logger provides a shared structured logger for the update server.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger

func init() {
	// Default logger so packages can log before Initialize is called,
	// e.g. from tests or early flag parsing failures.
	Initialize("info")
}

// Initialize configures the global logger at the given level.
// Unknown levels fall back to info.
func Initialize(level string) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Stderr keeps stdout clean for commands that output data.
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	log = l.Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug logs a message at debug level
func Debug(args ...any) { log.Debug(args...) }

// Debugf logs a formatted message at debug level
func Debugf(format string, args ...any) { log.Debugf(format, args...) }

// Info logs a message at info level
func Info(args ...any) { log.Info(args...) }

// Infof logs a formatted message at info level
func Infof(format string, args ...any) { log.Infof(format, args...) }

// Warn logs a message at warn level
func Warn(args ...any) { log.Warn(args...) }

// Warnf logs a formatted message at warn level
func Warnf(format string, args ...any) { log.Warnf(format, args...) }

// Error logs a message at error level
func Error(args ...any) { log.Error(args...) }

// Errorf logs a formatted message at error level
func Errorf(format string, args ...any) { log.Errorf(format, args...) }

// Fatalf logs a formatted message at fatal level and exits
func Fatalf(format string, args ...any) { log.Fatalf(format, args...) }

// Sync flushes any buffered log entries
func Sync() error { return log.Sync() }
