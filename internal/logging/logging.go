// file: internal/logging/logging.go
// version: 1.0.0
// guid: 2e94b7c1-0d5a-4f63-b8e2-71c9a4d3f056

// Package logging holds the process-wide structured logger.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init replaces the global logger with a console logger at the given level
// (debug, info, warn, error). An empty level means info.
func Init(level string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	Set(l)
	return nil
}

// Set installs l as the global logger. Used by tests with zaptest/observer.
func Set(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// L returns the global logger. It is a no-op logger until Init or Set runs.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Sync flushes buffered entries; errors from syncing a terminal are ignored.
func Sync() {
	_ = L().Sync()
}
