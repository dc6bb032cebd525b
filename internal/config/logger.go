package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger for the configured level. "debug" gets the
// development encoder; every other level uses the production JSON encoder.
func (c LoggingConfig) NewLogger() (*zap.Logger, error) {
	if c.Level == "debug" {
		return zap.NewDevelopment()
	}

	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}
