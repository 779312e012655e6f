// Package logging builds the application logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a production-config logger, raised to debug level when
// verbose is set. Falls back to a no-op logger if construction fails.
func New(verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
