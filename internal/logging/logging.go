// Package logging owns the process-wide zap logger.
package logging

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// Init builds the global logger. Development mode gets colored, debug-level
// console output; anything else gets the production JSON config.
func Init(env string) {
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var err error
	logger, err = cfg.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
}

// Get returns the global logger, initializing a default one if Init was
// never called (tests, mainly).
func Get() *zap.Logger {
	if logger == nil {
		Init("development")
	}
	return logger
}
