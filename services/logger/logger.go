package logger

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Service string
	Env     string
	// Level is a zap level name; empty keeps the env's default.
	Level string
}

// New builds the process logger. Every line carries service, env and an
// instance id that is fresh per process, so a cron pass and an opportunistic
// pass from two replicas can be told apart.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	return cfg.Build(
		zap.Fields(
			zap.String("service", opts.Service),
			zap.String("env", opts.Env),
			zap.String("instance", uuid.NewString()),
		),
	)
}

// Component tags every line of log with the engine component that wrote it.
func Component(log *zap.Logger, name string) *zap.Logger {
	return log.With(zap.String("component", name))
}
