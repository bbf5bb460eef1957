// Package logging builds the zap loggers used by the jobdesk binaries.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	level  zapcore.Level
	stderr bool
}

// Option adjusts a logger built by New.
type Option func(*options)

// WithLevel sets the minimum level for every sink.
func WithLevel(l zapcore.Level) Option {
	return func(o *options) { o.level = l }
}

// WithoutStderr keeps the logger off the terminal. The TUI owns the screen.
func WithoutStderr() Option {
	return func(o *options) { o.stderr = false }
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// New creates a zap logger that writes JSON to logPath and, unless
// disabled, a console rendering to stderr. Session name and PID are
// included as initial fields.
func New(logPath, sessionName string, opts ...Option) (*zap.Logger, error) {
	o := options{level: zapcore.InfoLevel, stderr: true}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	encoderCfg := encoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), o.level),
	}
	if o.stderr {
		cores = append(cores,
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stderr), o.level))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.Fields(
			zap.String("session", sessionName),
			zap.Int("pid", os.Getpid()),
		),
	)
	return logger, nil
}

// NewConsole returns a stderr-only logger for one-shot commands.
func NewConsole(level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(os.Stderr), level)
	return zap.New(core)
}
