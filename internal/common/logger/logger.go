// internal/common/logger/logger.go
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the minimal logging interface used across the
// assistant pipeline.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
	With(fields map[string]interface{}) Logger
}

// New builds the underlying zap logger from the configured level and
// format ("json" or "console").
func New(levelStr, format string) *zap.Logger {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, _ := cfg.Build()
	return logger
}

// zapWrapper adapts zap.Logger to the Logger interface.
type zapWrapper struct {
	l *zap.Logger
}

// NewZapAdapter wraps a zap.Logger in the Logger interface.
func NewZapAdapter(l *zap.Logger) Logger {
	return &zapWrapper{l: l}
}

func (z *zapWrapper) Debug(msg string, fields map[string]interface{}) {
	z.l.Debug(msg, mapToZapFields(fields)...)
}

func (z *zapWrapper) Info(msg string, fields map[string]interface{}) {
	z.l.Info(msg, mapToZapFields(fields)...)
}

func (z *zapWrapper) Warn(msg string, fields map[string]interface{}) {
	z.l.Warn(msg, mapToZapFields(fields)...)
}

func (z *zapWrapper) Error(msg string, fields map[string]interface{}) {
	z.l.Error(msg, mapToZapFields(fields)...)
}

func (z *zapWrapper) WithFields(fields map[string]interface{}) Logger {
	return &zapWrapper{l: z.l.With(mapToZapFields(fields)...)}
}

func (z *zapWrapper) WithError(err error) Logger {
	return &zapWrapper{l: z.l.With(zap.Error(err))}
}

func (z *zapWrapper) With(fields map[string]interface{}) Logger {
	return z.WithFields(fields)
}

func mapToZapFields(fields map[string]interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}

// Nop returns a logger that discards everything. Used by tests and as
// a safe default.
func Nop() Logger {
	return &zapWrapper{l: zap.NewNop()}
}
