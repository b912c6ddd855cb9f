package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Logger on top of zap
type ZapLogger struct {
	logger *zap.Logger
}

// NewLogger builds a zap backed logger from the configuration
func NewLogger(config LogConfig) (*ZapLogger, error) {
	var zapConfig zap.Config

	// Configure log format
	if config.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Sampling = nil
	}

	level := zapcore.InfoLevel
	if config.Level != "" {
		if err := level.Set(config.Level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	// Configure output paths
	switch config.Output {
	case "file":
		if config.FilePath == "" {
			return nil, fmt.Errorf("file_path is required when output is file")
		}
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zapConfig.OutputPaths = []string{config.FilePath}
	case "stdout":
		zapConfig.OutputPaths = []string{"stdout"}
	default:
		zapConfig.OutputPaths = []string{"stderr"}
	}

	if !config.IncludeTimestamp {
		zapConfig.EncoderConfig.TimeKey = ""
	}
	zapConfig.DisableCaller = !config.IncludeCaller

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &ZapLogger{logger: logger}, nil
}

// NewZapLogger wraps an existing zap logger
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func toZapFields(fields []Field) []zap.Field {
	zf := make([]zap.Field, len(fields))
	for i, f := range fields {
		if err, ok := f.Value.(error); ok {
			zf[i] = zap.NamedError(f.Key, err)
			continue
		}
		zf[i] = zap.Any(f.Key, f.Value)
	}
	return zf
}

func mapFields(data map[string]interface{}) []zap.Field {
	zf := make([]zap.Field, 0, len(data))
	for k, v := range data {
		zf = append(zf, zap.Any(k, v))
	}
	return zf
}

// Debug logs a debug message
func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, toZapFields(fields)...)
}

// Info logs an info message
func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, toZapFields(fields)...)
}

// Warn logs a warning message
func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, toZapFields(fields)...)
}

// Error logs an error message
func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, toZapFields(fields)...)
}

// WithFields returns a new logger with the given fields
func (l *ZapLogger) WithFields(fields ...Field) Logger {
	return &ZapLogger{logger: l.logger.With(toZapFields(fields)...)}
}

// WithContext returns a new logger carrying the request id of ctx, if any
func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return &ZapLogger{logger: l.logger.With(zap.String("request_id", id))}
	}
	return l
}

// LogIntegrationEvent records integration lifecycle events
func (l *ZapLogger) LogIntegrationEvent(integrationID string, event string, data map[string]interface{}) {
	fields := append([]zap.Field{
		zap.String("integration_id", integrationID),
		zap.String("event", event),
	}, mapFields(data)...)
	l.logger.Info("integration event", fields...)
}

// LogDraftEvent records draft store events
func (l *ZapLogger) LogDraftEvent(key string, event string, data map[string]interface{}) {
	fields := append([]zap.Field{
		zap.String("draft_key", key),
		zap.String("event", event),
	}, mapFields(data)...)
	l.logger.Debug("draft event", fields...)
}

// LogSystemEvent records system-level events
func (l *ZapLogger) LogSystemEvent(event string, data map[string]interface{}) {
	fields := append([]zap.Field{zap.String("event", event)}, mapFields(data)...)
	l.logger.Info("system event", fields...)
}

// Sync flushes buffered log entries
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// Zap exposes the underlying zap logger
func (l *ZapLogger) Zap() *zap.Logger {
	return l.logger
}
