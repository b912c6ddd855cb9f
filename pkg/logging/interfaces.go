// Package logging provides structured logging functionality.
package logging

import (
	"context"
)

// Logger provides structured logging
type Logger interface {
	// Debug logs a debug message
	Debug(msg string, fields ...Field)

	// Info logs an info message
	Info(msg string, fields ...Field)

	// Warn logs a warning message
	Warn(msg string, fields ...Field)

	// Error logs an error message
	Error(msg string, fields ...Field)

	// WithFields returns a new logger with the given fields
	WithFields(fields ...Field) Logger

	// WithContext returns a new logger with the given context
	WithContext(ctx context.Context) Logger

	// LogIntegrationEvent records integration lifecycle events
	LogIntegrationEvent(integrationID string, event string, data map[string]interface{})

	// LogDraftEvent records draft store events
	LogDraftEvent(key string, event string, data map[string]interface{})

	// LogSystemEvent records system-level events
	LogSystemEvent(event string, data map[string]interface{})
}

// Field represents a key-value pair in a log entry
type Field struct {
	// Key is the field name
	Key string

	// Value is the field value
	Value interface{}
}

// F is shorthand for constructing a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err returns an "error" field
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// LogConfig contains configuration for the logger
type LogConfig struct {
	// Level is the minimum log level to output
	Level string `json:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format is the log format ("json" or "console")
	Format string `json:"format" mapstructure:"format" validate:"omitempty,oneof=json console"`

	// Output is where logs are written ("stdout", "stderr" or "file")
	Output string `json:"output" mapstructure:"output" validate:"omitempty,oneof=stdout stderr file"`

	// FilePath is the path to the log file (if Output is "file")
	FilePath string `json:"file_path,omitempty" mapstructure:"file_path" validate:"required_if=Output file"`

	// IncludeTimestamp indicates whether to include timestamps
	IncludeTimestamp bool `json:"include_timestamp" mapstructure:"include_timestamp"`

	// IncludeCaller indicates whether to include caller information
	IncludeCaller bool `json:"include_caller" mapstructure:"include_caller"`
}

type requestIDKey struct{}

// ContextWithRequestID attaches a request id that WithContext adds to log entries
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id stored by ContextWithRequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
