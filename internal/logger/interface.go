package logger

import (
	"context"

	"PlaceCache/internal/models"
)

// Service defines the interface for application logging
// External packages should use this interface, not the concrete implementations
type Service interface {
	LogInfo(ctx context.Context, operation, message string, metadata map[string]interface{})
	LogSuccess(ctx context.Context, operation, targetName, message string, metadata map[string]interface{})
	LogError(ctx context.Context, operation, targetName, message string, err error, severity models.LogSeverity, metadata map[string]interface{})
	Close() error
}

// Sink is where DatabaseLogger delivers entries: the application_logs table
// when LOG_SINK=database, stdout as JSON lines when LOG_SINK=stdout.
// Close is called once the logger's queue has drained.
type Sink interface {
	InsertLog(ctx context.Context, entry *models.LogEntry) error
	Close() error
	Ping(ctx context.Context) error
}
