package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"PlaceCache/internal/models"

	"github.com/google/uuid"
)

// DatabaseLogger implements the Service interface on top of a Sink
type DatabaseLogger struct {
	db      Sink
	pending sync.WaitGroup
}

// NewDatabaseLogger creates a new logger writing to the given sink
func NewDatabaseLogger(db Sink) Service {
	return newDatabaseLogger(db)
}

func newDatabaseLogger(db Sink) *DatabaseLogger {
	return &DatabaseLogger{
		db: db,
	}
}

// LogInfo logs an informational message (no severity)
func (l *DatabaseLogger) LogInfo(ctx context.Context, operation, message string, metadata map[string]interface{}) {
	l.logEntry(ctx, "", operation, "", message, nil, metadata)
}

// LogSuccess logs a successful operation (no severity)
func (l *DatabaseLogger) LogSuccess(ctx context.Context, operation, targetName, message string, metadata map[string]interface{}) {
	l.logEntry(ctx, "", operation, targetName, message, nil, metadata)
}

// LogError logs an error with required severity
func (l *DatabaseLogger) LogError(ctx context.Context, operation, targetName, message string, err error, severity models.LogSeverity, metadata map[string]interface{}) {
	l.logEntry(ctx, severity, operation, targetName, message, err, metadata)
}

// logEntry builds the entry and hands it to the sink
func (l *DatabaseLogger) logEntry(ctx context.Context, severity models.LogSeverity, operation, targetName, message string, err error, metadata map[string]interface{}) {
	logEvent := GetLogEvent(ctx)

	entry := &models.LogEntry{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		Severity:    severity,
		Message:     message,
		Operation:   operation,
		TargetName:  targetName,
		ProcessID:   logEvent.ProcessID,
		ProcessType: logEvent.ProcessType,
		ClientIP:    logEvent.ClientIP,
		Metadata:    metadata,
	}

	if err != nil {
		entry.Error = err.Error()
	}

	// Insert asynchronously so logging never blocks a lookup
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()

		logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := l.db.InsertLog(logCtx, entry); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to insert log entry: %v\n", err)
		}
	}()
}

// Close waits for in-flight entries and closes the sink
func (l *DatabaseLogger) Close() error {
	l.pending.Wait()
	return l.db.Close()
}

// LogOperations defines constants for common operations
const (
	OpPlaceSearch        = "place_search"
	OpBatchSearch        = "batch_search"
	OpCacheHitMemory     = "cache_hit_memory"
	OpCacheHitPersistent = "cache_hit_persistent"
	OpCacheMiss          = "cache_miss"
	OpCacheStoreFault    = "cache_store_fault"
	OpCacheInvalidate    = "cache_invalidate"
	OpCacheReap          = "cache_reap"
	OpCacheList          = "cache_list"
	OpCacheStats         = "cache_stats"
	OpOriginFetch        = "origin_fetch"
	OpRateLimited        = "rate_limited"
	OpServerStart        = "server_start"
	OpServerShutdown     = "server_shutdown"
	OpHealthCheck        = "health_check"
)
