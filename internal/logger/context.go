package logger

import (
	"context"
	"time"

	"PlaceCache/internal/models"
	"github.com/google/uuid"
)

type logEventKey struct{}

// NewLogEvent starts a process with a fresh ID. HTTP requests echo the ID
// back as X-Request-ID.
func NewLogEvent(processType models.ProcessType, clientIP string) *models.LogEvent {
	return &models.LogEvent{
		ProcessID:   uuid.New().String(),
		ProcessType: processType,
		StartTime:   time.Now().UTC(),
		ClientIP:    clientIP,
	}
}

func NewRequestLogEvent(clientIP string) *models.LogEvent {
	return NewLogEvent(models.ProcessTypeRequest, clientIP)
}

// NewInternalLogEvent is used for work with no caller, such as startup, shutdown and reaping
func NewInternalLogEvent() *models.LogEvent {
	return NewLogEvent(models.ProcessTypeInternal, "")
}

func WithLogEvent(ctx context.Context, logEvent *models.LogEvent) context.Context {
	return context.WithValue(ctx, logEventKey{}, logEvent)
}

// NewInternalContext returns a background context carrying a new internal process
func NewInternalContext() context.Context {
	return WithLogEvent(context.Background(), NewInternalLogEvent())
}

// GetLogEvent returns the process attached to ctx. A context without one,
// such as a detached cache fill, gets a new internal process.
func GetLogEvent(ctx context.Context) *models.LogEvent {
	if le, ok := ctx.Value(logEventKey{}).(*models.LogEvent); ok && le != nil {
		return le
	}
	return NewInternalLogEvent()
}
