package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"PlaceCache/internal/models"
)

// WriterConnection implements Sink by writing one JSON object per line
type WriterConnection struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdoutConnection creates a sink that writes JSON lines to stdout
func NewStdoutConnection() Sink {
	return newWriterConnection(os.Stdout)
}

func newWriterConnection(w io.Writer) *WriterConnection {
	return &WriterConnection{w: w}
}

// InsertLog writes the entry as a single JSON line
func (c *WriterConnection) InsertLog(ctx context.Context, entry *models.LogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}
	return nil
}

// Ping always succeeds
func (c *WriterConnection) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op; the underlying writer is owned by the caller
func (c *WriterConnection) Close() error {
	return nil
}
