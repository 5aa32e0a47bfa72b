package domain

import (
	"log/slog"
	"time"
)

// LogEntry is one line of a node's append-only log.
type LogEntry struct {
	Timestamp time.Time  `json:"timestamp"`
	Level     slog.Level `json:"level"`
	Message   string     `json:"message"`
}

// NewLogEntry stamps a log entry with the current time.
func NewLogEntry(level slog.Level, message string) LogEntry {
	return LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	}
}
