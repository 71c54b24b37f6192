// Package logging provides structured, JSON-lines logging for the agent
// and collector binaries.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one structured log line.
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     Level                  `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger writes structured log entries to one or more writers.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	traceID   string
}

var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New returns a Logger writing to stdout at LevelInfo.
func New() *Logger {
	return &Logger{output: os.Stdout, minLevel: LevelInfo}
}

// WithFileTee returns a Logger that writes every entry to both stdout and
// the file at path, creating or appending to it. Mirrors the original
// agent's dual stdout-and-logfile behavior.
func WithFileTee(path string) (*Logger, error) {
	if path == "" {
		return New(), nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Logger{output: io.MultiWriter(os.Stdout, f), minLevel: LevelInfo}, nil
}

// WithComponent returns a derived Logger tagged with component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{output: l.output, minLevel: l.minLevel, component: component, traceID: l.traceID}
}

// WithTraceID returns a derived Logger tagged with traceID.
func (l *Logger) WithTraceID(traceID string) *Logger {
	return &Logger{output: l.output, minLevel: l.minLevel, component: l.component, traceID: traceID}
}

// SetLevel sets the minimum level that will be emitted.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput replaces the underlying writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) { l.log(LevelDebug, msg, fields...) }
func (l *Logger) Info(msg string, fields ...map[string]interface{})  { l.log(LevelInfo, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...map[string]interface{})  { l.log(LevelWarn, msg, fields...) }
func (l *Logger) Error(msg string, fields ...map[string]interface{}) { l.log(LevelError, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   msg,
		Component: l.component,
		TraceID:   l.traceID,
	}
	if len(fields) > 0 && fields[0] != nil {
		entry.Fields = fields[0]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		l.output.Write([]byte(msg + "\n"))
		return
	}
	l.output.Write(append(data, '\n'))
}

// EventsSent logs a batch successfully delivered to the collector.
func (l *Logger) EventsSent(count int, database, collection string) {
	l.Info("events_sent", map[string]interface{}{
		"count":      count,
		"database":   database,
		"collection": collection,
	})
}

// EventsRequeued logs a batch that failed delivery and was re-enqueued.
func (l *Logger) EventsRequeued(count int, reason string) {
	l.Warn("events_requeued", map[string]interface{}{
		"count":  count,
		"reason": reason,
	})
}

// RequestHandled logs one collector request/response round trip.
func (l *Logger) RequestHandled(operation, database, collection, status string, durationMs int64) {
	fields := map[string]interface{}{
		"operation":   operation,
		"database":    database,
		"collection":  collection,
		"status":      status,
		"duration_ms": durationMs,
	}
	if status == "error" {
		l.Error("request_handled", fields)
	} else {
		l.Info("request_handled", fields)
	}
}

// Default is the package-level logger used by the convenience functions.
var Default = New()

func Debug(msg string, fields ...map[string]interface{}) { Default.Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { Default.Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { Default.Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { Default.Error(msg, fields...) }
