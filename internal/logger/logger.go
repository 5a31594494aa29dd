// Package logger provides structured JSON logging and run metrics for the
// box-score pipeline.
//
// Every entry is one JSON object per line carrying a timestamp, level,
// message, optional fields and optional error text. Child loggers created
// with With carry bound fields (season, component, ...) into every entry.
//
// Example usage:
//
//	log := logger.Default().With(logger.Fields{"component": "crawler", "season": 2010})
//	log.Info("stored box score", logger.Fields{"key": key})
//	log.Warn("page unavailable", logger.Fields{"url": u})
//
//	metrics := logger.NewMetrics()
//	metrics.IncrCounter(logger.MetricFetchUnavailable)
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel converts a case-insensitive level name to a Level
func ParseLevel(s string) (Level, error) {
	lvl := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRank[lvl]; !ok {
		return "", fmt.Errorf("unknown log level: %q", s)
	}
	return lvl, nil
}

// Fields represents structured log fields
type Fields map[string]interface{}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// sink is shared between a logger and its children so writes never interleave
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

// Logger writes structured entries at or above a minimum level
type Logger struct {
	minLevel Level
	sink     *sink
	bound    Fields
	now      func() time.Time
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(LevelInfo, os.Stderr)
)

// New creates a logger writing to out
func New(level Level, out io.Writer) *Logger {
	return &Logger{
		minLevel: level,
		sink:     &sink{out: out},
		now:      time.Now,
	}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	l := New(LevelError, io.Discard)
	l.minLevel = "OFF"
	return l
}

// Default returns the package-level logger
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the package-level logger
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// With returns a child logger that adds fields to every entry
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.bound)+len(fields))
	for k, v := range l.bound {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{
		minLevel: l.minLevel,
		sink:     l.sink,
		bound:    merged,
		now:      l.now,
	}
}

// Enabled reports whether entries at level are written
func (l *Logger) Enabled(level Level) bool {
	floor, ok := levelRank[l.minLevel]
	if !ok {
		return false
	}
	return levelRank[level] >= floor
}

func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
	}
	if len(l.bound) > 0 || len(fields) > 0 {
		entry.Fields = make(Fields, len(l.bound)+len(fields))
		for k, v := range l.bound {
			entry.Fields[k] = v
		}
		for k, v := range fields {
			entry.Fields[k] = v
		}
	}
	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if marshalErr != nil {
		fmt.Fprintf(l.sink.out, "[%s] %s: %s (marshal error: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, marshalErr)
		return
	}
	fmt.Fprintln(l.sink.out, string(data))
}

// Debug logs detailed diagnostic information
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs general progress
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a recoverable problem, such as a page that could not be fetched
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

// Error logs a failure together with its error value
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}
