// Package diag implements the rotating JSON-lines diagnostics log every
// mesh.Logger consumer writes to: wire failures, dangling-variable
// refcount diagnostics, and registry errors. A lumberjack-backed
// io.WriteCloser fed through a json.Encoder, one JSON line per event.
package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes structured diagnostic events as newline-delimited JSON,
// with automatic rotation via lumberjack. It satisfies mesh.Logger without
// mesh importing diag.
type Logger struct {
	mu     sync.Mutex
	writer io.WriteCloser
	enc    *json.Encoder
}

// entry is one line of the diagnostics log.
type entry struct {
	Time   string         `json:"time"`
	Event  string         `json:"event"`
	Fields map[string]any `json:"fields,omitempty"`
}

// New creates a Logger writing to path, rotating at 100MB/10 backups/365
// days with gzip compression.
func New(path string) *Logger {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 10,
		MaxAge:     365,
		Compress:   true,
	}
	return &Logger{
		writer: writer,
		enc:    json.NewEncoder(writer),
	}
}

// Event writes one diagnostic line. It satisfies mesh.Logger.
//
// Panics if JSON encoding fails: fields are always JSON-safe primitives
// (strings, numbers, bools) populated by this module's own callers, so a
// failure here means a programming error, not a runtime condition to
// recover from.
func (l *Logger) Event(name string, fields map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(entry{
		Time:   time.Now().UTC().Format(time.RFC3339Nano),
		Event:  name,
		Fields: fields,
	}); err != nil {
		panic(fmt.Sprintf("diag log encode failed: %v", err))
	}
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Close()
}

// Event names, centralized so cli and cmd/wiremesh agree on what a
// host driver should look for when deciding to restart or terminate a
// failed wire.
const (
	EventWireFailed        = "wire_failed"
	EventDanglingVariable  = "dangling_variable"
	EventRegistryError     = "registry_error"
	EventComposeDiagnostic = "compose_diagnostic"
)
