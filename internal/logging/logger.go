// Package logging provides structured logging for the CargoOpt placement
// service: a leveled JSON logger with field chaining, a context carrier,
// an HTTP request-logging middleware, and a zapcore adapter so the engine
// packages' zap loggers route through the same sink.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// Level is the severity of a log entry.
type Level int8

const (
	// LevelDebug entries are voluminous and usually disabled outside
	// development.
	LevelDebug Level = iota
	// LevelInfo is the default priority.
	LevelInfo
	// LevelWarn entries are notable but need no individual review.
	LevelWarn
	// LevelError entries indicate a failure a human should look at.
	LevelError
	// LevelFatal logs the entry and then exits the process.
	LevelFatal
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int8(l))
	}
}

// Fields is a set of key/value pairs attached to a log entry.
type Fields = map[string]interface{}

// Logger is an immutable leveled logger. With* methods return derived
// loggers; the zero-allocation path is not a goal here, readability of the
// emitted JSON is.
type Logger struct {
	level  Level
	format string
	output io.Writer
	fields Fields

	// exit is swapped out in tests of the fatal path.
	exit func(int)
}

// New creates a Logger writing JSON entries at or above the given level.
func New(level Level, output io.Writer) *Logger {
	return &Logger{
		level:  level,
		format: FormatJSON,
		output: output,
		fields: Fields{},
		exit:   os.Exit,
	}
}

// WithFields returns a derived logger carrying the merged field set.
func (l *Logger) WithFields(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	out := *l
	out.fields = merged
	return &out
}

// WithField returns a derived logger carrying one extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(Fields{key: value})
}

// WithError returns a derived logger carrying the error field.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// Enabled reports whether entries at the given level are emitted.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

// Debug logs a message at debug level with optional fields.
func (l *Logger) Debug(msg string, fields ...Fields) { l.emit(LevelDebug, msg, first(fields)) }

// Info logs a message at info level with optional fields.
func (l *Logger) Info(msg string, fields ...Fields) { l.emit(LevelInfo, msg, first(fields)) }

// Warn logs a message at warn level with optional fields.
func (l *Logger) Warn(msg string, fields ...Fields) { l.emit(LevelWarn, msg, first(fields)) }

// Error logs a message at error level with optional fields.
func (l *Logger) Error(msg string, fields ...Fields) { l.emit(LevelError, msg, first(fields)) }

// Fatal logs a message at fatal level and exits the process.
func (l *Logger) Fatal(msg string, fields ...Fields) { l.emit(LevelFatal, msg, first(fields)) }

func first(fields []Fields) Fields {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// emit assembles and writes one entry. The caller attribution skips emit
// itself and the level method that called it.
func (l *Logger) emit(level Level, msg string, fields Fields) {
	l.log(level, msg, fields, 3)
}

// log writes one entry with explicit caller depth. The zap adapter calls
// it directly with its own caller already resolved.
func (l *Logger) log(level Level, msg string, fields Fields, callDepth int) {
	if !l.Enabled(level) {
		return
	}

	entry := make(Fields, len(l.fields)+len(fields)+4)
	for k, v := range l.fields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["message"] = msg
	if _, set := entry["caller"]; !set && callDepth > 0 {
		if _, file, line, ok := runtime.Caller(callDepth); ok {
			entry["caller"] = fmt.Sprintf("%s/%s:%d",
				filepath.Base(filepath.Dir(file)), filepath.Base(file), line)
		}
	}

	if l.format == FormatText {
		l.writeText(entry, msg, level)
	} else {
		l.writeJSON(entry, msg, level)
	}

	if level == LevelFatal {
		l.exit(1)
	}
}

func (l *Logger) writeJSON(entry Fields, msg string, level Level) {
	data, err := json.Marshal(entry)
	if err != nil {
		// A field that cannot marshal must not swallow the entry.
		fmt.Fprintf(l.output, "%s [%s] %s (unencodable fields: %v)\n",
			time.Now().UTC().Format(time.RFC3339), level, msg, err)
		return
	}
	data = append(data, '\n')
	_, _ = l.output.Write(data)
}

func (l *Logger) writeText(entry Fields, msg string, level Level) {
	keys := make([]string, 0, len(entry))
	for k := range entry {
		switch k {
		case "timestamp", "level", "message":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(l.output, "%s %-5s %s", entry["timestamp"], level, msg)
	for _, k := range keys {
		fmt.Fprintf(l.output, " %s=%v", k, entry[k])
	}
	fmt.Fprintln(l.output)
}

// CtxLogger carries a Logger through a context.
type CtxLogger struct {
	*Logger
}

type ctxLoggerKey struct{}

// WithContext returns a context carrying the logger.
func (l *CtxLogger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, l)
}

// FromContext returns the context's logger, or a default stderr logger
// when the context carries none.
func FromContext(ctx context.Context) *CtxLogger {
	if l, ok := ctx.Value(ctxLoggerKey{}).(*CtxLogger); ok {
		return l
	}
	return &CtxLogger{New(LevelInfo, os.Stderr)}
}
