package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter is a zapcore.Core that forwards entries to a Logger, so the
// engine packages can keep their zap field vocabulary while the service
// emits one uniform stream.
type ZapAdapter struct {
	logger *Logger
}

// NewZapAdapter wraps a Logger as a zapcore.Core.
func NewZapAdapter(logger *Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger}
}

// NewZapLogger builds a *zap.Logger whose entries land in the given
// Logger.
func NewZapLogger(logger *Logger) *zap.Logger {
	return zap.New(NewZapAdapter(logger), zap.AddCaller())
}

func fromZapLevel(level zapcore.Level) Level {
	switch {
	case level <= zapcore.DebugLevel:
		return LevelDebug
	case level == zapcore.InfoLevel:
		return LevelInfo
	case level == zapcore.WarnLevel:
		return LevelWarn
	case level == zapcore.FatalLevel:
		return LevelFatal
	default:
		// Error, DPanic, and Panic all surface as errors.
		return LevelError
	}
}

// Enabled implements zapcore.Core.
func (a *ZapAdapter) Enabled(level zapcore.Level) bool {
	return a.logger.Enabled(fromZapLevel(level))
}

// With implements zapcore.Core.
func (a *ZapAdapter) With(fields []zapcore.Field) zapcore.Core {
	return &ZapAdapter{logger: a.logger.WithFields(encodeFields(fields))}
}

// Check implements zapcore.Core.
func (a *ZapAdapter) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(ent.Level) {
		return ce.AddCore(ent, a)
	}
	return ce
}

// Write implements zapcore.Core. Fatal entries exit through the Logger's
// fatal path exactly once.
func (a *ZapAdapter) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	entry := encodeFields(fields)
	if ent.LoggerName != "" {
		entry["logger"] = ent.LoggerName
	}
	if ent.Caller.Defined {
		entry["caller"] = ent.Caller.TrimmedPath()
	}
	a.logger.log(fromZapLevel(ent.Level), ent.Message, entry, 0)
	return nil
}

// Sync implements zapcore.Core. The Logger writes through unbuffered.
func (a *ZapAdapter) Sync() error { return nil }

// encodeFields converts zap fields via zap's own object encoder, which
// handles every field type including durations, errors, and nested
// objects.
func encodeFields(fields []zapcore.Field) Fields {
	if len(fields) == 0 {
		return Fields{}
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return enc.Fields
}
