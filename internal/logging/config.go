package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config selects the logger's level, format, and destination.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn, error, fatal.
	Level string
	// Format is json or text.
	Format string
	// Output is stdout, stderr, or a file path opened for append.
	Output string
}

// DefaultConfig returns the production defaults: info-level JSON on stderr.
func DefaultConfig() *Config {
	return &Config{Level: "info", Format: FormatJSON, Output: "stderr"}
}

// NewLogger builds a Logger from the configuration. A nil config uses the
// defaults.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	output, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	l := New(level, output)
	if strings.EqualFold(cfg.Format, FormatText) {
		l.format = FormatText
	}
	return l, nil
}

// ParseLevel converts a level name to a Level. The empty string maps to
// info.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("logging: unknown level %q", name)
	}
}

func openOutput(dest string) (io.Writer, error) {
	switch dest {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		return os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	}
}
