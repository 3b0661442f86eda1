// Package logging configures the zerolog logger shared by the order counter.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs every fetched page.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs domain and run milestones.
	LevelInfo LogLevel = "info"

	// LevelWarn logs aborted domains and degraded caching.
	LevelWarn LogLevel = "warn"

	// LevelError logs run-level failures only.
	LevelError LogLevel = "error"
)

// Component names used with NewLogger.
const (
	ComponentClient  = "client"
	ComponentCounter = "counter"
	ComponentRunner  = "runner"
	ComponentCache   = "cache"
	ComponentReport  = "report"
	ComponentPacer   = "pacer"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: true,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel validates a user supplied level name.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug:
//   - every page fetched (page, offset, count, running total)
//   - throttle pauses
//   - cache reads and writes
//
// Info:
//   - domain list retrieved
//   - domain started / finished (total, pages, duration, reason)
//   - run progress (done, total, elapsed, eta) and final summary
//
// Warn:
//   - domain aborted by a fetch error
//   - cache unavailable, falling back to the endpoint
//
// Error:
//   - domain list could not be retrieved
//   - result files could not be written
//
// Context Fields:
//   - domain: base URL being counted
//   - page, offset, count, total: pagination cursor and tallies
//   - reason: termination reason (short_page, empty_streak, max_pages, error)
//   - error_kind: fetch error taxonomy (http_status, timeout, connection, parse, unexpected_shape)
//   - status_code: HTTP status of a failed page request
