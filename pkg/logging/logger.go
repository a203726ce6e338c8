// Package logging configures the process-wide zerolog logger used by the
// fetch pipelines and hands out component loggers.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output instead of JSON lines.
	Pretty bool

	// Output defaults to os.Stderr so stdout stays free for reports.
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
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

// NewLogger creates a logger tagged with the given component name.
// It derives from the global logger, so call Setup first.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request flow details
//   - cache hit/miss, conditional requests, TTLs
//   - individual roster rows and website lookups
//   - retry backoff decisions
//
// Info: run milestones
//   - roster parsed (count), batch started/finished
//   - server startup/shutdown
//
// Warn: degraded but continuing
//   - a single website lookup failed (record keeps an empty website)
//   - Pokemon fetch failed (caller gets no data)
//   - throttling active, cache errors
//
// Error: the run cannot continue
//   - roster page fetch failed
//   - retries exhausted, configuration errors
//
// Context Fields:
//   - url: requested URL
//   - status: HTTP status code
//   - error_class: client, server, rate_limit, network
//   - senator: senator name for per-record warnings
//   - attempt, backoff: retry bookkeeping
