// Package observability provides the zerolog logger and Prometheus metrics
// shared by the clients, the CLI and the MCP server.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/papers-cli/papers/pkg/papers"
)

// LoggingConfig contains logger configuration options.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format is the output format (json, console, pretty).
	Format string

	// Output is the destination (stdout, stderr). Data goes to stdout, so
	// logs default to stderr.
	Output string

	// AddSource adds source file and line number to log entries.
	AddSource bool

	// TimeFormat is the time format for timestamps.
	TimeFormat string

	// Writer overrides Output when set.
	Writer io.Writer
}

// DefaultLoggingConfig returns a LoggingConfig for interactive use.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      "warn",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	}
}

// NewLogger creates a zerolog logger based on configuration.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	output := cfg.Writer
	if output == nil {
		switch strings.ToLower(cfg.Output) {
		case "stdout":
			output = os.Stdout
		default:
			output = os.Stderr
		}
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: timeFormat}
	}

	builder := zerolog.New(output).With().Timestamp()
	if cfg.AddSource {
		builder = builder.Caller()
	}

	return builder.Logger().Level(ParseLevel(cfg.Level))
}

// ParseLevel converts a string log level to zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger adapts a zerolog.Logger to papers.Logger.
type Logger struct {
	zl zerolog.Logger
}

var _ papers.Logger = (*Logger)(nil)

// NewLoggerAdapter wraps zl.
func NewLoggerAdapter(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// Zerolog returns the wrapped logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// With returns a logger that adds the component field to every entry.
func (l *Logger) With(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.zl.Error().Fields(fields).Msg(msg)
}
