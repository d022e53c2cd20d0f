package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a wrapper around zerolog.Logger
type Logger struct {
	logger zerolog.Logger
}

// Config holds logging configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, file path
}

// NewLogger creates a new logger with the given configuration
func NewLogger(cfg Config) (*Logger, error) {
	var output io.Writer

	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		output = file
	}

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	return newWithWriter(output, cfg.Level), nil
}

func newWithWriter(w io.Writer, levelName string) *Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil || levelName == "" {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = logger

	return &Logger{logger: logger}
}

// NewNop returns a logger that discards everything, for tests
func NewNop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// WithRequestID adds a request ID to the logger
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{logger: l.logger.With().Str("request_id", requestID).Logger()}
}

// WithUserID adds the acting user to the logger
func (l *Logger) WithUserID(userID int64) *Logger {
	return &Logger{logger: l.logger.With().Int64("user_id", userID).Logger()}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

// Fatalf logs a formatted fatal message and exits
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatal().Msgf(format, args...)
}

// LogHTTPRequest logs HTTP request details
func (l *Logger) LogHTTPRequest(method, path, clientIP string, statusCode int, duration time.Duration) {
	evt := l.logger.Info()
	if statusCode >= 500 {
		evt = l.logger.Error()
	}

	evt.
		Str("method", method).
		Str("path", path).
		Str("client_ip", clientIP).
		Int("status_code", statusCode).
		Dur("duration_ms", duration).
		Msg("HTTP request")
}

// LogDatabaseOperation logs a database operation
func (l *Logger) LogDatabaseOperation(operation string, duration time.Duration, err error) {
	evt := l.logger.Debug()
	if err != nil {
		evt = l.logger.Error().Err(err)
	}

	evt.
		Str("operation", operation).
		Dur("duration_ms", duration).
		Msg("Database operation")
}

// LogProviderCall logs one call to a text-generation provider
func (l *Logger) LogProviderCall(provider, kind string, duration time.Duration, err error) {
	evt := l.logger.Info()
	if err != nil {
		evt = l.logger.Warn().Err(err)
	}

	evt.
		Str("provider", provider).
		Str("kind", kind).
		Dur("duration_ms", duration).
		Msg("Provider call")
}

// LogPaymentEvent logs a payment state change
func (l *Logger) LogPaymentEvent(reference, event string, userID int64, details map[string]interface{}) {
	evt := l.logger.Info().
		Str("payment_reference", reference).
		Str("event", event).
		Int64("user_id", userID)

	for k, v := range details {
		evt = evt.Interface(k, v)
	}

	evt.Msg("Payment event")
}
