package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var zlog = zerolog.New(os.Stdout).With().Timestamp().Logger()

// InitStructured initializes the global logger. local/development get a
// console writer, every other environment JSON lines. LOG_LEVEL overrides
// the default level (debug for console, info otherwise).
func InitStructured(env string) {
	var w io.Writer = os.Stdout
	level := zerolog.InfoLevel

	if isConsoleEnv(env) {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zlog = zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", "journal-backend").
		Logger()
}

func isConsoleEnv(env string) bool {
	switch env {
	case "", "local", "dev", "development":
		return true
	}
	return false
}

// GetLogger returns the global zerolog logger
func GetLogger() *zerolog.Logger {
	return &zlog
}

// WithRequestID returns a logger with request_id field
func WithRequestID(requestID string) zerolog.Logger {
	return zlog.With().Str("request_id", requestID).Logger()
}

// WithUserID returns a logger with user_id field
func WithUserID(userID uint64) zerolog.Logger {
	return zlog.With().Uint64("user_id", userID).Logger()
}

// WithComponent returns a logger tagged for a background component
// (scheduler, purge, reminder consumer)
func WithComponent(name string) zerolog.Logger {
	return zlog.With().Str("component", name).Logger()
}

// SetOutput swaps the writer, used by tests to capture log lines
func SetOutput(w io.Writer) {
	zlog = zlog.Output(w)
}
