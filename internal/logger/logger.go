// Package logger builds the service's zerolog logger and adapts it for pgx
// query tracing.
package logger

import (
	"io"
	"os"
	"time"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/config"
)

// New returns the root logger. Unknown levels fall back to info.
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "vacancy-service").Logger()
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// QueryTracer returns a pgx tracer that writes SQL to log, or nil when the
// logger is above debug level.
func QueryTracer(log zerolog.Logger) *tracelog.TraceLog {
	level := log.GetLevel()
	if level > zerolog.DebugLevel {
		return nil
	}

	traceLevel := tracelog.LogLevelDebug
	if level <= zerolog.TraceLevel {
		traceLevel = tracelog.LogLevelTrace
	}

	return &tracelog.TraceLog{
		Logger:   pgxzero.NewLogger(Component(log, "pgx")),
		LogLevel: traceLevel,
	}
}
