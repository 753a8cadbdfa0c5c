package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "gtracker-forum"

var zlog = zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()

// InitStructured configures the global logger for env. Local environments get
// console output; everything else writes JSON lines. LOG_LEVEL overrides the
// default info level.
func InitStructured(env string) {
	var w io.Writer = os.Stdout
	switch env {
	case "local", "dev", "development":
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zlog = zerolog.New(w).Level(levelFromEnv()).With().
		Timestamp().
		Str("service", serviceName).
		Str("env", env).
		Logger()
}

func levelFromEnv() zerolog.Level {
	raw := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// SetOutput redirects the global logger; tests pass io.Discard
func SetOutput(w io.Writer) {
	zlog = zlog.Output(w)
}

// GetLogger returns the global zerolog logger
func GetLogger() *zerolog.Logger {
	return &zlog
}

// WithRequest returns a child logger tagged with the request id and, when
// known, the acting user
func WithRequest(requestID, userID string) zerolog.Logger {
	ctx := zlog.With().Str("request_id", requestID)
	if userID != "" {
		ctx = ctx.Str("user_id", userID)
	}
	return ctx.Logger()
}
