// Package logging wires the module's structured logging, following the
// pattern of elys-network/avm's internal/logger package: a process-wide
// zerolog.Logger, with component-scoped children handed out to callers.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var base zerolog.Logger

func init() {
	Init("info")
}

// Init (re)configures the global logger at the given level ("debug",
// "info", "warn", "error").
func Init(level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	console := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}

	base = zerolog.New(console).With().Timestamp().Logger()

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// For returns a child logger tagged with a "component" field, so log lines
// from the planner, selector, executor, etc. can be filtered independently.
func For(component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}
