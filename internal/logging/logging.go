// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger and returns it.
// Development gets a colored console writer at debug level; everything else
// gets JSON at info level. A non-empty level overrides the environment default.
func Init(development bool, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if development {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.SetGlobalLevel(levelFor(development, level))

	logger := zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()

	log.Logger = logger
	return logger
}

func levelFor(development bool, level string) zerolog.Level {
	if level != "" {
		if lvl, err := zerolog.ParseLevel(level); err == nil {
			return lvl
		}
	}
	if development {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
