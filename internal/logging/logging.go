// Package logging provides the structured logger used across the pipeline.
// It wraps zerolog with the small amount of setup every entry point needs:
// level selection, console output for interactive runs, and a job field on
// every line so interleaved runs stay attributable.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options configures logger construction.
type Options struct {
	// Job is attached to every log line.
	Job string
	// Level is one of debug, info, warn, error; anything else means info.
	Level string
	// Console switches to human-readable console output instead of JSON.
	Console bool
}

// New constructs the pipeline logger.
func New(opt Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var w = zerolog.New(os.Stderr)
	if opt.Console {
		w = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	lvl := zerolog.InfoLevel
	switch opt.Level {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}

	return w.Level(lvl).With().Timestamp().Str("job", opt.Job).Logger()
}
