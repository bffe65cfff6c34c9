package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Sink receives human-readable progress messages.
type Sink func(string)

// Discard drops every message.
func Discard(string) {}

// New creates a console logger writing to w. Verbose enables debug output.
func New(w io.Writer, verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Status adapts a logger into a Sink that logs each message at info level.
func Status(log zerolog.Logger) Sink {
	return func(msg string) {
		log.Info().Msg(msg)
	}
}

// WithSource tags a logger with the source being imported.
func WithSource(log zerolog.Logger, name, kind string) zerolog.Logger {
	return log.With().Str("source", name).Str("kind", kind).Logger()
}
