package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls global logger construction
type Options struct {
	Verbose bool
	Level   string // debug, info, warn, error
	Format  string // auto, console, json
	Out     io.Writer
}

// Init initializes the global logger
func Init(opts Options) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := parseLevel(opts.Level)
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	log.Logger = zerolog.New(writerFor(out, opts.Format)).With().Timestamp().Logger()
}

// writerFor picks the console writer for terminals and raw JSON otherwise
func writerFor(out io.Writer, format string) io.Writer {
	switch strings.ToLower(format) {
	case "json":
		return out
	case "console":
		return zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return out
}

func parseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithComponent creates a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
