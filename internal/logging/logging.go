// Package logging builds the zerolog logger used for a run.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Level maps the -v/-q and -d counters to a zerolog level. The more
// verbose of the two mappings wins.
func Level(verbose, debug int) zerolog.Level {
	var level zerolog.Level
	switch {
	case verbose <= 0:
		level = zerolog.ErrorLevel
	case verbose == 1:
		level = zerolog.WarnLevel
	case verbose == 2:
		level = zerolog.InfoLevel
	default:
		level = zerolog.DebugLevel
	}

	switch {
	case debug >= 2:
		level = min(level, zerolog.TraceLevel)
	case debug == 1:
		level = min(level, zerolog.DebugLevel)
	}
	return level
}

// Options configures New.
type Options struct {
	Verbose int
	Debug   int
	// Out receives log lines. Defaults to os.Stderr.
	Out io.Writer
	// NoColor disables ANSI colours. It is forced on when Out is not a terminal.
	NoColor bool
}

// New returns a console logger at the level derived from opts.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    opts.NoColor || !isTerminal(out),
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(writer).
		Level(Level(opts.Verbose, opts.Debug)).
		With().Timestamp().Logger()
}

// OpenFile opens path for appending log lines.
func OpenFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
