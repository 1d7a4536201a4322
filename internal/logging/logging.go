package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New builds the process logger. Console output is meant for a terminal,
// json for the edge server behind a collector.
func New(level, format string, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	case FormatJSON:
		out = w
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
