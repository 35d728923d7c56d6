package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

const (
	bufferSize    = 1000
	pollInterval  = 10 * time.Millisecond
	consoleFormat = "2006-01-02T15:04:05.000Z07:00"
)

type Options struct {
	Level   string
	File    string
	Console bool
}

// Logger owns the sinks behind a zerolog.Logger. Writes never block the
// caller: the file sink sits behind a diode and drops lines when it is full.
type Logger struct {
	zerolog.Logger

	closers []io.Closer
}

func New(opts Options) (*Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorFieldName = "err"

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var (
		writers []io.Writer
		closers []io.Closer
	)
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: consoleFormat})
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		d := diode.NewWriter(f, bufferSize, pollInterval, func(missed int) {
			fmt.Fprintf(os.Stderr, "logger dropped %d messages\n", missed)
		})
		writers = append(writers, d)
		closers = append(closers, d)
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{Logger: zl, closers: closers}, nil
}

// Close flushes the file sink and closes the file. The embedded logger must
// not be used after.
func (l *Logger) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.closers = nil
	return first
}

func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
