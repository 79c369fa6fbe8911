// Package logging sets up the front ends' stdlib loggers, optionally teeing
// everything into a daily rotated file.
package logging

import (
	"io"
	"log"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
)

// Options configures New. A zero Options logs to stderr only.
type Options struct {
	// File is the path of the current log; rotated files get a date suffix.
	File         string
	MaxAge       time.Duration
	RotationTime time.Duration
	Verbose      bool
}

// Logger is a *log.Logger with an optional debug level and an owned file.
type Logger struct {
	*log.Logger
	verbose bool
	file    io.Closer
}

// New builds a logger writing to stderr and, when opts.File is set, to a
// rotating file as well.
func New(prefix string, opts Options) (*Logger, error) {
	return NewWithWriter(os.Stderr, prefix, opts)
}

// NewWithWriter is New with a console writer other than stderr.
func NewWithWriter(console io.Writer, prefix string, opts Options) (*Logger, error) {
	l := &Logger{verbose: opts.Verbose}
	w := console
	if opts.File != "" {
		if opts.MaxAge <= 0 {
			opts.MaxAge = 7 * 24 * time.Hour
		}
		if opts.RotationTime <= 0 {
			opts.RotationTime = 24 * time.Hour
		}
		rl, err := rotatelogs.New(
			opts.File+".%Y%m%d",
			rotatelogs.WithLinkName(opts.File),
			rotatelogs.WithMaxAge(opts.MaxAge),
			rotatelogs.WithRotationTime(opts.RotationTime),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "open log file %s", opts.File)
		}
		l.file = rl
		w = io.MultiWriter(console, rl)
	}
	l.Logger = log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
	return l, nil
}

// Debugf logs only in verbose mode.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.verbose {
		l.Printf("debug: "+format, args...)
	}
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
