// Package logging provides the single process-wide logging facility used
// by every protocol server and substrate package. It wraps rs/zerolog the
// same way the teacher's main.go builds its zlog: a console writer for
// humans, a JSON encoder for machines, one global level set once at init.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the root logger is constructed from environment
// configuration (spec.md §6: LOG_JSON_FORMAT, LOG_DEBUG_MODE,
// LOG_MAX_FILE_SIZE, LOG_RETENTION_DAYS).
type Options struct {
	JSON            bool
	Debug           bool
	ServiceName     string
	FileDir         string
	MaxFileSizeMB   int
	RetentionDays   int
}

var (
	once sync.Once
	root zerolog.Logger
)

// Init builds the root logger. Calling Init more than once is a no-op
// after the first call, matching the teacher's single zerolog.SetGlobalLevel
// call in its package init().
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		level := zerolog.InfoLevel
		if opts.Debug {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)

		var w io.Writer
		if opts.JSON {
			w = os.Stdout
		} else {
			w = zerolog.ConsoleWriter{
				Out:        os.Stdout,
				TimeFormat: time.Stamp,
			}
		}

		if opts.FileDir != "" {
			w = io.MultiWriter(w, NewRotatingWriter(opts.FileDir, opts.ServiceName, opts.MaxFileSizeMB, opts.RetentionDays))
		}

		root = zerolog.New(w).With().Timestamp().Str("service", opts.ServiceName).Logger()
	})
	return root
}

// Root returns the process-global logger, constructing a bare-bones
// console logger if Init was never called (useful in tests).
func Root() zerolog.Logger {
	once.Do(func() {
		root = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Stamp}).With().Timestamp().Logger()
	})
	return root
}
