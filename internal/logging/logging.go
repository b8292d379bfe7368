// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gluepipe/gluepipe/internal/config"
)

// TimeFormat is the timestamp layout of every log line.
const TimeFormat = time.TimeOnly

// ErrLogFile is the sentinel error wrapped by LogFileError.
var ErrLogFile = errors.New("cannot open log file")

type (
	// Options configures New.
	Options struct {
		// Level is the lowest level written.
		Level log.Level
		// Format selects the encoder; empty means text.
		Format config.LogFormat
		// File, when set, receives a copy of every line.
		File string
		// PID adds the process ID to every line.
		PID bool
		// Output is the primary sink; nil means os.Stderr.
		Output io.Writer
	}

	// LogFileError is returned when the log file cannot be opened.
	LogFileError struct {
		Path string
		Err  error
	}

	// Logger is a logger together with the files it owns.
	Logger struct {
		*log.Logger
		file *os.File
	}
)

// LevelFor maps the runtime's verbosity switches to a log level. Debug and
// verbose both enable debug messages; quiet keeps warnings and errors only.
func LevelFor(debug, verbose, quiet bool) log.Level {
	switch {
	case debug, verbose:
		return log.DebugLevel
	case quiet:
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}

// FromRuntime returns the options described by a resolved runtime
// configuration.
func FromRuntime(rt *config.Runtime) Options {
	return Options{
		Level:  LevelFor(rt.Debug, rt.Verbose, rt.Quiet),
		Format: rt.LogFormat,
		File:   rt.LogFile,
		PID:    rt.PID,
	}
}

// New creates a logger. The caller must Close it to release the log file.
func New(opts Options) (*Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var file *os.File
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, &LogFileError{Path: opts.File, Err: err}
		}
		file = f
		out = io.MultiWriter(out, f)
	}

	var fields []any
	if opts.PID {
		fields = append(fields, "pid", os.Getpid())
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           opts.Level,
		Formatter:       formatter(opts.Format),
		ReportTimestamp: true,
		TimeFormat:      TimeFormat,
		Fields:          fields,
	})
	return &Logger{Logger: logger, file: file}, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func formatter(format config.LogFormat) log.Formatter {
	switch format {
	case config.LogFormatJSON:
		return log.JSONFormatter
	case config.LogFormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// Error implements the error interface.
func (e *LogFileError) Error() string {
	return fmt.Sprintf("cannot open log file %q: %v", e.Path, e.Err)
}

// Unwrap returns ErrLogFile for errors.Is() compatibility.
func (e *LogFileError) Unwrap() error { return ErrLogFile }
