// Package forgelog is forge's structured logging wrapper, grounded on the
// pack's charmbracelet/log adapter: one Logger per component and derived
// loggers that carry persistent fields.
package forgelog

import (
	"io"
	"os"
	"strings"

	cblog "github.com/charmbracelet/log"
)

// Options configures a new Logger.
type Options struct {
	Writer    io.Writer
	Level     string // debug, info, warn, error
	Component string
	JSON      bool
}

// Logger adapts charmbracelet/log with forge's component/field conventions.
type Logger struct {
	base   *cblog.Logger
	fields []interface{}
}

// New constructs a Logger from Options.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	logOpts := cblog.Options{
		Level:           level,
		ReportTimestamp: true,
	}
	if opts.JSON {
		logOpts.Formatter = cblog.JSONFormatter
	}

	base := cblog.NewWithOptions(writer, logOpts)

	var fields []interface{}
	if opts.Component != "" {
		fields = []interface{}{"component", opts.Component}
	}

	return &Logger{base: base, fields: fields}, nil
}

// With derives a child logger carrying the supplied key/value pairs on every
// subsequent entry in addition to this logger's own fields.
func (l *Logger) With(kv ...interface{}) *Logger {
	if l == nil {
		return nil
	}
	next := make([]interface{}, 0, len(l.fields)+len(kv))
	next = append(next, l.fields...)
	next = append(next, kv...)
	return &Logger{base: l.base, fields: next}
}

func (l *Logger) payload(kv []interface{}) []interface{} {
	out := make([]interface{}, 0, len(l.fields)+len(kv))
	out = append(out, l.fields...)
	out = append(out, kv...)
	return out
}

func (l *Logger) Debug(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.base.Debug(msg, l.payload(kv)...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.base.Info(msg, l.payload(kv)...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.base.Warn(msg, l.payload(kv)...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
	if l == nil {
		return
	}
	l.base.Error(msg, l.payload(kv)...)
}

// Noop returns a Logger that discards everything, used by tests and
// contexts that don't care about log output.
func Noop() *Logger {
	l, _ := New(Options{Writer: io.Discard})
	return l
}
