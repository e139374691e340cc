package telemetry

import (
	"io"
	"os"
	"sort"
	"sync/atomic"

	"github.com/phuslu/log"
)

var current atomic.Pointer[log.Logger]

func init() {
	Configure("info", os.Stdout)
}

// Configure replaces the process logger. Unknown levels fall back to info.
func Configure(level string, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	lvl := log.ParseLevel(level)
	if level == "" {
		lvl = log.InfoLevel
	}
	current.Store(&log.Logger{
		Level:      lvl,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Writer:     &log.IOWriter{Writer: w},
	})
}

// Debug writes a debug-level log line with the given fields.
func Debug(msg string, fields map[string]any) {
	write(current.Load().Debug(), msg, fields)
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write(current.Load().Info(), msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	write(current.Load().Warn(), msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write(current.Load().Error(), msg, fields)
}

func write(e *log.Entry, msg string, fields map[string]any) {
	if e == nil {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e = e.Any(k, fields[k])
	}
	e.Msg(msg)
}
