// Package diag emits the engine's diagnostic trace in its fixed line format:
//
//	[FontShim] [R:<run> S:<index>/<total>] message
//
// R is the scan pass number; the S scope indexes the stylesheet loop, the F
// scope the inline-fix loop. The format is positional, so this sits on the
// stdlib logger rather than slog (which the CLI host uses for its own logs).
package diag

import (
	"fmt"
	"io"
	"log"
	"os"
)

const prefix = "[FontShim]"

// ScanScope and FixScope tag which loop a trace line belongs to.
const (
	ScanScope = 'S'
	FixScope  = 'F'
)

// Logger writes trace lines to a console-like sink. A disabled logger
// swallows everything; no consumer depends on the output.
type Logger struct {
	enabled bool
	out     *log.Logger
}

// New builds a Logger writing to w (stderr when w is nil).
func New(enabled bool, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{enabled: enabled, out: log.New(w, "", 0)}
}

// Enabled reports whether trace output is on.
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}

// Logf writes one trace line for position index/total of the given scope
// within scan pass run.
func (l *Logger) Logf(run int, scope rune, index, total int, format string, args ...any) {
	if !l.Enabled() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.out.Printf("%s [R:%d %c:%d/%d] %s", prefix, run, scope, index, total, msg)
}

// Bind returns a printf-shaped function with the positional context fixed,
// for handing into code that only knows the message.
func (l *Logger) Bind(run int, scope rune, index, total int) func(string, ...any) {
	return func(format string, args ...any) {
		l.Logf(run, scope, index, total, format, args...)
	}
}
