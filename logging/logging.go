// Package logging defines the logger interface injected into the
// library's components, decoupling their diagnostics from any specific
// output stream.
package logging

import (
	"log"

	"go.uber.org/zap"
)

// Logger is the minimal printf-style logging surface a component needs.
type Logger interface {
	Printf(string, ...any)
}

// LoggerFunc is a bridge between Logger and any third party logger.
type LoggerFunc func(string, ...any)

// Printf implements Logger.
func (f LoggerFunc) Printf(msg string, args ...any) { f(msg, args...) }

// Discard writes nothing. It is the default for library components.
var Discard = LoggerFunc(func(string, ...any) {})

// Std wraps the standard library's log.Printf.
var Std = LoggerFunc(log.Printf)

// Zap adapts a zap sugared logger at info level.
func Zap(l *zap.SugaredLogger) Logger {
	return LoggerFunc(l.Infof)
}
