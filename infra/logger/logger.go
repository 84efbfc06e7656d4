// Package logger provides the structured logging surface of the service.
package logger

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	// Warnw logs a warning with structured fields, used for per-group
	// diagnostic flags.
	Warnw(msg string, fields map[string]any)
	Errorf(format string, args ...any)
}

// Nop returns a logger discarding everything, for tests and defaults.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Warnw(string, map[string]any) {}
func (nopLogger) Errorf(string, ...any)        {}
