package logging

import (
	"fmt"
	"reflect"

	"github.com/Publikey/runqy-go/internal/observability"
)

// Logger is the printf-style contract the client logs through. It mirrors the
// exported runqy.Logger so application loggers plug in without adapters.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

// FromObservability bridges a structured logger into the printf contract,
// formatting each message before it is emitted. A non-empty component name is
// attached to every record.
func FromObservability(logger *observability.Logger, component string) Logger {
	if logger == nil {
		return Nop()
	}
	if component != "" {
		logger = logger.With("component", component)
	}
	return structuredBridge{logger: logger}
}

type structuredBridge struct {
	logger *observability.Logger
}

func (b structuredBridge) Debug(format string, args ...any) { b.logger.Debug(sprint(format, args)) }
func (b structuredBridge) Info(format string, args ...any)  { b.logger.Info(sprint(format, args)) }
func (b structuredBridge) Warn(format string, args ...any)  { b.logger.Warn(sprint(format, args)) }
func (b structuredBridge) Error(format string, args ...any) { b.logger.Error(sprint(format, args)) }

// WithRequestID carries the request id as a structured field rather than the
// message prefix plain loggers get.
func (b structuredBridge) WithRequestID(requestID string) Logger {
	return structuredBridge{logger: b.logger.With("request_id", requestID)}
}

func sprint(format string, args []any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
