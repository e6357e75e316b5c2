package instrument

import (
	"go.uber.org/zap"

	"github.com/observe-go/observe/pkg/observe"
)

// Logger is a zap-backed observe.Instrumentation sink for development
// diagnostics. Events are logged at Debug level; in production configure
// the zap logger's level accordingly or leave the sink uninstalled.
type Logger struct {
	log *zap.Logger
}

// NewLogger creates a logging sink writing to log.
func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log}
}

// TrackingStarted implements observe.Instrumentation.
func (l *Logger) TrackingStarted(registrars, keys int) {
	l.log.Debug("tracking scope armed",
		zap.Int("registrars", registrars),
		zap.Int("keys", keys),
	)
}

// TrackingFired implements observe.Instrumentation.
func (l *Logger) TrackingFired() {
	l.log.Debug("tracking scope fired")
}

// TrackingCancelled implements observe.Instrumentation.
func (l *Logger) TrackingCancelled() {
	l.log.Debug("tracking scope cancelled")
}

// MutationDelivered implements observe.Instrumentation.
func (l *Logger) MutationDelivered(key observe.PropertyKey, observers int) {
	l.log.Debug("mutation delivered",
		zap.Stringer("property", key),
		zap.Int("observers", observers),
	)
}

// multiSink fans events out to several sinks in order.
type multiSink []observe.Instrumentation

func (m multiSink) TrackingStarted(registrars, keys int) {
	for _, s := range m {
		s.TrackingStarted(registrars, keys)
	}
}

func (m multiSink) TrackingFired() {
	for _, s := range m {
		s.TrackingFired()
	}
}

func (m multiSink) TrackingCancelled() {
	for _, s := range m {
		s.TrackingCancelled()
	}
}

func (m multiSink) MutationDelivered(key observe.PropertyKey, observers int) {
	for _, s := range m {
		s.MutationDelivered(key, observers)
	}
}

// Combined returns a sink that forwards every event to all given sinks.
// Nil entries are skipped.
func Combined(sinks ...observe.Instrumentation) observe.Instrumentation {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
