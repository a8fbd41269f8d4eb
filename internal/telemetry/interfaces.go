package telemetry

import (
	"log"

	"sappers/logging"
)

// Logger is the plain text logger handed to components that do not publish
// structured events.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// StandardLogger exposes the wrapped logger.
func (l *loggerAdapter) StandardLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.logger
}

// Metrics counts engine and transport activity.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// WrapMetrics adapts the logging metrics registry into the Metrics interface.
func WrapMetrics(metrics *logging.Metrics) Metrics {
	return &metricsAdapter{metrics: metrics}
}

type metricsAdapter struct {
	metrics *logging.Metrics
}

func (m *metricsAdapter) Add(key string, delta uint64) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Add(key, delta)
}

func (m *metricsAdapter) Store(key string, value uint64) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Store(key, value)
}

// NopMetrics discards every update.
func NopMetrics() Metrics {
	return WrapMetrics(nil)
}

// Metric keys shared by the engine and the transports.
const (
	MetricTicks            = "engine_ticks_total"
	MetricEventsProcessed  = "engine_events_processed_total"
	MetricEventsSuspended  = "engine_events_suspended_total"
	MetricSuspendedDropped = "engine_suspended_dropped_total"
	MetricEventsSent       = "engine_events_sent_total"
	MetricPeers            = "transport_peers"
	MetricFramesIn         = "transport_frames_in_total"
	MetricFramesOut        = "transport_frames_out_total"
	MetricFramesRejected   = "transport_frames_rejected_total"
)
