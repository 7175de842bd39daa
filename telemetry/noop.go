package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NoopLogger, NoopMetrics, and NoopTracer discard everything. Tests and
// anything run with instrumentation disabled use these instead of standing
// up a real OTEL/Clue pipeline.
type (
	NoopLogger  struct{}
	NoopMetrics struct{}
	NoopTracer  struct{}
	noopSpan    struct{}
)

func (NoopLogger) Debug(ctx context.Context, msg string, keyvals ...any) {}
func (NoopLogger) Info(ctx context.Context, msg string, keyvals ...any)  {}
func (NoopLogger) Warn(ctx context.Context, msg string, keyvals ...any)  {}
func (NoopLogger) Error(ctx context.Context, msg string, keyvals ...any) {}

func (NoopMetrics) IncCounter(name string, value float64, tags ...string)            {}
func (NoopMetrics) RecordTimer(name string, duration time.Duration, tags ...string)   {}
func (NoopMetrics) RecordGauge(name string, value float64, tags ...string)            {}

func (NoopTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	return ctx, noopSpan{}
}
func (NoopTracer) Span(ctx context.Context) Span { return noopSpan{} }

func (noopSpan) End(opts ...trace.SpanEndOption)               {}
func (noopSpan) AddEvent(name string, attrs ...any)            {}
func (noopSpan) SetStatus(code codes.Code, description string) {}
func (noopSpan) RecordError(err error, opts ...trace.EventOption) {}
