package tracer

import "context"

// NoopTracer is a Tracer that does nothing. Used in tests and as the default
// when tracing is not configured.
type NoopTracer struct{}

// NewNoop creates a no-op tracer.
func NewNoop() *NoopTracer {
	return &NoopTracer{}
}

// Start returns the context unchanged and a span that ignores everything.
func (NoopTracer) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                      {}
func (noopSpan) SetAttributes(...Attribute)     {}
func (noopSpan) AddEvent(string, ...Attribute)  {}
