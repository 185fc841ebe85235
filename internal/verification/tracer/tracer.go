// Package tracer provides a lightweight tracing abstraction for the
// verification module. It defines an internal tracer interface that doesn't
// depend directly on OpenTelemetry APIs, so the verify path can emit spans
// for local lookups and remote reconciliation without coupling to a backend.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import "context"

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes. The
	// returned context carries the span and should be passed to child
	// operations. The span must be ended by calling Span.End().
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Span names used by the verification module.
const (
	SpanVerify    = "verification.verify"
	SpanReconcile = "verification.reconcile"
	SpanSync      = "verification.sync"
)

// Attribute keys used by the verification module.
const (
	AttrLocalHit        = "lookup.local_hit"
	AttrRemoteStatus    = "reconcile.remote_status"
	AttrCachedFromPeer  = "reconcile.cached"
	AttrIssuerWorkerID  = "credential.issuer_worker_id"
	AttrContentLength   = "credential.content_length"
)

// Event names used by the verification module.
const (
	EventRemoteCallFailed = "reconcile.remote_call_failed"
)
