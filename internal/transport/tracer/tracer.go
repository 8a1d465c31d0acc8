// Package tracer defines the minimal tracing contract the request gateway
// uses, plus an OpenTelemetry-backed implementation. The gateway depends on
// these interfaces so tracing stays optional and swappable.
package tracer

import "context"

// Attribute is a key/value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String builds a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int builds an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool builds a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Span is one traced operation.
type Span interface {
	// End completes the span, recording err when non-nil.
	End(err error)
	// SetAttributes adds attributes to the span.
	SetAttributes(attrs ...Attribute)
}

// Tracer starts spans and threads them through the context.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Noop is a Tracer that records nothing.
type Noop struct{}

func (Noop) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                  {}
func (noopSpan) SetAttributes(...Attribute) {}
