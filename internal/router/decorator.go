package router

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Decorator annotates the tracing span of a request that matched a
// decorated route. Applied at most once per request.
type Decorator struct {
	operation string
}

// Operation returns the configured operation name.
func (d *Decorator) Operation() string { return d.operation }

// Apply names the span after the route's operation.
func (d *Decorator) Apply(span trace.Span) {
	span.SetName(d.operation)
	span.SetAttributes(attribute.String("route.operation", d.operation))
}
