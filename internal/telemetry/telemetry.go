// Package telemetry wraps OpenTelemetry span creation behind a small
// facade so the rest of the module never imports otel directly. No
// exporter is wired by default; spans are recorded against the global
// no-op TracerProvider unless a future caller installs a real one.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans under one instrumentation name.
type Tracer struct {
	tracer trace.Tracer
	debug  bool
}

// GetTracer returns a Tracer for the given component name. debug is stored
// and reported by Debug; EndOK and EndErr do not consult it and attach no
// extra attributes when it is set.
func GetTracer(component string, debug bool) *Tracer {
	return &Tracer{tracer: otel.Tracer("siemguard/" + component), debug: debug}
}

// Debug reports whether verbose span attributes should be recorded.
func (t *Tracer) Debug() bool { return t.debug }

// StartSpan starts a span named name under ctx.
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name)
}

// EndOK ends span successfully, recording no error.
func EndOK(span trace.Span) {
	span.End()
}

// EndErr ends span, recording err if non-nil.
func EndErr(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}
	span.End()
}
