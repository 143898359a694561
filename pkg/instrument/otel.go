package instrument

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/statekit-dev/statekit/pkg/store"
)

// Default tracer name for statekit instrumentation.
const defaultTracerName = "statekit"

// TraceConfig configures action tracing.
type TraceConfig struct {
	// TracerName is the name of the tracer (default: "statekit").
	TracerName string

	// Context is the parent context for action spans.
	// Default: context.Background().
	Context context.Context

	// Filter determines which action executions to trace.
	// Return true to trace the execution, false to skip.
	// If nil, all executions are traced.
	Filter func(e *store.ActionEvent) bool

	// AttributeExtractor extracts custom attributes from the event.
	// Called for each traced execution.
	AttributeExtractor func(e *store.ActionEvent) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TraceOption configures action tracing.
type TraceOption func(*TraceConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TraceOption {
	return func(c *TraceConfig) {
		c.TracerName = name
	}
}

// WithContext sets the parent context for action spans.
func WithContext(ctx context.Context) TraceOption {
	return func(c *TraceConfig) {
		c.Context = ctx
	}
}

// WithActionFilter sets a filter function for action executions.
func WithActionFilter(filter func(e *store.ActionEvent) bool) TraceOption {
	return func(c *TraceConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(fn func(e *store.ActionEvent) []attribute.KeyValue) TraceOption {
	return func(c *TraceConfig) {
		c.AttributeExtractor = fn
	}
}

// TraceActions opens one span per execution of any action bound to s.
// The span carries the action name and execution id, records the error
// on failure, and ends when the action settles. Returns an unbind
// function.
func TraceActions(s store.Store, opts ...TraceOption) func() {
	cfg := TraceConfig{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.tracer = otel.Tracer(cfg.TracerName)

	return store.OnAction(s, func(e *store.ActionEvent) {
		if cfg.Filter != nil && !cfg.Filter(e) {
			return
		}

		attrs := []attribute.KeyValue{
			attribute.String("action.name", e.Name),
			attribute.Int64("action.id", int64(e.ID)),
		}
		if cfg.AttributeExtractor != nil {
			attrs = append(attrs, cfg.AttributeExtractor(e)...)
		}

		_, span := cfg.tracer.Start(cfg.Context, "action "+e.Name,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)

		e.OnError(func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		})
		e.OnEnd(func() {
			span.End()
		})
	})
}
