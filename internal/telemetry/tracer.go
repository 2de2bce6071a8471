// Package telemetry owns the process tracer provider and the span names and
// attributes the chat pipeline records.
package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "cargo-chat"

// Span names for the chat pipeline.
const (
	SpanGrounding = "chat.grounding"
	SpanLLM       = "chat.llm"
)

// Span attributes.
var (
	AttrIntent   = attribute.Key("chat.intent")
	AttrModel    = attribute.Key("llm.model")
	AttrOutcome  = attribute.Key("llm.outcome")
	AttrMessages = attribute.Key("chat.messages")
)

type Shutdown func(context.Context) error

type Options struct {
	ServiceName string
	Version     string
	// Writer receives one JSON document per exported span.
	Writer io.Writer
}

// Setup installs a global tracer provider exporting to opts.Writer and the
// W3C trace-context propagator, so outgoing LLM calls carry the request trace.
func Setup(opts Options, logger *slog.Logger) (Shutdown, error) {
	if opts.Writer == nil {
		return nil, errors.New("telemetry: writer must not be nil")
	}
	if opts.ServiceName == "" {
		opts.ServiceName = instrumentation
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(opts.Writer))
	if err != nil {
		return nil, err
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(opts.ServiceName)}
	if opts.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(opts.Version))
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes("", attrs...))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if logger != nil {
		logger.Info("tracing enabled", slog.String("service", opts.ServiceName))
	}
	return tp.Shutdown, nil
}

// Tracer resolves the global provider on each call, so spans started before
// Setup are no-ops and spans after it are exported.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentation)
}
