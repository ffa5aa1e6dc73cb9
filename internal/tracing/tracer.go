// Package tracing bootstraps OpenTelemetry distributed tracing for the
// enforcement gateway: spans for the constraint lookup and the query
// enhancement of each enforced request.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages the lifecycle of the OpenTelemetry tracer.
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// NewTracerProvider creates an OTLP/gRPC-exporting tracer provider.
func NewTracerProvider(serviceName, serviceVersion, otlpEndpoint string, sampleRate float64) (*TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(), // TODO: TLS via the same CA bundle manager identity uses for LDAP.
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.ServiceNamespaceKey.String("queryauth"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	)

	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// Shutdown gracefully shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.tp.Shutdown(ctx)
}

// EnforcementTracer spans the request path of a single proxied query.
type EnforcementTracer struct {
	tracer trace.Tracer
}

func NewEnforcementTracer(serviceName string) *EnforcementTracer {
	return &EnforcementTracer{tracer: otel.Tracer(serviceName)}
}

// StartRequestSpan spans the full proxy request for one backend query.
func (t *EnforcementTracer) StartRequestSpan(ctx context.Context, backend, tenant string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "proxy_request",
		trace.WithAttributes(
			attribute.String("backend", backend),
			attribute.String("tenant", tenant),
			attribute.String("component", "proxy"),
		),
	)
}

// StartConstraintLookupSpan spans the constraint-store fetch for an identity.
func (t *EnforcementTracer) StartConstraintLookupSpan(ctx context.Context, identity, backend string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "constraint_lookup",
		trace.WithAttributes(
			attribute.String("identity", identity),
			attribute.String("backend", backend),
			attribute.String("component", "constraints"),
		),
	)
}

// StartEnhanceSpan spans a single call into the enforcement core.
func (t *EnforcementTracer) StartEnhanceSpan(ctx context.Context, backend string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "enhance_query",
		trace.WithAttributes(
			attribute.String("backend", backend),
			attribute.String("component", "enforce"),
		),
	)
}

// RecordEnhancement records the outcome of a query-enhancement span.
func (t *EnforcementTracer) RecordEnhancement(span trace.Span, duration time.Duration, constraintsAdded int, err error) {
	span.SetAttributes(
		attribute.Int64("enhance.duration_ms", duration.Milliseconds()),
		attribute.Int("enhance.constraints_added", constraintsAdded),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
}

// RecordError records an error on a span.
func (t *EnforcementTracer) RecordError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attrs...)
	span.RecordError(err)
}

var globalTracer *EnforcementTracer

// InitGlobalTracer initializes the package-level tracer used by handlers
// that don't receive one through dependency injection.
func InitGlobalTracer(serviceName string) {
	globalTracer = NewEnforcementTracer(serviceName)
}

// GetGlobalTracer returns the package-level tracer.
func GetGlobalTracer() *EnforcementTracer {
	return globalTracer
}
