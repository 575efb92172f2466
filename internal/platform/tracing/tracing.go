// Package tracing wraps the global OpenTelemetry tracer provider. Until
// Install runs, spans are no-ops.
package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	dErrors "agora/pkg/domain-errors"
)

const instrumentationName = "agora"

// Install sets a global SDK tracer provider that samples ratio of root spans
// and writes every ended span to logger at debug level. The returned func
// flushes and stops the provider.
func Install(logger *slog.Logger, ratio float64) func(context.Context) error {
	tp := NewProvider(logger, ratio)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// NewProvider builds the provider Install registers.
func NewProvider(logger *slog.Logger, ratio float64) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithSpanProcessor(&logProcessor{logger: logger}),
	)
}

// Start opens a span named "<component>.<operation>".
func Start(ctx context.Context, component, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, component+"."+operation, trace.WithAttributes(attrs...))
}

// End records err on the span, tagged with its domain code, and closes it.
func End(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.String("agora.error_code", string(dErrors.CodeOf(err))))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// logProcessor is a synchronous span processor that logs each span once.
type logProcessor struct {
	logger *slog.Logger
}

func (p *logProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	args := []any{
		"span", s.Name(),
		"trace_id", s.SpanContext().TraceID().String(),
		"span_id", s.SpanContext().SpanID().String(),
		"duration_ms", s.EndTime().Sub(s.StartTime()).Milliseconds(),
	}
	if st := s.Status(); st.Code == codes.Error {
		args = append(args, "error", st.Description)
	}
	for _, kv := range s.Attributes() {
		args = append(args, string(kv.Key), kv.Value.Emit())
	}
	p.logger.Debug("span ended", args...)
}

func (p *logProcessor) Shutdown(context.Context) error   { return nil }
func (p *logProcessor) ForceFlush(context.Context) error { return nil }
