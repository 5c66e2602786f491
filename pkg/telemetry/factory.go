package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// Tracer is one span plus the ability to spawn children. The runner emits
// spans per run phase through this interface; when telemetry is disabled all
// calls are no-ops.
type Tracer interface {
	Start()
	AddEvent(name string, attributes map[string]string)
	SetStatus(code codes.Code, message string)
	Spawn(spanName string) Tracer
	End()
}

type TracerFactory struct {
	telemetry Telemetry
}

type TracerFactoryParams struct {
	fx.In
	Telemetry Telemetry `optional:"true"`
}

func NewTracerFactory(p TracerFactoryParams) *TracerFactory {
	return &TracerFactory{telemetry: p.Telemetry}
}

func (t *TracerFactory) NewTracer(ctx context.Context, spanName string) Tracer {
	if t.telemetry == nil || t.telemetry.GetTracer() == nil {
		return &DummyTracer{}
	}
	spanCtx, span := t.telemetry.GetTracer().Start(ctx, spanName)
	return &spanTracer{tracer: t.telemetry.GetTracer(), ctx: spanCtx, span: span}
}

type spanTracer struct {
	tracer trace.Tracer
	ctx    context.Context
	span   trace.Span
}

func (s *spanTracer) Start() {}

func (s *spanTracer) AddEvent(name string, attributes map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (s *spanTracer) SetStatus(code codes.Code, message string) {
	s.span.SetStatus(code, message)
}

func (s *spanTracer) Spawn(spanName string) Tracer {
	childCtx, child := s.tracer.Start(s.ctx, spanName)
	return &spanTracer{tracer: s.tracer, ctx: childCtx, span: child}
}

func (s *spanTracer) End() {
	s.span.End()
}

// DummyTracer does nothing when telemetry is not enabled.
type DummyTracer struct{}

func (t *DummyTracer) Start() {}

func (t *DummyTracer) AddEvent(name string, attributes map[string]string) {}

func (t *DummyTracer) SetStatus(code codes.Code, message string) {}

func (t *DummyTracer) Spawn(spanName string) Tracer { return t }

func (t *DummyTracer) End() {}
