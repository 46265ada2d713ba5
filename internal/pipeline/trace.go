package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TraceHooks returns Hooks that wrap each stage in a span named "stage.<name>".
// Extra attributes are set on every stage span.
func TraceHooks(tracer trace.Tracer, attrs ...attribute.KeyValue) Hooks {
	return Hooks{
		OnStageStart: func(ctx context.Context, stage string) context.Context {
			all := make([]attribute.KeyValue, 0, len(attrs)+1)
			all = append(all, attribute.String("pipeline.stage", stage))
			all = append(all, attrs...)
			ctx, _ = tracer.Start(ctx, "stage."+stage, trace.WithAttributes(all...))
			return ctx
		},
		OnStageEnd: func(ctx context.Context, _ string, dur time.Duration, err error) {
			span := trace.SpanFromContext(ctx)
			span.SetAttributes(attribute.Float64("pipeline.stage.duration_seconds", dur.Seconds()))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		},
	}
}
