package business

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/linnemanlabs/bizpulse/internal/pipeline"
	"github.com/linnemanlabs/go-core/log"
)

const tracerName = "github.com/linnemanlabs/bizpulse/internal/business"

// CompleteEvent summarizes a finished run for metrics hooks.
type CompleteEvent struct {
	Status          Status
	Duration        float64
	FailedStage     string
	Fired           []RuleID
	Alerts          int
	Recommendations int
}

// EngineHooks are optional callbacks fired by the engine.
type EngineHooks struct {
	OnComplete func(e *CompleteEvent)
}

// Engine runs the analysis pipeline. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	runner *pipeline.Runner[State]
	logger log.Logger
	hooks  EngineHooks
}

// NewEngine creates an engine over the standard stages. Stage hooks are
// attached after the tracing hooks, so they run inside the stage span.
func NewEngine(logger log.Logger, hooks EngineHooks, stageHooks ...pipeline.Hooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}

	// resolve the tracer lazily so a provider installed after construction is honored
	trc := lazyTracer{}
	runner := pipeline.New(Stages()...).
		WithHooks(pipeline.TraceHooks(trc)).
		WithHooks(stageHooks...)

	return &Engine{
		runner: runner,
		logger: logger,
		hooks:  hooks,
	}
}

// Invoke validates the request boundary and runs the pipeline.
func (e *Engine) Invoke(ctx context.Context, req *Request) (*State, error) {
	in, err := req.Validate()
	if err != nil {
		e.logger.Warn(ctx, "rejected analysis request", "error", err)
		e.complete(&CompleteEvent{Status: StatusFailed, FailedStage: "request"})
		return nil, err
	}
	return e.Analyze(ctx, in)
}

// Analyze runs ingest, metrics and recommend over in and returns the final state.
// No partial state is returned on failure.
func (e *Engine) Analyze(ctx context.Context, in Input) (*State, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "business.analyze", trace.WithAttributes(
		attribute.Float64("bizpulse.input.daily_revenue", in.DailyRevenue),
		attribute.Float64("bizpulse.input.daily_cost", in.DailyCost),
		attribute.Int("bizpulse.input.number_of_customers", in.NumberOfCustomers),
	))
	defer span.End()

	start := time.Now()
	final, err := e.runner.Run(ctx, State{Input: in})
	dur := time.Since(start).Seconds()

	if err != nil {
		var se *pipeline.StageError
		stage := ""
		if errors.As(err, &se) {
			stage = se.Stage
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn(ctx, "analysis failed", "stage", stage, "error", err)
		e.complete(&CompleteEvent{Status: StatusFailed, Duration: dur, FailedStage: stage})
		return nil, err
	}

	out := final.Output
	span.SetAttributes(
		attribute.Float64("bizpulse.profit", out.Profit),
		attribute.Float64("bizpulse.cac", out.CAC),
		attribute.Int("bizpulse.alerts", len(out.Alerts)),
		attribute.Int("bizpulse.recommendations", len(out.Recommendations)),
	)

	e.logger.Info(ctx, "analysis complete",
		"profit", out.Profit,
		"cac", out.CAC,
		"revenue_change_pct", out.RevenueChangePct,
		"cost_change_pct", out.CostChangePct,
		"alerts", len(out.Alerts),
		"recommendations", len(out.Recommendations),
		"duration", dur,
	)

	e.complete(&CompleteEvent{
		Status:          StatusComplete,
		Duration:        dur,
		Fired:           final.Fired,
		Alerts:          len(out.Alerts),
		Recommendations: len(out.Recommendations),
	})

	return &final, nil
}

func (e *Engine) complete(ev *CompleteEvent) {
	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(ev)
	}
}

// lazyTracer looks up the global tracer on every span start. Methods it does
// not override fall through to the embedded noop tracer.
type lazyTracer struct {
	noop.Tracer
}

var _ trace.Tracer = lazyTracer{}

func (lazyTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}
