// Package pipeline runs an ordered list of stages over a single state value.
// Each stage receives the state produced by the previous one. Instrumentation
// is attached at the runner boundary through Hooks so stages stay pure.
package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Func transforms a state value. Returning an error aborts the run.
type Func[S any] func(ctx context.Context, state S) (S, error)

// Stage is a named step of a pipeline.
type Stage[S any] struct {
	Name string
	Run  Func[S]
}

// Hooks are optional callbacks invoked around every stage.
type Hooks struct {
	// OnStageStart runs before a stage. A non-nil returned context is passed
	// to the stage and to the matching OnStageEnd.
	OnStageStart func(ctx context.Context, stage string) context.Context

	// OnStageEnd runs after a stage with its duration and error (nil on success).
	OnStageEnd func(ctx context.Context, stage string, dur time.Duration, err error)
}

// StageError reports which stage aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Runner executes stages in order. It is immutable once built and safe for
// concurrent use as long as each Run gets its own state.
type Runner[S any] struct {
	stages []Stage[S]
	hooks  []Hooks
}

// New creates a runner for the given stages.
func New[S any](stages ...Stage[S]) *Runner[S] {
	return &Runner[S]{stages: append([]Stage[S](nil), stages...)}
}

// WithHooks returns a copy of the runner with additional hooks appended.
func (r *Runner[S]) WithHooks(hooks ...Hooks) *Runner[S] {
	cp := &Runner[S]{
		stages: r.stages,
		hooks:  make([]Hooks, 0, len(r.hooks)+len(hooks)),
	}
	cp.hooks = append(cp.hooks, r.hooks...)
	cp.hooks = append(cp.hooks, hooks...)
	return cp
}

// Stages returns the stage names in execution order.
func (r *Runner[S]) Stages() []string {
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.Name
	}
	return names
}

// Run folds state through every stage and returns the final state. On failure
// it returns the zero state and a *StageError; partial results are discarded.
func (r *Runner[S]) Run(ctx context.Context, state S) (S, error) {
	var zero S

	for _, st := range r.stages {
		if err := ctx.Err(); err != nil {
			return zero, &StageError{Stage: st.Name, Err: err}
		}

		next, err := r.runStage(ctx, st, state)
		if err != nil {
			return zero, &StageError{Stage: st.Name, Err: err}
		}
		state = next
	}

	return state, nil
}

func (r *Runner[S]) runStage(ctx context.Context, st Stage[S], state S) (S, error) {
	// start hooks run outermost first, end hooks unwind in reverse
	ctxs := make([]context.Context, len(r.hooks))
	for i, h := range r.hooks {
		if h.OnStageStart != nil {
			if hctx := h.OnStageStart(ctx, st.Name); hctx != nil {
				ctx = hctx
			}
		}
		ctxs[i] = ctx
	}

	start := time.Now()
	next, err := st.Run(ctx, state)
	dur := time.Since(start)

	for i := len(r.hooks) - 1; i >= 0; i-- {
		if r.hooks[i].OnStageEnd != nil {
			r.hooks[i].OnStageEnd(ctxs[i], st.Name, dur, err)
		}
	}

	return next, err
}
