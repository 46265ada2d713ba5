package business

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/go-core/log"
)

// Notifier delivers analyses that raised alerts.
type Notifier interface {
	Send(ctx context.Context, a *Analysis) error
}

// Narrator turns a computed state into a short human-readable summary.
type Narrator interface {
	Narrate(ctx context.Context, s *State) (string, error)
}

// AnalyzeOptions control the optional post-pipeline steps.
type AnalyzeOptions struct {
	Narrate bool
}

// Service is the business boundary for analysis operations. Notification and
// narration happen after the pipeline and never fail an analysis.
type Service struct {
	engine    *Engine
	logger    log.Logger
	telemetry *Telemetry
	notifier  Notifier
	narrator  Narrator
	now       func() time.Time
}

// NewService creates a new analysis service. telemetry, notifier and narrator may be nil.
func NewService(engine *Engine, logger log.Logger, telemetry *Telemetry, notifier Notifier, narrator Narrator) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		engine:    engine,
		logger:    logger,
		telemetry: telemetry,
		notifier:  notifier,
		narrator:  narrator,
		now:       time.Now,
	}
}

// CanNarrate reports whether a narrator is configured.
func (s *Service) CanNarrate() bool {
	return s.narrator != nil
}

// Analyze runs the pipeline for req and performs notification and narration.
func (s *Service) Analyze(ctx context.Context, req *Request, opts AnalyzeOptions) (*Analysis, error) {
	id := ulid.Make().String()
	L := s.logger.With("analysis_id", id)

	state, err := s.engine.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		ID:        id,
		CreatedAt: s.now().UTC(),
		State:     state,
	}

	if opts.Narrate && s.narrator != nil {
		text, err := s.narrator.Narrate(ctx, state)
		if err != nil {
			L.Error(ctx, err, "narration failed")
			s.telemetry.observeNarrative("error")
		} else {
			a.Narrative = text
			s.telemetry.observeNarrative("ok")
		}
	}

	if s.notifier != nil && len(state.Output.Alerts) > 0 {
		if err := s.notifier.Send(ctx, a); err != nil {
			L.Error(ctx, err, "alert notification failed", "alerts", len(state.Output.Alerts))
			s.telemetry.observeNotification("error")
		} else {
			s.telemetry.observeNotification("sent")
		}
	}

	return a, nil
}
