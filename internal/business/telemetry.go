package business

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/bizpulse/internal/pipeline"
)

// Telemetry holds Prometheus metrics for the analysis subsystem.
type Telemetry struct {
	AnalysesTotal      *prometheus.CounterVec
	AnalysisDuration   *prometheus.HistogramVec
	StageDuration      *prometheus.HistogramVec
	RulesFiredTotal    *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
	NarrativesTotal    *prometheus.CounterVec
}

// NewTelemetry registers and returns analysis metrics on the given registerer.
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	m := &Telemetry{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizpulse_analyses_total",
			Help: "Total analysis runs by final status.",
		}, []string{"status"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizpulse_analysis_duration_seconds",
			Help:    "Duration of analysis runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8), // 10us .. ~160ms
		}, []string{"status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizpulse_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 8), // 1us .. ~16ms
		}, []string{"stage", "outcome"}),
		RulesFiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizpulse_rules_fired_total",
			Help: "Total rule matches by rule id.",
		}, []string{"rule"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizpulse_notifications_total",
			Help: "Total alert notifications by result.",
		}, []string{"result"}),
		NarrativesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizpulse_narratives_total",
			Help: "Total narrative requests by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.StageDuration,
		m.RulesFiredTotal,
		m.NotificationsTotal,
		m.NarrativesTotal,
	)

	return m
}

// Hooks returns EngineHooks that record run-level metrics.
func (m *Telemetry) Hooks() EngineHooks {
	return EngineHooks{
		OnComplete: func(e *CompleteEvent) {
			m.AnalysesTotal.WithLabelValues(string(e.Status)).Inc()
			m.AnalysisDuration.WithLabelValues(string(e.Status)).Observe(e.Duration)
			for _, id := range e.Fired {
				m.RulesFiredTotal.WithLabelValues(string(id)).Inc()
			}
		},
	}
}

// StageHooks returns pipeline hooks that record per-stage durations.
func (m *Telemetry) StageHooks() pipeline.Hooks {
	return pipeline.Hooks{
		OnStageEnd: func(_ context.Context, stage string, dur time.Duration, err error) {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			m.StageDuration.WithLabelValues(stage, outcome).Observe(dur.Seconds())
		},
	}
}

func (m *Telemetry) observeNotification(result string) {
	if m != nil {
		m.NotificationsTotal.WithLabelValues(result).Inc()
	}
}

func (m *Telemetry) observeNarrative(result string) {
	if m != nil {
		m.NarrativesTotal.WithLabelValues(result).Inc()
	}
}
