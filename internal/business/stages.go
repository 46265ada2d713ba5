package business

import (
	"context"
	"math"

	"github.com/linnemanlabs/bizpulse/internal/pipeline"
)

// Stage names, also used as span and metric labels.
const (
	StageIngest    = "ingest"
	StageMetrics   = "metrics"
	StageRecommend = "recommend"
)

// ComputeMetrics derives the four metrics from in. Zero divisors and
// non-finite inputs are rejected instead of producing Inf/NaN metrics.
func ComputeMetrics(in Input) (Metrics, error) {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"input.daily_revenue", in.DailyRevenue},
		{"input.daily_cost", in.DailyCost},
		{"input.previous_day_revenue", in.PreviousDayRevenue},
		{"input.previous_day_cost", in.PreviousDayCost},
	} {
		if !finite(f.v) {
			return Metrics{}, &ArithmeticError{Field: f.name, Err: ErrNonFinite}
		}
	}

	switch {
	case in.NumberOfCustomers == 0:
		return Metrics{}, &ArithmeticError{Field: "input.number_of_customers", Err: ErrDivisionByZero}
	case in.NumberOfCustomers < 0:
		return Metrics{}, &ArithmeticError{Field: "input.number_of_customers", Err: ErrNegativeCustomers}
	case in.PreviousDayRevenue == 0:
		return Metrics{}, &ArithmeticError{Field: "input.previous_day_revenue", Err: ErrDivisionByZero}
	case in.PreviousDayCost == 0:
		return Metrics{}, &ArithmeticError{Field: "input.previous_day_cost", Err: ErrDivisionByZero}
	}

	m := Metrics{
		Profit:           in.DailyRevenue - in.DailyCost,
		CAC:              in.DailyCost / float64(in.NumberOfCustomers),
		RevenueChangePct: (in.DailyRevenue - in.PreviousDayRevenue) / in.PreviousDayRevenue * 100,
		CostChangePct:    (in.DailyCost - in.PreviousDayCost) / in.PreviousDayCost * 100,
	}

	// finite inputs can still overflow
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"metrics.profit", m.Profit},
		{"metrics.cac", m.CAC},
		{"metrics.revenue_change_pct", m.RevenueChangePct},
		{"metrics.cost_change_pct", m.CostChangePct},
	} {
		if !finite(f.v) {
			return Metrics{}, &ArithmeticError{Field: f.name, Err: ErrNonFinite}
		}
	}

	return m, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Recommend evaluates every rule against m and assembles the output record.
// It also returns the ids of the rules that fired.
func Recommend(m Metrics) (Output, []RuleID) {
	out := Output{
		Profit:           m.Profit,
		CAC:              m.CAC,
		RevenueChangePct: m.RevenueChangePct,
		CostChangePct:    m.CostChangePct,
		Alerts:           []string{},
		Recommendations:  []string{},
	}

	var fired []RuleID
	for _, r := range rules {
		if !r.match(m) {
			continue
		}
		fired = append(fired, r.ID)
		if r.Alert != "" {
			out.Alerts = append(out.Alerts, r.Alert)
		}
		out.Recommendations = append(out.Recommendations, r.Recommendation)
	}

	return out, fired
}

// Ingest passes the state through unchanged.
func Ingest(_ context.Context, s State) (State, error) {
	return s, nil
}

func metricsStage(_ context.Context, s State) (State, error) {
	m, err := ComputeMetrics(s.Input)
	if err != nil {
		return s, err
	}
	s.Metrics = &m
	return s, nil
}

func recommendStage(_ context.Context, s State) (State, error) {
	if s.Metrics == nil {
		return s, ErrStageOrder
	}
	out, fired := Recommend(*s.Metrics)
	s.Output = &out
	s.Fired = fired
	return s, nil
}

// Stages returns the analysis pipeline stages in execution order.
func Stages() []pipeline.Stage[State] {
	return []pipeline.Stage[State]{
		{Name: StageIngest, Run: Ingest},
		{Name: StageMetrics, Run: metricsStage},
		{Name: StageRecommend, Run: recommendStage},
	}
}
