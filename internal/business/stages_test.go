package business

import (
	"context"
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"
)

func scenarioA() Input {
	return Input{
		DailyRevenue:       1500,
		DailyCost:          1700,
		NumberOfCustomers:  50,
		PreviousDayRevenue: 1000,
		PreviousDayCost:    1000,
	}
}

func scenarioB() Input {
	return Input{
		DailyRevenue:       1200,
		DailyCost:          1000,
		NumberOfCustomers:  50,
		PreviousDayRevenue: 1000,
		PreviousDayCost:    800,
	}
}

func TestComputeMetrics_ScenarioB(t *testing.T) {
	t.Parallel()

	m, err := ComputeMetrics(scenarioB())
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}

	want := Metrics{Profit: 200, CAC: 20, RevenueChangePct: 20, CostChangePct: 25}
	if m != want {
		t.Errorf("metrics = %+v, want %+v", m, want)
	}
}

func TestComputeMetrics_Formulas(t *testing.T) {
	t.Parallel()

	inputs := []Input{
		scenarioA(),
		scenarioB(),
		{DailyRevenue: 0.1, DailyCost: 0.3, NumberOfCustomers: 3, PreviousDayRevenue: 0.7, PreviousDayCost: 1.9},
		{DailyRevenue: -50, DailyCost: 12.5, NumberOfCustomers: 7, PreviousDayRevenue: -20, PreviousDayCost: 3},
		{DailyRevenue: 1e9, DailyCost: 1e-9, NumberOfCustomers: 1, PreviousDayRevenue: 1e-3, PreviousDayCost: 1e6},
	}

	for _, in := range inputs {
		m, err := ComputeMetrics(in)
		if err != nil {
			t.Fatalf("ComputeMetrics(%+v): %v", in, err)
		}
		if m.Profit != in.DailyRevenue-in.DailyCost {
			t.Errorf("profit = %v, want %v", m.Profit, in.DailyRevenue-in.DailyCost)
		}
		if m.CAC != in.DailyCost/float64(in.NumberOfCustomers) {
			t.Errorf("cac = %v, want %v", m.CAC, in.DailyCost/float64(in.NumberOfCustomers))
		}
		wantRev := (in.DailyRevenue - in.PreviousDayRevenue) / in.PreviousDayRevenue * 100
		if m.RevenueChangePct != wantRev {
			t.Errorf("revenue_change_pct = %v, want %v", m.RevenueChangePct, wantRev)
		}
		wantCost := (in.DailyCost - in.PreviousDayCost) / in.PreviousDayCost * 100
		if m.CostChangePct != wantCost {
			t.Errorf("cost_change_pct = %v, want %v", m.CostChangePct, wantCost)
		}
	}
}

func TestComputeMetrics_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Input)
		wantField string
		wantErr   error
	}{
		{"zero customers", func(in *Input) { in.NumberOfCustomers = 0 }, "input.number_of_customers", ErrDivisionByZero},
		{"negative customers", func(in *Input) { in.NumberOfCustomers = -1 }, "input.number_of_customers", ErrNegativeCustomers},
		{"zero previous revenue", func(in *Input) { in.PreviousDayRevenue = 0 }, "input.previous_day_revenue", ErrDivisionByZero},
		{"zero previous cost", func(in *Input) { in.PreviousDayCost = 0 }, "input.previous_day_cost", ErrDivisionByZero},
		{"NaN revenue", func(in *Input) { in.DailyRevenue = math.NaN() }, "input.daily_revenue", ErrNonFinite},
		{"Inf cost", func(in *Input) { in.DailyCost = math.Inf(1) }, "input.daily_cost", ErrNonFinite},
		{"-Inf previous cost", func(in *Input) { in.PreviousDayCost = math.Inf(-1) }, "input.previous_day_cost", ErrNonFinite},
		{"profit overflow", func(in *Input) { in.DailyRevenue, in.DailyCost = math.MaxFloat64, -math.MaxFloat64 }, "metrics.profit", ErrNonFinite},
		{"revenue change overflow", func(in *Input) { in.PreviousDayRevenue = math.SmallestNonzeroFloat64 }, "metrics.revenue_change_pct", ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := scenarioB()
			tt.mutate(&in)

			_, err := ComputeMetrics(in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			var ae *ArithmeticError
			if !errors.As(err, &ae) {
				t.Fatalf("err %T is not *ArithmeticError", err)
			}
			if ae.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ae.Field, tt.wantField)
			}
		})
	}
}

func TestRecommend_ScenarioA(t *testing.T) {
	t.Parallel()

	m, err := ComputeMetrics(scenarioA())
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	out, fired := Recommend(m)

	if out.Profit != -200 {
		t.Errorf("profit = %v, want -200", out.Profit)
	}
	if !slices.Contains(out.Alerts, AlertNegativeProfit) {
		t.Errorf("alerts = %v, want to contain %q", out.Alerts, AlertNegativeProfit)
	}
	// cost +70% and revenue +50% also fire the other two rules
	wantFired := []RuleID{RuleNegativeProfit, RuleCACSpike, RuleRevenueGrowth}
	if !reflect.DeepEqual(fired, wantFired) {
		t.Errorf("fired = %v, want %v", fired, wantFired)
	}
}

func TestRecommend_ScenarioB(t *testing.T) {
	t.Parallel()

	m, err := ComputeMetrics(scenarioB())
	if err != nil {
		t.Fatalf("ComputeMetrics: %v", err)
	}
	out, _ := Recommend(m)

	if !reflect.DeepEqual(out.Alerts, []string{AlertCACSpike}) {
		t.Errorf("alerts = %v, want [%q]", out.Alerts, AlertCACSpike)
	}
	wantRecs := []string{RecommendReviewMarketing, RecommendAdvertising}
	if !reflect.DeepEqual(out.Recommendations, wantRecs) {
		t.Errorf("recommendations = %v, want %v", out.Recommendations, wantRecs)
	}
	if out.Profit != 200 || out.CAC != 20 || out.RevenueChangePct != 20 || out.CostChangePct != 25 {
		t.Errorf("output metrics = %+v, want profit=200 cac=20 rev=20 cost=25", out)
	}
}

func TestRecommend_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		m         Metrics
		wantAlert []string
		wantRecs  []string
	}{
		{"nothing fires", Metrics{Profit: 0, CAC: 10, RevenueChangePct: 0, CostChangePct: 0}, []string{}, []string{}},
		{"profit exactly zero", Metrics{Profit: 0}, []string{}, []string{}},
		{"profit just negative", Metrics{Profit: -0.01}, []string{AlertNegativeProfit}, []string{RecommendReduceCosts}},
		{"cost change exactly 20", Metrics{CAC: 5, CostChangePct: 20}, []string{}, []string{}},
		{"cost change above 20", Metrics{CAC: 5, CostChangePct: 20.0001}, []string{AlertCACSpike}, []string{RecommendReviewMarketing}},
		{"cost spike but zero cac", Metrics{CAC: 0, CostChangePct: 50}, []string{}, []string{}},
		{"cost spike but negative cac", Metrics{CAC: -1, CostChangePct: 50}, []string{}, []string{}},
		{"revenue change exactly 10", Metrics{RevenueChangePct: 10}, []string{}, []string{}},
		{"revenue change above 10", Metrics{RevenueChangePct: 10.5}, []string{}, []string{RecommendAdvertising}},
		{
			"all fire in order",
			Metrics{Profit: -1, CAC: 1, CostChangePct: 21, RevenueChangePct: 11},
			[]string{AlertNegativeProfit, AlertCACSpike},
			[]string{RecommendReduceCosts, RecommendReviewMarketing, RecommendAdvertising},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, _ := Recommend(tt.m)
			if !reflect.DeepEqual(out.Alerts, tt.wantAlert) {
				t.Errorf("alerts = %v, want %v", out.Alerts, tt.wantAlert)
			}
			if !reflect.DeepEqual(out.Recommendations, tt.wantRecs) {
				t.Errorf("recommendations = %v, want %v", out.Recommendations, tt.wantRecs)
			}
		})
	}
}

func TestRecommend_RuleIndependence(t *testing.T) {
	t.Parallel()

	// each rule's condition toggled on/off; the other rules' contributions must not change
	type toggle struct {
		id  RuleID
		on  func(*Metrics)
		off func(*Metrics)
	}
	toggles := []toggle{
		{RuleNegativeProfit, func(m *Metrics) { m.Profit = -5 }, func(m *Metrics) { m.Profit = 5 }},
		{RuleCACSpike, func(m *Metrics) { m.CAC = 3; m.CostChangePct = 40 }, func(m *Metrics) { m.CAC = 3; m.CostChangePct = 1 }},
		{RuleRevenueGrowth, func(m *Metrics) { m.RevenueChangePct = 30 }, func(m *Metrics) { m.RevenueChangePct = 1 }},
	}

	for mask := 0; mask < 1<<len(toggles); mask++ {
		var m Metrics
		var want []RuleID
		for i, tg := range toggles {
			if mask&(1<<i) != 0 {
				tg.on(&m)
				want = append(want, tg.id)
			} else {
				tg.off(&m)
			}
		}

		_, fired := Recommend(m)
		if !reflect.DeepEqual(fired, want) {
			t.Errorf("mask %03b: fired = %v, want %v", mask, fired, want)
		}
	}
}

func TestRecommend_EmptyListsNotNil(t *testing.T) {
	t.Parallel()

	out, fired := Recommend(Metrics{CAC: 1})
	if out.Alerts == nil || out.Recommendations == nil {
		t.Fatal("expected non-nil empty lists")
	}
	if len(fired) != 0 {
		t.Errorf("fired = %v, want none", fired)
	}
}

func TestIngest_Identity(t *testing.T) {
	t.Parallel()

	s := State{Input: scenarioA()}
	got, err := Ingest(context.Background(), s)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Errorf("Ingest changed state: %+v", got)
	}
}

func TestRecommendStage_RequiresMetrics(t *testing.T) {
	t.Parallel()

	_, err := recommendStage(context.Background(), State{Input: scenarioA()})
	if !errors.Is(err, ErrStageOrder) {
		t.Fatalf("err = %v, want ErrStageOrder", err)
	}
}

func TestStages_Order(t *testing.T) {
	t.Parallel()

	var names []string
	for _, s := range Stages() {
		names = append(names, s.Name)
	}
	want := []string{StageIngest, StageMetrics, StageRecommend}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("stages = %v, want %v", names, want)
	}
}

func TestRules_ReturnsCopy(t *testing.T) {
	t.Parallel()

	r := Rules()
	if len(r) != 3 {
		t.Fatalf("rules = %d, want 3", len(r))
	}
	r[0].Alert = "mutated"
	if Rules()[0].Alert != AlertNegativeProfit {
		t.Error("Rules() exposed internal table")
	}
	if r[2].Alert != "" {
		t.Errorf("revenue_growth alert = %q, want none", r[2].Alert)
	}
}
