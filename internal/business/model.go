package business

import "time"

// Input is one day's business figures as supplied by the caller.
type Input struct {
	DailyRevenue       float64 `json:"daily_revenue" yaml:"daily_revenue"`
	DailyCost          float64 `json:"daily_cost" yaml:"daily_cost"`
	NumberOfCustomers  int     `json:"number_of_customers" yaml:"number_of_customers"`
	PreviousDayRevenue float64 `json:"previous_day_revenue" yaml:"previous_day_revenue"`
	PreviousDayCost    float64 `json:"previous_day_cost" yaml:"previous_day_cost"`
}

// Metrics are derived from an Input by the metrics stage.
type Metrics struct {
	Profit           float64 `json:"profit" yaml:"profit"`
	CAC              float64 `json:"cac" yaml:"cac"`
	RevenueChangePct float64 `json:"revenue_change_pct" yaml:"revenue_change_pct"`
	CostChangePct    float64 `json:"cost_change_pct" yaml:"cost_change_pct"`
}

// Output is the final record assembled by the recommendation stage.
// Field order is the rendering order.
type Output struct {
	Profit           float64  `json:"profit" yaml:"profit"`
	CAC              float64  `json:"cac" yaml:"cac"`
	RevenueChangePct float64  `json:"revenue_change_pct" yaml:"revenue_change_pct"`
	CostChangePct    float64  `json:"cost_change_pct" yaml:"cost_change_pct"`
	Alerts           []string `json:"alerts" yaml:"alerts"`
	Recommendations  []string `json:"recommendations" yaml:"recommendations"`
}

// State is threaded through the pipeline. Metrics and Output are nil until the
// stage that produces them has run.
type State struct {
	Input   Input    `json:"input" yaml:"input"`
	Metrics *Metrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Output  *Output  `json:"output,omitempty" yaml:"output,omitempty"`

	// Fired holds the ids of the rules that matched, in evaluation order.
	Fired []RuleID `json:"-" yaml:"-"`
}

// Status is the outcome of an analysis run.
type Status string

const (
	// StatusComplete means every stage succeeded
	StatusComplete Status = "complete"

	// StatusFailed means a stage or the request boundary rejected the run
	StatusFailed Status = "failed"
)

// Analysis is the outcome of Service.Analyze.
type Analysis struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	*State
	Narrative string `json:"narrative,omitempty"`
}
