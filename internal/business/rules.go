package business

// RuleID identifies a threshold rule.
type RuleID string

const (
	RuleNegativeProfit RuleID = "negative_profit"
	RuleCACSpike       RuleID = "cac_spike"
	RuleRevenueGrowth  RuleID = "revenue_growth"
)

// Fixed thresholds. Comparisons are strict.
const (
	CostChangeThresholdPct    = 20.0
	RevenueChangeThresholdPct = 10.0
)

const (
	AlertNegativeProfit = "Negative profit"
	AlertCACSpike       = "CAC increased significantly"

	RecommendReduceCosts     = "Reduce costs to increase profitability"
	RecommendReviewMarketing = "Review marketing campaigns due to CAC spike"
	RecommendAdvertising     = "Consider increasing advertising budget"
)

// Rule maps a metrics condition to an optional alert and a recommendation.
type Rule struct {
	ID             RuleID `json:"id"`
	Condition      string `json:"condition"`
	Alert          string `json:"alert,omitempty"`
	Recommendation string `json:"recommendation"`

	match func(m Metrics) bool
}

// rules is evaluated top to bottom; the order only affects list ordering.
var rules = []Rule{
	{
		ID:             RuleNegativeProfit,
		Condition:      "profit < 0",
		Alert:          AlertNegativeProfit,
		Recommendation: RecommendReduceCosts,
		match:          func(m Metrics) bool { return m.Profit < 0 },
	},
	{
		ID:             RuleCACSpike,
		Condition:      "cac > 0 && cost_change_pct > 20",
		Alert:          AlertCACSpike,
		Recommendation: RecommendReviewMarketing,
		match: func(m Metrics) bool {
			return m.CAC > 0 && m.CostChangePct > CostChangeThresholdPct
		},
	},
	{
		ID:             RuleRevenueGrowth,
		Condition:      "revenue_change_pct > 10",
		Recommendation: RecommendAdvertising,
		match:          func(m Metrics) bool { return m.RevenueChangePct > RevenueChangeThresholdPct },
	},
}

// Rules returns a copy of the rule table in evaluation order.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}
