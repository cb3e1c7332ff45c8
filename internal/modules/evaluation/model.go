// README: Evaluation result types, grading and errors.
package evaluation

import (
	"fmt"
	"time"

	"tripgenie/internal/modules/intent"
	"tripgenie/internal/modules/planner"
)

const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Subject is what gets evaluated: the request intent, the plan produced for it, and
// what producing it cost.
type Subject struct {
	Intent         intent.TravelIntent
	Plan           planner.TripPlan
	TotalCostUSD   float64
	GenerationTime time.Duration
	GenerationCost float64
}

// Result holds per-criterion scores in [0, 10] plus the judge's rationale.
type Result struct {
	IntentMatch     float64           `json:"intent_match_score"`
	BudgetAdherence float64           `json:"budget_adherence_score"`
	Feasibility     float64           `json:"feasibility_score"`
	Completeness    float64           `json:"completeness_score"`
	Coherence       float64           `json:"coherence_score"`
	Rationale       map[string]string `json:"rationale,omitempty"`

	Overall float64 `json:"overall_score"`
	Grade   string  `json:"grade"`

	Critical bool     `json:"has_critical_errors"`
	Issues   []string `json:"issues,omitempty"`

	LatencyMs   float64   `json:"latency_ms"`
	CostUSD     float64   `json:"cost_usd"`
	JudgeModel  string    `json:"judge_model,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

var weights = struct {
	intentMatch, budget, feasibility, completeness, coherence float64
}{0.30, 0.25, 0.20, 0.15, 0.10}

// OverallScore is the weighted mean of the criteria, rounded to one decimal.
// Critical errors force 0.
func OverallScore(r Result) float64 {
	if r.Critical {
		return 0
	}
	s := r.IntentMatch*weights.intentMatch +
		r.BudgetAdherence*weights.budget +
		r.Feasibility*weights.feasibility +
		r.Completeness*weights.completeness +
		r.Coherence*weights.coherence
	return round(s, 1)
}

func Grade(score float64) string {
	switch {
	case score >= 9.0:
		return "A"
	case score >= 7.5:
		return "B"
	case score >= 6.0:
		return "C"
	case score >= 4.0:
		return "D"
	default:
		return "F"
	}
}

const ReasonScoreOutOfRange = "score_out_of_range"

// EvaluationError reports a failed or rejected judge call.
type EvaluationError struct {
	Reason string
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed (%s): %v", e.Reason, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
