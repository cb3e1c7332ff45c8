package evaluation

import (
	"fmt"
	"math"
)

// applyHeuristics fills completeness, budget adherence and coherence without any LLM call.
func applyHeuristics(s Subject, r *Result) {
	plan := s.Plan

	switch {
	case len(plan.Days) == 0:
		r.Issues = append(r.Issues, "No daily plans generated")
		r.Critical = true
		r.Completeness = 0
	case len(plan.Days) != s.Intent.Days:
		r.Issues = append(r.Issues, fmt.Sprintf("Plan has %d days but should have %d", len(plan.Days), s.Intent.Days))
		r.Completeness = 5
	default:
		r.Completeness = 10
	}

	budget := s.Intent.BudgetAmount()
	if budget > 0 {
		ratio := s.TotalCostUSD / budget
		switch {
		case ratio <= 1.0:
			r.BudgetAdherence = 10
		case ratio <= 1.2:
			r.BudgetAdherence = 7
		case ratio <= 1.5:
			r.BudgetAdherence = 4
		default:
			r.BudgetAdherence = 2
			r.Issues = append(r.Issues, fmt.Sprintf("Budget exceeded: $%.0f vs $%.0f", s.TotalCostUSD, budget))
		}
	} else {
		r.BudgetAdherence = 8
	}

	coherence := 10.0
	for i, d := range plan.Days {
		if d.Day != i+1 {
			coherence -= 2
			r.Issues = append(r.Issues, fmt.Sprintf("Day numbering issue at day %d", i+1))
		}
		if d.Morning == "" || d.Afternoon == "" || d.Evening == "" {
			coherence--
		}
	}
	r.Coherence = math.Max(0, coherence)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
