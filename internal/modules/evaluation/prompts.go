package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"

	"tripgenie/internal/ai"
)

// Scores are deliberately unbounded here so out-of-range answers reach the range check.
var judgeSchema = ai.MustSchema("judgement", `{
	"type": "object",
	"required": ["intent_match_score", "feasibility_score"],
	"properties": {
		"intent_match_score": {"type": "number"},
		"intent_match_reasoning": {"type": ["string", "null"]},
		"feasibility_score": {"type": "number"},
		"feasibility_reasoning": {"type": ["string", "null"]},
		"overall_rationale": {"type": ["string", "null"]}
	}
}`)

type judgement struct {
	IntentMatch          float64 `json:"intent_match_score"`
	IntentMatchReasoning string  `json:"intent_match_reasoning"`
	Feasibility          float64 `json:"feasibility_score"`
	FeasibilityReasoning string  `json:"feasibility_reasoning"`
	OverallRationale     string  `json:"overall_rationale"`
}

const judgeSystemPrompt = `You are an expert travel planner evaluating trip itineraries.

Evaluate on these criteria (score 0-10 each):

1. INTENT_MATCH: How well does the plan match the user's stated preferences?
2. FEASIBILITY: Are activities realistic? Proper timing? Achievable in a day?

Return STRICTLY a single JSON object with your scores and brief reasoning.`

func buildJudgePrompt(s Subject) string {
	in := s.Intent
	budget := "Flexible"
	if in.Budget != nil {
		budget = in.Budget.String()
	}
	interests := "General"
	if len(in.Interests) > 0 {
		interests = strings.Join(in.Interests, ", ")
	}
	mustInclude := "None"
	if len(in.MustInclude) > 0 {
		mustInclude = strings.Join(in.MustInclude, ", ")
	}
	pace := in.Pace
	if pace == "" {
		pace = "moderate"
	}

	days, _ := json.MarshalIndent(s.Plan.Days, "", "  ")

	return fmt.Sprintf(`Evaluate this trip plan:

USER INTENT:
- Original request: %s
- Destination preference: %s
- Duration: %d days
- Travelers: %d
- Interests: %s
- Budget: %s
- Pace: %s
- Must include: %s

GENERATED PLAN:
Destination: %s
Duration: %d days
Total Cost: $%.2f

Daily plans:
%s

Return JSON:
{
  "intent_match_score": 8.5,
  "intent_match_reasoning": "Plan aligns well with the stated interests",
  "feasibility_score": 7.0,
  "feasibility_reasoning": "Day 1 has too many activities, might be rushed",
  "overall_rationale": "One or two sentences"
}`,
		in.OriginalQuery, in.Destination, in.Days, in.Travelers, interests, budget, pace, mustInclude,
		s.Plan.Destination, s.Plan.DurationDays, s.TotalCostUSD, days)
}
