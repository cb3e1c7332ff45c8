package planner

import (
	"fmt"
	"strings"

	"tripgenie/internal/ai"
	"tripgenie/internal/modules/intent"
)

var planSchema = ai.MustSchema("trip_plan", `{
	"type": "object",
	"required": ["destination", "daily_plans"],
	"properties": {
		"destination": {"type": "string"},
		"duration_days": {"type": ["integer", "null"]},
		"daily_plans": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["day", "morning", "afternoon", "evening"],
				"properties": {
					"day": {"type": "integer"},
					"date": {"type": ["string", "null"]},
					"morning": {"type": "string", "minLength": 1},
					"afternoon": {"type": "string", "minLength": 1},
					"evening": {"type": "string", "minLength": 1},
					"estimated_cost_usd": {"type": ["number", "null"], "minimum": 0},
					"notes": {"type": ["string", "null"]}
				}
			}
		},
		"total_estimated_cost": {"type": ["number", "null"], "minimum": 0},
		"highlights": {"type": ["array", "null"], "items": {"type": "string"}},
		"practical_tips": {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`)

const systemPrompt = `You are an expert travel planner creating personalized itineraries.

Your itineraries should:
- Balance activities with rest time
- Consider local culture and customs
- Include practical details (opening hours, booking tips)
- Be realistic about timing and distances
- Respect the traveler's budget and preferences
- Include cost estimates in USD

Return STRICTLY a single JSON object, no prose.`

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func joinOr(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

func buildPrompt(in intent.TravelIntent, destinationContext string) string {
	budget := "Flexible"
	if in.Budget != nil {
		budget = in.Budget.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Create a detailed trip itinerary with these requirements:

DESTINATION: %s
DURATION: %d days
DATES: %s to %s
TRAVELERS: %d (%s)
BUDGET: %s total (%s flexibility)

INTERESTS: %s
PACE: %s
ACCOMMODATION: %s

MUST INCLUDE: %s
AVOID: %s
`,
		in.Destination,
		in.Days,
		orDefault(in.StartDate, "Flexible"), orDefault(in.EndDate, "Flexible"),
		in.Travelers, orDefault(in.TravelerType, "general"),
		budget, orDefault(in.BudgetFlexibility, "moderate"),
		joinOr(in.Interests, "General sightseeing"),
		orDefault(in.Pace, "moderate"),
		orDefault(in.AccommodationType, "Hotels"),
		joinOr(in.MustInclude, "None"),
		joinOr(in.MustAvoid, "None"),
	)

	if destinationContext != "" {
		fmt.Fprintf(&b, "\nDESTINATION CONTEXT:\n%s\n", destinationContext)
	}

	fmt.Fprintf(&b, `
Return a JSON object with this structure:
{
  "destination": "City/Country",
  "duration_days": %d,
  "daily_plans": [
    {
      "day": 1,
      "date": "YYYY-MM-DD or null",
      "morning": "Activity description with timing",
      "afternoon": "Activity description",
      "evening": "Activity description",
      "estimated_cost_usd": 150.0,
      "notes": "Practical tips for the day"
    }
  ],
  "total_estimated_cost": 750.0,
  "highlights": ["Top experience 1", "Top experience 2"],
  "practical_tips": ["Tip 1", "Tip 2", "Tip 3"]
}

CRITICAL: Create EXACTLY %d daily_plans entries, numbered 1 to %d. No more, no less.`, in.Days, in.Days, in.Days)

	return b.String()
}
