package intent

import (
	"fmt"
	"time"

	"tripgenie/internal/ai"
)

var intentSchema = ai.MustSchema("travel_intent", `{
	"type": "object",
	"required": ["destination", "duration_days", "num_travelers"],
	"properties": {
		"destination": {"type": "string", "minLength": 1},
		"duration_days": {"type": "integer"},
		"num_travelers": {"type": "integer"},
		"budget": {
			"type": ["object", "null"],
			"required": ["amount"],
			"properties": {
				"amount": {"type": "number"},
				"currency": {"type": ["string", "null"]}
			}
		},
		"interests": {"type": ["array", "null"], "items": {"type": "string"}},
		"origin": {"type": ["string", "null"]},
		"start_date": {"type": ["string", "null"]},
		"end_date": {"type": ["string", "null"]},
		"traveler_type": {"type": ["string", "null"]},
		"budget_flexibility": {"type": ["string", "null"]},
		"pace": {"type": ["string", "null"]},
		"accommodation_type": {"type": ["string", "null"]},
		"flight_class": {"type": ["string", "null"]},
		"direct_flights_only": {"type": ["boolean", "null"]},
		"must_include": {"type": ["array", "null"], "items": {"type": "string"}},
		"must_avoid": {"type": ["array", "null"], "items": {"type": "string"}},
		"confidence_score": {"type": ["number", "null"]}
	}
}`)

const systemPrompt = `You are a travel intent extraction expert.
Extract structured travel information from user queries.

Be smart about:
- Converting relative dates (e.g. "next week") to actual dates
- Identifying interests from activity mentions
- Setting reasonable defaults: num_travelers is 1 unless the query says otherwise,
  "a week" is 7 days, "a weekend" is 2 days

If optional information is truly ambiguous or missing, use null.
Provide a confidence_score between 0 and 1 for the overall extraction quality.
Return STRICTLY a single JSON object, no prose.`

func buildUserPrompt(query string, qc QueryContext, today time.Time) string {
	location := qc.UserLocation
	if location == "" {
		location = "Not specified"
	}
	return fmt.Sprintf(`Extract travel intent from this query:

"%s"

Today's date is: %s
User's location: %s

If the destination is vague (e.g. "beach vacation", "mountains"), consider the user's location.

Return JSON with exactly these fields:
{
  "destination": "city or region",
  "duration_days": integer >= 1,
  "num_travelers": integer >= 1,
  "budget": {"amount": number, "currency": "USD"} or null,
  "interests": ["lower-case tags"],
  "origin": "departure city" or null,
  "start_date": "YYYY-MM-DD" or null,
  "end_date": "YYYY-MM-DD" or null,
  "traveler_type": "solo|couple|family|group|business" or null,
  "budget_flexibility": "strict|moderate|flexible" or null,
  "pace": "relaxed|moderate|packed" or null,
  "accommodation_type": "hotel|hostel|resort|airbnb" or null,
  "flight_class": "economy|premium_economy|business|first" or null,
  "direct_flights_only": boolean,
  "must_include": ["places"],
  "must_avoid": ["places or activities"],
  "confidence_score": number between 0 and 1
}`, query, today.Format(dateLayout), location)
}
