package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tripgenie/internal/modules/evaluation"
	"tripgenie/internal/modules/flights"
	"tripgenie/internal/modules/intent"
	"tripgenie/internal/modules/planner"
	"tripgenie/internal/types"
)

func TestRenderMarkdown(t *testing.T) {
	budget := types.USD(1500)
	cost := 180.0
	options := []flights.FlightOption{
		{Carrier: "EK", FlightNumber: "EK201", Price: types.USD(900), DurationMinutes: 420},
		{Carrier: "TG", FlightNumber: "TG100", Price: types.USD(450), DurationMinutes: 390, Stops: 1},
		{Carrier: "SQ", FlightNumber: "SQ321", Price: types.USD(700), DurationMinutes: 450},
		{Carrier: "AF", FlightNumber: "AF007", Price: types.USD(1200), DurationMinutes: 480},
	}
	rec := &TripRecommendation{
		Intent: intent.TravelIntent{Destination: "Paris", Days: 1, Travelers: 2, Budget: &budget, Interests: []string{"art"}},
		Plan: planner.TripPlan{
			Destination:  "Paris",
			DurationDays: 1,
			Days: []planner.DayPlan{
				{Day: 1, Date: "2026-03-31", Morning: "Louvre", Afternoon: "Orsay", Evening: "Seine", CostUSD: &cost, Notes: "Book tickets"},
			},
			Highlights:    []string{"Mona Lisa"},
			PracticalTips: []string{"Use the metro"},
		},
		Flights:      &FlightSummary{Request: flights.SearchRequest{Origin: "NYC", Destination: "CDG", DepartDate: "2026-03-31"}, Options: options},
		Evaluation:   &evaluation.Result{Overall: 8.2, Grade: "B", Issues: []string{"Tight schedule"}},
		TotalCostUSD: 1980,
		Confidence:   0.95,
	}

	md := RenderMarkdown(rec)

	assert.Contains(t, md, "# Trip to Paris")
	assert.Contains(t, md, "- **Budget:** 1500.00 USD")
	assert.Contains(t, md, "- **Dates:** Flexible to Flexible")
	assert.Contains(t, md, "### Day 1 - 2026-03-31")
	assert.Contains(t, md, "**Estimated Cost:** $180.00")
	assert.Contains(t, md, "**Notes:** Book tickets")
	assert.Contains(t, md, "## Highlights\n- Mona Lisa")
	assert.Contains(t, md, "### Option 1 - 450.00 USD")
	assert.Contains(t, md, "- **Duration:** 6.5 hours")
	assert.NotContains(t, md, "AF007")
	assert.Contains(t, md, "**Overall:** 8.2/10 (grade B)")
	assert.Contains(t, md, "- Tight schedule")
}

func TestRenderMarkdownDegraded(t *testing.T) {
	rec := &TripRecommendation{
		Plan:     planner.TripPlan{Destination: "Rome", DurationDays: 2},
		Degraded: "flights omitted: flight search timed out, please try again",
	}
	md := RenderMarkdown(rec)
	assert.Contains(t, md, "- **Budget:** Flexible")
	assert.Contains(t, md, "> flights omitted")
	assert.NotContains(t, md, "## Flight Options")
	assert.NotContains(t, md, "## Evaluation")
}
