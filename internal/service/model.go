// README: TripRecommendation, the merged output of one pipeline run.
package service

import (
	"time"

	"tripgenie/internal/modules/evaluation"
	"tripgenie/internal/modules/flights"
	"tripgenie/internal/modules/intent"
	"tripgenie/internal/modules/metrics"
	"tripgenie/internal/modules/planner"
)

// Options are the per-request switches.
type Options struct {
	IncludeFlights bool
	Evaluate       bool
	Origin         string
	UserLocation   string
	// RequestID is generated when empty.
	RequestID string
}

type FlightSummary struct {
	Provider string                 `json:"provider"`
	Request  flights.SearchRequest  `json:"request"`
	Options  []flights.FlightOption `json:"options"`
	Cheapest *flights.FlightOption  `json:"cheapest,omitempty"`
}

type TripRecommendation struct {
	ID               string              `json:"id"`
	Query            string              `json:"query"`
	Intent           intent.TravelIntent `json:"intent"`
	Plan             planner.TripPlan    `json:"trip_plan"`
	Flights          *FlightSummary      `json:"flights,omitempty"`
	Evaluation       *evaluation.Result  `json:"evaluation,omitempty"`
	TotalCostUSD     float64             `json:"total_cost_estimate"`
	Confidence       float64             `json:"confidence_score"`
	GenerationTimeMs float64             `json:"generation_time_ms"`
	GenerationCost   float64             `json:"generation_cost_usd"`
	LLMCalls         int                 `json:"llm_calls"`
	State            State               `json:"state"`
	History          []State             `json:"state_history"`
	Stages           []metrics.Record    `json:"stages"`
	Degraded         string              `json:"degraded,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}
