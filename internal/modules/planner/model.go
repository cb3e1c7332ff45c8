// README: TripPlan/DayPlan value objects and planning errors.
package planner

import "fmt"

// DayPlan is one day of an itinerary; Day is 1-based.
type DayPlan struct {
	Day       int      `json:"day"`
	Date      string   `json:"date,omitempty"`
	Morning   string   `json:"morning"`
	Afternoon string   `json:"afternoon"`
	Evening   string   `json:"evening"`
	CostUSD   *float64 `json:"estimated_cost_usd,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Activities lists the day's non-empty activity slots in order.
func (d DayPlan) Activities() []string {
	out := make([]string, 0, 3)
	for _, s := range []string{d.Morning, d.Afternoon, d.Evening} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (d DayPlan) Cost() float64 {
	if d.CostUSD == nil {
		return 0
	}
	return *d.CostUSD
}

type TripPlan struct {
	Destination   string    `json:"destination"`
	DurationDays  int       `json:"duration_days"`
	Days          []DayPlan `json:"daily_plans"`
	TotalCostUSD  float64   `json:"total_estimated_cost"`
	Highlights    []string  `json:"highlights"`
	PracticalTips []string  `json:"practical_tips"`
}

const (
	ReasonDayCountMismatch = "day_count_mismatch"
	ReasonDaySequence      = "day_sequence"
)

// PlanningError reports why an itinerary could not be produced.
type PlanningError struct {
	Reason string
	Err    error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("trip planning failed (%s): %v", e.Reason, e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }
