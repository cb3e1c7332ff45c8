// README: TravelIntent value object and the errors raised while extracting it.
package intent

import (
	"fmt"

	"tripgenie/internal/types"
)

const dateLayout = "2006-01-02"

// TravelIntent is the structured form of a user's trip request. It is immutable once
// returned by Extract.
type TravelIntent struct {
	Destination string       `json:"destination" validate:"required"`
	Days        int          `json:"duration_days" validate:"gte=1"`
	Travelers   int          `json:"num_travelers" validate:"gte=1"`
	Budget      *types.Money `json:"budget,omitempty"`
	Interests   []string     `json:"interests"`

	Origin            string   `json:"origin,omitempty"`
	StartDate         string   `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate           string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TravelerType      string   `json:"traveler_type,omitempty" validate:"omitempty,oneof=solo couple family group business"`
	BudgetFlexibility string   `json:"budget_flexibility,omitempty" validate:"omitempty,oneof=strict moderate flexible"`
	Pace              string   `json:"pace,omitempty" validate:"omitempty,oneof=relaxed moderate packed"`
	AccommodationType string   `json:"accommodation_type,omitempty"`
	FlightClass       string   `json:"flight_class,omitempty" validate:"omitempty,oneof=economy premium_economy business first"`
	DirectFlightsOnly bool     `json:"direct_flights_only"`
	MustInclude       []string `json:"must_include,omitempty"`
	MustAvoid         []string `json:"must_avoid,omitempty"`
	Confidence        float64  `json:"confidence_score" validate:"gte=0,lte=1"`
	OriginalQuery     string   `json:"original_query"`
}


// BudgetAmount returns the budget amount, or 0 when no budget was given.
func (t TravelIntent) BudgetAmount() float64 {
	if t.Budget == nil {
		return 0
	}
	return t.Budget.Amount
}

// QueryContext carries request facts the LLM cannot infer from the query alone.
type QueryContext struct {
	UserLocation string
}

// Failure reasons specific to extraction; LLM failures use the ai reason codes.
const (
	ReasonEmptyQuery = "empty_query"
	ReasonDateRange  = "date_range"
)

// ExtractionError reports why a query could not be turned into a TravelIntent.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("intent extraction failed (%s): %v", e.Reason, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
