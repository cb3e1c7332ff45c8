// README: Flight search request/option types and the FlightApiError taxonomy.
package flights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tripgenie/internal/types"
)

const Stage = "flight_search"

// Searcher finds flight options. Implementations are chosen once at startup.
type Searcher interface {
	Name() string
	Search(ctx context.Context, req SearchRequest) ([]FlightOption, error)
}

type SearchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartDate  string `json:"depart_date"`
	ReturnDate  string `json:"return_date,omitempty"`
	Adults      int    `json:"adults"`
	CabinClass  string `json:"cabin_class"`
	NonStop     bool   `json:"non_stop"`
}

func (r SearchRequest) cabin() string {
	if r.CabinClass == "" {
		return "ECONOMY"
	}
	return strings.ToUpper(r.CabinClass)
}

func (r SearchRequest) validate() error {
	if len(r.Origin) != 3 || len(r.Destination) != 3 {
		return fmt.Errorf("origin and destination must be IATA codes, got %q and %q", r.Origin, r.Destination)
	}
	if r.Adults < 1 {
		return fmt.Errorf("adults must be >= 1, got %d", r.Adults)
	}
	depart, err := time.Parse("2006-01-02", r.DepartDate)
	if err != nil {
		return fmt.Errorf("depart date %q: %w", r.DepartDate, err)
	}
	if r.ReturnDate != "" {
		ret, err := time.Parse("2006-01-02", r.ReturnDate)
		if err != nil {
			return fmt.Errorf("return date %q: %w", r.ReturnDate, err)
		}
		if ret.Before(depart) {
			return fmt.Errorf("return date %s is before depart date %s", r.ReturnDate, r.DepartDate)
		}
	}
	return nil
}

// Fare bases for FlightOption.Price.
const (
	// FarePerPerson is one traveler, one direction.
	FarePerPerson = "per_person_one_way"
	// FareOfferTotal covers every adult and every leg of the searched itinerary.
	FareOfferTotal = "offer_total"
)

// FlightOption is one priced outbound itinerary.
type FlightOption struct {
	Carrier      string      `json:"carrier"`
	FlightNumber string      `json:"flight_number,omitempty"`
	Price        types.Money `json:"price"`
	// FareBasis says what Price covers; empty means FarePerPerson.
	FareBasis       string `json:"fare_basis,omitempty"`
	DepartureTime   string `json:"departure_time"`
	ArrivalTime     string `json:"arrival_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Stops           int    `json:"stops"`
	CabinClass      string `json:"cabin_class"`
}

// PartyCost is the round-trip price for the whole party.
func (f FlightOption) PartyCost(travelers int) float64 {
	if f.FareBasis == FareOfferTotal {
		return f.Price.Amount
	}
	return f.Price.Amount * float64(max(travelers, 1)) * 2
}

func (f FlightOption) Duration() time.Duration {
	return time.Duration(f.DurationMinutes) * time.Minute
}

// Cheapest returns the lowest-priced option, or false when opts is empty.
func Cheapest(opts []FlightOption) (FlightOption, bool) {
	if len(opts) == 0 {
		return FlightOption{}, false
	}
	best := opts[0]
	for _, o := range opts[1:] {
		if o.Price.Amount < best.Price.Amount {
			best = o
		}
	}
	return best, true
}

var (
	ErrTimeout        = errors.New("flights: request timed out")
	ErrUnknownAirport = errors.New("flights: no airport code for location")
)

const (
	ReasonTimeout        = "timeout"
	ReasonAuth           = "auth_failed"
	ReasonHTTPStatus     = "http_status"
	ReasonDecode         = "decode"
	ReasonTransport      = "transport"
	ReasonInvalidRequest = "invalid_request"
	ReasonUnknownAirport = "unknown_airport"
)

// APIError is the flight stage failure. StatusCode is set for HTTP failures.
type APIError struct {
	Reason     string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("flight api error (%s, status %d): %v", e.Reason, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("flight api error (%s): %v", e.Reason, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }
