package flights

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"time"

	"tripgenie/internal/types"
)

type mockTemplate struct {
	carrier  string
	departAt time.Duration // offset from midnight
	// durationMin applies when the route distance is unknown
	durationMin int
	stops       int
	basePrice   float64
}

// referenceKm is the route length the template base prices are quoted for.
const referenceKm = 5800.0

var mockTemplates = []mockTemplate{
	{carrier: "TG", departAt: 10*time.Hour + 30*time.Minute, durationMin: 495, stops: 0, basePrice: 450},
	{carrier: "SQ", departAt: 14*time.Hour + 15*time.Minute, durationMin: 555, stops: 1, basePrice: 385},
	{carrier: "EK", departAt: 8 * time.Hour, durationMin: 500, stops: 0, basePrice: 520},
}

var cabinMultiplier = map[string]float64{
	"ECONOMY":         1.0,
	"PREMIUM_ECONOMY": 1.6,
	"BUSINESS":        3.5,
	"FIRST":           6.0,
}

// MockSearcher returns offline flight options derived only from the request, so the
// same request always yields the same options. Durations and fares scale with the
// great-circle distance when both airports are known.
type MockSearcher struct{}

func NewMockSearcher() *MockSearcher { return &MockSearcher{} }

func (m *MockSearcher) Name() string { return "mock" }

func (m *MockSearcher) Search(ctx context.Context, req SearchRequest) ([]FlightOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, &APIError{Reason: ReasonTimeout, Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
	}
	if err := req.validate(); err != nil {
		return nil, &APIError{Reason: ReasonInvalidRequest, Err: err}
	}

	depart, _ := time.Parse("2006-01-02", req.DepartDate)
	rng := rand.New(rand.NewSource(requestSeed(req)))
	mult, ok := cabinMultiplier[req.cabin()]
	if !ok {
		mult = 1.0
	}
	km, known := routeKm(req.Origin, req.Destination)
	if known {
		mult *= math.Min(math.Max(km/referenceKm, 0.3), 2.5)
	}

	out := make([]FlightOption, 0, len(mockTemplates))
	for _, t := range mockTemplates {
		if req.NonStop && t.stops > 0 {
			continue
		}
		factor := 0.85 + rng.Float64()*0.3
		price := math.Round(t.basePrice*factor*mult*100) / 100
		duration := t.durationMin
		if known {
			duration = blockMinutes(km, t.stops)
		}
		dep := depart.Add(t.departAt)
		arr := dep.Add(time.Duration(duration) * time.Minute)
		out = append(out, FlightOption{
			Carrier:         t.carrier,
			FlightNumber:    fmt.Sprintf("%s%d", t.carrier, 100+rng.Intn(900)),
			Price:           types.USD(price),
			FareBasis:       FarePerPerson,
			DepartureTime:   dep.Format("2006-01-02T15:04:05"),
			ArrivalTime:     arr.Format("2006-01-02T15:04:05"),
			DurationMinutes: duration,
			Stops:           t.stops,
			CabinClass:      req.cabin(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price.Amount < out[j].Price.Amount })
	return out, nil
}

func requestSeed(req SearchRequest) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d|%s|%t",
		req.Origin, req.Destination, req.DepartDate, req.ReturnDate, req.Adults, req.cabin(), req.NonStop)
	return int64(h.Sum64())
}
