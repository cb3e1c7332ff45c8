package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripgenie/internal/ai"
	"tripgenie/internal/ai/aitest"
	"tripgenie/internal/modules/evaluation"
	"tripgenie/internal/modules/flights"
	"tripgenie/internal/modules/intent"
	"tripgenie/internal/modules/metrics"
	"tripgenie/internal/modules/planner"
	"tripgenie/internal/types"
)

const parisQuery = "3-day trip to Paris, budget $1500, 2 travelers, interests: art, food"

const parisIntent = `{
	"destination": "Paris",
	"duration_days": 3,
	"num_travelers": 2,
	"budget": {"amount": 1500, "currency": "USD"},
	"interests": ["art", "food"],
	"confidence_score": 0.9
}`

const judgeAnswer = `{"intent_match_score": 9, "feasibility_score": 8, "overall_rationale": "good"}`

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func planJSON(days int) string {
	parts := make([]string, 0, days)
	for d := 1; d <= days; d++ {
		parts = append(parts, fmt.Sprintf(
			`{"day":%d,"morning":"Louvre","afternoon":"Marais food tour","evening":"Seine cruise","estimated_cost_usd":200}`, d))
	}
	return fmt.Sprintf(`{"destination":"Paris","daily_plans":[%s],"highlights":["Louvre"],"practical_tips":["Book ahead"]}`,
		strings.Join(parts, ","))
}

type stubSearcher struct {
	opts  []flights.FlightOption
	err   error
	block bool
}

func (s stubSearcher) Name() string { return "stub" }

func (s stubSearcher) Search(ctx context.Context, _ flights.SearchRequest) ([]flights.FlightOption, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.opts, s.err
}

type fixture struct {
	orch     *Orchestrator
	provider *aitest.Provider
	tracker  *metrics.Tracker
}

func setup(t *testing.T, searcher flights.Searcher, cfg Config, replies ...aitest.Reply) fixture {
	t.Helper()
	p := aitest.NewProvider(replies...)
	client := ai.NewClient(p, nil, ai.ClientOptions{Model: "primary", Timeout: time.Second, MaxRetries: 1}, zap.NewNop())
	tracker := metrics.NewTracker(metrics.Pricing{InputPerMTok: 3, OutputPerMTok: 15}, nil, zap.NewNop())

	if cfg.DefaultOrigin == "" {
		cfg.DefaultOrigin = "NYC"
	}
	orch := New(Deps{
		Intent:    intent.NewExtractor(client, zap.NewNop()).WithClock(func() time.Time { return fixedNow }),
		Planner:   planner.NewPlanner(client, nil, planner.Options{Temperature: 0.3}, zap.NewNop()),
		Flights:   searcher,
		Evaluator: evaluation.NewEvaluator(client, "judge", zap.NewNop()),
		Tracker:   tracker,
	}, cfg).WithClock(func() time.Time { return fixedNow })
	return fixture{orch: orch, provider: p, tracker: tracker}
}

func TestProcessParisWithoutOptions(t *testing.T) {
	f := setup(t, flights.NewMockSearcher(), Config{}, aitest.Text(parisIntent), aitest.Text(planJSON(3)))

	rec, err := f.orch.Process(context.Background(), parisQuery, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, f.provider.Calls())
	assert.Equal(t, 2, rec.LLMCalls)
	assert.Nil(t, rec.Flights)
	assert.Nil(t, rec.Evaluation)

	assert.Equal(t, "Paris", rec.Intent.Destination)
	assert.Equal(t, 3, rec.Intent.Days)
	assert.Equal(t, 2, rec.Intent.Travelers)
	assert.InDelta(t, 1500, rec.Intent.BudgetAmount(), 1e-9)
	assert.ElementsMatch(t, []string{"art", "food"}, rec.Intent.Interests)
	require.Len(t, rec.Plan.Days, 3)

	assert.InDelta(t, 600, rec.TotalCostUSD, 1e-9)
	assert.InDelta(t, 0.95, rec.Confidence, 1e-9)
	assert.Equal(t, StateCompleted, rec.State)
	assert.Equal(t, []State{StateStarted, StateIntentExtracted, StatePlanned, StateCompleted}, rec.History)
	require.Len(t, rec.Stages, 2)
	assert.Equal(t, intent.Stage, rec.Stages[0].Stage)
	assert.Equal(t, planner.Stage, rec.Stages[1].Stage)
	assert.NotEmpty(t, rec.ID)
	// 2 calls * (100 in * $3/M + 50 out * $15/M)
	assert.InDelta(t, 0.0021, rec.GenerationCost, 1e-9)

	s := f.tracker.Snapshot()
	assert.Equal(t, 1, s.TotalRequests)
	assert.Equal(t, 0, s.FailedRequests)
}

func TestProcessWithMockFlights(t *testing.T) {
	f := setup(t, flights.NewMockSearcher(), Config{}, aitest.Text(parisIntent), aitest.Text(planJSON(3)))

	rec, err := f.orch.Process(context.Background(), parisQuery, Options{IncludeFlights: true, RequestID: "req-flights"})
	require.NoError(t, err)

	require.NotNil(t, rec.Flights)
	require.NotNil(t, rec.Flights.Cheapest)
	assert.Equal(t, "req-flights", rec.ID)
	assert.Equal(t, "mock", rec.Flights.Provider)
	assert.Equal(t, "NYC", rec.Flights.Request.Origin)
	assert.Equal(t, "CDG", rec.Flights.Request.Destination)
	assert.Equal(t, "2026-03-31", rec.Flights.Request.DepartDate)
	assert.Equal(t, "2026-04-02", rec.Flights.Request.ReturnDate)
	assert.Equal(t, 2, rec.Flights.Request.Adults)
	assert.NotEmpty(t, rec.Flights.Options)

	want := 600 + rec.Flights.Cheapest.Price.Amount*2*2
	assert.InDelta(t, want, rec.TotalCostUSD, 0.01)
	assert.InDelta(t, 0.967, rec.Confidence, 1e-9)
	assert.Contains(t, rec.History, StateFlightsEnriched)
	assert.Equal(t, 2, rec.LLMCalls)
}

func TestProcessOfferTotalFareIsNotScaled(t *testing.T) {
	searcher := stubSearcher{opts: []flights.FlightOption{
		{Carrier: "AF", Price: types.USD(1450), FareBasis: flights.FareOfferTotal},
		{Carrier: "DL", Price: types.USD(1600), FareBasis: flights.FareOfferTotal},
	}}
	f := setup(t, searcher, Config{}, aitest.Text(parisIntent), aitest.Text(planJSON(3)))

	rec, err := f.orch.Process(context.Background(), parisQuery, Options{IncludeFlights: true})
	require.NoError(t, err)
	require.NotNil(t, rec.Flights.Cheapest)
	assert.Equal(t, "AF", rec.Flights.Cheapest.Carrier)
	assert.InDelta(t, 600+1450, rec.TotalCostUSD, 1e-9)
}

func TestProcessFlightFailureIsFatalByDefault(t *testing.T) {
	searcher := stubSearcher{err: &flights.APIError{Reason: flights.ReasonHTTPStatus, StatusCode: 500, Err: errors.New("boom")}}
	f := setup(t, searcher, Config{}, aitest.Text(parisIntent), aitest.Text(planJSON(3)))

	rec, err := f.orch.Process(context.Background(), parisQuery, Options{IncludeFlights: true})
	require.Error(t, err)
	assert.Nil(t, rec)

	var oe *OrchestrationError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, flights.Stage, oe.Stage)
	assert.Equal(t, flights.ReasonHTTPStatus, oe.Reason())
	assert.Equal(t, "flight search failed", oe.Message())

	var apiErr *flights.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.StatusCode)

	s := f.tracker.Snapshot()
	assert.Equal(t, 1, s.FailedRequests)
	assert.Equal(t, 1, s.Stages[flights.Stage].Failures)
}

func TestProcessBestEffortFlights(t *testing.T) {
	searcher := stubSearcher{err: &flights.APIError{Reason: flights.ReasonAuth, StatusCode: 401, Err: errors.New("bad key")}}
	f := setup(t, searcher, Config{BestEffortFlights: true}, aitest.Text(parisIntent), aitest.Text(planJSON(3)))

	rec, err := f.orch.Process(context.Background(), parisQuery, Options{IncludeFlights: true})
	require.NoError(t, err)

	assert.Nil(t, rec.Flights)
	assert.Equal(t, "flights omitted: flight search is not authorized", rec.Degraded)
	assert.NotContains(t, rec.History, StateFlightsEnriched)
	assert.Equal(t, StateCompleted, rec.State)
	assert.InDelta(t, 600, rec.TotalCostUSD, 1e-9)
	assert.InDelta(t, 0.8, rec.Confidence, 1e-9)
	assert.Equal(t, 1, f.tracker.Snapshot().Stages[flights.Stage].Failures)
}

func TestProcessStageRecordsHideUpstreamDetail(t *testing.T) {
	searcher := stubSearcher{err: &flights.APIError{
		Reason:     flights.ReasonAuth,
		StatusCode: 401,
		Err:        errors.New("Unauthorized: client_secret=abc123 invalid for https://test.api.amadeus.com"),
	}}
	f := setup(t, searcher, Config{BestEffortFlights: true}, aitest.Text(parisIntent), aitest.Text(planJSON(3)))

	rec, err := f.orch.Process(context.Background(), parisQuery, Options{IncludeFlights: true})
	require.NoError(t, err)
	require.Len(t, rec.Stages, 3)
	assert.False(t, rec.Stages[2].Success)
	assert.Equal(t, flights.ReasonAuth, rec.Stages[2].Reason)

	body, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "client_secret")
	assert.NotContains(t, string(body), "amadeus.com")
	for _, r := range f.tracker.Records() {
		assert.NotContains(t, r.Reason, "abc123")
	}
}

func TestProcessFlightTimeout(t *testing.T) {
	f := setup(t, stubSearcher{block: true}, Config{FlightTimeout: 20 * time.Millisecond},
		aitest.Text(parisIntent), aitest.Text(planJSON(3)))

	_, err := f.orch.Process(context.Background(), parisQuery, Options{IncludeFlights: true})
	var oe *OrchestrationError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, flights.ReasonTimeout, oe.Reason())
	assert.True(t, errors.Is(err, flights.ErrTimeout))
}

func TestProcessUnknownAirport(t *testing.T) {
	answer := `{"destination":"Atlantis","duration_days":2,"num_travelers":1,"confidence_score":0.5}`
	f := setup(t, flights.NewMockSearcher(), Config{}, aitest.Text(answer), aitest.Text(planJSON(2)))

	_, err := f.orch.Process(context.Background(), "2 days in Atlantis", Options{IncludeFlights: true})
	var oe *OrchestrationError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, flights.ReasonUnknownAirport, oe.Reason())
	assert.True(t, errors.Is(err, flights.ErrUnknownAirport))
}

func TestProcessWithEvaluation(t *testing.T) {
	f := setup(t, flights.NewMockSearcher(), Config{},
		aitest.Text(parisIntent), aitest.Text(planJSON(3)), aitest.Text(judgeAnswer))

	rec, err := f.orch.Process(context.Background(), parisQuery, Options{Evaluate: true})
	require.NoError(t, err)

	require.NotNil(t, rec.Evaluation)
	assert.Equal(t, 3, f.provider.Calls())
	assert.Equal(t, "judge", f.provider.Requests()[2].Model)
	assert.Equal(t, []State{StateStarted, StateIntentExtracted, StatePlanned, StateEvaluated, StateCompleted}, rec.History)
	assert.GreaterOrEqual(t, rec.Evaluation.Overall, evaluation.MinScore)
	assert.LessOrEqual(t, rec.Evaluation.Overall, evaluation.MaxScore)
	assert.Equal(t, "A", rec.Evaluation.Grade)
}

func TestProcessMalformedIntent(t *testing.T) {
	f := setup(t, flights.NewMockSearcher(), Config{}, aitest.Text("Sure! Paris sounds lovely."))

	_, err := f.orch.Process(context.Background(), parisQuery, Options{})
	var oe *OrchestrationError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, intent.Stage, oe.Stage)
	assert.Equal(t, ai.ReasonMalformedJSON, oe.Reason())

	var ee *intent.ExtractionError
	assert.True(t, errors.As(err, &ee))
	// one retry, then the planner never runs
	assert.Equal(t, 2, f.provider.Calls())
	assert.Equal(t, 1, f.tracker.Snapshot().FailedRequests)
}

func TestProcessMalformedPlan(t *testing.T) {
	f := setup(t, flights.NewMockSearcher(), Config{}, aitest.Text(parisIntent), aitest.Text("```json\n{broken"))

	_, err := f.orch.Process(context.Background(), parisQuery, Options{})
	var pe *planner.PlanningError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ai.ReasonMalformedJSON, pe.Reason)
}

func TestProcessPlanDayMismatch(t *testing.T) {
	f := setup(t, flights.NewMockSearcher(), Config{}, aitest.Text(parisIntent), aitest.Text(planJSON(2)))

	_, err := f.orch.Process(context.Background(), parisQuery, Options{})
	var oe *OrchestrationError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, planner.Stage, oe.Stage)
	assert.Equal(t, planner.ReasonDayCountMismatch, oe.Reason())
	assert.Equal(t, "the itinerary did not match the requested number of days", oe.Message())
}

func TestProcessMalformedJudge(t *testing.T) {
	f := setup(t, flights.NewMockSearcher(), Config{},
		aitest.Text(parisIntent), aitest.Text(planJSON(3)), aitest.Text("9/10, great"))

	_, err := f.orch.Process(context.Background(), parisQuery, Options{Evaluate: true})
	var ve *evaluation.EvaluationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, ai.ReasonMalformedJSON, ve.Reason)
}

func TestProcessProviderTimeout(t *testing.T) {
	f := setup(t, flights.NewMockSearcher(), Config{}, aitest.Reply{Block: true})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := f.orch.Process(ctx, parisQuery, Options{})
	var oe *OrchestrationError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, ai.ReasonTimeout, oe.Reason())
	assert.Equal(t, "intent extraction timed out, please try again", oe.Message())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateStarted, StateIntentExtracted))
	assert.True(t, CanTransition(StatePlanned, StateCompleted))
	assert.True(t, CanTransition(StateFlightsEnriched, StateEvaluated))
	assert.False(t, CanTransition(StateStarted, StatePlanned))
	assert.False(t, CanTransition(StateCompleted, StateFailed))
	assert.False(t, CanTransition(StateEvaluated, StateFlightsEnriched))

	for from := range AllowedTransitions {
		assert.True(t, CanTransition(from, StateFailed), "failed must be reachable from %s", from)
	}
}

func TestRunRejectsIllegalTransition(t *testing.T) {
	r := newRun()
	require.Error(t, r.advance(StateCompleted))
	require.NoError(t, r.advance(StateIntentExtracted))
	r.fail()
	r.fail()
	assert.Equal(t, []State{StateStarted, StateIntentExtracted, StateFailed}, r.history)
}
