package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgenie/internal/ai"
	"tripgenie/internal/http/handlers"
	"tripgenie/internal/http/middleware"
	"tripgenie/internal/modules/flights"
	"tripgenie/internal/modules/intent"
	"tripgenie/internal/modules/metrics"
	"tripgenie/internal/modules/planner"
	"tripgenie/internal/service"
)

type stubTrips struct {
	rec  *service.TripRecommendation
	err  error
	got  service.Options
	q    string
	hasD bool
}

func (s *stubTrips) Process(ctx context.Context, query string, opts service.Options) (*service.TripRecommendation, error) {
	s.q, s.got = query, opts
	_, s.hasD = ctx.Deadline()
	return s.rec, s.err
}

func sampleRecommendation() *service.TripRecommendation {
	return &service.TripRecommendation{
		ID:     "req-1",
		Intent: intent.TravelIntent{Destination: "Paris", Days: 1, Travelers: 2},
		Plan: planner.TripPlan{
			Destination:  "Paris",
			DurationDays: 1,
			Days:         []planner.DayPlan{{Day: 1, Morning: "Louvre", Afternoon: "Orsay", Evening: "Seine"}},
		},
		TotalCostUSD: 300,
		State:        service.StateCompleted,
	}
}

func tripRouter(trips handlers.TripService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/api/trips", handlers.NewTripHandler(trips, time.Minute).Create)
	return r
}

func postTrip(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateTripJSON(t *testing.T) {
	trips := &stubTrips{rec: sampleRecommendation()}
	w := postTrip(tripRouter(trips), "/api/trips", map[string]any{
		"query":         "  1 day in Paris  ",
		"evaluate":      true,
		"user_location": "New York",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1 day in Paris", trips.q)
	assert.True(t, trips.got.IncludeFlights)
	assert.True(t, trips.got.Evaluate)
	assert.Equal(t, "New York", trips.got.UserLocation)
	assert.Equal(t, "req-1", trips.got.RequestID)
	assert.True(t, trips.hasD)

	var body service.TripRecommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Paris", body.Plan.Destination)
	assert.Equal(t, service.StateCompleted, body.State)
}

func TestCreateTripFlightsDisabled(t *testing.T) {
	trips := &stubTrips{rec: sampleRecommendation()}
	w := postTrip(tripRouter(trips), "/api/trips", map[string]any{"query": "Paris", "include_flights": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, trips.got.IncludeFlights)
}

func TestCreateTripMarkdown(t *testing.T) {
	w := postTrip(tripRouter(&stubTrips{rec: sampleRecommendation()}), "/api/trips?format=markdown", map[string]any{"query": "Paris"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "# Trip to Paris")
}

func TestCreateTripBadInput(t *testing.T) {
	r := tripRouter(&stubTrips{rec: sampleRecommendation()})

	assert.Equal(t, http.StatusBadRequest, postTrip(r, "/api/trips", map[string]any{"query": "   "}).Code)
	assert.Equal(t, http.StatusBadRequest, postTrip(r, "/api/trips?format=pdf", map[string]any{"query": "Paris"}).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/trips", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTripErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		stage  string
		reason string
	}{
		{
			name:   "extraction malformed",
			err:    &service.OrchestrationError{Stage: intent.Stage, Cause: &intent.ExtractionError{Reason: ai.ReasonMalformedJSON, Err: ai.ErrMalformedResponse}},
			status: http.StatusBadRequest, stage: intent.Stage, reason: ai.ReasonMalformedJSON,
		},
		{
			name:   "planner timeout",
			err:    &service.OrchestrationError{Stage: planner.Stage, Cause: &planner.PlanningError{Reason: ai.ReasonTimeout, Err: ai.ErrTimeout}},
			status: http.StatusGatewayTimeout, stage: planner.Stage, reason: ai.ReasonTimeout,
		},
		{
			name:   "flight api",
			err:    &service.OrchestrationError{Stage: flights.Stage, Cause: &flights.APIError{Reason: flights.ReasonHTTPStatus, StatusCode: 500, Err: errors.New("upstream said no")}},
			status: http.StatusBadGateway, stage: flights.Stage, reason: flights.ReasonHTTPStatus,
		},
		{
			name:   "llm down during extraction",
			err:    &service.OrchestrationError{Stage: intent.Stage, Cause: &intent.ExtractionError{Reason: ai.ReasonUnavailable, Err: fmt.Errorf("%w: 503", ai.ErrProvider)}},
			status: http.StatusBadGateway, stage: intent.Stage, reason: ai.ReasonUnavailable,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postTrip(tripRouter(&stubTrips{err: tc.err}), "/api/trips", map[string]any{"query": "Paris"})
			require.Equal(t, tc.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.stage, body["stage"])
			assert.Equal(t, tc.reason, body["reason"])
			assert.Equal(t, "req-1", body["request_id"])
			assert.NotContains(t, body["error"], "upstream said no")
		})
	}
}

type stubRecords struct {
	records []metrics.Record
	limit   int
	err     error
}

func (s *stubRecords) Recent(_ context.Context, limit int) ([]metrics.Record, error) {
	s.limit = limit
	return s.records, s.err
}

type stubSummary struct{}

func (stubSummary) Snapshot() metrics.Summary { return metrics.Summary{TotalRequests: 7} }

func metricsRouter(records handlers.RecordSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewMetricsHandler(stubSummary{}, records)
	r.GET("/api/metrics/summary", h.Summary)
	r.GET("/api/metrics/recent", h.Recent)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestMetricsSummary(t *testing.T) {
	w := get(metricsRouter(nil), "/api/metrics/summary")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_requests":7`)
}

func TestMetricsRecent(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(metricsRouter(nil), "/api/metrics/recent").Code)

	store := &stubRecords{records: []metrics.Record{{RequestID: "r1", Stage: intent.Stage}}}
	r := metricsRouter(store)

	w := get(r, "/api/metrics/recent?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, store.limit)
	assert.Contains(t, w.Body.String(), `"request_id":"r1"`)

	assert.Equal(t, http.StatusBadRequest, get(r, "/api/metrics/recent?limit=0").Code)

	store.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, get(r, "/api/metrics/recent").Code)
}
