package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"tripgenie/internal/ai"
)

const defaultMaxRecords = 1000

// Sink persists records outside the process.
type Sink interface {
	Save(ctx context.Context, r Record) error
}

type stageAgg struct {
	StageSummary
	latencyTotal float64
}

// Tracker accumulates per-stage and per-request metrics. It is safe for concurrent use;
// one instance is shared by every request in the process.
type Tracker struct {
	mu             sync.Mutex
	pricing        Pricing
	records        []Record
	maxRecords     int
	totalRequests  int
	activeRequests int
	failedRequests int
	latencyTotal   float64
	totalCost      float64
	stages         map[string]*stageAgg

	sink Sink
	log  *zap.Logger

	requestsTotal *prometheus.CounterVec
	inflight      prometheus.Gauge
	requestDur    prometheus.Histogram
	stageDur      *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	llmCalls      *prometheus.CounterVec
	tokens        *prometheus.CounterVec
	costTotal     prometheus.Counter
}

// NewTracker creates a tracker. reg may be nil to skip prometheus registration.
func NewTracker(pricing Pricing, reg prometheus.Registerer, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	factory := promauto.With(reg)
	return &Tracker{
		pricing:    pricing,
		maxRecords: defaultMaxRecords,
		stages:     map[string]*stageAgg{},
		log:        log,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripgenie_requests_total",
			Help: "Trip requests processed, by outcome",
		}, []string{"status"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tripgenie_requests_in_flight",
			Help: "Trip requests currently being processed",
		}),
		requestDur: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tripgenie_request_duration_seconds",
			Help:    "End-to-end trip request latency",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		}),
		stageDur: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripgenie_stage_duration_seconds",
			Help:    "Pipeline stage latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"stage"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripgenie_stage_failures_total",
			Help: "Pipeline stage failures",
		}, []string{"stage"}),
		llmCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripgenie_llm_calls_total",
			Help: "LLM provider calls, by stage",
		}, []string{"stage"}),
		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tripgenie_llm_tokens_total",
			Help: "LLM tokens consumed",
		}, []string{"stage", "direction"}),
		costTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tripgenie_llm_cost_usd_total",
			Help: "Estimated LLM spend in USD",
		}),
	}
}

// WithSink persists every record to s in addition to keeping it in memory.
func (t *Tracker) WithSink(s Sink) *Tracker {
	t.sink = s
	return t
}

func (t *Tracker) Pricing() Pricing { return t.pricing }

// Record stores one stage execution.
func (t *Tracker) Record(ctx context.Context, requestID, stage string, res ai.Result, latency time.Duration, stageErr error) Record {
	r := Record{
		RequestID:    requestID,
		Timestamp:    time.Now().UTC(),
		Stage:        stage,
		Model:        res.Model,
		LLMCalls:     res.Calls,
		InputTokens:  res.Usage.InputTokens,
		OutputTokens: res.Usage.OutputTokens,
		LatencyMs:    float64(latency.Microseconds()) / 1000,
		CostUSD:      t.pricing.Cost(res.Usage),
		Cached:       res.Cached,
		Success:      stageErr == nil,
	}
	if stageErr != nil {
		r.Reason = failureReason(stageErr)
	}

	t.mu.Lock()
	agg, ok := t.stages[stage]
	if !ok {
		agg = &stageAgg{}
		t.stages[stage] = agg
	}
	agg.Executions++
	if !r.Success {
		agg.Failures++
	}
	agg.LLMCalls += r.LLMCalls
	agg.InputTokens += r.InputTokens
	agg.OutputTokens += r.OutputTokens
	agg.TotalCostUSD += r.CostUSD
	agg.latencyTotal += r.LatencyMs
	t.totalCost += r.CostUSD

	t.records = append(t.records, r)
	if len(t.records) > t.maxRecords {
		t.records = t.records[len(t.records)-t.maxRecords:]
	}
	t.mu.Unlock()

	t.stageDur.WithLabelValues(stage).Observe(latency.Seconds())
	if !r.Success {
		t.stageFailures.WithLabelValues(stage).Inc()
	}
	t.llmCalls.WithLabelValues(stage).Add(float64(r.LLMCalls))
	t.tokens.WithLabelValues(stage, "input").Add(float64(r.InputTokens))
	t.tokens.WithLabelValues(stage, "output").Add(float64(r.OutputTokens))
	t.costTotal.Add(r.CostUSD)

	if t.sink != nil {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		if err := t.sink.Save(sctx, r); err != nil {
			t.log.Warn("persist metric record failed", zap.String("stage", stage), zap.Error(err))
		}
		cancel()
	}
	return r
}

// StartRequest opens a request scope. Every scope must be closed with End.
func (t *Tracker) StartRequest(requestID string) *RequestScope {
	t.mu.Lock()
	t.activeRequests++
	t.mu.Unlock()
	t.inflight.Inc()
	return &RequestScope{tracker: t, id: requestID, start: time.Now()}
}

func (t *Tracker) endRequest(latency time.Duration, success bool) {
	t.mu.Lock()
	t.activeRequests--
	t.totalRequests++
	if !success {
		t.failedRequests++
	}
	t.latencyTotal += float64(latency.Microseconds()) / 1000
	t.mu.Unlock()

	t.inflight.Dec()
	status := "success"
	if !success {
		status = "failed"
	}
	t.requestsTotal.WithLabelValues(status).Inc()
	t.requestDur.Observe(latency.Seconds())
}

// Snapshot returns a copy of the current aggregates.
func (t *Tracker) Snapshot() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		TotalRequests:  t.totalRequests,
		ActiveRequests: t.activeRequests,
		FailedRequests: t.failedRequests,
		TotalCostUSD:   round(t.totalCost, 6),
		Stages:         make(map[string]StageSummary, len(t.stages)),
	}
	if t.totalRequests > 0 {
		n := float64(t.totalRequests)
		s.SuccessRate = round(float64(t.totalRequests-t.failedRequests)/n*100, 2)
		s.AvgLatencyMs = round(t.latencyTotal/n, 2)
		s.CostPerRequest = round(t.totalCost/n, 6)
	}
	for name, agg := range t.stages {
		ss := agg.StageSummary
		ss.TotalCostUSD = round(ss.TotalCostUSD, 6)
		if ss.Executions > 0 {
			ss.AvgLatencyMs = round(agg.latencyTotal/float64(ss.Executions), 2)
		}
		s.Stages[name] = ss
		s.LLMCalls += ss.LLMCalls
		s.TotalTokens += ss.InputTokens + ss.OutputTokens
	}
	return s
}

// Records returns the most recent in-memory records, oldest first.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Record(nil), t.records...)
}

type export struct {
	Summary  Summary  `json:"summary"`
	Requests []Record `json:"requests"`
}

// ExportJSON writes the summary and recent records as indented JSON.
func (t *Tracker) ExportJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export{Summary: t.Snapshot(), Requests: t.Records()})
}

func (t *Tracker) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics export: %w", err)
	}
	if err := t.ExportJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("write metrics export: %w", err)
	}
	return f.Close()
}

// RequestScope ties stage records to one request and times it end to end.
type RequestScope struct {
	tracker *Tracker
	id      string
	start   time.Time

	mu    sync.Mutex
	calls int
	cost  float64
	ended bool
}

func (s *RequestScope) ID() string { return s.id }

// Record stores a stage execution under this request.
func (s *RequestScope) Record(ctx context.Context, stage string, res ai.Result, latency time.Duration, stageErr error) Record {
	r := s.tracker.Record(ctx, s.id, stage, res, latency, stageErr)
	s.mu.Lock()
	s.calls += r.LLMCalls
	s.cost += r.CostUSD
	s.mu.Unlock()
	return r
}

// LLMCalls is the number of provider calls made so far in this request.
func (s *RequestScope) LLMCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *RequestScope) CostUSD() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cost
}

func (s *RequestScope) Elapsed() time.Duration { return time.Since(s.start) }

// End closes the scope; later calls are no-ops.
func (s *RequestScope) End(success bool) time.Duration {
	latency := time.Since(s.start)
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return latency
	}
	s.ended = true
	s.mu.Unlock()
	s.tracker.endRequest(latency, success)
	return latency
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// failureReason reduces err to a reason code. Errors that carry their own code
// through a Reason method win over the generic LLM classification.
func failureReason(err error) string {
	var coded interface{ Reason() string }
	if errors.As(err, &coded) {
		return coded.Reason()
	}
	return ai.Reason(err)
}
