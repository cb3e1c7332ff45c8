// README: Orchestrator; runs intent extraction, planning, flights and evaluation in order.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"tripgenie/internal/ai"
	"tripgenie/internal/modules/evaluation"
	"tripgenie/internal/modules/flights"
	"tripgenie/internal/modules/intent"
	"tripgenie/internal/modules/metrics"
	"tripgenie/internal/modules/planner"
)

const tracerName = "tripgenie/service"

type IntentExtractor interface {
	Extract(ctx context.Context, query string, qc intent.QueryContext) (intent.TravelIntent, ai.Result, error)
}

type TripPlanner interface {
	Plan(ctx context.Context, in intent.TravelIntent) (planner.TripPlan, ai.Result, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, s evaluation.Subject) (evaluation.Result, ai.Result, error)
}

type Deps struct {
	Intent    IntentExtractor
	Planner   TripPlanner
	Flights   flights.Searcher
	Evaluator Evaluator
	Tracker   *metrics.Tracker
	Log       *zap.Logger
}

type Config struct {
	FlightTimeout     time.Duration
	BestEffortFlights bool
	DefaultOrigin     string
}

type Orchestrator struct {
	intent    IntentExtractor
	planner   TripPlanner
	flights   flights.Searcher
	evaluator Evaluator
	tracker   *metrics.Tracker
	log       *zap.Logger
	tracer    trace.Tracer
	cfg       Config
	now       func() time.Time
}

func New(deps Deps, cfg Config) *Orchestrator {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	tracker := deps.Tracker
	if tracker == nil {
		tracker = metrics.NewTracker(metrics.Pricing{}, nil, log)
	}
	return &Orchestrator{
		intent:    deps.Intent,
		planner:   deps.Planner,
		flights:   deps.Flights,
		evaluator: deps.Evaluator,
		tracker:   tracker,
		log:       log,
		tracer:    otel.Tracer(tracerName),
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock overrides the clock used for default flight dates.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

func (o *Orchestrator) Tracker() *metrics.Tracker { return o.tracker }

// Process runs the pipeline for one query. On failure the error is an *OrchestrationError
// naming the failed stage and no partial recommendation is returned.
func (o *Orchestrator) Process(ctx context.Context, query string, opts Options) (*TripRecommendation, error) {
	id := opts.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	log := o.log.With(zap.String("request_id", id))

	ctx, span := o.tracer.Start(ctx, "trip.process", trace.WithAttributes(
		attribute.String("request.id", id),
		attribute.Bool("request.include_flights", opts.IncludeFlights),
		attribute.Bool("request.evaluate", opts.Evaluate),
	))
	defer span.End()

	scope := o.tracker.StartRequest(id)
	r := newRun()
	rec, err := o.process(ctx, r, scope, query, opts, log)
	elapsed := scope.End(err == nil)

	if err != nil {
		r.fail()
		span.RecordError(err)
		var oe *OrchestrationError
		if errors.As(err, &oe) {
			span.SetStatus(codes.Error, oe.Reason())
			log.Warn("trip request failed",
				zap.String("stage", oe.Stage), zap.String("reason", oe.Reason()),
				zap.Strings("states", statesToStrings(r.history)), zap.Error(oe.Cause))
		}
		return nil, err
	}

	rec.ID = id
	rec.State = r.state
	rec.History = r.history
	rec.GenerationTimeMs = float64(elapsed.Microseconds()) / 1000
	rec.GenerationCost = round(scope.CostUSD(), 6)
	rec.LLMCalls = scope.LLMCalls()
	log.Info("trip request completed",
		zap.String("destination", rec.Plan.Destination),
		zap.Int("llm_calls", rec.LLMCalls),
		zap.Duration("elapsed", elapsed),
		zap.Float64("total_cost_usd", rec.TotalCostUSD))
	return rec, nil
}

func (o *Orchestrator) process(ctx context.Context, r *run, scope *metrics.RequestScope, query string, opts Options, log *zap.Logger) (*TripRecommendation, error) {
	rec := &TripRecommendation{Query: query, CreatedAt: o.now().UTC()}

	err := o.stage(ctx, scope, rec, intent.Stage, func(ctx context.Context) (ai.Result, error) {
		var (
			res ai.Result
			err error
		)
		rec.Intent, res, err = o.intent.Extract(ctx, query, intent.QueryContext{UserLocation: opts.UserLocation})
		return res, err
	})
	if err != nil {
		return nil, err
	}
	if err := o.advance(r, StateIntentExtracted); err != nil {
		return nil, err
	}

	err = o.stage(ctx, scope, rec, planner.Stage, func(ctx context.Context) (ai.Result, error) {
		var (
			res ai.Result
			err error
		)
		rec.Plan, res, err = o.planner.Plan(ctx, rec.Intent)
		return res, err
	})
	if err != nil {
		return nil, err
	}
	if err := o.advance(r, StatePlanned); err != nil {
		return nil, err
	}

	if opts.IncludeFlights {
		if err := o.searchFlights(ctx, scope, rec, opts); err != nil {
			var oe *OrchestrationError
			if !o.cfg.BestEffortFlights || !errors.As(err, &oe) {
				return nil, err
			}
			rec.Degraded = "flights omitted: " + oe.Message()
			log.Warn("continuing without flights", zap.String("reason", oe.Reason()), zap.Error(oe.Cause))
		} else if err := o.advance(r, StateFlightsEnriched); err != nil {
			return nil, err
		}
	}

	rec.TotalCostUSD = totalCost(rec)
	rec.Confidence = confidence(rec, opts.IncludeFlights)

	if opts.Evaluate {
		if o.evaluator == nil {
			return nil, &OrchestrationError{Stage: evaluation.Stage, Cause: errors.New("no evaluator configured")}
		}
		subject := evaluation.Subject{
			Intent:         rec.Intent,
			Plan:           rec.Plan,
			TotalCostUSD:   rec.TotalCostUSD,
			GenerationTime: scope.Elapsed(),
			GenerationCost: scope.CostUSD(),
		}
		err := o.stage(ctx, scope, rec, evaluation.Stage, func(ctx context.Context) (ai.Result, error) {
			result, res, err := o.evaluator.Evaluate(ctx, subject)
			if err == nil {
				rec.Evaluation = &result
			}
			return res, err
		})
		if err != nil {
			return nil, err
		}
		if err := o.advance(r, StateEvaluated); err != nil {
			return nil, err
		}
	}

	if err := o.advance(r, StateCompleted); err != nil {
		return nil, err
	}
	return rec, nil
}

// stage runs fn inside a span, records it on the request scope and wraps failures.
func (o *Orchestrator) stage(ctx context.Context, scope *metrics.RequestScope, rec *TripRecommendation, name string, fn func(context.Context) (ai.Result, error)) error {
	ctx, span := o.tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	res, err := fn(ctx)
	var stageErr error
	var oe *OrchestrationError
	if err != nil {
		oe = &OrchestrationError{Stage: name, Cause: err}
		stageErr = oe
	}
	record := scope.Record(ctx, name, res, time.Since(start), stageErr)
	rec.Stages = append(rec.Stages, record)

	span.SetAttributes(
		attribute.Int("llm.calls", res.Calls),
		attribute.Int("llm.tokens", res.Usage.Total()),
		attribute.Bool("llm.cached", res.Cached),
	)
	if oe != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, oe.Reason())
		return oe
	}
	return nil
}

func (o *Orchestrator) advance(r *run, to State) error {
	if err := r.advance(to); err != nil {
		return &OrchestrationError{Stage: StagePipeline, Cause: err}
	}
	return nil
}

func (o *Orchestrator) searchFlights(ctx context.Context, scope *metrics.RequestScope, rec *TripRecommendation, opts Options) error {
	if o.flights == nil {
		return &OrchestrationError{Stage: flights.Stage, Cause: errors.New("no flight searcher configured")}
	}
	return o.stage(ctx, scope, rec, flights.Stage, func(ctx context.Context) (ai.Result, error) {
		req, err := o.flightRequest(rec.Intent, opts)
		if err != nil {
			return ai.Result{}, err
		}
		if o.cfg.FlightTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, o.cfg.FlightTimeout)
			defer cancel()
		}
		options, err := o.flights.Search(ctx, req)
		if err != nil {
			return ai.Result{}, asFlightError(ctx, err)
		}
		summary := &FlightSummary{Provider: o.flights.Name(), Request: req, Options: options}
		if best, ok := flights.Cheapest(options); ok {
			summary.Cheapest = &best
		}
		rec.Flights = summary
		return ai.Result{}, nil
	})
}

// flightRequest derives the search from the intent. Origin falls back from the request
// option to the intent, the user's location and finally the configured default.
func (o *Orchestrator) flightRequest(in intent.TravelIntent, opts Options) (flights.SearchRequest, error) {
	originName := firstNonEmpty(opts.Origin, in.Origin, opts.UserLocation, o.cfg.DefaultOrigin)
	origin, err := flights.ResolveAirport(originName)
	if err != nil {
		return flights.SearchRequest{}, &flights.APIError{Reason: flights.ReasonUnknownAirport, Err: err}
	}
	dest, err := flights.ResolveAirport(in.Destination)
	if err != nil {
		return flights.SearchRequest{}, &flights.APIError{Reason: flights.ReasonUnknownAirport, Err: err}
	}

	depart := o.now().AddDate(0, 0, 30)
	if in.StartDate != "" {
		if t, err := time.Parse(dateLayout, in.StartDate); err == nil {
			depart = t
		}
	}
	ret := depart.AddDate(0, 0, max(in.Days-1, 0))
	if in.EndDate != "" {
		if t, err := time.Parse(dateLayout, in.EndDate); err == nil {
			ret = t
		}
	}

	return flights.SearchRequest{
		Origin:      origin,
		Destination: dest,
		DepartDate:  depart.Format(dateLayout),
		ReturnDate:  ret.Format(dateLayout),
		Adults:      in.Travelers,
		CabinClass:  in.FlightClass,
		NonStop:     in.DirectFlightsOnly,
	}, nil
}

const dateLayout = "2006-01-02"

func asFlightError(ctx context.Context, err error) error {
	var apiErr *flights.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &flights.APIError{Reason: flights.ReasonTimeout, Err: fmt.Errorf("%w: %v", flights.ErrTimeout, err)}
	}
	return &flights.APIError{Reason: flights.ReasonTransport, Err: err}
}

// totalCost is the itinerary estimate plus the cheapest option's round trip for the party.
func totalCost(rec *TripRecommendation) float64 {
	total := rec.Plan.TotalCostUSD
	if rec.Flights != nil && rec.Flights.Cheapest != nil {
		total += rec.Flights.Cheapest.PartyCost(rec.Intent.Travelers)
	}
	return round(total, 2)
}

// confidence averages intent confidence, plan completeness and, when flights were
// requested, flight availability.
func confidence(rec *TripRecommendation, flightsRequested bool) float64 {
	scores := []float64{rec.Intent.Confidence}

	plan := 1.0
	switch {
	case len(rec.Plan.Days) == 0:
		plan = 0
	case len(rec.Plan.Days) < max(rec.Intent.Days, 1):
		plan = 0.7
	}
	scores = append(scores, plan)

	if flightsRequested {
		avail := 0.5
		if rec.Flights != nil && len(rec.Flights.Options) > 0 {
			avail = 1
		}
		scores = append(scores, avail)
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	return round(sum/float64(len(scores)), 3)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func statesToStrings(states []State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
