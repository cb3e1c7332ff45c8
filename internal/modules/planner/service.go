package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"tripgenie/internal/ai"
	"tripgenie/internal/modules/intent"
)

const Stage = "trip_planning"

// Guide supplies destination background for the planning prompt.
type Guide interface {
	Describe(ctx context.Context, destination string, interests []string) (string, error)
}

type Options struct {
	// Temperature is used for the planning call; itineraries benefit from a little variety.
	Temperature float32
}

// Planner generates a day-by-day itinerary with one LLM call.
type Planner struct {
	llm   ai.Completer
	guide Guide
	opts  Options
	log   *zap.Logger
}

// NewPlanner builds a planner. guide may be nil.
func NewPlanner(llm ai.Completer, guide Guide, opts Options, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{llm: llm, guide: guide, opts: opts, log: log}
}

// Plan returns exactly in.Days day plans, numbered 1..N, or a *PlanningError.
func (p *Planner) Plan(ctx context.Context, in intent.TravelIntent) (TripPlan, ai.Result, error) {
	destinationContext := p.describe(ctx, in)

	temperature := p.opts.Temperature
	var out TripPlan
	var rejected *PlanningError
	res, err := p.llm.Complete(ctx, ai.Call{
		Stage:       Stage,
		Schema:      planSchema,
		System:      systemPrompt,
		Prompt:      buildPrompt(in, destinationContext),
		Temperature: &temperature,
		Accept: func() error {
			if rejected = conform(&out, in); rejected != nil {
				return rejected
			}
			return nil
		},
	}, &out)
	if rejected != nil && errors.Is(err, rejected) {
		p.log.Warn("itinerary rejected", zap.String("reason", rejected.Reason), zap.Error(rejected.Err))
		return TripPlan{}, res, rejected
	}
	if err != nil {
		p.log.Warn("trip planning failed", zap.String("reason", ai.Reason(err)), zap.Error(err))
		return TripPlan{}, res, &PlanningError{Reason: ai.Reason(err), Err: err}
	}
	return out, res, nil
}

func (p *Planner) describe(ctx context.Context, in intent.TravelIntent) string {
	if p.guide == nil {
		return ""
	}
	text, err := p.guide.Describe(ctx, in.Destination, in.Interests)
	if err != nil {
		p.log.Warn("destination guide unavailable, planning without context",
			zap.String("destination", in.Destination), zap.Error(err))
		return ""
	}
	return text
}

// conform enforces the itinerary invariants and fills derived fields.
func conform(plan *TripPlan, in intent.TravelIntent) *PlanningError {
	if len(plan.Days) != in.Days {
		return &PlanningError{
			Reason: ReasonDayCountMismatch,
			Err:    fmt.Errorf("%w: requested %d days, got %d", ai.ErrInvalidField, in.Days, len(plan.Days)),
		}
	}

	sort.SliceStable(plan.Days, func(i, j int) bool { return plan.Days[i].Day < plan.Days[j].Day })
	for i, d := range plan.Days {
		if d.Day != i+1 {
			return &PlanningError{
				Reason: ReasonDaySequence,
				Err:    fmt.Errorf("%w: expected day %d at position %d, got %d", ai.ErrInvalidField, i+1, i+1, d.Day),
			}
		}
	}

	if plan.Destination == "" {
		plan.Destination = in.Destination
	}
	plan.DurationDays = in.Days
	if plan.TotalCostUSD <= 0 {
		var sum float64
		for _, d := range plan.Days {
			sum += d.Cost()
		}
		plan.TotalCostUSD = sum
	}
	return nil
}
