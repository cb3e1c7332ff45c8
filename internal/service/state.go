// README: Pipeline state machine for a single trip request.
package service

import "fmt"

type State string

const (
	StateStarted         State = "started"
	StateIntentExtracted State = "intent_extracted"
	StatePlanned         State = "planned"
	StateFlightsEnriched State = "flights_enriched"
	StateEvaluated       State = "evaluated"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)

// AllowedTransitions represents the pipeline flow as code. Flights and evaluation are
// optional, so planned may skip straight to evaluated or completed.
var AllowedTransitions = map[State][]State{
	StateStarted:         {StateIntentExtracted, StateFailed},
	StateIntentExtracted: {StatePlanned, StateFailed},
	StatePlanned:         {StateFlightsEnriched, StateEvaluated, StateCompleted, StateFailed},
	StateFlightsEnriched: {StateEvaluated, StateCompleted, StateFailed},
	StateEvaluated:       {StateCompleted, StateFailed},
}

func CanTransition(from, to State) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// run tracks the states one request has passed through.
type run struct {
	state   State
	history []State
}

func newRun() *run {
	return &run{state: StateStarted, history: []State{StateStarted}}
}

func (r *run) advance(to State) error {
	if !CanTransition(r.state, to) {
		return fmt.Errorf("illegal pipeline transition %s -> %s", r.state, to)
	}
	r.state = to
	r.history = append(r.history, to)
	return nil
}

// fail moves to failed unless the run already ended.
func (r *run) fail() {
	if !r.state.Terminal() {
		r.state = StateFailed
		r.history = append(r.history, StateFailed)
	}
}
