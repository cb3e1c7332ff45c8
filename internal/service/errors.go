package service

import (
	"errors"
	"fmt"

	"tripgenie/internal/ai"
	"tripgenie/internal/modules/evaluation"
	"tripgenie/internal/modules/flights"
	"tripgenie/internal/modules/intent"
	"tripgenie/internal/modules/planner"
)

// StagePipeline marks failures of the orchestrator itself rather than of a stage.
const StagePipeline = "pipeline"

// OrchestrationError is returned by Process when a stage fails. Cause keeps the typed
// stage error so errors.As reaches it.
type OrchestrationError struct {
	Stage string
	Cause error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Cause)
}

func (e *OrchestrationError) Unwrap() error { return e.Cause }

// Reason returns the machine-readable failure code of the stage error.
func (e *OrchestrationError) Reason() string {
	var (
		ee *intent.ExtractionError
		pe *planner.PlanningError
		fe *flights.APIError
		ve *evaluation.EvaluationError
	)
	switch {
	case errors.As(e.Cause, &ee):
		return ee.Reason
	case errors.As(e.Cause, &pe):
		return pe.Reason
	case errors.As(e.Cause, &fe):
		return fe.Reason
	case errors.As(e.Cause, &ve):
		return ve.Reason
	default:
		return ai.Reason(e.Cause)
	}
}

// Message describes the failure for end users. Provider detail stays in the logs.
func (e *OrchestrationError) Message() string {
	label := stageLabel(e.Stage)
	switch e.Reason() {
	case ai.ReasonTimeout:
		return fmt.Sprintf("%s timed out, please try again", label)
	case ai.ReasonCanceled:
		return fmt.Sprintf("%s was canceled", label)
	case ai.ReasonUnavailable:
		return fmt.Sprintf("the language model was unavailable during %s", label)
	case ai.ReasonMalformedJSON, ai.ReasonSchemaViolation:
		return fmt.Sprintf("%s returned a response that could not be understood", label)
	case ai.ReasonInvalidField:
		return fmt.Sprintf("%s produced invalid trip details", label)
	case intent.ReasonEmptyQuery:
		return "the trip request is empty"
	case intent.ReasonDateRange:
		return "the trip end date is before its start date"
	case planner.ReasonDayCountMismatch, planner.ReasonDaySequence:
		return "the itinerary did not match the requested number of days"
	case flights.ReasonUnknownAirport:
		return "no airport could be found for the trip origin or destination"
	case flights.ReasonAuth:
		return "flight search is not authorized"
	case evaluation.ReasonScoreOutOfRange:
		return "the plan evaluation produced scores outside 0-10"
	default:
		return fmt.Sprintf("%s failed", label)
	}
}

func stageLabel(stage string) string {
	switch stage {
	case intent.Stage:
		return "intent extraction"
	case planner.Stage:
		return "trip planning"
	case flights.Stage:
		return "flight search"
	case evaluation.Stage:
		return "evaluation"
	default:
		return stage
	}
}
