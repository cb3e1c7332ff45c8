package ai

import (
	"context"
	"errors"
)

var (
	ErrTimeout           = errors.New("llm: call timed out")
	ErrProvider          = errors.New("llm: provider unavailable")
	ErrMalformedResponse = errors.New("llm: response is not a valid json object")
	ErrSchemaViolation   = errors.New("llm: response violates schema")
	// ErrInvalidField marks typed constraint failures found after schema validation.
	ErrInvalidField = errors.New("invalid field")
)

// Reason codes attached to stage errors.
const (
	ReasonTimeout         = "timeout"
	ReasonCanceled        = "canceled"
	ReasonUnavailable     = "llm_unavailable"
	ReasonMalformedJSON   = "malformed_json"
	ReasonSchemaViolation = "schema_violation"
	ReasonInvalidField    = "invalid_field"
	ReasonUnknown         = "unknown"
)

// Reason maps an error from this package (or a context error) to a stable reason code.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, ErrMalformedResponse):
		return ReasonMalformedJSON
	case errors.Is(err, ErrSchemaViolation):
		return ReasonSchemaViolation
	case errors.Is(err, ErrInvalidField):
		return ReasonInvalidField
	case errors.Is(err, ErrProvider):
		return ReasonUnavailable
	default:
		return ReasonUnknown
	}
}

func retriable(err error) bool {
	return errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrSchemaViolation)
}
