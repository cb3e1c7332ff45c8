package ai

import "context"

// Provider is a single LLM backend. Implementations return the raw completion text;
// JSON extraction and schema validation happen in Client.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Completer is the structured-completion surface stage services depend on.
type Completer interface {
	Complete(ctx context.Context, call Call, out any) (Result, error)
}
