package ai

import "time"

// Request is one completion request sent to a Provider.
type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Response is the provider's raw answer.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Usage counts tokens consumed by one or more LLM calls.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
	}
}

func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// Call describes one structured completion: the prompt pair plus the schema the
// answer must satisfy.
type Call struct {
	Stage  string
	Schema *Schema
	System string
	Prompt string
	// Model and Temperature override the client defaults when set.
	Model       string
	Temperature *float32
	// Accept runs after the answer is decoded into out. A non-nil error is returned
	// as-is and the answer is neither retried nor cached. A cached answer that fails
	// Accept is discarded and the provider is asked again.
	Accept func() error
}

// Result reports what a Complete call consumed.
type Result struct {
	Model   string
	Usage   Usage
	Calls   int
	Latency time.Duration
	Cached  bool
}
