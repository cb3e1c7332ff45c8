// README: Metric records and summaries produced by the Tracker.
package metrics

import (
	"time"

	"tripgenie/internal/ai"
)

// Pricing converts token usage to USD.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

func (p Pricing) Cost(u ai.Usage) float64 {
	return float64(u.InputTokens)/1_000_000*p.InputPerMTok +
		float64(u.OutputTokens)/1_000_000*p.OutputPerMTok
}

// Record is one pipeline stage execution.
type Record struct {
	RequestID    string    `json:"request_id"`
	Timestamp    time.Time `json:"timestamp"`
	Stage        string    `json:"stage"`
	Model        string    `json:"model,omitempty"`
	LLMCalls     int       `json:"llm_calls"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	LatencyMs    float64   `json:"latency_ms"`
	CostUSD      float64   `json:"cost_usd"`
	Cached       bool      `json:"cached"`
	Success      bool      `json:"success"`
	// Reason is the failure code of an unsuccessful stage. Error text is only logged.
	Reason string `json:"reason,omitempty"`
}

type StageSummary struct {
	Executions   int     `json:"executions"`
	Failures     int     `json:"failures"`
	LLMCalls     int     `json:"llm_calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// Summary is a point-in-time copy of the tracker's aggregates.
type Summary struct {
	TotalRequests  int                     `json:"total_requests"`
	ActiveRequests int                     `json:"active_requests"`
	FailedRequests int                     `json:"failed_requests"`
	SuccessRate    float64                 `json:"success_rate"`
	AvgLatencyMs   float64                 `json:"avg_latency_ms"`
	TotalCostUSD   float64                 `json:"total_cost_usd"`
	CostPerRequest float64                 `json:"cost_per_request"`
	LLMCalls       int                     `json:"llm_calls"`
	TotalTokens    int                     `json:"total_tokens"`
	Stages         map[string]StageSummary `json:"stages"`
}
