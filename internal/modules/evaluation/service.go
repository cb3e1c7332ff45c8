package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"tripgenie/internal/ai"
)

const Stage = "evaluation"

// Evaluator scores recommendations with heuristic checks plus an LLM judge.
type Evaluator struct {
	llm        ai.Completer
	judgeModel string
	log        *zap.Logger
	now        func() time.Time
}

// NewEvaluator builds an evaluator. judgeModel may be empty to use the client default.
func NewEvaluator(llm ai.Completer, judgeModel string, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{llm: llm, judgeModel: judgeModel, log: log, now: time.Now}
}

// Evaluate returns scores within [0, 10]. A judge answer outside that range is
// rejected with *EvaluationError rather than clamped.
func (e *Evaluator) Evaluate(ctx context.Context, s Subject) (Result, ai.Result, error) {
	r := Result{
		EvaluatedAt: e.now().UTC(),
		LatencyMs:   float64(s.GenerationTime.Microseconds()) / 1000,
		CostUSD:     s.GenerationCost,
		Rationale:   map[string]string{},
	}
	applyHeuristics(s, &r)

	var res ai.Result
	if !r.Critical {
		var j judgement
		var rejected *EvaluationError
		var err error
		res, err = e.llm.Complete(ctx, ai.Call{
			Stage:  Stage,
			Schema: judgeSchema,
			System: judgeSystemPrompt,
			Prompt: buildJudgePrompt(s),
			Model:  e.judgeModel,
			Accept: func() error {
				rejected = nil
				if rerr := checkRange(j); rerr != nil {
					rejected = &EvaluationError{Reason: ReasonScoreOutOfRange, Err: rerr}
					return rejected
				}
				return nil
			},
		}, &j)
		if rejected != nil && errors.Is(err, rejected) {
			e.log.Warn("judge returned out-of-range score",
				zap.Float64("intent_match", j.IntentMatch),
				zap.Float64("feasibility", j.Feasibility),
				zap.Error(rejected.Err))
			return Result{}, res, rejected
		}
		if err != nil {
			e.log.Warn("judge call failed", zap.String("reason", ai.Reason(err)), zap.Error(err))
			return Result{}, res, &EvaluationError{Reason: ai.Reason(err), Err: err}
		}
		r.IntentMatch = j.IntentMatch
		r.Feasibility = j.Feasibility
		r.JudgeModel = res.Model
		setRationale(r.Rationale, "intent_match", j.IntentMatchReasoning)
		setRationale(r.Rationale, "feasibility", j.FeasibilityReasoning)
		setRationale(r.Rationale, "overall", j.OverallRationale)
	}

	r.Overall = OverallScore(r)
	r.Grade = Grade(r.Overall)
	e.log.Debug("evaluation complete", zap.Float64("overall", r.Overall), zap.String("grade", r.Grade))
	return r, res, nil
}

func checkRange(j judgement) error {
	for name, v := range map[string]float64{"intent_match_score": j.IntentMatch, "feasibility_score": j.Feasibility} {
		if v < MinScore || v > MaxScore {
			return fmt.Errorf("%w: %s=%v outside [%v, %v]", ai.ErrInvalidField, name, v, MinScore, MaxScore)
		}
	}
	return nil
}

func setRationale(m map[string]string, key, text string) {
	if text != "" {
		m[key] = text
	}
}

// BatchReport aggregates many evaluation results.
type BatchReport struct {
	TotalEvaluated    int            `json:"total_evaluated"`
	AverageScore      float64        `json:"average_score"`
	AverageLatencyMs  float64        `json:"average_latency_ms"`
	TotalCostUSD      float64        `json:"total_cost_usd"`
	GradeDistribution map[string]int `json:"grade_distribution"`
	Results           []Result       `json:"all_metrics"`
}

// Summarize aggregates already computed results.
func Summarize(results []Result) BatchReport {
	report := BatchReport{
		TotalEvaluated:    len(results),
		GradeDistribution: map[string]int{},
		Results:           results,
	}
	if len(results) == 0 {
		return report
	}
	var score, latency, cost float64
	for _, r := range results {
		score += r.Overall
		latency += r.LatencyMs
		cost += r.CostUSD
		report.GradeDistribution[r.Grade]++
	}
	n := float64(len(results))
	report.AverageScore = round(score/n, 2)
	report.AverageLatencyMs = round(latency/n, 2)
	report.TotalCostUSD = round(cost, 4)
	return report
}

// Grades returns the grade letters present in the distribution, best first.
func (b BatchReport) Grades() []string {
	out := make([]string, 0, len(b.GradeDistribution))
	for g := range b.GradeDistribution {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
