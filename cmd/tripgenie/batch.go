// README: Batch runner; plans each case and checks it against the expected destination and length.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"tripgenie/internal/modules/evaluation"
	"tripgenie/internal/service"
)

// processor is the slice of the orchestrator the CLI drives.
type processor interface {
	Process(ctx context.Context, query string, opts service.Options) (*service.TripRecommendation, error)
}

type caseResult struct {
	Case    batchCase
	Status  string
	Latency time.Duration
	Note    string
	Grade   string
}

type batchOutcome struct {
	Results []caseResult
	Report  evaluation.BatchReport
	// JudgeCostUSD is what the evaluation stage spent; Report.TotalCostUSD is generation cost.
	JudgeCostUSD float64
}

func (o batchOutcome) failed() int {
	n := 0
	for _, r := range o.Results {
		if r.Status == "FAIL" {
			n++
		}
	}
	return n
}

// runBatch processes cases one at a time without flight search and evaluates each plan.
func runBatch(ctx context.Context, p processor, cases []batchCase, w io.Writer) batchOutcome {
	var out batchOutcome
	var evals []evaluation.Result

	for i, tc := range cases {
		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(cases), tc.Query)
		start := time.Now()
		rec, err := p.Process(ctx, tc.Query, service.Options{Evaluate: true})
		res := caseResult{Case: tc, Latency: time.Since(start)}

		switch {
		case err != nil:
			res.Status = "FAIL"
			res.Note = describeError(err)
		default:
			res.Status, res.Note = check(tc, rec)
			if rec.Evaluation != nil {
				res.Grade = rec.Evaluation.Grade
				evals = append(evals, *rec.Evaluation)
			}
			for _, st := range rec.Stages {
				if st.Stage == evaluation.Stage {
					out.JudgeCostUSD += st.CostUSD
				}
			}
		}
		fmt.Fprintf(w, "  %s %s (%s) %s\n", res.Status, res.Grade, res.Latency.Round(time.Millisecond), res.Note)
		out.Results = append(out.Results, res)
	}

	out.Report = evaluation.Summarize(evals)
	return out
}

func check(tc batchCase, rec *service.TripRecommendation) (string, string) {
	dest := strings.ToLower(rec.Plan.Destination)
	matched := len(tc.Destinations) == 0
	for _, d := range tc.Destinations {
		if strings.Contains(dest, strings.ToLower(d)) {
			matched = true
			break
		}
	}
	if !matched {
		return "FAIL", fmt.Sprintf("destination %q, want one of %v", rec.Plan.Destination, tc.Destinations)
	}
	if tc.Days > 0 && rec.Plan.DurationDays != tc.Days {
		return "FAIL", fmt.Sprintf("%d days, want %d", rec.Plan.DurationDays, tc.Days)
	}
	return "PASS", fmt.Sprintf("%s, %d days, $%.2f", rec.Plan.Destination, rec.Plan.DurationDays, rec.TotalCostUSD)
}

func describeError(err error) string {
	var oe *service.OrchestrationError
	if errors.As(err, &oe) {
		return fmt.Sprintf("%s failed (%s): %s", oe.Stage, oe.Reason(), oe.Message())
	}
	return err.Error()
}

func printReport(w io.Writer, o batchOutcome) {
	fmt.Fprintln(w, "\n== Summary ==")
	fmt.Fprintf(w, "PASS=%d FAIL=%d\n", len(o.Results)-o.failed(), o.failed())

	r := o.Report
	fmt.Fprintf(w, "Evaluated: %d\n", r.TotalEvaluated)
	fmt.Fprintf(w, "Average score: %.2f/10\n", r.AverageScore)
	fmt.Fprintf(w, "Average latency: %.0fms\n", r.AverageLatencyMs)
	fmt.Fprintf(w, "Generation cost: $%.4f\n", r.TotalCostUSD)
	fmt.Fprintf(w, "Judge cost: $%.4f\n", o.JudgeCostUSD)
	for _, g := range r.Grades() {
		fmt.Fprintf(w, "  %s: %d\n", g, r.GradeDistribution[g])
	}
}
