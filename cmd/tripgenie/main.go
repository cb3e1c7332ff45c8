// README: Command-line trip planner; runs a single query or a batch of evaluation cases against the pipeline.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripgenie/internal/app"
	"tripgenie/internal/config"
	"tripgenie/internal/logger"
	"tripgenie/internal/service"
)

type cliConfig struct {
	Query         string
	NoFlights     bool
	Evaluate      bool
	Format        string
	Origin        string
	Batch         bool
	Full          bool
	Out           string
	ExportMetrics string
	Timeout       time.Duration
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cli := loadCLIConfig()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	// Results own stdout; logs and status lines go to stderr.
	zl := logger.New(logger.Options{
		Level:  envOrDefault("TRIPGENIE_CLI_LOG_LEVEL", "warn"),
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Output: os.Stderr,
	})
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cli.Timeout)
	defer cancel()

	a, err := app.Build(ctx, cfg, zl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		return 1
	}
	defer func() { _ = a.Close(context.Background()) }()

	code := run(ctx, a, cli)

	if cli.ExportMetrics != "" {
		if err := a.Tracker.ExportFile(cli.ExportMetrics); err != nil {
			fmt.Fprintf(os.Stderr, "export metrics: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "metrics exported to %s\n", cli.ExportMetrics)
	}
	return code
}

func run(ctx context.Context, a *app.App, cli cliConfig) int {
	switch {
	case cli.Query != "":
		return runSingle(ctx, a.Orchestrator, cli)
	case cli.Batch:
		cases := quickCases
		if cli.Full {
			cases = fullCases
		}
		outcome := runBatch(ctx, a.Orchestrator, cases, os.Stdout)
		printReport(os.Stdout, outcome)
		if cli.Out != "" {
			if err := writeJSONFile(cli.Out, outcome.Report); err != nil {
				fmt.Fprintf(os.Stderr, "write results: %v\n", err)
				return 1
			}
			fmt.Fprintf(os.Stderr, "results exported to %s\n", cli.Out)
		}
		if outcome.failed() > 0 {
			return 1
		}
		return 0
	case cli.ExportMetrics != "":
		return 0
	default:
		flag.Usage()
		return 2
	}
}

func runSingle(ctx context.Context, p processor, cli cliConfig) int {
	rec, err := p.Process(ctx, cli.Query, service.Options{
		IncludeFlights: !cli.NoFlights,
		Evaluate:       cli.Evaluate,
		Origin:         cli.Origin,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		return 1
	}

	switch cli.Format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	case "markdown":
		fmt.Print(service.RenderMarkdown(rec))
	default:
		printSummary(rec)
	}
	return 0
}

func printSummary(rec *service.TripRecommendation) {
	fmt.Printf("Destination:     %s\n", rec.Plan.Destination)
	fmt.Printf("Duration:        %d days\n", rec.Plan.DurationDays)
	fmt.Printf("Total cost:      $%.2f\n", rec.TotalCostUSD)
	if rec.Flights != nil && rec.Flights.Cheapest != nil {
		fmt.Printf("Cheapest flight: %s %s\n", rec.Flights.Cheapest.Carrier, rec.Flights.Cheapest.Price)
	}
	if rec.Evaluation != nil {
		fmt.Printf("Quality grade:   %s (%.1f/10)\n", rec.Evaluation.Grade, rec.Evaluation.Overall)
	}
	fmt.Printf("Confidence:      %.3f\n", rec.Confidence)
	fmt.Printf("Generation time: %.0fms\n", rec.GenerationTimeMs)
	fmt.Printf("Generation cost: $%.4f (%d LLM calls)\n", rec.GenerationCost, rec.LLMCalls)
	if rec.Degraded != "" {
		fmt.Printf("Note:            %s\n", rec.Degraded)
	}
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func loadCLIConfig() cliConfig {
	var c cliConfig
	flag.StringVar(&c.Query, "query", "", "Single travel query to process")
	flag.BoolVar(&c.NoFlights, "no-flights", false, "Skip flight search")
	flag.BoolVar(&c.Evaluate, "evaluate", envOrDefaultBool("TRIPGENIE_CLI_EVALUATE", true), "Score the plan with the judge model")
	flag.StringVar(&c.Format, "format", envOrDefault("TRIPGENIE_CLI_FORMAT", "text"), "Output format: text, json or markdown")
	flag.StringVar(&c.Origin, "origin", "", "Departure city or IATA code")
	flag.BoolVar(&c.Batch, "batch", false, "Run the batch evaluation cases")
	flag.BoolVar(&c.Full, "full", false, "Use the full case set in batch mode")
	flag.StringVar(&c.Out, "out", "evaluation_results.json", "Batch results file; empty to skip")
	flag.StringVar(&c.ExportMetrics, "export-metrics", "", "Write tracker metrics as JSON to this file")
	flag.DurationVar(&c.Timeout, "timeout", envOrDefaultDuration("TRIPGENIE_CLI_TIMEOUT", 15*time.Minute), "Overall deadline")
	flag.Parse()
	return c
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
