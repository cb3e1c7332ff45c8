package service

import (
	"fmt"
	"sort"
	"strings"

	"tripgenie/internal/modules/flights"
)

const markdownFlightLimit = 3

// RenderMarkdown formats a recommendation as a readable document.
func RenderMarkdown(rec *TripRecommendation) string {
	var b strings.Builder
	in, plan := rec.Intent, rec.Plan

	fmt.Fprintf(&b, "# Trip to %s\n\n", plan.Destination)
	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "- **Duration:** %d days\n", plan.DurationDays)
	fmt.Fprintf(&b, "- **Dates:** %s to %s\n", orDefault(in.StartDate, "Flexible"), orDefault(in.EndDate, "Flexible"))
	fmt.Fprintf(&b, "- **Travelers:** %d\n", in.Travelers)
	if in.Budget != nil {
		fmt.Fprintf(&b, "- **Budget:** %s\n", in.Budget)
	} else {
		b.WriteString("- **Budget:** Flexible\n")
	}
	if len(in.Interests) > 0 {
		fmt.Fprintf(&b, "- **Interests:** %s\n", strings.Join(in.Interests, ", "))
	}
	fmt.Fprintf(&b, "- **Total Estimated Cost:** $%.2f\n", rec.TotalCostUSD)
	fmt.Fprintf(&b, "- **Confidence:** %.0f%%\n", rec.Confidence*100)
	if rec.Degraded != "" {
		fmt.Fprintf(&b, "\n> %s\n", rec.Degraded)
	}

	b.WriteString("\n## Daily Itinerary\n\n")
	for _, d := range plan.Days {
		if d.Date != "" {
			fmt.Fprintf(&b, "### Day %d - %s\n\n", d.Day, d.Date)
		} else {
			fmt.Fprintf(&b, "### Day %d\n\n", d.Day)
		}
		fmt.Fprintf(&b, "**Morning:** %s\n\n", d.Morning)
		fmt.Fprintf(&b, "**Afternoon:** %s\n\n", d.Afternoon)
		fmt.Fprintf(&b, "**Evening:** %s\n\n", d.Evening)
		if d.CostUSD != nil {
			fmt.Fprintf(&b, "**Estimated Cost:** $%.2f\n\n", *d.CostUSD)
		}
		if d.Notes != "" {
			fmt.Fprintf(&b, "**Notes:** %s\n\n", d.Notes)
		}
		b.WriteString("---\n\n")
	}

	writeList(&b, "Highlights", plan.Highlights)
	writeList(&b, "Practical Tips", plan.PracticalTips)

	if rec.Flights != nil && len(rec.Flights.Options) > 0 {
		b.WriteString("## Flight Options\n\n")
		fmt.Fprintf(&b, "%s → %s, departing %s\n\n", rec.Flights.Request.Origin, rec.Flights.Request.Destination, rec.Flights.Request.DepartDate)
		for i, f := range topFlights(rec.Flights.Options) {
			fmt.Fprintf(&b, "### Option %d - %s\n", i+1, f.Price)
			fmt.Fprintf(&b, "- **Airline:** %s %s\n", f.Carrier, f.FlightNumber)
			fmt.Fprintf(&b, "- **Departure:** %s\n", f.DepartureTime)
			fmt.Fprintf(&b, "- **Duration:** %.1f hours\n", f.Duration().Hours())
			fmt.Fprintf(&b, "- **Stops:** %d\n\n", f.Stops)
		}
	}

	if ev := rec.Evaluation; ev != nil {
		b.WriteString("## Evaluation\n\n")
		fmt.Fprintf(&b, "**Overall:** %.1f/10 (grade %s)\n\n", ev.Overall, ev.Grade)
		b.WriteString("| Criterion | Score |\n|---|---|\n")
		fmt.Fprintf(&b, "| Intent match | %.1f |\n", ev.IntentMatch)
		fmt.Fprintf(&b, "| Budget adherence | %.1f |\n", ev.BudgetAdherence)
		fmt.Fprintf(&b, "| Feasibility | %.1f |\n", ev.Feasibility)
		fmt.Fprintf(&b, "| Completeness | %.1f |\n", ev.Completeness)
		fmt.Fprintf(&b, "| Coherence | %.1f |\n\n", ev.Coherence)
		writeList(&b, "Issues", ev.Issues)
	}
	return b.String()
}

func topFlights(opts []flights.FlightOption) []flights.FlightOption {
	sorted := append([]flights.FlightOption(nil), opts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price.Amount < sorted[j].Price.Amount })
	if len(sorted) > markdownFlightLimit {
		sorted = sorted[:markdownFlightLimit]
	}
	return sorted
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
