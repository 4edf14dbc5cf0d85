package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// OutputFormat represents the progress output format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ProgressReporter reports evolutionary-search progress to stderr and the
// final run summary to stdout, per the scheduler's user-visible behavior
// contract.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{format: format, logger: logger}
}

// ReportGeneration reports the best score after one generation.
func (pr *ProgressReporter) ReportGeneration(state LiveSearchState) {
	switch pr.format {
	case FormatJSON:
		data, err := json.Marshal(state)
		if err != nil {
			pr.logger.Error("failed to marshal generation state", "error", err)
			return
		}
		fmt.Fprintln(os.Stderr, string(data))
	default:
		fmt.Fprintf(os.Stderr, "[gen %d/%d] best score: %.4f (elapsed %s)\n",
			state.Generation+1, state.TotalGenerations, state.BestScore, state.Elapsed.Round(time.Millisecond))
	}
}

// ReportHarmonizerProgress emits the scheduler_verbose every-500-iteration
// line for the harmonizer's main loop.
func (pr *ProgressReporter) ReportHarmonizerProgress(iteration int) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "harmonizer_progress",
			"iteration": iteration,
			"timestamp": time.Now(),
		})
		fmt.Fprintln(os.Stderr, string(data))
	default:
		fmt.Fprintf(os.Stderr, "  harmonizer iteration: %d\n", iteration)
	}
}

// ReportRunCompleted prints the final run summary: score, mean exceeded
// slowdown, to stdout.
func (pr *ProgressReporter) ReportRunCompleted(report *ScheduleReport) {
	switch pr.format {
	case FormatJSON:
		data, err := json.Marshal(report)
		if err != nil {
			pr.logger.Error("failed to marshal run summary", "error", err)
			return
		}
		fmt.Println(string(data))
	default:
		pr.printTextSummary(report)
	}
}

func (pr *ProgressReporter) printTextSummary(report *ScheduleReport) {
	status := strings.ToUpper(string(report.Status))

	fmt.Println()
	fmt.Printf("[RUN SUMMARY] %s\n", status)
	fmt.Printf("  Run ID: %s\n", report.RunID)
	fmt.Printf("  Duration: %s\n", report.Duration)
	fmt.Printf("  Generations: %d\n", report.Generations)
	fmt.Printf("  Score: %.4f\n", report.Score)
	fmt.Printf("  Mean exceeded slowdown: %.4f\n", report.MeanExceededSlowdown)
	fmt.Printf("  Flows: %d\n", len(report.BestFlows))
	if len(report.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(report.Errors))
	}
	fmt.Println()
}
