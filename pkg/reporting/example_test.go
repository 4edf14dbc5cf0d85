package reporting_test

import (
	"fmt"
	"os"
	"time"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
	"github.com/nocsched/focus-scheduler/pkg/reporting"
)

// Example demonstrates the reporting package usage.
func Example() {
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelInfo,
		Format: reporting.LogFormatText,
		Output: os.Stdout,
	})

	logger.Info("evolutionary search starting")
	logger.Info("generation completed", "generation", 0, "best_score", -4.2)

	storage, err := reporting.NewStorage("./test-reports", 10, logger)
	if err != nil {
		fmt.Printf("Failed to create storage: %v\n", err)
		return
	}
	defer os.RemoveAll("./test-reports")

	table := flowtable.Table{
		{ID: 0, Src: 0, Dst: 5, Layer: "0", Flit: 2, Interval: 10, Counts: 3, IssueTime: 30},
	}

	report := &reporting.ScheduleReport{
		RunID:                "run-12345",
		StartTime:            time.Now().Add(-2 * time.Minute),
		EndTime:              time.Now(),
		Duration:             "2m0s",
		Status:               reporting.StatusCompleted,
		Score:                -4.2,
		MeanExceededSlowdown: 1.0,
		Generations:          50,
		History: []reporting.GenerationSummary{
			{Generation: 0, BestScore: -5.1},
			{Generation: 49, BestScore: -4.2},
		},
		BestFlows: reporting.FlowResultsFrom(table),
	}

	path, err := storage.SaveReport(report)
	if err != nil {
		fmt.Printf("Failed to save report: %v\n", err)
		return
	}

	fmt.Printf("Report saved successfully\n")

	summaries, err := storage.ListReports()
	if err != nil {
		fmt.Printf("Failed to list reports: %v\n", err)
		return
	}

	fmt.Printf("Found %d report(s)\n", len(summaries))
	for _, summary := range summaries {
		fmt.Printf("  %s: %s\n", summary.RunID, summary.Status)
	}

	loadedReport, err := storage.LoadReport(path)
	if err != nil {
		fmt.Printf("Failed to load report: %v\n", err)
		return
	}
	fmt.Printf("Loaded report for run: %s\n", loadedReport.RunID)

	formatter := reporting.NewFormatter(logger)
	textPath := "./test-reports/report.txt"
	if err := formatter.GenerateReport(report, reporting.ReportFormatText, textPath); err != nil {
		fmt.Printf("Failed to generate text report: %v\n", err)
		return
	}
	fmt.Printf("Text report generated\n")

	if err := storage.AppendResult("result.csv", report.RunID, report.MeanExceededSlowdown); err != nil {
		fmt.Printf("Failed to append result: %v\n", err)
		return
	}
	fmt.Printf("Result appended\n")

	// Output will vary due to timestamps, so we don't include it
}
