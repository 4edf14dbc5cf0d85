package reporting

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ReportFormat represents an on-disk report output format.
type ReportFormat string

const (
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
)

// Formatter renders ScheduleReports to disk in human-readable form. JSON
// rendering is handled by Storage; Formatter covers the text report and
// multi-run comparisons.
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a new report formatter.
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{logger: logger}
}

// GenerateReport writes a report in the given format to outputPath.
func (f *Formatter) GenerateReport(report *ScheduleReport, format ReportFormat, outputPath string) error {
	switch format {
	case ReportFormatText:
		return f.generateTextReport(report, outputPath)
	case ReportFormatJSON:
		return fmt.Errorf("JSON format is written by Storage.SaveReport")
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func (f *Formatter) generateTextReport(report *ScheduleReport, outputPath string) error {
	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   SCHEDULE REPORT\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	buf.WriteString("RUN SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Status:                  %s\n", strings.ToUpper(string(report.Status))))
	buf.WriteString(fmt.Sprintf("Run ID:                  %s\n", report.RunID))
	buf.WriteString(fmt.Sprintf("Start Time:              %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("End Time:                %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Duration:                %s\n", report.Duration))
	buf.WriteString(fmt.Sprintf("Generations:             %d\n", report.Generations))
	buf.WriteString(fmt.Sprintf("Score:                   %.4f\n", report.Score))
	buf.WriteString(fmt.Sprintf("Mean Exceeded Slowdown:  %.4f\n", report.MeanExceededSlowdown))
	if report.Message != "" {
		buf.WriteString(fmt.Sprintf("Message:                 %s\n", report.Message))
	}
	buf.WriteString("\n")

	if len(report.History) > 0 {
		buf.WriteString("SCORE HISTORY\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for _, h := range report.History {
			buf.WriteString(fmt.Sprintf("gen %-5d best score: %.4f\n", h.Generation, h.BestScore))
		}
		buf.WriteString("\n")
	}

	if len(report.BestFlows) > 0 {
		buf.WriteString("BEST SCHEDULE\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		buf.WriteString(fmt.Sprintf("%-6s %-6s %-6s %-8s %-10s %-8s %-10s %-8s\n",
			"ID", "Src", "Dst", "Layer", "Interval", "Counts", "IssueTime", "Delay"))
		for _, r := range report.BestFlows {
			buf.WriteString(fmt.Sprintf("%-6d %-6d %-6d %-8s %-10d %-8d %-10d %-8.2f\n",
				r.ID, r.Src, r.Dst, r.Layer, r.Interval, r.Counts, r.IssueTime, r.Delay))
		}
		buf.WriteString("\n")
	}

	if len(report.Errors) > 0 {
		buf.WriteString("ERRORS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, err := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, err))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(strings.Repeat("=", 80) + "\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("reporting: write text report: %w", err)
	}

	f.logger.Info("text report generated", "path", outputPath)
	return nil
}

// CompareReports writes a side-by-side comparison of multiple runs' scores
// and slowdown, sorted by start time, useful for judging successive
// evolutionary-search configurations against each other.
func (f *Formatter) CompareReports(reports []*ScheduleReport, outputPath string) error {
	if len(reports) < 2 {
		return fmt.Errorf("need at least 2 reports to compare")
	}

	sorted := append([]*ScheduleReport(nil), reports...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	var buf bytes.Buffer
	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   SCHEDULE COMPARISON\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	buf.WriteString(fmt.Sprintf("%-24s %-12s %-10s %-10s %-10s\n",
		"Run ID", "Status", "Score", "Slowdown", "Gens"))
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	for _, r := range sorted {
		buf.WriteString(fmt.Sprintf("%-24s %-12s %-10.4f %-10.4f %-10d\n",
			truncate(r.RunID, 24), r.Status, r.Score, r.MeanExceededSlowdown, r.Generations))
	}
	buf.WriteString("\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("reporting: write comparison report: %w", err)
	}

	f.logger.Info("comparison report generated", "path", outputPath)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
