package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Storage handles persistence of scheduler run reports: a JSON summary and
// a CSV dump of the best individual's flow table, per run.
type Storage struct {
	outputDir string
	keepLastN int
	logger    *Logger
}

// NewStorage creates a new storage instance, creating outputDir if needed.
func NewStorage(outputDir string, keepLastN int, logger *Logger) (*Storage, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("reporting: create output directory: %w", err)
	}
	return &Storage{outputDir: outputDir, keepLastN: keepLastN, logger: logger}, nil
}

// SaveReport writes the run's JSON summary and CSV flow-table dump, named
// by run-<timestamp>-<runID>.{json,csv}. Returns the JSON report's path.
func (s *Storage) SaveReport(report *ScheduleReport) (string, error) {
	timestamp := report.StartTime.Format("20060102-150405")
	base := fmt.Sprintf("run-%s-%s", timestamp, report.RunID)

	jsonPath := filepath.Join(s.outputDir, base+".json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("reporting: marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", fmt.Errorf("reporting: write report file: %w", err)
	}

	csvPath := filepath.Join(s.outputDir, base+".csv")
	if err := writeFlowCSV(csvPath, report.BestFlows); err != nil {
		return "", fmt.Errorf("reporting: write schedule csv: %w", err)
	}

	s.logger.Info("run report saved", "json", jsonPath, "csv", csvPath)

	if s.keepLastN > 0 {
		if err := s.cleanupOldReports(); err != nil {
			s.logger.Warn("failed to cleanup old reports", "error", err)
		}
	}

	return jsonPath, nil
}

func writeFlowCSV(path string, rows []FlowResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"id", "src", "dst", "layer", "flit", "interval", "counts", "intermediate", "issue_time", "delay", "is_bound"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		intermediate := ""
		for i, v := range r.Intermediate {
			if i > 0 {
				intermediate += ";"
			}
			intermediate += strconv.Itoa(v)
		}
		record := []string{
			strconv.Itoa(r.ID),
			strconv.Itoa(r.Src),
			strconv.Itoa(r.Dst),
			r.Layer,
			strconv.Itoa(r.Flit),
			strconv.Itoa(r.Interval),
			strconv.Itoa(r.Counts),
			intermediate,
			strconv.Itoa(r.IssueTime),
			strconv.FormatFloat(r.Delay, 'f', -1, 64),
			strconv.FormatBool(r.IsBound),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

// LoadReport loads a run report from a JSON file.
func (s *Storage) LoadReport(path string) (*ScheduleReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reporting: read report file: %w", err)
	}
	var report ScheduleReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("reporting: unmarshal report: %w", err)
	}
	return &report, nil
}

// ListReports lists all JSON run reports in the output directory, newest
// first.
func (s *Storage) ListReports() ([]ReportSummary, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("reporting: read output directory: %w", err)
	}

	summaries := make([]ReportSummary, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.outputDir, entry.Name())
		report, err := s.LoadReport(path)
		if err != nil {
			s.logger.Warn("failed to load report", "path", path, "error", err)
			continue
		}
		summaries = append(summaries, ReportSummary{
			RunID:     report.RunID,
			StartTime: report.StartTime,
			Duration:  report.Duration,
			Status:    report.Status,
			Score:     report.Score,
			Filepath:  path,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTime.After(summaries[j].StartTime)
	})
	return summaries, nil
}

// FindReportByRunID finds a report by run ID.
func (s *Storage) FindReportByRunID(runID string) (*ScheduleReport, error) {
	summaries, err := s.ListReports()
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		if summary.RunID == runID {
			return s.LoadReport(summary.Filepath)
		}
	}
	return nil, fmt.Errorf("reporting: no report found for run ID %s", runID)
}

// cleanupOldReports removes old report files, keeping only the last N. The
// matching .csv sibling of each deleted .json report is removed too.
func (s *Storage) cleanupOldReports() error {
	summaries, err := s.ListReports()
	if err != nil {
		return err
	}
	if len(summaries) <= s.keepLastN {
		return nil
	}

	for _, summary := range summaries[s.keepLastN:] {
		if err := os.Remove(summary.Filepath); err != nil {
			s.logger.Warn("failed to delete old report", "path", summary.Filepath, "error", err)
			continue
		}
		csvPath := summary.Filepath[:len(summary.Filepath)-len(filepath.Ext(summary.Filepath))] + ".csv"
		if err := os.Remove(csvPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to delete old schedule csv", "path", csvPath, "error", err)
		}
	}
	return nil
}

// GetOutputDir returns the output directory path.
func (s *Storage) GetOutputDir() string {
	return s.outputDir
}

// AppendResult appends one "<runID>,<meanExceededSlowdown>" line to the
// result file, creating it with a header if it doesn't yet exist.
func (s *Storage) AppendResult(resultFile string, runID string, meanExceededSlowdown float64) error {
	path := filepath.Join(s.outputDir, resultFile)

	_, err := os.Stat(path)
	needsHeader := os.IsNotExist(err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("reporting: open result file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if needsHeader {
		if err := w.Write([]string{"run_id", "mean_exceeded_slowdown"}); err != nil {
			return err
		}
	}
	return w.Write([]string{runID, strconv.FormatFloat(meanExceededSlowdown, 'f', -1, 64)})
}

// ReportSummary is a lightweight index entry over a stored report.
type ReportSummary struct {
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	Duration  string    `json:"duration"`
	Status    RunStatus `json:"status"`
	Score     float64   `json:"score"`
	Filepath  string    `json:"filepath"`
}
