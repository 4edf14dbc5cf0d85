package reporting

import (
	"time"

	"github.com/nocsched/focus-scheduler/pkg/flowtable"
)

// RunStatus is the terminal status of one scheduler invocation.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusStopped   RunStatus = "stopped"
)

// GenerationSummary records the best score observed after one generation
// of the evolutionary search.
type GenerationSummary struct {
	Generation int     `json:"generation"`
	BestScore  float64 `json:"best_score"`
}

// FlowResult is one row of the best individual's flow table as surfaced in
// a report: genome and derived fields together.
type FlowResult struct {
	ID           int     `json:"id"`
	Src          int     `json:"src"`
	Dst          int     `json:"dst"`
	Layer        string  `json:"layer"`
	Flit         int     `json:"flit"`
	Interval     int     `json:"interval"`
	Counts       int     `json:"counts"`
	Intermediate []int   `json:"intermediate"`
	IssueTime    int     `json:"issue_time"`
	Delay        float64 `json:"delay"`
	IsBound      bool    `json:"is_bound"`
}

// FlowResultsFrom converts a flow table into report rows.
func FlowResultsFrom(table flowtable.Table) []FlowResult {
	rows := make([]FlowResult, len(table))
	for i, f := range table {
		rows[i] = FlowResult{
			ID:           f.ID,
			Src:          f.Src,
			Dst:          f.Dst,
			Layer:        f.Layer,
			Flit:         f.Flit,
			Interval:     f.Interval,
			Counts:       f.Counts,
			Intermediate: append([]int(nil), f.Intermediate...),
			IssueTime:    f.IssueTime,
			Delay:        f.Delay,
			IsBound:      f.IsBound,
		}
	}
	return rows
}

// ScheduleReport is the complete record of one scheduler run: the best
// individual found, its flow table, and the generation-by-generation
// score history.
type ScheduleReport struct {
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  string    `json:"duration"`

	Status  RunStatus `json:"status"`
	Message string    `json:"message,omitempty"`

	Score                float64 `json:"score"`
	MeanExceededSlowdown float64 `json:"mean_exceeded_slowdown"`

	Generations int                 `json:"generations"`
	History     []GenerationSummary `json:"history,omitempty"`

	BestFlows []FlowResult `json:"best_flows"`

	Errors []string `json:"errors,omitempty"`
}

// MeanExceededSlowdown computes the mean of (issue_time / (interval *
// counts)) over every flow whose slowdown exceeds 1.0 (i.e. it experienced
// contention). Flows at the ideal 1.0 ratio are excluded from the mean so
// the scalar reflects only the bound subset, per the glossary's
// definition of slowdown.
func MeanExceededSlowdown(table flowtable.Table) float64 {
	var sum float64
	var n int
	for _, f := range table {
		if f.Interval == 0 || f.Counts == 0 {
			continue
		}
		slowdown := float64(f.IssueTime) / (float64(f.Interval) * float64(f.Counts))
		if slowdown > 1.0 {
			sum += slowdown
			n++
		}
	}
	if n == 0 {
		return 1.0
	}
	return sum / float64(n)
}

// LiveSearchState represents the in-progress state of a running search,
// used by the progress reporter's JSON/text lines.
type LiveSearchState struct {
	RunID            string        `json:"run_id"`
	Generation       int           `json:"generation"`
	TotalGenerations int           `json:"total_generations"`
	BestScore        float64       `json:"best_score"`
	Elapsed          time.Duration `json:"elapsed"`
}
