// Package orchestrator drives one scheduler invocation end to end: load the
// workload trace, run the evolutionary search, and persist the resulting
// report. It mirrors the run lifecycle of a state machine so progress,
// cancellation, and failure are all handled in one place.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/nocsched/focus-scheduler/pkg/config"
	"github.com/nocsched/focus-scheduler/pkg/emergency"
	"github.com/nocsched/focus-scheduler/pkg/evolution"
	"github.com/nocsched/focus-scheduler/pkg/flowtable"
	"github.com/nocsched/focus-scheduler/pkg/metrics"
	"github.com/nocsched/focus-scheduler/pkg/reporting"
)

// RunState represents the current state of a scheduler run.
type RunState int

const (
	StateLoad RunState = iota
	StateValidate
	StateEvolve
	StateReport
	StateCompleted
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateLoad:
		return "LOAD"
	case StateValidate:
		return "VALIDATE"
	case StateEvolve:
		return "EVOLVE"
	case StateReport:
		return "REPORT"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Orchestrator coordinates a scheduler run's lifecycle.
type Orchestrator struct {
	cfg              *config.Config
	currentState     RunState
	startTime        time.Time
	stopRequested    bool
	emergencyCtrl    *emergency.Controller
	emergencyStopCtx context.Context
	emergencyCancel  context.CancelFunc

	storage  *reporting.Storage
	progress *reporting.ProgressReporter
	logger   *reporting.Logger
	metrics  *metrics.Exporter

	runID   string
	base    flowtable.Table
	evoCtrl *evolution.Controller
}

// SetMetrics attaches a Prometheus exporter whose gauges are updated live
// as the evolutionary search progresses. Optional; a nil exporter (the
// zero value) disables gauge updates.
func (o *Orchestrator) SetMetrics(exporter *metrics.Exporter) {
	o.metrics = exporter
}

// New creates a new Orchestrator instance.
func New(cfg *config.Config, storage *reporting.Storage, progress *reporting.ProgressReporter, logger *reporting.Logger) *Orchestrator {
	emergencyCtrl := emergency.New(emergency.Config{
		StopFile:             cfg.Emergency.StopFile,
		PollInterval:         1 * time.Second,
		EnableSignalHandlers: true,
	})

	emergencyCtx, emergencyCancel := context.WithCancel(context.Background())

	return &Orchestrator{
		cfg:              cfg,
		currentState:     StateLoad,
		emergencyCtrl:    emergencyCtrl,
		emergencyStopCtx: emergencyCtx,
		emergencyCancel:  emergencyCancel,
		storage:          storage,
		progress:         progress,
		logger:           logger,
	}
}

// Execute runs the complete scheduler lifecycle: load, validate, evolve,
// report.
func (o *Orchestrator) Execute(ctx context.Context, tracePath string) (*reporting.ScheduleReport, error) {
	o.startTime = time.Now()
	o.runID = uuid.NewString()

	report := &reporting.ScheduleReport{
		RunID:     o.runID,
		StartTime: o.startTime,
		Status:    reporting.StatusRunning,
	}

	o.emergencyCtrl.Start(o.emergencyStopCtx)
	defer o.emergencyCancel()

	o.emergencyCtrl.OnStop(func() {
		o.logger.Warn("emergency stop triggered, flushing best-so-far schedule")
		o.stopRequested = true
		if o.evoCtrl != nil {
			o.flushBestSoFar(report)
		}
	})

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic during run", "error", fmt.Sprintf("%v", r))
			report.Status = reporting.StatusFailed
			report.Message = fmt.Sprintf("panic: %v", r)
			o.finalize(report)
		}
	}()

	o.transitionState(StateLoad)
	if err := o.executeLoad(tracePath); err != nil {
		return o.failRun(report, err)
	}

	if o.stopRequested {
		return o.failRun(report, fmt.Errorf("stopped before validate"))
	}

	o.transitionState(StateValidate)
	if err := o.executeValidate(); err != nil {
		return o.failRun(report, err)
	}

	if o.stopRequested {
		return o.failRun(report, fmt.Errorf("stopped before evolve"))
	}

	o.transitionState(StateEvolve)
	evolved, history, err := o.executeEvolve(ctx)
	if err != nil {
		return o.failRun(report, err)
	}
	report.History = history

	o.transitionState(StateReport)
	o.executeReport(report, evolved)

	o.transitionState(StateCompleted)
	report.Status = reporting.StatusCompleted
	report.Message = "run completed successfully"
	o.finalize(report)

	return report, nil
}

func (o *Orchestrator) transitionState(newState RunState) {
	o.logger.Info("state transition", "from", o.currentState.String(), "to", newState.String())
	o.currentState = newState
}

func (o *Orchestrator) executeLoad(tracePath string) error {
	o.logger.Info("loading workload trace", "path", tracePath)
	table, validation, err := flowtable.LoadFile(tracePath)
	if err != nil {
		return fmt.Errorf("failed to load workload trace: %w", err)
	}
	for _, w := range validation.Warnings {
		o.logger.Warn("flow table warning", "detail", w)
	}
	o.base = table
	o.logger.Info("loaded flow table", "flows", len(table))
	return nil
}

func (o *Orchestrator) executeValidate() error {
	if len(o.base) == 0 {
		return fmt.Errorf("workload trace contains no flows")
	}
	if err := o.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (o *Orchestrator) executeEvolve(ctx context.Context) (*reporting.ScheduleReport, []reporting.GenerationSummary, error) {
	evoCtrl, err := evolution.New(evolution.Config{
		PopulationSize: o.cfg.Evolution.PopulationSize,
		Generations:    o.cfg.Evolution.NEvolution,
		Workers:        o.cfg.Evolution.NWorkers,
		MasterSeed:     o.cfg.Evolution.MasterSeed,
		MeshDiameter:   o.cfg.Mesh.ArrayDiameter,
		Quantile:       o.cfg.Harmonizer.Quantile,
		Shrink:         o.cfg.Harmonizer.Shrink,
		Verbose:        o.cfg.Harmonizer.SchedulerVerbose,
		Metrics:        o.metrics,
		OnHarmonizerProgress: func(iteration int) {
			if o.progress != nil {
				o.progress.ReportHarmonizerProgress(iteration)
			}
		},
	}, o.base)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build evolution controller: %w", err)
	}
	o.evoCtrl = evoCtrl

	history := make([]reporting.GenerationSummary, 0, o.cfg.Evolution.NEvolution)
	genStart := time.Now()
	best, err := evoCtrl.Run(ctx, func(generation int, bestScore float64) {
		history = append(history, reporting.GenerationSummary{Generation: generation, BestScore: bestScore})
		if o.progress != nil {
			o.progress.ReportGeneration(reporting.LiveSearchState{
				RunID:            o.runID,
				Generation:       generation,
				TotalGenerations: o.cfg.Evolution.NEvolution,
				BestScore:        bestScore,
				Elapsed:          time.Since(genStart),
			})
		}
	})
	if err != nil {
		return nil, history, fmt.Errorf("evolutionary search failed: %w", err)
	}

	report := &reporting.ScheduleReport{
		BestFlows: reporting.FlowResultsFrom(best.Table),
	}
	return report, history, nil
}

func (o *Orchestrator) executeReport(report *reporting.ScheduleReport, evolved *reporting.ScheduleReport) {
	score, bestTable := o.evoCtrl.Tracker().Best()
	if len(bestTable) > 0 {
		report.BestFlows = reporting.FlowResultsFrom(bestTable)
	} else if evolved != nil {
		report.BestFlows = evolved.BestFlows
	}
	report.Score = score
	report.Generations = o.cfg.Evolution.NEvolution
	report.MeanExceededSlowdown = meanExceededSlowdownFromResults(report.BestFlows)
}

func meanExceededSlowdownFromResults(rows []reporting.FlowResult) float64 {
	table := make(flowtable.Table, len(rows))
	for i, r := range rows {
		table[i] = flowtable.Flow{
			IssueTime: r.IssueTime,
			Interval:  r.Interval,
			Counts:    r.Counts,
		}
	}
	return reporting.MeanExceededSlowdown(table)
}

func (o *Orchestrator) flushBestSoFar(report *reporting.ScheduleReport) {
	_, table := o.evoCtrl.Tracker().Best()
	report.BestFlows = reporting.FlowResultsFrom(table)
	report.Status = reporting.StatusStopped
	report.Message = "run stopped by emergency control"
	report.MeanExceededSlowdown = reporting.MeanExceededSlowdown(table)
	o.finalize(report)
}

func (o *Orchestrator) finalize(report *reporting.ScheduleReport) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime).String()

	if o.storage == nil {
		return
	}
	if _, err := o.storage.SaveReport(report); err != nil {
		o.logger.Error("failed to save report", "error", err)
		return
	}
	if o.cfg.Reporting.ResultFile != "" {
		if err := o.storage.AppendResult(o.cfg.Reporting.ResultFile, report.RunID, report.MeanExceededSlowdown); err != nil {
			o.logger.Error("failed to append result", "error", err)
		}
	}
}

// RequestStop requests the orchestrator to stop execution.
func (o *Orchestrator) RequestStop() {
	o.logger.Warn("stop requested")
	o.stopRequested = true
}

func (o *Orchestrator) failRun(report *reporting.ScheduleReport, err error) (*reporting.ScheduleReport, error) {
	report.Status = reporting.StatusFailed
	report.Message = err.Error()
	report.Errors = append(report.Errors, err.Error())
	o.transitionState(StateFailed)
	o.finalize(report)
	return report, err
}

// CreateStopFile writes the emergency stop file used to cancel a running
// search.
func CreateStopFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create stop file: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString(fmt.Sprintf("stop requested at %s\n", time.Now().Format(time.RFC3339)))
	return err
}
