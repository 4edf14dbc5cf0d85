package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nocsched/focus-scheduler/pkg/config"
	"github.com/nocsched/focus-scheduler/pkg/reporting"
)

func writeTrace(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "trace.csv")
	body := "layer,src,dst,flit,interval,counts,map_src,map_dst\n" +
		"0,0,5,2,10,3,-1,-1\n" +
		"0,3,12,4,20,2,-1,-1\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func testDeps(t *testing.T, dir string) (*reporting.Storage, *reporting.ProgressReporter, *reporting.Logger) {
	t.Helper()
	logger := reporting.NewLogger(reporting.LoggerConfig{Level: reporting.LogLevelError, Output: os.Stderr})
	storage, err := reporting.NewStorage(dir, 0, logger)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	progress := reporting.NewProgressReporter(reporting.FormatJSON, logger)
	return storage, progress, logger
}

func TestExecuteCompletesAndSavesReport(t *testing.T) {
	dir := t.TempDir()
	tracePath := writeTrace(t, dir)
	storage, progress, logger := testDeps(t, dir)

	cfg := config.DefaultConfig()
	cfg.Mesh.ArrayDiameter = 4
	cfg.Evolution.PopulationSize = 4
	cfg.Evolution.NEvolution = 2
	cfg.Evolution.NWorkers = 2
	cfg.Reporting.ResultFile = "result.csv"
	cfg.Emergency.StopFile = filepath.Join(dir, "stop")

	o := New(cfg, storage, progress, logger)
	report, err := o.Execute(context.Background(), tracePath)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Status != reporting.StatusCompleted {
		t.Fatalf("expected completed status, got %s", report.Status)
	}
	if len(report.BestFlows) != 2 {
		t.Fatalf("expected 2 flows in best schedule, got %d", len(report.BestFlows))
	}
	if len(report.History) != cfg.Evolution.NEvolution {
		t.Fatalf("expected %d generation summaries, got %d", cfg.Evolution.NEvolution, len(report.History))
	}

	summaries, err := storage.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 saved report, got %d", len(summaries))
	}
}

func TestExecuteFailsOnMissingTrace(t *testing.T) {
	dir := t.TempDir()
	storage, progress, logger := testDeps(t, dir)

	cfg := config.DefaultConfig()
	cfg.Emergency.StopFile = filepath.Join(dir, "stop")

	o := New(cfg, storage, progress, logger)
	report, err := o.Execute(context.Background(), filepath.Join(dir, "missing.csv"))
	if err == nil {
		t.Fatal("expected error for missing trace file")
	}
	if report.Status != reporting.StatusFailed {
		t.Fatalf("expected failed status, got %s", report.Status)
	}
}
