package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nocsched/focus-scheduler/pkg/core/orchestrator"
	"github.com/nocsched/focus-scheduler/pkg/metrics"
	"github.com/nocsched/focus-scheduler/pkg/reporting"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run an evolutionary search over a workload trace",
	Long:  `Loads a flow-table trace and runs the evolutionary search to find a low-contention schedule.`,
	RunE:  runSearch,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Args:  cobra.NoArgs,
	Short: "Request a running search to stop and flush its best-so-far schedule",
	RunE:  runStop,
}

func init() {
	runCmd.Flags().String("trace", "", "path to the flow-table trace CSV (overrides config)")
	runCmd.Flags().Int64("seed", 0, "master seed (0 uses the config value)")
	runCmd.Flags().String("format", "text", "progress output format (text, json)")
	runCmd.Flags().Bool("dry-run", false, "validate the trace and configuration without running the search")
	runCmd.Flags().String("metrics-addr", "", "address to expose Prometheus metrics on (overrides config)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	tracePath, _ := cmd.Flags().GetString("trace")
	seed, _ := cmd.Flags().GetInt64("seed")
	outputFormat, _ := cmd.Flags().GetString("format")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if tracePath != "" {
		cfg.Workload.TracePath = tracePath
	}
	if seed != 0 {
		cfg.Evolution.MasterSeed = seed
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
		cfg.Metrics.Enabled = true
	}

	logLevel := reporting.LogLevel(cfg.Framework.LogLevel)
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logFormat := reporting.LogFormat(cfg.Framework.LogFormat)

	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: logFormat,
		Output: os.Stdout,
	})

	logger.Info("focus-scheduler starting", "version", version)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if dryRun {
		fmt.Println("configuration and trace path are valid (dry-run mode)")
		return nil
	}

	storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	progressReporter := reporting.NewProgressReporter(reporting.OutputFormat(outputFormat), logger)

	ctx := context.Background()
	orch := orchestrator.New(cfg, storage, progressReporter, logger)

	if cfg.Metrics.Enabled {
		exporter := metrics.NewExporter()
		orch.SetMetrics(exporter)
		go func() {
			if err := exporter.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	logger.Info("starting evolutionary search", "trace", cfg.Workload.TracePath)
	report, err := orch.Execute(ctx, cfg.Workload.TracePath)
	if report != nil {
		progressReporter.ReportRunCompleted(report)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	logger.Info("search completed successfully", "run_id", report.RunID, "score", report.Score)
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := orchestrator.CreateStopFile(cfg.Emergency.StopFile); err != nil {
		return fmt.Errorf("failed to request stop: %w", err)
	}
	fmt.Printf("stop requested via %s\n", cfg.Emergency.StopFile)
	return nil
}
