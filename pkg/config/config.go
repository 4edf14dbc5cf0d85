// Package config loads the scheduler's run configuration: mesh geometry,
// workload selection, evolutionary-search dimensions, harmonizer knobs,
// and reporting/ambient settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level scheduler configuration.
type Config struct {
	Framework  FrameworkConfig  `yaml:"framework"`
	Mesh       MeshConfig       `yaml:"mesh"`
	Workload   WorkloadConfig   `yaml:"workload"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Harmonizer HarmonizerConfig `yaml:"harmonizer"`
	Reporting  ReportingConfig  `yaml:"reporting"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Emergency  EmergencyConfig  `yaml:"emergency"`
}

// FrameworkConfig contains general ambient settings.
type FrameworkConfig struct {
	Version   string `yaml:"version"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// MeshConfig describes the NoC grid the schedule is built for.
type MeshConfig struct {
	// ArrayDiameter is n: the grid side length, so array size = n^2.
	ArrayDiameter int `yaml:"array_diameter"`
}

// WorkloadConfig selects which trace file to schedule.
type WorkloadConfig struct {
	// FlitSize selects which pre-generated trace file to load.
	FlitSize int    `yaml:"flit_size"`
	TracePath string `yaml:"trace_path"`
}

// EvolutionConfig sizes the evolutionary search.
type EvolutionConfig struct {
	NWorkers       int   `yaml:"n_workers"`
	PopulationSize int   `yaml:"population_size"`
	NEvolution     int   `yaml:"n_evolution"`
	MasterSeed     int64 `yaml:"master_seed"`
}

// HarmonizerConfig tunes the contention simulator and scoring.
type HarmonizerConfig struct {
	// Shrink in (0,1] compresses iteration counts to trade accuracy for
	// simulation time.
	Shrink float64 `yaml:"shrink"`
	// Quantile in [0,1] is the quantile used when scoring per-layer maxima.
	Quantile         float64 `yaml:"quantile_"`
	SchedulerVerbose bool    `yaml:"scheduler_verbose"`
}

// ReportingConfig controls on-disk report persistence.
type ReportingConfig struct {
	OutputDir  string `yaml:"output_dir"`
	KeepLastN  int    `yaml:"keep_last_n"`
	ResultFile string `yaml:"result_file"`
}

// MetricsConfig controls the optional Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// EmergencyConfig controls the stop-file/signal cancellation path for a
// long-running search.
type EmergencyConfig struct {
	StopFile string `yaml:"stop_file"`
}

// DefaultConfig returns the scheduler's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			Version:   "v1",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Mesh: MeshConfig{
			ArrayDiameter: 8,
		},
		Workload: WorkloadConfig{
			FlitSize:  512,
			TracePath: "./traces/default.csv",
		},
		Evolution: EvolutionConfig{
			NWorkers:       28,
			PopulationSize: 100,
			NEvolution:     50,
			MasterSeed:     1,
		},
		Harmonizer: HarmonizerConfig{
			Shrink:           1.0,
			Quantile:         0.9,
			SchedulerVerbose: false,
		},
		Reporting: ReportingConfig{
			OutputDir:  "./reports",
			KeepLastN:  50,
			ResultFile: "result.csv",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9108",
		},
		Emergency: EmergencyConfig{
			StopFile: "/tmp/focus-scheduler-emergency-stop",
		},
	}
}

// Load reads configuration from a YAML file, starting from DefaultConfig
// and overlaying the file's contents. Environment variables are expanded
// (os.ExpandEnv) before parsing. A missing file is not an error: the
// default configuration is returned as-is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is runnable.
func (c *Config) Validate() error {
	if c.Mesh.ArrayDiameter <= 0 {
		return fmt.Errorf("mesh.array_diameter must be positive")
	}
	if c.Workload.TracePath == "" {
		return fmt.Errorf("workload.trace_path is required")
	}
	if c.Evolution.NWorkers < 1 {
		return fmt.Errorf("evolution.n_workers must be at least 1")
	}
	if c.Evolution.PopulationSize < 1 {
		return fmt.Errorf("evolution.population_size must be at least 1")
	}
	if c.Evolution.NEvolution < 0 {
		return fmt.Errorf("evolution.n_evolution must be non-negative")
	}
	if c.Harmonizer.Shrink <= 0 || c.Harmonizer.Shrink > 1 {
		return fmt.Errorf("harmonizer.shrink must be in (0, 1]")
	}
	if c.Harmonizer.Quantile < 0 || c.Harmonizer.Quantile > 1 {
		return fmt.Errorf("harmonizer.quantile_ must be in [0, 1]")
	}
	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}
	return nil
}
