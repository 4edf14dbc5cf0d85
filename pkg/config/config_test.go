package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig() should validate, got: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mesh.ArrayDiameter != DefaultConfig().Mesh.ArrayDiameter {
		t.Fatalf("expected default array diameter, got %d", cfg.Mesh.ArrayDiameter)
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "mesh:\n  array_diameter: 16\nworkload:\n  trace_path: \"${TRACE_DIR}/flows.csv\"\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("TRACE_DIR", "/data/traces")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mesh.ArrayDiameter != 16 {
		t.Fatalf("expected array_diameter 16, got %d", cfg.Mesh.ArrayDiameter)
	}
	if cfg.Workload.TracePath != "/data/traces/flows.csv" {
		t.Fatalf("expected expanded trace path, got %q", cfg.Workload.TracePath)
	}
	if cfg.Evolution.PopulationSize != DefaultConfig().Evolution.PopulationSize {
		t.Fatalf("expected unspecified fields to keep defaults")
	}
}

func TestValidateRejectsBadShrink(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Harmonizer.Shrink = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for shrink = 0")
	}
}
