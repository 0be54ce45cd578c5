package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "records:\n  path: data/records.json\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Records.Path != "data/records.json" {
		t.Fatalf("records path = %q", cfg.Records.Path)
	}
	if cfg.Monitor.Port != 8090 {
		t.Fatalf("default port = %d, want 8090", cfg.Monitor.Port)
	}
	if cfg.Log.Level != "info" || cfg.Log.MaxSizeMB != 50 {
		t.Fatalf("log defaults wrong: %+v", cfg.Log)
	}
	if cfg.Analysis.AnomalyThreshold != 2.5 || cfg.Analysis.CacheSize != 128 {
		t.Fatalf("analysis defaults wrong: %+v", cfg.Analysis)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
monitor:
  port: 9100
analysis:
  anomaly_threshold: 3.0
  cluster_count: 4
  seed: 42
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Monitor.Port != 9100 {
		t.Fatalf("port = %d, want 9100", cfg.Monitor.Port)
	}
	if cfg.Analysis.AnomalyThreshold != 3.0 || cfg.Analysis.ClusterCount != 4 || cfg.Analysis.Seed != 42 {
		t.Fatalf("analysis overrides wrong: %+v", cfg.Analysis)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "monitor:\n  port: 99999\n")
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	path = writeConfig(t, "analysis:\n  anomaly_threshold: -1\n")
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
