package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Convert.OptimizeVertices {
		t.Error("expected optimize_vertices true by default")
	}
	if !cfg.Convert.OptimizeTextures {
		t.Error("expected optimize_textures true by default")
	}
	if !cfg.Convert.SimplifyBones {
		t.Error("expected simplify_bones true by default")
	}
	if !cfg.Convert.ConvertAnimations {
		t.Error("expected convert_animations true by default")
	}
	if cfg.Convert.TimeBudget != 0 {
		t.Errorf("expected unlimited time budget, got %v", cfg.Convert.TimeBudget)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mdlconv.yaml")
	content := `convert:
  optimize_textures: false
  sequence_priority: [walk, idle]
  time_budget: 30s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}

	if cfg.Convert.OptimizeTextures {
		t.Error("optimize_textures should be overridden to false")
	}
	// Keys absent from the file keep their defaults.
	if !cfg.Convert.OptimizeVertices {
		t.Error("optimize_vertices should keep its default true")
	}
	if len(cfg.Convert.SequencePriority) != 2 || cfg.Convert.SequencePriority[0] != "walk" {
		t.Errorf("sequence_priority = %v", cfg.Convert.SequencePriority)
	}
	if cfg.Convert.TimeBudget != 30*time.Second {
		t.Errorf("time_budget = %v, want 30s", cfg.Convert.TimeBudget)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %s, want debug", cfg.Logging.Level)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("convert: ["), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
