package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	os.Unsetenv("MARLIN_PORT")
	os.Unsetenv("MARLIN_EXECUTION_MODE")
	os.Unsetenv("MARLIN_WORKERS")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Engine.ExecutionMode != "auto" {
		t.Errorf("Expected default execution mode auto, got %s", cfg.Engine.ExecutionMode)
	}
	if cfg.Engine.Workers != 0 {
		t.Errorf("Expected default workers 0 (per-core), got %d", cfg.Engine.Workers)
	}
	if cfg.API.PricePrecision != 6 {
		t.Errorf("Expected default price precision 6, got %d", cfg.API.PricePrecision)
	}
}

func TestExecutionModeEnvOverride(t *testing.T) {
	os.Setenv("MARLIN_EXECUTION_MODE", "sequential")
	defer os.Unsetenv("MARLIN_EXECUTION_MODE")

	cfg := Load()

	if cfg.Engine.ExecutionMode != "sequential" {
		t.Errorf("Expected execution mode sequential from env, got %s", cfg.Engine.ExecutionMode)
	}
}

func TestWorkersEnvOverride(t *testing.T) {
	os.Setenv("MARLIN_WORKERS", "6")
	defer os.Unsetenv("MARLIN_WORKERS")

	cfg := Load()

	if cfg.Engine.Workers != 6 {
		t.Errorf("Expected 6 workers from env, got %d", cfg.Engine.Workers)
	}
}

func TestWorkersEnvIgnoresGarbage(t *testing.T) {
	os.Setenv("MARLIN_WORKERS", "lots")
	defer os.Unsetenv("MARLIN_WORKERS")

	cfg := Load()

	if cfg.Engine.Workers != 0 {
		t.Errorf("Expected default workers when env var is not a number, got %d", cfg.Engine.Workers)
	}
}

func TestYAMLThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "port: \"9100\"\nengine:\n  execution_mode: parallel\n  workers: 4\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}

	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(wd)

	os.Setenv("MARLIN_PORT", "9200")
	defer os.Unsetenv("MARLIN_PORT")

	cfg := Load()

	if cfg.Port != "9200" {
		t.Errorf("Expected env to win over yaml for port, got %s", cfg.Port)
	}
	if cfg.Engine.ExecutionMode != "parallel" {
		t.Errorf("Expected execution mode parallel from yaml, got %s", cfg.Engine.ExecutionMode)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("Expected 4 workers from yaml, got %d", cfg.Engine.Workers)
	}
}
