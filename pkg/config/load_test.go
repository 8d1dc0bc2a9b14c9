package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quotegate.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  build_marker: "preview-2024-11"

engine:
  backend: "sheets"
  sheets:
    spreadsheet_id: "sheet-123"
    token_cell: "Indata!B20"
    input_cells:
      job_type: "Indata!B2"
      region: "Indata!B3"

bridge:
  poll_interval: "200ms"
  deadline: "5s"
  output:
    final_key: "done"

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.BuildMarker != "preview-2024-11" {
		t.Errorf("expected build marker %q, got %q", "preview-2024-11", cfg.Server.BuildMarker)
	}
	if cfg.Engine.Sheets.InputCells["region"] != "Indata!B3" {
		t.Errorf("expected region cell Indata!B3, got %q", cfg.Engine.Sheets.InputCells["region"])
	}
	if cfg.Bridge.PollInterval != 200*time.Millisecond {
		t.Errorf("expected poll interval 200ms, got %v", cfg.Bridge.PollInterval)
	}
	if cfg.Bridge.Deadline != 5*time.Second {
		t.Errorf("expected deadline 5s, got %v", cfg.Bridge.Deadline)
	}
	if cfg.Bridge.Output.FinalKey != "done" {
		t.Errorf("expected final key %q, got %q", "done", cfg.Bridge.Output.FinalKey)
	}

	// Untouched keys keep their defaults
	if cfg.Bridge.Output.TokenKey != DefaultTokenKey {
		t.Errorf("expected token key %q, got %q", DefaultTokenKey, cfg.Bridge.Output.TokenKey)
	}
	if cfg.Engine.Sheets.OutputRange != DefaultSheetsOutputRange {
		t.Errorf("expected output range %q, got %q", DefaultSheetsOutputRange, cfg.Engine.Sheets.OutputRange)
	}
}

// TestLoadConfig_BoolDefaultsSurvive tests that boolean defaults of true are
// kept when the file does not mention them.
func TestLoadConfig_BoolDefaultsSurvive(t *testing.T) {
	path := writeConfig(t, `
runs:
  backend: "memory"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Runs.Enabled {
		t.Error("expected runs to stay enabled")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to stay enabled")
	}
	if !cfg.Telemetry.Logging.RedactPII {
		t.Error("expected PII redaction to stay enabled")
	}
	if !cfg.Server.CORS.Enabled {
		t.Error("expected CORS to stay enabled")
	}
}

func TestLoadConfig_ExplicitFalse(t *testing.T) {
	path := writeConfig(t, `
runs:
  enabled: false
telemetry:
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Runs.Enabled {
		t.Error("expected runs to be disabled")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to be disabled")
	}
}

func TestLoadConfig_StandardHoursMerge(t *testing.T) {
	path := writeConfig(t, `
normalize:
  standard_hours:
    service: 24
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Normalize.StandardHours["service"] != 24 {
		t.Errorf("expected service hours 24, got %v", cfg.Normalize.StandardHours["service"])
	}
	if cfg.Normalize.StandardHours["new_build"] != 600 {
		t.Errorf("expected new_build hours 600, got %v", cfg.Normalize.StandardHours["new_build"])
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
engine:
  backend: "excel"
bridge:
  poll_interval: "10s"
  deadline: "2s"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) < 2 {
		t.Errorf("expected at least 2 field errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
bridge:
  deadline: "5s"
`)

	t.Setenv("QUOTEGATE_BRIDGE_DEADLINE", "12s")
	t.Setenv("QUOTEGATE_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("QUOTEGATE_RUNS_ENABLED", "false")
	t.Setenv("QUOTEGATE_BRIDGE_POLL_INTERVAL", "not-a-duration")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Bridge.Deadline != 12*time.Second {
		t.Errorf("expected deadline 12s from env, got %v", cfg.Bridge.Deadline)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("expected listen address from env, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Runs.Enabled {
		t.Error("expected runs disabled from env")
	}
	if cfg.Bridge.PollInterval != DefaultPollInterval {
		t.Errorf("expected unparseable env value to be ignored, got %v", cfg.Bridge.PollInterval)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("QUOTEGATE_ENGINE_BACKEND", "memory")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	if cfg.Bridge.Deadline != DefaultDeadline {
		t.Errorf("expected default deadline, got %v", cfg.Bridge.Deadline)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bridge.Deadline = 3 * time.Second
	ApplyDefaults(cfg)
	ApplyDefaults(cfg)
	if cfg.Bridge.Deadline != 3*time.Second {
		t.Errorf("expected explicit deadline to be kept, got %v", cfg.Bridge.Deadline)
	}
	if cfg.Normalize.RegionFactors["urban"] != 1.10 {
		t.Errorf("expected urban factor 1.10, got %v", cfg.Normalize.RegionFactors["urban"])
	}
}
