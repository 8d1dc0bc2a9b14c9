package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "unknown engine backend",
			mutate:    func(c *Config) { c.Engine.Backend = "excel" },
			wantField: "engine.backend",
		},
		{
			name: "sheets without spreadsheet id",
			mutate: func(c *Config) {
				c.Engine.Backend = "sheets"
				c.Engine.Sheets.TokenCell = "A1"
				c.Engine.Sheets.InputCells = map[string]string{"region": "B1"}
			},
			wantField: "engine.sheets.spreadsheet_id",
		},
		{
			name: "sheets input cell collides with token cell",
			mutate: func(c *Config) {
				c.Engine.Backend = "sheets"
				c.Engine.Sheets.SpreadsheetID = "s"
				c.Engine.Sheets.TokenCell = "A1"
				c.Engine.Sheets.InputCells = map[string]string{"region": "A1"}
			},
			wantField: "engine.sheets.input_cells.region",
		},
		{
			name: "sheets with both credential sources",
			mutate: func(c *Config) {
				c.Engine.Backend = "sheets"
				c.Engine.Sheets.SpreadsheetID = "s"
				c.Engine.Sheets.TokenCell = "A1"
				c.Engine.Sheets.InputCells = map[string]string{"region": "B1"}
				c.Engine.Sheets.CredentialsJSON = "{}"
				c.Engine.Sheets.CredentialsFile = "key.json"
			},
			wantField: "engine.sheets.credentials_file",
		},
		{
			name:      "poll interval not shorter than deadline",
			mutate:    func(c *Config) { c.Bridge.PollInterval = c.Bridge.Deadline },
			wantField: "bridge.poll_interval",
		},
		{
			name:      "negative deadline",
			mutate:    func(c *Config) { c.Bridge.Deadline = -time.Second },
			wantField: "bridge.deadline",
		},
		{
			name:      "unknown token format",
			mutate:    func(c *Config) { c.Bridge.Token.Format = "ulid" },
			wantField: "bridge.token.format",
		},
		{
			name:      "decision key equals token key",
			mutate:    func(c *Config) { c.Bridge.Output.DecisionKey = c.Bridge.Output.TokenKey },
			wantField: "bridge.output.decision_key",
		},
		{
			name:      "non-positive standard hours",
			mutate:    func(c *Config) { c.Normalize.StandardHours["service"] = 0 },
			wantField: "normalize.standard_hours.service",
		},
		{
			name:      "bad prune schedule",
			mutate:    func(c *Config) { c.Runs.Retention.PruneSchedule = "every day" },
			wantField: "runs.retention.prune_schedule",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name: "otlp tracing without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Exporter = "otlp"
			},
			wantField: "telemetry.tracing.endpoint",
		},
		{
			name:      "tls without cert",
			mutate:    func(c *Config) { c.Security.TLS.Enabled = true; c.Security.TLS.KeyFile = "k.pem" },
			wantField: "security.tls.cert_file",
		},
		{
			name:      "tls 1.1",
			mutate:    func(c *Config) { c.Security.TLS.MinVersion = "1.1" },
			wantField: "security.tls.min_version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_RunsDisabledSkipsChecks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runs.Enabled = false
	cfg.Runs.Backend = "postgres"
	if err := Validate(cfg); err != nil {
		t.Errorf("expected disabled runs section to be ignored, got %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if !strings.Contains(multi.Error(), "2 errors") {
		t.Errorf("expected error count in %q", multi.Error())
	}
}
