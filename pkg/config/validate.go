package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "bridge.deadline").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateBridge(&cfg.Bridge)...)
	errs = append(errs, validateNormalize(&cfg.Normalize)...)
	errs = append(errs, validateRuns(&cfg.Runs)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.MaxHeaderBytes < 0 || cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be between 0 and 10MB",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}
	if cfg.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "server.cors.max_age",
			Message: "max age must be non-negative",
		})
	}

	return errs
}

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
		if cfg.Memory.Latency < 0 {
			errs = append(errs, FieldError{
				Field:   "engine.memory.latency",
				Message: "latency must be non-negative",
			})
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "engine.sqlite.path",
				Message: "path is required when backend is sqlite",
			})
		}
	case "sheets":
		s := cfg.Sheets
		if s.SpreadsheetID == "" {
			errs = append(errs, FieldError{
				Field:   "engine.sheets.spreadsheet_id",
				Message: "spreadsheet id is required when backend is sheets",
			})
		}
		if s.CredentialsJSON != "" && s.CredentialsFile != "" {
			errs = append(errs, FieldError{
				Field:   "engine.sheets.credentials_file",
				Message: "credentials_json and credentials_file are mutually exclusive",
			})
		}
		if s.TokenCell == "" {
			errs = append(errs, FieldError{
				Field:   "engine.sheets.token_cell",
				Message: "token cell is required when backend is sheets",
			})
		}
		if len(s.InputCells) == 0 {
			errs = append(errs, FieldError{
				Field:   "engine.sheets.input_cells",
				Message: "at least one input cell mapping is required",
			})
		}
		for field, cell := range s.InputCells {
			if cell == s.TokenCell {
				errs = append(errs, FieldError{
					Field:   "engine.sheets.input_cells." + field,
					Message: "input cell must differ from the token cell",
				})
			}
		}
		if s.OutputRange == "" {
			errs = append(errs, FieldError{
				Field:   "engine.sheets.output_range",
				Message: "output range is required",
			})
		}
		if s.Timeout <= 0 {
			errs = append(errs, FieldError{
				Field:   "engine.sheets.timeout",
				Message: "timeout must be positive",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "engine.backend",
			Message: fmt.Sprintf("invalid backend %q (must be 'sheets', 'sqlite', or 'memory')", cfg.Backend),
		})
	}

	return errs
}

func validateBridge(cfg *BridgeConfig) []FieldError {
	var errs []FieldError

	if cfg.PollInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "bridge.poll_interval",
			Message: "poll interval must be positive",
		})
	}
	if cfg.Deadline <= 0 {
		errs = append(errs, FieldError{
			Field:   "bridge.deadline",
			Message: "deadline must be positive",
		})
	}
	if cfg.PollInterval > 0 && cfg.Deadline > 0 && cfg.PollInterval >= cfg.Deadline {
		errs = append(errs, FieldError{
			Field:   "bridge.poll_interval",
			Message: "poll interval must be shorter than the deadline",
		})
	}
	if cfg.QueueTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "bridge.queue_timeout",
			Message: "queue timeout must be non-negative",
		})
	}

	switch cfg.Token.Format {
	case "uuid4", "uuid7":
	default:
		errs = append(errs, FieldError{
			Field:   "bridge.token.format",
			Message: fmt.Sprintf("invalid token format %q (must be 'uuid4' or 'uuid7')", cfg.Token.Format),
		})
	}

	if strings.TrimSpace(cfg.Output.TokenKey) == "" {
		errs = append(errs, FieldError{
			Field:   "bridge.output.token_key",
			Message: "token key is required",
		})
	}
	if strings.TrimSpace(cfg.Output.DecisionKey) == "" {
		errs = append(errs, FieldError{
			Field:   "bridge.output.decision_key",
			Message: "decision key is required",
		})
	}
	if cfg.Output.TokenKey != "" && cfg.Output.TokenKey == cfg.Output.DecisionKey {
		errs = append(errs, FieldError{
			Field:   "bridge.output.decision_key",
			Message: "decision key must differ from the token key",
		})
	}

	return errs
}

func validateNormalize(cfg *NormalizeConfig) []FieldError {
	var errs []FieldError

	for category, hours := range cfg.StandardHours {
		if hours <= 0 {
			errs = append(errs, FieldError{
				Field:   "normalize.standard_hours." + category,
				Message: "standard hours must be positive",
			})
		}
	}
	for region, factor := range cfg.RegionFactors {
		if factor <= 0 {
			errs = append(errs, FieldError{
				Field:   "normalize.region_factors." + region,
				Message: "region factor must be positive",
			})
		}
	}

	return errs
}

func validateRuns(cfg *RunsConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "runs.sqlite.path",
				Message: "path is required when backend is sqlite",
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "runs.sqlite.max_open_conns",
				Message: "max open connections must be at least 1",
			})
		}
		if cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns {
			errs = append(errs, FieldError{
				Field:   "runs.sqlite.max_idle_conns",
				Message: "max idle connections cannot exceed max open connections",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "runs.backend",
			Message: fmt.Sprintf("invalid backend %q (must be 'sqlite' or 'memory')", cfg.Backend),
		})
	}

	if cfg.Recorder.AsyncBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "runs.recorder.async_buffer",
			Message: "async buffer must be at least 1",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "runs.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "runs.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "runs.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn or error)", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be 'json' or 'text')", cfg.Logging.Format),
		})
	}
	for i, p := range cfg.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "pattern is required",
			})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (must be always, never or ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "sample ratio must be between 0 and 1",
			})
		}
		switch cfg.Tracing.Exporter {
		case "otlp":
			if cfg.Tracing.Endpoint == "" {
				errs = append(errs, FieldError{
					Field:   "telemetry.tracing.endpoint",
					Message: "endpoint is required for the otlp exporter",
				})
			}
		case "stdout":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.exporter",
				Message: fmt.Sprintf("invalid exporter %q (must be 'otlp' or 'stdout')", cfg.Tracing.Exporter),
			})
		}
	}

	return errs
}

func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   "security.tls.cert_file",
				Message: "certificate file is required when TLS is enabled",
			})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   "security.tls.key_file",
				Message: "key file is required when TLS is enabled",
			})
		}
	}

	switch cfg.TLS.MinVersion {
	case "", "1.2", "1.3":
	default:
		errs = append(errs, FieldError{
			Field:   "security.tls.min_version",
			Message: fmt.Sprintf("must be 1.2 or 1.3, got %q", cfg.TLS.MinVersion),
		})
	}
	if cfg.TLS.ReloadInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "security.tls.reload_interval",
			Message: "must not be negative",
		})
	}

	return errs
}
