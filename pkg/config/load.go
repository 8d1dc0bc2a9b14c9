package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "QUOTEGATE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded over DefaultConfig, so keys absent from the file keep
// their default values. The result is validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML bytes over DefaultConfig and applies defaults to any
// field the document zeroed. It does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention QUOTEGATE_SECTION_FIELD (e.g., QUOTEGATE_BRIDGE_DEADLINE).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from DefaultConfig.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Unparseable values are ignored and the file value is kept.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	envString("SERVER_BUILD_MARKER", &cfg.Server.BuildMarker)
	envBool("SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)

	// Engine overrides
	envString("ENGINE_BACKEND", &cfg.Engine.Backend)
	envString("ENGINE_SHEETS_SPREADSHEET_ID", &cfg.Engine.Sheets.SpreadsheetID)
	envString("ENGINE_SHEETS_CREDENTIALS_JSON", &cfg.Engine.Sheets.CredentialsJSON)
	envString("ENGINE_SHEETS_CREDENTIALS_FILE", &cfg.Engine.Sheets.CredentialsFile)
	envString("ENGINE_SHEETS_TOKEN_CELL", &cfg.Engine.Sheets.TokenCell)
	envString("ENGINE_SHEETS_OUTPUT_RANGE", &cfg.Engine.Sheets.OutputRange)
	envDuration("ENGINE_SHEETS_TIMEOUT", &cfg.Engine.Sheets.Timeout)
	envString("ENGINE_SQLITE_PATH", &cfg.Engine.SQLite.Path)
	envDuration("ENGINE_MEMORY_LATENCY", &cfg.Engine.Memory.Latency)

	// Bridge overrides
	envDuration("BRIDGE_POLL_INTERVAL", &cfg.Bridge.PollInterval)
	envDuration("BRIDGE_DEADLINE", &cfg.Bridge.Deadline)
	envDuration("BRIDGE_QUEUE_TIMEOUT", &cfg.Bridge.QueueTimeout)
	envString("BRIDGE_TOKEN_FORMAT", &cfg.Bridge.Token.Format)
	envString("BRIDGE_TOKEN_PREFIX", &cfg.Bridge.Token.Prefix)
	envString("BRIDGE_OUTPUT_TOKEN_KEY", &cfg.Bridge.Output.TokenKey)
	envString("BRIDGE_OUTPUT_DECISION_KEY", &cfg.Bridge.Output.DecisionKey)
	envString("BRIDGE_OUTPUT_FINAL_KEY", &cfg.Bridge.Output.FinalKey)
	envString("BRIDGE_OUTPUT_UNLOCK_DECISION", &cfg.Bridge.Output.UnlockDecision)

	// Runs overrides
	envBool("RUNS_ENABLED", &cfg.Runs.Enabled)
	envString("RUNS_BACKEND", &cfg.Runs.Backend)
	envString("RUNS_SQLITE_PATH", &cfg.Runs.SQLite.Path)
	envInt("RUNS_RETENTION_DAYS", &cfg.Runs.Retention.Days)
	envString("RUNS_RETENTION_PRUNE_SCHEDULE", &cfg.Runs.Retention.PruneSchedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_REDACT_PII", &cfg.Telemetry.Logging.RedactPII)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_EXPORTER", &cfg.Telemetry.Tracing.Exporter)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	// Security overrides
	envBool("SECURITY_TLS_ENABLED", &cfg.Security.TLS.Enabled)
	envString("SECURITY_TLS_CERT_FILE", &cfg.Security.TLS.CertFile)
	envString("SECURITY_TLS_KEY_FILE", &cfg.Security.TLS.KeyFile)
	envString("SECURITY_TLS_MIN_VERSION", &cfg.Security.TLS.MinVersion)
	envString("SECURITY_SECRETS_DIR", &cfg.Security.Secrets.Dir)
}
