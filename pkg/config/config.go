package config

import "time"

// Config is the root configuration structure for quotegate.
// It contains all configuration sections for the HTTP server, the external
// quote engine, the synchronization bridge, request normalization, the run
// ledger, telemetry and security settings.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts and CORS.
	Server ServerConfig `yaml:"server"`

	// Engine selects and configures the external computation engine adapter.
	Engine EngineConfig `yaml:"engine"`

	// Bridge contains the polling, deadline and output-key configuration of
	// the write-then-converge cycle.
	Bridge BridgeConfig `yaml:"bridge"`

	// Normalize contains defaults used when canonicalizing requests.
	Normalize NormalizeConfig `yaml:"normalize"`

	// Runs contains configuration for the run ledger (submission audit trail).
	Runs RunsConfig `yaml:"runs"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains TLS settings for the HTTP server.
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed the bridge deadline plus the queue timeout,
	// otherwise callers are cut off while their submission is still polling.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of a preview request body.
	// Default: 65536
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// BuildMarker is echoed in the X-Build-Marker response header of the
	// preview endpoint so clients can tell which deployment answered.
	// Default: "quotegate"
	BuildMarker string `yaml:"build_marker"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS is enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins. ["*"] allows all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	// Default: ["POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers.
	// Default: ["Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers exposed to the client.
	// Default: ["X-Request-ID", "X-Build-Marker"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache duration in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// EngineConfig selects the external engine adapter.
type EngineConfig struct {
	// Backend selects the adapter.
	// Options: "sheets", "sqlite", "memory"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Sheets configures the Google Sheets adapter.
	Sheets SheetsConfig `yaml:"sheets"`

	// SQLite configures the SQLite shared-slot adapter.
	SQLite EngineSQLiteConfig `yaml:"sqlite"`

	// Memory configures the in-process engine used for local runs.
	Memory MemoryEngineConfig `yaml:"memory"`
}

// SheetsConfig configures the Google Sheets engine adapter.
type SheetsConfig struct {
	// SpreadsheetID is the id of the spreadsheet hosting the engine.
	SpreadsheetID string `yaml:"spreadsheet_id"`

	// CredentialsJSON is an inline service account key (JSON).
	// Usually supplied through QUOTEGATE_ENGINE_SHEETS_CREDENTIALS_JSON.
	CredentialsJSON string `yaml:"credentials_json"`

	// CredentialsFile is a path to a service account key file.
	CredentialsFile string `yaml:"credentials_file"`

	// InputCells maps canonical input field names to A1 cells,
	// e.g. job_type: "Indata!B2".
	InputCells map[string]string `yaml:"input_cells"`

	// TokenCell is the A1 cell receiving the correlation token.
	TokenCell string `yaml:"token_cell"`

	// OutputRange is the A1 range holding the key/value output table.
	// Default: "Utdata!A1:B50"
	OutputRange string `yaml:"output_range"`

	// Timeout bounds each Sheets API call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// EngineSQLiteConfig configures the SQLite shared-slot adapter.
type EngineSQLiteConfig struct {
	// Path is the database file shared with the external recompute process.
	// Default: "data/engine.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for the file lock.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// MemoryEngineConfig configures the in-process engine.
type MemoryEngineConfig struct {
	// Latency is the simulated recompute delay after the token write.
	// Default: 300ms
	Latency time.Duration `yaml:"latency"`
}

// BridgeConfig configures the write-then-converge cycle.
type BridgeConfig struct {
	// PollInterval is the fixed delay between output table reads.
	// Default: 150ms
	PollInterval time.Duration `yaml:"poll_interval"`

	// Deadline bounds the POLLING state.
	// Default: 8s
	Deadline time.Duration `yaml:"deadline"`

	// QueueTimeout bounds how long a submission waits for the serialization
	// gate. Zero waits as long as the caller's context allows.
	// Default: 20s
	QueueTimeout time.Duration `yaml:"queue_timeout"`

	// Token configures correlation token minting.
	Token TokenConfig `yaml:"token"`

	// Output names the keys of the engine output table.
	Output OutputKeysConfig `yaml:"output"`
}

// TokenConfig configures correlation token minting.
type TokenConfig struct {
	// Format is "uuid4" or "uuid7".
	// Default: "uuid4"
	Format string `yaml:"format"`

	// Prefix is prepended to every token.
	Prefix string `yaml:"prefix"`
}

// OutputKeysConfig names the keys of the engine output table.
type OutputKeysConfig struct {
	// TokenKey is the key under which the engine echoes the token.
	// Default: "run_id"
	TokenKey string `yaml:"token_key"`

	// DecisionKey is populated once computation for a token is complete.
	// Default: "decision"
	DecisionKey string `yaml:"decision_key"`

	// FinalKey optionally names a boolean completion flag. Empty disables it.
	FinalKey string `yaml:"final_key"`

	// RiskClassKey names the risk classification.
	// Default: "risk_class"
	RiskClassKey string `yaml:"risk_class_key"`

	// ActualMarginKey names the computed margin.
	// Default: "actual_margin"
	ActualMarginKey string `yaml:"actual_margin_key"`

	// TargetMarginKey names the target margin.
	// Default: "target_margin"
	TargetMarginKey string `yaml:"target_margin_key"`

	// RequiredRateKey names the hourly rate required to reach the target.
	// Default: "required_hourly_rate"
	RequiredRateKey string `yaml:"required_rate_key"`

	// DiffRateKey names the difference between required and offered rate.
	// Default: "diff_hourly_rate"
	DiffRateKey string `yaml:"diff_rate_key"`

	// ActionKey names the suggested action to reach a green classification.
	// Default: "action_for_green"
	ActionKey string `yaml:"action_key"`

	// UnlockDecision is the decision value that unlocks the quote. It is
	// compared case-sensitively after trimming whitespace.
	// Any other decision yields locked=true.
	// Default: "approved"
	UnlockDecision string `yaml:"unlock_decision"`

	// NumericFallbacks overrides the value used for a missing numeric output,
	// keyed by output key name. Missing entries fall back to 0.
	NumericFallbacks map[string]float64 `yaml:"numeric_fallbacks"`
}

// NormalizeConfig configures request canonicalization.
type NormalizeConfig struct {
	// StandardHours maps job category (service, renovation, extension,
	// new_build, other) to the standard duration used when a fixed-price
	// request omits hours.
	StandardHours map[string]float64 `yaml:"standard_hours"`

	// RegionFactors scales the standard duration per region (urban, mid, rural).
	RegionFactors map[string]float64 `yaml:"region_factors"`
}

// RunsConfig configures the run ledger.
type RunsConfig struct {
	// Enabled controls whether submissions are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite storage configuration.
	SQLite RunsSQLiteConfig `yaml:"sqlite"`

	// Recorder contains async recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains pruning configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// RunsSQLiteConfig contains SQLite-specific ledger configuration.
type RunsSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/runs.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait for a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains async recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the record channel.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds each storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains ledger pruning configuration.
type RetentionConfig struct {
	// Days is the number of days to keep runs. 0 keeps forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords caps the number of stored runs. 0 is unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a standard cron expression. Empty disables scheduling.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactPII masks emails, private keys and bearer tokens in log values.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains additional redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "quotegate"
	Namespace string `yaml:"namespace"`

	// DurationBuckets defines histogram buckets for submit duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1, 2, 4, 8, 16]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is "always", "never" or "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled with the ratio sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter is "otlp" or "stdout".
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// ServiceName is the service name in traces.
	// Default: "quotegate"
	ServiceName string `yaml:"service_name"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	// TLS configures HTTPS for the server.
	TLS TLSConfig `yaml:"tls"`

	// Secrets configures resolution of ${secret:name} references in the
	// engine section.
	Secrets SecretsConfig `yaml:"secrets"`
}

// TLSConfig contains TLS configuration.
type TLSConfig struct {
	// Enabled serves HTTPS instead of HTTP.
	Enabled bool `yaml:"enabled"`

	// CertFile is the PEM certificate path.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM private key path.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version ("1.2" or "1.3").
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the certificate files are checked for
	// renewal. Changed files are loaded without a restart.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// SecretsConfig configures where ${secret:name} references are looked up.
// The directory is tried before the environment.
type SecretsConfig struct {
	// EnvPrefix prefixes environment lookups: the secret "sheets-key" is
	// read from QUOTEGATE_SECRET_SHEETS_KEY.
	// Default: "QUOTEGATE_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Dir holds one file per secret, named after it, as mounted by
	// Kubernetes. Files must be mode 0600 or 0400. Empty disables it.
	Dir string `yaml:"dir"`
}
