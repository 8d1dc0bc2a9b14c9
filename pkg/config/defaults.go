package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = 65536
	DefaultBuildMarker     = "quotegate"

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600

	// Engine defaults
	DefaultEngineBackend       = "memory"
	DefaultSheetsOutputRange   = "Utdata!A1:B50"
	DefaultSheetsTimeout       = 10 * time.Second
	DefaultEngineSQLitePath    = "data/engine.db"
	DefaultEngineSQLiteBusy    = 5 * time.Second
	DefaultMemoryEngineLatency = 300 * time.Millisecond

	// Bridge defaults
	DefaultPollInterval   = 150 * time.Millisecond
	DefaultDeadline       = 8 * time.Second
	DefaultQueueTimeout   = 20 * time.Second
	DefaultTokenFormat    = "uuid4"
	DefaultTokenKey       = "run_id"
	DefaultDecisionKey    = "decision"
	DefaultRiskClassKey   = "risk_class"
	DefaultActualMargin   = "actual_margin"
	DefaultTargetMargin   = "target_margin"
	DefaultRequiredRate   = "required_hourly_rate"
	DefaultDiffRate       = "diff_hourly_rate"
	DefaultActionKey      = "action_for_green"
	DefaultUnlockDecision = "approved"

	// Runs defaults
	DefaultRunsEnabled            = true
	DefaultRunsBackend            = "sqlite"
	DefaultRunsSQLitePath         = "data/runs.db"
	DefaultRunsSQLiteMaxOpenConns = 10
	DefaultRunsSQLiteMaxIdleConns = 5
	DefaultRunsSQLiteWALMode      = true
	DefaultRunsSQLiteBusyTimeout  = 5 * time.Second
	DefaultRecorderAsyncBuffer    = 1000
	DefaultRecorderWriteTimeout   = 5 * time.Second
	DefaultRetentionDays          = 30
	DefaultPruneSchedule          = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultLoggingRedactPII = true
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "quotegate"
	DefaultTracingSampler   = "ratio"
	DefaultTracingRatio     = 0.1
	DefaultTracingExporter  = "otlp"
	DefaultTracingInsecure  = true
	DefaultTracingService   = "quotegate"

	// Security defaults
	DefaultTLSMinVersion     = "1.3"
	DefaultTLSReloadInterval = 5 * time.Minute
	DefaultSecretsEnvPrefix  = "QUOTEGATE_SECRET_"
)

// Standard durations in hours per job category, used when a fixed-price
// request omits hours.
var defaultStandardHours = map[string]float64{
	"service":    40,
	"renovation": 160,
	"extension":  220,
	"new_build":  600,
	"other":      160,
}

// Region scaling of the standard duration.
var defaultRegionFactors = map[string]float64{
	"urban": 1.10,
	"mid":   1.00,
	"rural": 1.10,
}

// DefaultConfig returns a Config with every field set to its default value.
// Boolean defaults can only be expressed here, so file loading unmarshals
// into the result of DefaultConfig rather than into a zero Config.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.CORS.Enabled = DefaultCORSEnabled
	cfg.Runs.Enabled = DefaultRunsEnabled
	cfg.Runs.SQLite.WALMode = DefaultRunsSQLiteWALMode
	cfg.Telemetry.Logging.RedactPII = DefaultLoggingRedactPII
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Insecure = DefaultTracingInsecure
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.BuildMarker == "" {
		cfg.Server.BuildMarker = DefaultBuildMarker
	}

	// CORS defaults
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = []string{"POST", "OPTIONS"}
	}
	if len(cfg.Server.CORS.AllowedHeaders) == 0 {
		cfg.Server.CORS.AllowedHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if len(cfg.Server.CORS.ExposedHeaders) == 0 {
		cfg.Server.CORS.ExposedHeaders = []string{"X-Request-ID", "X-Build-Marker"}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Engine defaults
	if cfg.Engine.Backend == "" {
		cfg.Engine.Backend = DefaultEngineBackend
	}
	if cfg.Engine.Sheets.OutputRange == "" {
		cfg.Engine.Sheets.OutputRange = DefaultSheetsOutputRange
	}
	if cfg.Engine.Sheets.Timeout == 0 {
		cfg.Engine.Sheets.Timeout = DefaultSheetsTimeout
	}
	if cfg.Engine.SQLite.Path == "" {
		cfg.Engine.SQLite.Path = DefaultEngineSQLitePath
	}
	if cfg.Engine.SQLite.BusyTimeout == 0 {
		cfg.Engine.SQLite.BusyTimeout = DefaultEngineSQLiteBusy
	}
	if cfg.Engine.Memory.Latency == 0 {
		cfg.Engine.Memory.Latency = DefaultMemoryEngineLatency
	}

	// Bridge defaults
	if cfg.Bridge.PollInterval == 0 {
		cfg.Bridge.PollInterval = DefaultPollInterval
	}
	if cfg.Bridge.Deadline == 0 {
		cfg.Bridge.Deadline = DefaultDeadline
	}
	if cfg.Bridge.QueueTimeout == 0 {
		cfg.Bridge.QueueTimeout = DefaultQueueTimeout
	}
	if cfg.Bridge.Token.Format == "" {
		cfg.Bridge.Token.Format = DefaultTokenFormat
	}
	out := &cfg.Bridge.Output
	if out.TokenKey == "" {
		out.TokenKey = DefaultTokenKey
	}
	if out.DecisionKey == "" {
		out.DecisionKey = DefaultDecisionKey
	}
	if out.RiskClassKey == "" {
		out.RiskClassKey = DefaultRiskClassKey
	}
	if out.ActualMarginKey == "" {
		out.ActualMarginKey = DefaultActualMargin
	}
	if out.TargetMarginKey == "" {
		out.TargetMarginKey = DefaultTargetMargin
	}
	if out.RequiredRateKey == "" {
		out.RequiredRateKey = DefaultRequiredRate
	}
	if out.DiffRateKey == "" {
		out.DiffRateKey = DefaultDiffRate
	}
	if out.ActionKey == "" {
		out.ActionKey = DefaultActionKey
	}
	if out.UnlockDecision == "" {
		out.UnlockDecision = DefaultUnlockDecision
	}

	// Normalize defaults, merged per key so a file may override one entry
	if cfg.Normalize.StandardHours == nil {
		cfg.Normalize.StandardHours = make(map[string]float64, len(defaultStandardHours))
	}
	for k, v := range defaultStandardHours {
		if _, ok := cfg.Normalize.StandardHours[k]; !ok {
			cfg.Normalize.StandardHours[k] = v
		}
	}
	if cfg.Normalize.RegionFactors == nil {
		cfg.Normalize.RegionFactors = make(map[string]float64, len(defaultRegionFactors))
	}
	for k, v := range defaultRegionFactors {
		if _, ok := cfg.Normalize.RegionFactors[k]; !ok {
			cfg.Normalize.RegionFactors[k] = v
		}
	}

	// Runs defaults
	if cfg.Runs.Backend == "" {
		cfg.Runs.Backend = DefaultRunsBackend
	}
	if cfg.Runs.SQLite.Path == "" {
		cfg.Runs.SQLite.Path = DefaultRunsSQLitePath
	}
	if cfg.Runs.SQLite.MaxOpenConns == 0 {
		cfg.Runs.SQLite.MaxOpenConns = DefaultRunsSQLiteMaxOpenConns
	}
	if cfg.Runs.SQLite.MaxIdleConns == 0 {
		cfg.Runs.SQLite.MaxIdleConns = DefaultRunsSQLiteMaxIdleConns
	}
	if cfg.Runs.SQLite.BusyTimeout == 0 {
		cfg.Runs.SQLite.BusyTimeout = DefaultRunsSQLiteBusyTimeout
	}
	if cfg.Runs.Recorder.AsyncBuffer == 0 {
		cfg.Runs.Recorder.AsyncBuffer = DefaultRecorderAsyncBuffer
	}
	if cfg.Runs.Recorder.WriteTimeout == 0 {
		cfg.Runs.Recorder.WriteTimeout = DefaultRecorderWriteTimeout
	}
	if cfg.Runs.Retention.Days == 0 {
		cfg.Runs.Retention.Days = DefaultRetentionDays
	}
	if cfg.Runs.Retention.PruneSchedule == "" {
		cfg.Runs.Retention.PruneSchedule = DefaultPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16}
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingRatio
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}

	// Security defaults
	if cfg.Security.TLS.MinVersion == "" {
		cfg.Security.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Security.TLS.ReloadInterval == 0 {
		cfg.Security.TLS.ReloadInterval = DefaultTLSReloadInterval
	}
	if cfg.Security.Secrets.EnvPrefix == "" {
		cfg.Security.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
}
