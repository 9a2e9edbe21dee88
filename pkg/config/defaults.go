package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyGatewayDefaults(&cfg.Gateway)
	applyServerDefaults(&cfg.Server)
	applyAdminDefaults(&cfg.Admin)
	applyEventsDefaults(&cfg.Events)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)
	// No need to set, zero value is false

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	// Apply profiling defaults
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Enabled defaults to false (opt-in for profiling)
	// No need to set, zero value is false

	// Default endpoint is localhost:4040 (standard Pyroscope port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	// Default profile types include CPU, memory allocation, and goroutines
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyGatewayDefaults sets host link defaults and normalizes values.
func applyGatewayDefaults(cfg *GatewayConfig) {
	if cfg.SendHost == "" {
		cfg.SendHost = "127.0.0.1"
	}
	if cfg.SendPort == 0 {
		cfg.SendPort = 9021
	}
	if cfg.ReceiveHost == "" {
		cfg.ReceiveHost = "127.0.0.1"
	}
	if cfg.ReceivePort == 0 {
		cfg.ReceivePort = 9022
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.FailureStrategy == "" {
		cfg.FailureStrategy = "FAIL_WHEN_EITHER_DOWN"
	}
	// Normalize strategy spelling so the validator sees canonical form
	cfg.FailureStrategy = strings.ToUpper(strings.ReplaceAll(cfg.FailureStrategy, "-", "_"))

	if cfg.MaxInFlight == 0 {
		cfg.MaxInFlight = 512
	}
	if cfg.Provider == "" {
		cfg.Provider = "FISC"
	}
	// Provider names are upper-case throughout the registry
	cfg.Provider = strings.ToUpper(cfg.Provider)
}

// applyServerDefaults sets inbound listener defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8583
	}
	if cfg.Channel == "" {
		cfg.Channel = "iso8583"
	}
	if cfg.MaxRequestsPerSession == 0 {
		cfg.MaxRequestsPerSession = 32
	}
	if cfg.ResponseTimeout == 0 {
		cfg.ResponseTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.Provider == "" {
		cfg.Provider = "FISC"
	}
	cfg.Provider = strings.ToUpper(cfg.Provider)
	if cfg.Workflow.TTL == 0 {
		cfg.Workflow.TTL = 5 * time.Second
	}
}

// applyAdminDefaults sets admin API server defaults.
func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.AccessTokenDuration == 0 {
		cfg.AccessTokenDuration = 15 * time.Minute
	}
	if cfg.RefreshTokenDuration == 0 {
		cfg.RefreshTokenDuration = 7 * 24 * time.Hour
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	// Default role for users who omit it is "viewer"
	for i := range cfg.Users {
		if cfg.Users[i].Role == "" {
			cfg.Users[i].Role = "viewer"
		}
	}
}

// applyEventsDefaults sets event bus defaults.
func applyEventsDefaults(cfg *EventsConfig) {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 256
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "fep-events"
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 10 * time.Millisecond
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
