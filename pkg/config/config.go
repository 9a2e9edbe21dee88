package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the GoFEP configuration.
//
// This structure captures the static configuration of the front-end
// processor:
//   - Logging configuration
//   - Telemetry/tracing configuration
//   - Gateway settings (the dual-channel link to the interbank host)
//   - Server settings (the inbound ISO 8583 listener)
//   - Admin API settings (REST control surface and operator users)
//   - Event bus settings (buffer sizing, optional Kafka mirror)
//   - Field table sources (per-provider definition files)
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (GOFEP_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Gateway configures the outbound dual-channel link to the interbank
	// host (separate Send and Receive TCP connections)
	Gateway GatewayConfig `mapstructure:"gateway" yaml:"gateway"`

	// Server configures the inbound ISO 8583 listener for acquiring
	// channels (ATM, POS, mobile)
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Admin contains admin API server configuration
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`

	// Metrics contains Prometheus metrics configuration.
	// The scrape endpoint is served by the admin API under /metrics.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Events contains event bus configuration
	Events EventsConfig `mapstructure:"events" yaml:"events"`

	// Fields maps field-table providers to their definition files
	Fields FieldsConfig `mapstructure:"fields" yaml:"fields"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// 1.0 = sample all traces, 0.5 = sample 50%, 0.0 = no sampling
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
// When enabled, CPU and memory profiles are continuously sent to a Pyroscope
// server for flame graph visualization and performance analysis.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false (opt-in for profiling)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040" (standard Pyroscope port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// GatewayConfig configures the dual-channel link to the interbank host.
//
// The gateway dials two TCP connections: requests are written on the Send
// connection and responses arrive on the Receive connection, correlated by
// the trace number (field 11). Duration keys accept Go duration strings
// ("5s", "1m") and bare integers interpreted as milliseconds.
type GatewayConfig struct {
	// Enabled controls whether the gateway link is established on start.
	// Default: true. Disable for server-only deployments.
	Enabled *bool `mapstructure:"enabled" yaml:"enabled,omitempty"`

	// SendHost is the host the Send connection dials
	SendHost string `mapstructure:"send_host" yaml:"send_host"`

	// SendPort is the port the Send connection dials
	SendPort int `mapstructure:"send_port" validate:"omitempty,min=1,max=65535" yaml:"send_port"`

	// ReceiveHost is the host the Receive connection dials
	ReceiveHost string `mapstructure:"receive_host" yaml:"receive_host"`

	// ReceivePort is the port the Receive connection dials
	ReceivePort int `mapstructure:"receive_port" validate:"omitempty,min=1,max=65535" yaml:"receive_port"`

	// ConnectTimeout bounds each dial attempt
	// Default: 10s
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"omitempty,gt=0" yaml:"connect_timeout"`

	// ReadTimeout is the Receive-leg staleness window; silence past it is
	// logged and surfaced in statistics
	// Default: 60s
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"omitempty,gt=0" yaml:"read_timeout"`

	// HeartbeatInterval is the echo cadence on a quiet line; zero disables
	// heartbeats
	// Default: 30s
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"omitempty,gte=0" yaml:"heartbeat_interval"`

	// AutoReconnect enables the redial loop after a connection drops
	// Default: true
	AutoReconnect *bool `mapstructure:"auto_reconnect" yaml:"auto_reconnect,omitempty"`

	// ReconnectMaxAttempts caps dial attempts per outage; zero means unlimited
	ReconnectMaxAttempts int `mapstructure:"reconnect_max_attempts" validate:"omitempty,gte=0" yaml:"reconnect_max_attempts"`

	// FailureStrategy picks the pair behavior while one connection is down
	// Valid values: FAIL_WHEN_EITHER_DOWN, FAIL_WHEN_BOTH_DOWN, REQUIRE_BOTH_FOR_SEND
	// (case-insensitive, hyphens accepted, normalized to uppercase)
	// Default: FAIL_WHEN_EITHER_DOWN
	FailureStrategy string `mapstructure:"failure_strategy" validate:"omitempty,oneof=FAIL_WHEN_EITHER_DOWN FAIL_WHEN_BOTH_DOWN REQUIRE_BOTH_FOR_SEND" yaml:"failure_strategy"`

	// InstitutionID, when set, rides in field 32 of network management
	// messages (sign-on, sign-off, echo)
	InstitutionID string `mapstructure:"institution_id" validate:"omitempty,numeric,max=11" yaml:"institution_id,omitempty"`

	// MaxInFlight bounds the pending-response window; sends beyond it
	// fail fast
	// Default: 512
	MaxInFlight int `mapstructure:"max_in_flight" validate:"omitempty,gt=0" yaml:"max_in_flight"`

	// Provider selects the field-definition table used to encode and
	// decode host traffic. Normalized to upper case.
	// Default: "FISC"
	Provider string `mapstructure:"provider" yaml:"provider"`
}

// IsEnabled returns whether the gateway should be started.
// Defaults to true when not explicitly set.
func (c *GatewayConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// IsAutoReconnect returns whether the redial loop is active.
// Defaults to true when not explicitly set.
func (c *GatewayConfig) IsAutoReconnect() bool {
	if c.AutoReconnect == nil {
		return true
	}
	return *c.AutoReconnect
}

// ServerConfig configures the inbound ISO 8583 listener.
type ServerConfig struct {
	// Enabled controls whether the inbound listener is started.
	// Default: true. Disable for gateway-only deployments.
	Enabled *bool `mapstructure:"enabled" yaml:"enabled,omitempty"`

	// BindAddress is the interface to bind; empty means all interfaces
	BindAddress string `mapstructure:"bind_address" yaml:"bind_address,omitempty"`

	// Port is the TCP port to listen on
	// Default: 8583
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// Channel labels this listener in requests, logs and journal entries
	// Default: "iso8583"
	Channel string `mapstructure:"channel" yaml:"channel,omitempty"`

	// MaxConnections bounds concurrent sessions; zero means unlimited
	MaxConnections int `mapstructure:"max_connections" validate:"omitempty,gte=0" yaml:"max_connections"`

	// MaxRequestsPerSession bounds requests processed concurrently on one
	// session
	// Default: 32
	MaxRequestsPerSession int `mapstructure:"max_requests_per_session" validate:"omitempty,gt=0" yaml:"max_requests_per_session"`

	// ResponseTimeout is how long a request may stay unanswered before the
	// session sends the system-malfunction default reply
	// Default: 30s
	ResponseTimeout time.Duration `mapstructure:"response_timeout" validate:"omitempty,gt=0" yaml:"response_timeout"`

	// IdleTimeout closes sessions with no inbound traffic; zero keeps them
	// open indefinitely
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"omitempty,gte=0" yaml:"idle_timeout"`

	// WriteTimeout bounds each reply write
	// Default: 30s
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"omitempty,gt=0" yaml:"write_timeout"`

	// Provider selects the field-definition table used to decode inbound
	// traffic. Normalized to upper case.
	// Default: "FISC"
	Provider string `mapstructure:"provider" yaml:"provider,omitempty"`

	// Workflow contains the event-routed handler configuration
	Workflow WorkflowConfig `mapstructure:"workflow" yaml:"workflow"`
}

// IsEnabled returns whether the inbound listener should be started.
// Defaults to true when not explicitly set.
func (c *ServerConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// WorkflowConfig configures the event-routed inbound handler.
//
// When enabled, financial requests (0200/0400) are published on the event
// bus and the reply is parked until a matching transaction-result event
// arrives or the TTL expires.
type WorkflowConfig struct {
	// Enabled routes financial traffic through the event bus instead of
	// the direct handler
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// TTL is how long a parked reply waits for a result event before the
	// sender receives the response-too-late code
	// Default: 5s
	TTL time.Duration `mapstructure:"ttl" validate:"omitempty,gt=0" yaml:"ttl,omitempty"`
}

// AdminConfig contains admin API server configuration.
//
// The admin API exposes health, metrics, status, statistics, field-table
// management, network-management triggers and a websocket event stream.
// Operator users are defined inline with bcrypt password hashes.
type AdminConfig struct {
	// Enabled controls whether the admin API server is started.
	// Default: true
	Enabled *bool `mapstructure:"enabled" yaml:"enabled,omitempty"`

	// Host is the interface the admin API binds
	// Default: "127.0.0.1"
	Host string `mapstructure:"host" yaml:"host,omitempty"`

	// Port is the admin API listen port
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// JWTSecret signs access and refresh tokens. Must be at least 32
	// characters. Generated by 'gofep config init'.
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32" yaml:"jwt_secret,omitempty"`

	// AccessTokenDuration is the access token lifetime
	// Default: 15m
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration" validate:"omitempty,gt=0" yaml:"access_token_duration,omitempty"`

	// RefreshTokenDuration is the refresh token lifetime
	// Default: 168h (7 days)
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"omitempty,gt=0" yaml:"refresh_token_duration,omitempty"`

	// ReadTimeout bounds request reads
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"omitempty,gt=0" yaml:"read_timeout,omitempty"`

	// WriteTimeout bounds response writes
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"omitempty,gt=0" yaml:"write_timeout,omitempty"`

	// IdleTimeout closes idle keep-alive connections
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"omitempty,gt=0" yaml:"idle_timeout,omitempty"`

	// Users are the operator accounts allowed to log in
	Users []AdminUser `mapstructure:"users" validate:"omitempty,dive" yaml:"users,omitempty"`
}

// IsEnabled returns whether the admin API should be started.
// Defaults to true when not explicitly set.
func (c *AdminConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// AdminUser is one operator account for the admin API.
type AdminUser struct {
	// Username is the login name
	Username string `mapstructure:"username" validate:"required" yaml:"username"`

	// PasswordHash is the bcrypt hash of the password.
	// Generate with: gofep config hash-password
	PasswordHash string `mapstructure:"password_hash" validate:"required" yaml:"password_hash"`

	// Role is either "admin" or "viewer". Viewers get read-only access.
	// Default: "viewer"
	Role string `mapstructure:"role" validate:"omitempty,oneof=admin viewer" yaml:"role,omitempty"`
}

// MetricsConfig configures Prometheus metrics collection.
// When Enabled is false, no metrics are collected (zero overhead) and the
// admin /metrics endpoint serves an empty registry.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// EventsConfig configures the in-process event bus and its optional Kafka
// mirror.
type EventsConfig struct {
	// BufferSize is the per-subscriber channel depth; slow subscribers
	// past it drop events
	// Default: 256
	BufferSize int `mapstructure:"buffer_size" validate:"omitempty,gt=0" yaml:"buffer_size"`

	// Kafka mirrors bus events onto a Kafka topic when enabled
	Kafka KafkaConfig `mapstructure:"kafka" yaml:"kafka"`
}

// KafkaConfig configures the Kafka event mirror.
type KafkaConfig struct {
	// Enabled controls whether events are mirrored to Kafka
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Brokers is the list of bootstrap broker addresses (host:port)
	Brokers []string `mapstructure:"brokers" yaml:"brokers,omitempty"`

	// Topic is the destination topic
	// Default: "fep-events"
	Topic string `mapstructure:"topic" yaml:"topic,omitempty"`

	// Types limits which event types are forwarded; empty means all
	Types []string `mapstructure:"types" yaml:"types,omitempty"`

	// BatchSize is the writer batch size
	// Default: 100
	BatchSize int `mapstructure:"batch_size" validate:"omitempty,gt=0" yaml:"batch_size,omitempty"`

	// BatchTimeout flushes partial batches after this delay
	// Default: 10ms
	BatchTimeout time.Duration `mapstructure:"batch_timeout" validate:"omitempty,gt=0" yaml:"batch_timeout,omitempty"`
}

// FieldsConfig configures the field-definition table sources.
type FieldsConfig struct {
	// Tables maps a provider name to its definition file (.csv or .json).
	// The built-in "fisc" table is always registered and may be overridden.
	Tables map[string]string `mapstructure:"tables" yaml:"tables,omitempty"`

	// Watch reloads definition files automatically when they change
	// Default: false
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (GOFEP_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses the search path
//     ".", "$HOME/.gofep", "/etc/gofep")
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// If no config file was found, use defaults
	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: User-friendly error with instructions if config not found
func MustLoad(configPath string) (*Config, error) {
	// Determine config path
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  gofep config init\n\n"+
				"Or specify a custom config file:\n"+
				"  gofep <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  gofep config init --config %s",
				configPath, configPath)
		}
	}

	// Load configuration
	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file with restricted permissions (0600 = owner read/write only).
	// This is important because config files contain the JWT secret and
	// operator password hashes.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use GOFEP_ prefix and underscores
	// Example: GOFEP_GATEWAY_SEND_HOST=fisc.example.com
	v.SetEnvPrefix("GOFEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Search the working directory, then ~/.gofep, then /etc/gofep
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
		v.AddConfigPath("/etc/gofep")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Also check for os.PathError when explicit config file doesn't exist
		if os.IsNotExist(err) {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Other errors are problems
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationStringDecodeHook(),
		durationMillisDecodeHook(),
	)
}

// durationStringDecodeHook returns a mapstructure decode hook that converts
// strings to time.Duration. This enables config files to use human-readable
// durations like "30s", "5m", "1h".
func durationStringDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to time.Duration
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		if v, ok := data.(string); ok {
			// Parse duration string like "30s", "5m", "1h"
			return time.ParseDuration(v)
		}
		return data, nil
	}
}

// durationMillisDecodeHook returns a mapstructure decode hook that converts
// bare numbers to time.Duration, interpreted as milliseconds. Host link
// configurations traditionally express timeouts as millisecond integers
// (connect_timeout: 5000), so raw numbers keep that meaning.
func durationMillisDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to time.Duration
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Millisecond, nil
		case int32:
			return time.Duration(v) * time.Millisecond, nil
		case int64:
			return time.Duration(v) * time.Millisecond, nil
		case uint64:
			return time.Duration(v) * time.Millisecond, nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v * float64(time.Millisecond)), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses ~/.gofep, or falls back to the current directory (.) if the home
// directory cannot be determined.
func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".gofep")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the init command).
func GetConfigDir() string {
	return getConfigDir()
}
