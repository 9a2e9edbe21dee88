package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_Gateway(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Gateway.ConnectTimeout != 10*time.Second {
		t.Errorf("Expected default connect timeout 10s, got %v", cfg.Gateway.ConnectTimeout)
	}
	if cfg.Gateway.ReadTimeout != 60*time.Second {
		t.Errorf("Expected default read timeout 60s, got %v", cfg.Gateway.ReadTimeout)
	}
	if cfg.Gateway.HeartbeatInterval != 30*time.Second {
		t.Errorf("Expected default heartbeat interval 30s, got %v", cfg.Gateway.HeartbeatInterval)
	}
	if cfg.Gateway.FailureStrategy != "FAIL_WHEN_EITHER_DOWN" {
		t.Errorf("Expected default failure strategy FAIL_WHEN_EITHER_DOWN, got %q", cfg.Gateway.FailureStrategy)
	}
	if cfg.Gateway.MaxInFlight != 512 {
		t.Errorf("Expected default max in flight 512, got %d", cfg.Gateway.MaxInFlight)
	}
	if !cfg.Gateway.IsEnabled() {
		t.Error("Expected gateway enabled by default")
	}
	if !cfg.Gateway.IsAutoReconnect() {
		t.Error("Expected auto reconnect enabled by default")
	}
}

func TestApplyDefaults_NormalizesFailureStrategy(t *testing.T) {
	cfg := &Config{
		Gateway: GatewayConfig{FailureStrategy: "fail-when-both-down"},
	}
	ApplyDefaults(cfg)

	if cfg.Gateway.FailureStrategy != "FAIL_WHEN_BOTH_DOWN" {
		t.Errorf("Expected normalized strategy FAIL_WHEN_BOTH_DOWN, got %q", cfg.Gateway.FailureStrategy)
	}
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 8583 {
		t.Errorf("Expected default server port 8583, got %d", cfg.Server.Port)
	}
	if cfg.Server.Channel != "iso8583" {
		t.Errorf("Expected default channel 'iso8583', got %q", cfg.Server.Channel)
	}
	if cfg.Server.MaxRequestsPerSession != 32 {
		t.Errorf("Expected default max requests per session 32, got %d", cfg.Server.MaxRequestsPerSession)
	}
	if cfg.Server.ResponseTimeout != 30*time.Second {
		t.Errorf("Expected default response timeout 30s, got %v", cfg.Server.ResponseTimeout)
	}
	if cfg.Server.Workflow.TTL != 5*time.Second {
		t.Errorf("Expected default workflow TTL 5s, got %v", cfg.Server.Workflow.TTL)
	}
}

func TestApplyDefaults_Admin(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Admin.Port != 8080 {
		t.Errorf("Expected default admin port 8080, got %d", cfg.Admin.Port)
	}
	if cfg.Admin.AccessTokenDuration != 15*time.Minute {
		t.Errorf("Expected default access token duration 15m, got %v", cfg.Admin.AccessTokenDuration)
	}
	if cfg.Admin.RefreshTokenDuration != 7*24*time.Hour {
		t.Errorf("Expected default refresh token duration 168h, got %v", cfg.Admin.RefreshTokenDuration)
	}
	if cfg.Admin.ReadTimeout != 10*time.Second {
		t.Errorf("Expected default read timeout 10s, got %v", cfg.Admin.ReadTimeout)
	}
	if cfg.Admin.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.Admin.IdleTimeout)
	}
}

func TestApplyDefaults_UserRole(t *testing.T) {
	cfg := &Config{
		Admin: AdminConfig{
			Users: []AdminUser{
				{Username: "ops", PasswordHash: "$2a$10$x"},
				{Username: "root", PasswordHash: "$2a$10$y", Role: "admin"},
			},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Admin.Users[0].Role != "viewer" {
		t.Errorf("Expected omitted role to default to 'viewer', got %q", cfg.Admin.Users[0].Role)
	}
	if cfg.Admin.Users[1].Role != "admin" {
		t.Errorf("Expected explicit role 'admin' to be preserved, got %q", cfg.Admin.Users[1].Role)
	}
}

func TestApplyDefaults_Events(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Events.BufferSize != 256 {
		t.Errorf("Expected default buffer size 256, got %d", cfg.Events.BufferSize)
	}
	if cfg.Events.Kafka.Topic != "fep-events" {
		t.Errorf("Expected default topic 'fep-events', got %q", cfg.Events.Kafka.Topic)
	}
	if cfg.Events.Kafka.Enabled {
		t.Error("Expected Kafka mirror disabled by default")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/gofep.log",
		},
		ShutdownTimeout: 60 * time.Second,
		Gateway: GatewayConfig{
			SendHost:    "fisc.example.com",
			MaxInFlight: 64,
		},
	}

	ApplyDefaults(cfg)

	// Verify explicit values were preserved
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format 'json' to be preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "/var/log/gofep.log" {
		t.Errorf("Expected explicit output to be preserved, got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 60*time.Second {
		t.Errorf("Expected explicit timeout 60s to be preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Gateway.SendHost != "fisc.example.com" {
		t.Errorf("Expected explicit send host to be preserved, got %q", cfg.Gateway.SendHost)
	}
	if cfg.Gateway.MaxInFlight != 64 {
		t.Errorf("Expected explicit max in flight to be preserved, got %d", cfg.Gateway.MaxInFlight)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	// The default config should pass validation
	err := Validate(cfg)
	if err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestGetDefaultConfig_HasRequiredFields(t *testing.T) {
	cfg := GetDefaultConfig()

	// Check all required sections are present
	if cfg.Logging.Level == "" {
		t.Error("Default config missing logging level")
	}
	if cfg.Gateway.SendPort == 0 {
		t.Error("Default config missing gateway send port")
	}
	if cfg.Server.Port == 0 {
		t.Error("Default config missing server port")
	}
	if cfg.Admin.Port == 0 {
		t.Error("Default config missing admin port")
	}
}
