package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidGatewayPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Gateway.SendPort = 70000 // Out of range

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port out of range")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_NegativePort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Admin.Port = -1

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for negative port")
	}
}

func TestValidate_MissingGatewayHost(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Gateway.SendHost = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for missing send host")
	}
	errStr := strings.ToLower(err.Error())
	if !strings.Contains(errStr, "send_host") {
		t.Errorf("Expected error about send_host, got: %v", err)
	}
}

func TestValidate_DisabledGatewaySkipsEndpointChecks(t *testing.T) {
	cfg := GetDefaultConfig()
	disabled := false
	cfg.Gateway.Enabled = &disabled
	cfg.Gateway.SendHost = ""
	cfg.Gateway.ReceiveHost = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected disabled gateway to skip endpoint checks, got: %v", err)
	}
}

func TestValidate_InvalidFailureStrategy(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Gateway.FailureStrategy = "GIVE_UP"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unknown failure strategy")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InstitutionIDNumeric(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Gateway.InstitutionID = "BANK1"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for non-numeric institution id")
	}
}

func TestValidate_TelemetryEnabledWithoutEndpoint(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for telemetry enabled without endpoint")
	}
	if !strings.Contains(err.Error(), "telemetry") && !strings.Contains(err.Error(), "endpoint") {
		t.Errorf("Expected error about telemetry endpoint, got: %v", err)
	}
}

func TestValidate_TelemetrySampleRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = "localhost:4317"
	cfg.Telemetry.SampleRate = 1.5 // Out of range (should be 0.0-1.0)

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for sample rate out of range")
	}
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Admin.JWTSecret = "too-short"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for short JWT secret")
	}
	if !strings.Contains(err.Error(), "min") {
		t.Errorf("Expected 'min' validation error, got: %v", err)
	}
}

func TestValidate_UserMissingPasswordHash(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Admin.Users = []AdminUser{{Username: "ops", Role: "viewer"}}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for user without password hash")
	}
	errStr := strings.ToLower(err.Error())
	if !strings.Contains(errStr, "passwordhash") {
		t.Errorf("Expected error about the password hash, got: %v", err)
	}
}

func TestValidate_KafkaEnabledWithoutBrokers(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Events.Kafka.Enabled = true

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for Kafka mirror without brokers")
	}
	if !strings.Contains(err.Error(), "brokers") {
		t.Errorf("Expected error about brokers, got: %v", err)
	}
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	// Test that validation accepts both uppercase and lowercase log levels
	testCases := []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"}

	for _, level := range testCases {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		err := Validate(cfg)
		if err != nil {
			t.Errorf("Validation failed for level %q: %v", level, err)
		}

		// Validation should NOT normalize - level should remain as-is
		if cfg.Logging.Level != level {
			t.Errorf("Expected level to remain %q after validation, got %q", level, cfg.Logging.Level)
		}
	}

	// Test that normalization happens in ApplyDefaults
	cfg := &Config{Logging: LoggingConfig{Level: "info"}}
	ApplyDefaults(cfg)
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected ApplyDefaults to normalize 'info' to 'INFO', got %q", cfg.Logging.Level)
	}
}
