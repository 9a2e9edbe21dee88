package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for invalid values.
//
// Struct tags drive the field-level checks (ranges, enums, required fields);
// rules the tags cannot express are applied afterwards. The returned error
// lists every failed rule on its own line with the offending value, so an
// operator can fix the whole file in one pass.
func Validate(cfg *Config) error {
	v := validator.New()

	var problems []string

	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, formatFieldError(fe))
		}
	}

	problems = append(problems, crossFieldProblems(cfg)...)

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
}

// formatFieldError renders one validator error as a readable line like
// "Gateway.SendPort: failed 'max=65535' check (value: 70000)".
func formatFieldError(fe validator.FieldError) string {
	// Trim the leading struct name ("Config.") from the namespace
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}

	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed '%s=%s' check (value: %v)", ns, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s: failed '%s' check (value: %v)", ns, fe.Tag(), fe.Value())
}

// crossFieldProblems applies the rules struct tags cannot express.
func crossFieldProblems(cfg *Config) []string {
	var problems []string

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		problems = append(problems, "telemetry.endpoint: required when telemetry is enabled")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		problems = append(problems, "telemetry.profiling.endpoint: required when profiling is enabled")
	}

	if cfg.Gateway.IsEnabled() {
		if cfg.Gateway.SendHost == "" {
			problems = append(problems, "gateway.send_host: required when the gateway is enabled")
		}
		if cfg.Gateway.SendPort == 0 {
			problems = append(problems, "gateway.send_port: required when the gateway is enabled")
		}
		if cfg.Gateway.ReceiveHost == "" {
			problems = append(problems, "gateway.receive_host: required when the gateway is enabled")
		}
		if cfg.Gateway.ReceivePort == 0 {
			problems = append(problems, "gateway.receive_port: required when the gateway is enabled")
		}
	}

	if cfg.Server.IsEnabled() && cfg.Server.Port == 0 {
		problems = append(problems, "server.port: required when the server is enabled")
	}

	if cfg.Events.Kafka.Enabled && len(cfg.Events.Kafka.Brokers) == 0 {
		problems = append(problems, "events.kafka.brokers: required when the Kafka mirror is enabled")
	}

	for provider, path := range cfg.Fields.Tables {
		if provider == "" {
			problems = append(problems, "fields.tables: provider names must not be empty")
		}
		if path == "" {
			problems = append(problems, fmt.Sprintf("fields.tables.%s: definition file path must not be empty", provider))
		}
	}

	return problems
}
