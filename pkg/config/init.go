package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// InitConfig creates a starter configuration file at the default location.
//
// The generated file documents every section with comments and ships a
// freshly generated JWT secret so the admin API works out of the box. An
// existing file is never overwritten unless force is true.
//
// Returns the path of the written file.
func InitConfig(force bool) (string, error) {
	return InitConfigAt(GetDefaultConfigPath(), force)
}

// InitConfigAt creates a starter configuration file at an explicit path.
func InitConfigAt(path string, force bool) (string, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("configuration file already exists: %s\n\n"+
			"Use --force to overwrite it", path)
	}

	secret, err := generateJWTSecret()
	if err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(sampleConfig, secret)

	// 0600 because the file carries the JWT secret
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// generateJWTSecret returns a 64-character hex string from a CSPRNG.
func generateJWTSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// sampleConfig is the documented starter configuration. The one %s verb
// receives the generated JWT secret.
const sampleConfig = `# GoFEP Configuration File
#
# Values can be overridden with GOFEP_* environment variables, e.g.
#   GOFEP_GATEWAY_SEND_HOST=fisc.example.com
#   GOFEP_LOGGING_LEVEL=DEBUG
#
# Duration values accept Go duration strings ("5s", "1m") or bare
# integers interpreted as milliseconds (5000 == "5s").

logging:
  # Log level: DEBUG, INFO, WARN, ERROR
  level: "INFO"
  # Log format: text, json
  format: "text"
  # Log output: stdout, stderr, or a file path
  output: "stdout"

# Maximum time to wait for graceful shutdown
shutdown_timeout: 30s

# Dual-channel link to the interbank host. Requests are written on the
# Send connection; responses arrive on the Receive connection and are
# matched by trace number (field 11).
gateway:
  enabled: true
  send_host: "127.0.0.1"
  send_port: 9021
  receive_host: "127.0.0.1"
  receive_port: 9022
  connect_timeout: 10s
  read_timeout: 60s
  # Echo cadence on a quiet line; 0 disables heartbeats
  heartbeat_interval: 30s
  auto_reconnect: true
  # 0 means retry forever
  reconnect_max_attempts: 0
  # FAIL_WHEN_EITHER_DOWN, FAIL_WHEN_BOTH_DOWN, REQUIRE_BOTH_FOR_SEND
  failure_strategy: "FAIL_WHEN_EITHER_DOWN"
  # Rides in field 32 of sign-on/sign-off/echo when set
  institution_id: ""
  # Bound on simultaneously outstanding requests
  max_in_flight: 512
  # Field-definition table used for host traffic
  provider: "FISC"

# Inbound ISO 8583 listener for acquiring channels (ATM, POS, mobile)
server:
  enabled: true
  bind_address: ""
  port: 8583
  channel: "iso8583"
  # 0 means unlimited concurrent sessions
  max_connections: 0
  max_requests_per_session: 32
  # Unanswered requests past this get the system-malfunction reply
  response_timeout: 30s
  # 0 keeps idle sessions open indefinitely
  idle_timeout: 0
  write_timeout: 30s
  provider: "FISC"
  # Event-routed handler: park replies until a transaction-result event
  workflow:
    enabled: false
    ttl: 5s

# REST control surface: health, metrics, status, field tables, network
# management triggers, websocket event stream
admin:
  enabled: true
  host: "127.0.0.1"
  port: 8080
  jwt_secret: "%s"
  access_token_duration: 15m
  refresh_token_duration: 168h
  # Operator accounts. Generate hashes with: gofep config hash-password
  users: []
  #  - username: admin
  #    password_hash: "$2a$10$..."
  #    role: admin

metrics:
  enabled: true

events:
  # Per-subscriber buffer; slow subscribers past it drop events
  buffer_size: 256
  # Mirror bus events onto a Kafka topic
  kafka:
    enabled: false
    brokers: []
    topic: "fep-events"

# Field-definition tables. The built-in "FISC" table is always
# registered; entries here add providers or override it from CSV/JSON
# definition files.
fields:
  tables: {}
  # Reload definition files automatically when they change
  watch: false
`
