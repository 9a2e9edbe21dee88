package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nilm987521/gofep/internal/cli/output"
	"github.com/nilm987521/gofep/internal/cli/timeutil"
	"github.com/spf13/cobra"
)

var (
	statusOutput  string
	statusPidFile string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show processor status",
	Long: `Display the current status of the GoFEP processor.

This command checks the processor health by calling the readiness endpoint
of the admin API and displays status, uptime, and component health.

Examples:
  # Check status (uses default settings)
  gofep status

  # Check status with custom admin API port
  gofep status --api-port 9080

  # Output as JSON
  gofep status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/gofep/gofep.pid)")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 8080, "Admin API port")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus represents the processor status information.
type ServerStatus struct {
	Running   bool           `json:"running" yaml:"running"`
	PID       int            `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message   string         `json:"message" yaml:"message"`
	StartedAt string         `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string         `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Healthy   bool           `json:"healthy" yaml:"healthy"`
	Gateway   map[string]any `json:"gateway,omitempty" yaml:"gateway,omitempty"`
	Server    map[string]any `json:"server,omitempty" yaml:"server,omitempty"`
}

// readinessResponse mirrors the admin API health payload.
type readinessResponse struct {
	Status     string         `json:"status"`
	Service    string         `json:"service"`
	StartedAt  string         `json:"started_at,omitempty"`
	Uptime     string         `json:"uptime,omitempty"`
	Error      string         `json:"error,omitempty"`
	Components map[string]any `json:"components,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := ServerStatus{
		Running: false,
		Healthy: false,
		Message: "Processor is not running",
	}

	// Use default PID file if not specified
	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	// Check PID file first
	pidData, err := os.ReadFile(pidPath)
	if err == nil {
		pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
		if err == nil {
			// Check if process is running
			process, err := os.FindProcess(pid)
			if err == nil {
				// On Unix, FindProcess always succeeds, we need to send signal 0 to check
				err = process.Signal(syscall.Signal(0))
				if err == nil {
					status.Running = true
					status.PID = pid
				}
			}
		}
	}

	// Check readiness endpoint (works for both daemon and foreground mode)
	healthURL := fmt.Sprintf("http://localhost:%d/health/ready", statusAPIPort)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(healthURL)
	if err == nil {
		defer func() { _ = resp.Body.Close() }()

		var ready readinessResponse
		if err := json.NewDecoder(resp.Body).Decode(&ready); err == nil {
			status.Running = true
			status.Healthy = ready.Status == "ok"
			status.StartedAt = ready.StartedAt
			status.Uptime = ready.Uptime
			if gw, ok := ready.Components["gateway"].(map[string]any); ok {
				status.Gateway = gw
			}
			if srv, ok := ready.Components["server"].(map[string]any); ok {
				status.Server = srv
			}
			if status.Healthy {
				status.Message = "Processor is running and ready"
			} else {
				status.Message = fmt.Sprintf("Processor is running but not ready: %s", ready.Error)
			}
		} else {
			status.Running = true
			status.Message = "Processor is running but health response invalid"
		}
	} else if status.Running {
		// PID file says running but health check failed
		status.Message = "Processor process exists but health check failed"
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	fmt.Println("GoFEP Processor Status")
	fmt.Println("======================")
	fmt.Println()

	if status.Running {
		if status.Healthy {
			fmt.Printf("  Status:     \033[32m● Running\033[0m\n")
		} else {
			fmt.Printf("  Status:     \033[33m● Running (not ready)\033[0m\n")
		}
		if status.PID != 0 {
			fmt.Printf("  PID:        %d\n", status.PID)
		}
		if status.StartedAt != "" {
			fmt.Printf("  Started:    %s\n", timeutil.FormatTime(status.StartedAt))
		}
		if status.Uptime != "" {
			fmt.Printf("  Uptime:     %s\n", timeutil.FormatUptime(status.Uptime))
		}
		if status.Gateway != nil {
			fmt.Printf("  Gateway:    %s (signed on: %v)\n", status.Gateway["state"], status.Gateway["signedOn"])
		}
		if status.Server != nil {
			fmt.Printf("  Server:     port %v, %v active sessions\n", status.Server["port"], status.Server["activeSessions"])
		}
	} else {
		fmt.Printf("  Status:     \033[31m○ Stopped\033[0m\n")
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
