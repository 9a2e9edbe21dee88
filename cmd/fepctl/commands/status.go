package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/nilm987521/gofep/cmd/fepctl/cmdutil"
	"github.com/nilm987521/gofep/internal/cli/output"
	"github.com/nilm987521/gofep/internal/cli/timeutil"
	"github.com/nilm987521/gofep/pkg/apiclient"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show processor status",
	Long: `Display the status of the connected GoFEP processor.

Shows the host link state, sign-on status, inbound listener and
uptime information.

Examples:
  # Check status of connected processor
  fepctl status

  # Output as JSON
  fepctl status -o json`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
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

func printStatusTable(status *apiclient.StatusResponse) {
	fmt.Println()
	fmt.Println("GoFEP Processor Status")
	fmt.Println("======================")
	fmt.Println()
	fmt.Printf("  Service:    %s\n", status.Service)
	if status.Version != "" {
		fmt.Printf("  Version:    %s\n", status.Version)
	}
	if !status.StartedAt.IsZero() {
		fmt.Printf("  Started:    %s\n", timeutil.FormatTime(status.StartedAt.Format(time.RFC3339)))
	}
	if status.Uptime != "" {
		fmt.Printf("  Uptime:     %s\n", timeutil.FormatUptime(status.Uptime))
	}

	if status.Gateway != nil {
		fmt.Println()
		fmt.Println("  Host link:")
		switch {
		case status.Gateway.SignedOn:
			fmt.Printf("    State:      \033[32m● %s\033[0m\n", status.Gateway.State)
		case status.Gateway.SendConnected || status.Gateway.ReceiveConnected:
			fmt.Printf("    State:      \033[33m● %s\033[0m\n", status.Gateway.State)
		default:
			fmt.Printf("    State:      \033[31m○ %s\033[0m\n", status.Gateway.State)
		}
		fmt.Printf("    Signed on:  %s\n", cmdutil.BoolToYesNo(status.Gateway.SignedOn))
		fmt.Printf("    Send:       %s\n", connectedLabel(status.Gateway.SendConnected))
		fmt.Printf("    Receive:    %s\n", connectedLabel(status.Gateway.ReceiveConnected))
	}

	if status.Server != nil {
		fmt.Println()
		fmt.Println("  Inbound server:")
		fmt.Printf("    Protocol:   %s\n", status.Server.Protocol)
		fmt.Printf("    Port:       %d\n", status.Server.Port)
		fmt.Printf("    Sessions:   %d\n", status.Server.ActiveSessions)
	}
	fmt.Println()
}

func connectedLabel(connected bool) string {
	if connected {
		return "connected"
	}
	return "disconnected"
}
