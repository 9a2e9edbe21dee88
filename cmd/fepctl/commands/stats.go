package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nilm987521/gofep/cmd/fepctl/cmdutil"
	"github.com/nilm987521/gofep/internal/cli/output"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show processor statistics",
	Long: `Display traffic counters for the connected GoFEP processor.

Shows messages sent and received on the host link, pending-request
registry outcomes, reconnect counts and event bus counters.

Examples:
  # Show statistics
  fepctl stats

  # Output as JSON
  fepctl stats -o json`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	stats, err := client.Statistics()
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, stats)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, stats)
	default:
		var pairs [][2]string
		if gw := stats.Gateway; gw != nil {
			pairs = append(pairs,
				[2]string{"Host link state", gw.State},
				[2]string{"Signed on", cmdutil.BoolToYesNo(gw.SignedOn)},
				[2]string{"Messages sent", strconv.FormatUint(gw.MessagesSent, 10)},
				[2]string{"Messages received", strconv.FormatUint(gw.MessagesReceived, 10)},
				[2]string{"Matched responses", strconv.FormatUint(gw.Matched, 10)},
				[2]string{"Unsolicited responses", strconv.FormatUint(gw.Unsolicited, 10)},
				[2]string{"Send reconnects", strconv.FormatUint(gw.SendReconnects, 10)},
				[2]string{"Receive reconnects", strconv.FormatUint(gw.ReceiveReconnects, 10)},
				[2]string{"Pending requests", strconv.Itoa(gw.Registry.CurrentPending)},
				[2]string{"Requests completed", strconv.FormatUint(gw.Registry.Completed, 10)},
				[2]string{"Requests timed out", strconv.FormatUint(gw.Registry.TimedOut, 10)},
				[2]string{"Requests cancelled", strconv.FormatUint(gw.Registry.Cancelled, 10)},
			)
		}
		if srv := stats.Server; srv != nil {
			pairs = append(pairs,
				[2]string{"Active sessions", strconv.FormatInt(int64(srv.ActiveSessions), 10)},
			)
		}
		if ev := stats.Events; ev != nil {
			pairs = append(pairs,
				[2]string{"Event subscribers", strconv.Itoa(ev.Subscribers)},
				[2]string{"Events dropped", strconv.FormatUint(ev.Dropped, 10)},
			)
		}
		if len(pairs) == 0 {
			fmt.Println("No statistics available.")
			return nil
		}
		return output.SimpleTable(os.Stdout, pairs)
	}
}
