package commands

import (
	"fmt"

	"github.com/nilm987521/gofep/cmd/fepctl/cmdutil"
	"github.com/nilm987521/gofep/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Network management operations",
	Long: `Drive network management on the processor's host link.

These commands trigger 0800 network management exchanges with the
interbank host: echo test, sign-on and sign-off.

Examples:
  # Round-trip an echo test
  fepctl network echo

  # Sign on to the host
  fepctl network signon

  # Sign off from the host
  fepctl network signoff`,
}

var networkEchoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Send an echo test to the host",
	RunE:  runNetworkEcho,
}

var networkSignOnCmd = &cobra.Command{
	Use:   "signon",
	Short: "Sign on to the host",
	RunE:  runNetworkSignOn,
}

var networkSignOffForce bool

var networkSignOffCmd = &cobra.Command{
	Use:   "signoff",
	Short: "Sign off from the host",
	Long: `Sign off from the interbank host.

After sign-off the processor stops forwarding financial traffic until
the next sign-on, so this asks for confirmation unless --force is given.`,
	RunE: runNetworkSignOff,
}

func init() {
	networkSignOffCmd.Flags().BoolVarP(&networkSignOffForce, "force", "f", false, "Skip confirmation")

	networkCmd.AddCommand(networkEchoCmd)
	networkCmd.AddCommand(networkSignOnCmd)
	networkCmd.AddCommand(networkSignOffCmd)
}

func runNetworkEcho(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	result, err := client.NetworkEcho()
	if err != nil {
		return fmt.Errorf("echo test failed: %w", err)
	}

	fmt.Printf("Echo test OK, host round trip %.1f ms\n", result.LatencyMs)
	return nil
}

func runNetworkSignOn(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.NetworkSignOn(); err != nil {
		return fmt.Errorf("sign-on failed: %w", err)
	}

	cmdutil.PrintSuccess("Signed on to host")
	return nil
}

func runNetworkSignOff(cmd *cobra.Command, args []string) error {
	if !networkSignOffForce {
		confirmed, err := prompt.Confirm("Sign off from the host?", false)
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.NetworkSignOff(); err != nil {
		return fmt.Errorf("sign-off failed: %w", err)
	}

	cmdutil.PrintSuccess("Signed off from host")
	return nil
}
