package config

import (
	"fmt"

	"github.com/nilm987521/gofep/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the GoFEP configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  gofep config validate

  # Validate specific config file
  gofep config validate --config /etc/gofep/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// Load and validate configuration
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Additional validation checks
	var warnings []string

	if cfg.Admin.IsEnabled() {
		if len(cfg.Admin.JWTSecret) < 32 {
			warnings = append(warnings, "admin JWT secret missing or too short - admin API authentication will fail")
		}
		if len(cfg.Admin.Users) == 0 {
			warnings = append(warnings, "no admin users configured - nobody can log in to the admin API")
		}
	}

	if !cfg.Gateway.IsEnabled() && !cfg.Server.IsEnabled() {
		warnings = append(warnings, "both gateway and server are disabled - the processor will not move any traffic")
	}

	// Print results
	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	if cfg.Gateway.IsEnabled() {
		fmt.Printf("  Gateway send:    %s:%d\n", cfg.Gateway.SendHost, cfg.Gateway.SendPort)
		fmt.Printf("  Gateway receive: %s:%d\n", cfg.Gateway.ReceiveHost, cfg.Gateway.ReceivePort)
	} else {
		fmt.Printf("  Gateway:         disabled\n")
	}
	if cfg.Server.IsEnabled() {
		fmt.Printf("  Server port:     %d\n", cfg.Server.Port)
	} else {
		fmt.Printf("  Server:          disabled\n")
	}
	if cfg.Admin.IsEnabled() {
		fmt.Printf("  Admin API port:  %d\n", cfg.Admin.Port)
	} else {
		fmt.Printf("  Admin API:       disabled\n")
	}
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
