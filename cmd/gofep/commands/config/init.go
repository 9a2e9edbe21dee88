package config

import (
	"fmt"

	"github.com/nilm987521/gofep/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample GoFEP configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/gofep/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  gofep config init

  # Initialize with custom path
  gofep config init --config /etc/gofep/config.yaml

  # Force overwrite existing config
  gofep config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	var configPath string
	var err error

	if configFile != "" {
		// Use custom path
		configPath, err = config.InitConfigAt(configFile, initForce)
	} else {
		// Use default path
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to set your host endpoints")
	fmt.Println("  2. Start the processor with: gofep start")
	fmt.Printf("  3. Or specify custom config: gofep start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  A random JWT secret has been generated for development use.")
	fmt.Println("  For production, generate a secure secret and use an environment variable:")
	fmt.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	fmt.Println("    export GOFEP_ADMIN_JWT_SECRET=$(openssl rand -hex 32)")

	return nil
}
