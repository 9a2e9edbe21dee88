// Package config implements configuration management subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage GoFEP configuration files.

Subcommands:
  init           Create a sample configuration file
  validate       Validate configuration file
  schema         Generate JSON schema for IDE/validation
  hash-password  Hash a password for admin API users`,
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(hashPasswordCmd)
}
