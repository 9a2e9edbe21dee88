package config

import (
	"fmt"

	"github.com/nilm987521/gofep/internal/admin/auth"
	"github.com/nilm987521/gofep/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a password for admin API users",
	Long: `Hash a password for use in the admin.users section of the configuration.

The password is read interactively and never echoed. The resulting bcrypt
hash goes into the password_hash field:

  admin:
    users:
      - username: ops
        password_hash: "<output of this command>"
        role: admin

Examples:
  gofep config hash-password`,
	RunE: runHashPassword,
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	password, err := prompt.NewPassword()
	if err != nil {
		if prompt.IsAborted(err) {
			return fmt.Errorf("aborted")
		}
		return fmt.Errorf("failed to read password: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	fmt.Println(hash)
	return nil
}
