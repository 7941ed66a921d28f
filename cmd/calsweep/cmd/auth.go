package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with your calendar provider",
	Long: `Authenticate with your calendar provider using OAuth.

  1. Starts a local server to receive the OAuth callback
  2. Opens your browser to sign in
  3. Saves the token for future runs

The provider is chosen with --provider or CALSWEEP_PROVIDER (google|outlook).
A sweep runs this flow on its own when no usable token is cached.`,
	Args: cobra.NoArgs,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	provider, err := providerFor(viper.GetString("provider"))
	if err != nil {
		return err
	}

	if _, err := provider.Auth.Reauthorize(cmd.Context()); err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nAuthentication successful!")
	fmt.Fprintf(out, "Token saved to %s\n", provider.Auth.Store.Path)
	fmt.Fprintln(out, "\nYou can now run 'calsweep' to clean up your calendar.")
	return nil
}
