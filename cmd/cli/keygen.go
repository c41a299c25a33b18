package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledgerflow.com/internal/infrastructure/keys"
)

var keygenCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "keygen",
	Short: "Generate an ed25519 keypair for MY_PRIVATE_KEY and devnet.operatorPublicKey.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		kp, err := keys.NewGenerator().Generate()
		if err != nil {
			return fmt.Errorf("failed to generate keypair: %w", err)
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Private key: %s\n", kp.PrivateKey)
		_, _ = fmt.Fprintf(out, "Public key: %s\n", kp.PublicKey)
		return nil
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.AddCommand(keygenCmd)
}
