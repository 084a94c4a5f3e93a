package cmd

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate validator or payer keypairs",
	RunE:  runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().Int(
		"count",
		1,
		"Number of keypairs to generate")

	keygenCmd.Flags().Bool(
		"manifest",
		false,
		"Print only a comma-separated list of public keys, suitable for a validators.init payload")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	manifest, _ := cmd.Flags().GetBool("manifest")
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	pubkeys := make([]string, 0, count)
	for i := 0; i < count; i++ {
		priv, err := solana.NewRandomPrivateKey()
		if err != nil {
			return fmt.Errorf("generate keypair: %w", err)
		}
		pub := priv.PublicKey()
		// Re-encoded independently of solana.PublicKey.String() so the
		// printed manifest does not silently drift if that encoding ever
		// changes underneath this command.
		pubkeys = append(pubkeys, base58.Encode(pub.Bytes()))

		if !manifest {
			fmt.Printf("public:  %s\nprivate: %s\n\n", pub, priv)
		}
	}

	if manifest {
		fmt.Println(strings.Join(pubkeys, ","))
	}

	return nil
}
