package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/spacemeshos/loquat/issuing"
)

var ErrKeyFileExists = errors.New("key file already exists")

var (
	keygenName  string
	keygenForce bool
)

// keygenCmd represents the keygen command.
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an issuer key pair",
	Long: `keygen draws a fresh secret key and stores it, together with its public key, in the
keys directory of the data dir. The public key is also written to a separate file that can
be handed to verifiers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		layout := store.Layout()
		if _, err := os.Stat(layout.KeyPairFile(keygenName)); err == nil && !keygenForce {
			return errors.Wrapf(ErrKeyFileExists, "%v; use --force to replace it", layout.KeyPairFile(keygenName))
		}

		o, err := cfg.Oracle()
		if err != nil {
			return err
		}
		kp, err := issuing.Keygen(issuing.WithOracle(o), issuing.WithLogger(logger))
		if err != nil {
			return err
		}

		keyPath, err := store.SaveKeyPair(keygenName, kp)
		if err != nil {
			return err
		}
		pubPath, err := store.SavePublicKey(keygenName, kp.Public)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "public key: %v\n", kp.Public)
		fmt.Fprintf(out, "key pair:   %v\n", keyPath)
		fmt.Fprintf(out, "public:     %v\n", pubPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVar(&keygenName, "name", "issuer", "name of the key pair")
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "replace an existing key pair")
}
