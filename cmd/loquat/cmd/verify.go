package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/spacemeshos/loquat/shared"
	"github.com/spacemeshos/loquat/verifying"
)

var ErrInvalidDisclosure = errors.New("invalid disclosure")

var (
	verifyKey    string
	verifyPubkey string
)

// verifyCmd represents the verify command.
var verifyCmd = &cobra.Command{
	Use:   "verify <disclosure file>...",
	Short: "Verify disclosures against an issuer public key",
	Long: `verify checks every given disclosure file against the issuer public key and prints
one line per file. Several files are verified in parallel, --workers at a time. The command
fails if any disclosure is invalid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			pk  shared.PublicKey
			err error
		)
		if verifyPubkey != "" {
			pk, err = store.LoadPublicKeyFile(verifyPubkey)
		} else {
			pk, err = store.LoadPublicKey(verifyKey)
		}
		if err != nil {
			return errors.Wrap(err, "failed to load public key")
		}

		status := make([]string, len(args))
		attributes := make([]string, len(args))
		items := make([]verifying.Item, 0, len(args))
		positions := make([]int, 0, len(args))
		for i, path := range args {
			d, err := store.LoadDisclosureFile(path)
			if err != nil {
				status[i] = fmt.Sprintf("malformed: %v", errors.Cause(err))
				continue
			}
			attributes[i] = strconv.Itoa(len(d.Attributes))
			items = append(items, verifying.Item{PublicKey: pk, Disclosure: d})
			positions = append(positions, i)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		results, err := verifying.VerifyBatch(ctx, items,
			verifying.WithConfig(cfg),
			verifying.WithLogger(logger),
		)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return errors.New("verification interrupted")
			}
			return err
		}
		for j, ok := range results {
			if ok {
				status[positions[j]] = "valid"
			} else {
				status[positions[j]] = "invalid"
			}
		}

		invalid := 0
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"disclosure", "attributes", "result"})
		table.SetBorder(true)
		for i, path := range args {
			if status[i] != "valid" {
				invalid++
			}
			table.Append([]string{path, attributes[i], status[i]})
		}
		table.Render()

		if invalid > 0 {
			return errors.Wrapf(ErrInvalidDisclosure, "%d of %d", invalid, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyKey, "key", "issuer", "name of the issuer public key in the data dir")
	verifyCmd.Flags().StringVar(&verifyPubkey, "pubkey", "", "path of an issuer public key file, overrides --key")
}
