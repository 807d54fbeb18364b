package cmd

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"strconv"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/spacemeshos/loquat/disclosing"
	"github.com/spacemeshos/loquat/issuing"
	"github.com/spacemeshos/loquat/shared"
	"github.com/spacemeshos/loquat/verifying"
)

var (
	benchAttributes []int
	benchDisclosed  int
	benchValueSize  int
	benchRounds     int
)

// benchCmd represents the bench command.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure signing, disclosure and verification times",
	Long: `bench issues random credentials of every size given with --attributes and reports the
average time of each operation together with the encoded disclosure size.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchRounds < 1 || benchDisclosed < 1 || benchValueSize < 0 {
			return errors.New("--rounds and --disclose must be positive, --value-size must not be negative")
		}
		o, err := cfg.Oracle()
		if err != nil {
			return err
		}
		kp, err := issuing.Keygen(issuing.WithOracle(o))
		if err != nil {
			return err
		}
		verifier, err := verifying.NewProofVerifier(verifying.WithConfig(cfg))
		if err != nil {
			return err
		}

		log.Printf("bench config: hash: %v, workers: %v, rounds: %v", o.Name(), cfg.Workers, benchRounds)

		data := make([][]string, 0, len(benchAttributes))
		for i, n := range benchAttributes {
			log.Printf("test %v/%v starting...", i+1, len(benchAttributes))

			attributes := make([][]byte, n)
			for j := range attributes {
				attributes[j] = make([]byte, benchValueSize)
				if _, err := rand.Read(attributes[j]); err != nil {
					return err
				}
			}
			disclosed := benchDisclosed
			if disclosed > n {
				disclosed = n
			}
			indices := make([]int, disclosed)
			for j := range indices {
				indices[j] = j * n / disclosed
			}

			var cred *shared.Credential
			eSign := measure(benchRounds, func() error {
				cred, err = issuing.Issue(kp, attributes, issuing.WithOracle(o))
				return err
			})
			if err != nil {
				return err
			}

			var d *shared.Disclosure
			eDisclose := measure(benchRounds, func() error {
				d, err = disclosing.DiscloseCredential(cred, indices)
				return err
			})
			if err != nil {
				return err
			}

			eVerify := measure(benchRounds, func() error {
				if !verifier.Verify(kp.Public, d) {
					return errors.Errorf("disclosure of %d attributes did not verify", n)
				}
				return nil
			})
			if err != nil {
				return err
			}

			items := make([]verifying.Item, benchRounds)
			for j := range items {
				items[j] = verifying.Item{PublicKey: kp.Public, Disclosure: d}
			}
			t := time.Now()
			if _, err := verifier.VerifyBatch(context.Background(), items); err != nil {
				return err
			}
			eBatch := time.Since(t) / time.Duration(len(items))

			encoded, err := store.Codec().EncodeDisclosure(d)
			if err != nil {
				return err
			}

			data = append(data, []string{
				strconv.Itoa(n),
				strconv.Itoa(cred.Tree.Depth()),
				strconv.Itoa(disclosed),
				eSign.Round(time.Microsecond).String(),
				eDisclose.Round(time.Microsecond).String(),
				eVerify.Round(time.Microsecond).String(),
				eBatch.Round(time.Microsecond).String(),
				bytefmt.ByteSize(uint64(len(encoded))),
			})
		}

		header := []string{"attributes", "depth", "disclosed", "issue", "disclose", "verify", "verify-batch", "disclosure"}
		fmt.Fprintf(cmd.OutOrStdout(), "\n\nBENCHMARKS: hash=%v value-size=%v\n", o.Name(), bytefmt.ByteSize(uint64(benchValueSize)))

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader(header)
		table.SetBorder(true)
		table.AppendBulk(data)
		table.Render()
		return nil
	},
}

// measure runs f rounds times, stopping at the first error, and returns the average duration.
func measure(rounds int, f func() error) time.Duration {
	t := time.Now()
	i := 0
	for ; i < rounds; i++ {
		if err := f(); err != nil {
			i++
			break
		}
	}
	return time.Since(t) / time.Duration(i)
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().IntSliceVar(&benchAttributes, "attributes", []int{4, 64, 1024}, "credential sizes to measure")
	benchCmd.Flags().IntVar(&benchDisclosed, "disclose", 1, "number of attributes revealed per disclosure")
	benchCmd.Flags().IntVar(&benchValueSize, "value-size", 32, "size of every attribute value, in bytes")
	benchCmd.Flags().IntVar(&benchRounds, "rounds", 100, "repetitions of every operation")
}
