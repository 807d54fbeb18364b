package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spacemeshos/loquat/issuing"
)

var (
	issueKey       string
	issueName      string
	issueAttrs     []string
	issueAttrsFile string
)

// issueCmd represents the issue command.
var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign an ordered set of attributes",
	Long: `issue signs the attributes given with --attr, in order, followed by the lines of
--attrs-file. The resulting credential is stored in the credentials directory and is
what a holder later discloses from.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		attributes := make([][]byte, 0, len(issueAttrs))
		for _, a := range issueAttrs {
			attributes = append(attributes, []byte(a))
		}
		if issueAttrsFile != "" {
			lines, err := readLines(issueAttrsFile)
			if err != nil {
				return err
			}
			attributes = append(attributes, lines...)
		}
		if uint(len(attributes)) > cfg.MaxAttributes {
			return errors.Errorf("too many attributes; expected: <= %d, given: %d", cfg.MaxAttributes, len(attributes))
		}
		for i, a := range attributes {
			if uint(len(a)) > cfg.MaxValueSize {
				return errors.Errorf("attribute %d too large; expected: <= %d bytes, given: %d", i, cfg.MaxValueSize, len(a))
			}
		}

		kp, err := store.LoadKeyPair(issueKey)
		if err != nil {
			return errors.Wrap(err, "failed to load issuer key")
		}

		o, err := cfg.Oracle()
		if err != nil {
			return err
		}
		cred, err := issuing.Issue(kp, attributes, issuing.WithOracle(o), issuing.WithLogger(logger))
		if err != nil {
			return err
		}

		path, err := store.SaveCredential(issueName, cred)
		if err != nil {
			return err
		}
		logger.Info("cli: credential issued",
			zap.String("path", path),
			zap.Int("attributes", len(attributes)),
		)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "merkle root: %v\n", cred.Signature.MerkleRoot)
		fmt.Fprintf(out, "sigma:       %v\n", cred.Signature.Sigma)
		fmt.Fprintf(out, "credential:  %v\n", path)
		return nil
	},
}

func readLines(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open attributes file")
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, append([]byte{}, scanner.Bytes()...))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read attributes file")
	}
	return lines, nil
}

func init() {
	rootCmd.AddCommand(issueCmd)

	issueCmd.Flags().StringVar(&issueKey, "key", "issuer", "name of the issuer key pair")
	issueCmd.Flags().StringVar(&issueName, "name", "", "name of the credential (required)")
	issueCmd.Flags().StringArrayVar(&issueAttrs, "attr", nil, "attribute value, repeat for more")
	issueCmd.Flags().StringVar(&issueAttrsFile, "attrs-file", "", "file with one attribute per line")
	_ = issueCmd.MarkFlagRequired("name")
}
