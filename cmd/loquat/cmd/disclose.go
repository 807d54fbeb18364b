package cmd

import (
	"fmt"
	"strconv"

	"code.cloudfoundry.org/bytefmt"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/spacemeshos/loquat/disclosing"
)

var (
	discloseCredential string
	discloseIndices    []int
	discloseName       string
	discloseOut        string
)

// discloseCmd represents the disclose command.
var discloseCmd = &cobra.Command{
	Use:   "disclose",
	Short: "Reveal a subset of a credential's attributes",
	Long: `disclose builds a presentation of the attributes at --index from a stored credential.
Every other attribute stays hidden; only its hashes along the inclusion paths are revealed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := store.LoadCredential(discloseCredential)
		if err != nil {
			return err
		}

		d, err := disclosing.DiscloseCredential(cred, discloseIndices, disclosing.WithLogger(logger))
		if err != nil {
			return err
		}

		data, err := store.Codec().EncodeDisclosure(d)
		if err != nil {
			return err
		}
		path := discloseOut
		if path == "" {
			name := discloseName
			if name == "" {
				name = discloseCredential
			}
			path = store.Layout().DisclosureFile(name)
		}
		if err := store.WriteFile(path, data); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"index", "value", "proof"})
		table.SetBorder(true)
		for _, a := range d.Attributes {
			table.Append([]string{
				strconv.Itoa(a.Index),
				string(a.Value),
				fmt.Sprintf("%d steps", d.Proofs[a.Index].Len()),
			})
		}
		table.SetFooter([]string{"", fmt.Sprintf("%d of %d", len(d.Attributes), len(cred.Attributes)), bytefmt.ByteSize(uint64(len(data)))})
		table.Render()

		fmt.Fprintf(out, "disclosure: %v\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discloseCmd)

	discloseCmd.Flags().StringVar(&discloseCredential, "credential", "", "name of the credential (required)")
	discloseCmd.Flags().IntSliceVar(&discloseIndices, "index", nil, "index of an attribute to reveal, repeat or comma separate for more (required)")
	discloseCmd.Flags().StringVar(&discloseName, "name", "", "name of the disclosure (default: the credential name)")
	discloseCmd.Flags().StringVar(&discloseOut, "out", "", "write the disclosure to this path instead of the data dir")
	_ = discloseCmd.MarkFlagRequired("credential")
	_ = discloseCmd.MarkFlagRequired("index")
}
