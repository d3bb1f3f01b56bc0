package cmd

import (
	"github.com/spf13/cobra"
)

// alignCmd submits the combined records to Clustal Omega
var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align the combined records with Clustal Omega at EBI",
	Long: `Align the combined records with Clustal Omega at EBI.

The job is submitted, its status is polled until it finishes or fails, and
the aligned FASTA result is saved unchanged. EBI requires a contact email.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireEmail()
	},
	RunE: alignExec,
}

func init() {
	rootCmd.AddCommand(alignCmd)

	flags := alignCmd.Flags()
	flags.StringP("in", "i", "", "multi-FASTA file to align (default combined.fasta)")
	flags.StringP("out", "o", "", "aligned FASTA file (default aligned.fasta)")
	flags.Duration("poll-interval", 0, "time between status queries (default 5s)")
	flags.Int("max-polls", 0, "status queries before giving up (default 120)")
	setting(flags, "in", "paths.combined")
	setting(flags, "out", "paths.aligned")
	setting(flags, "poll-interval", "clustal.poll-interval")
	setting(flags, "max-polls", "clustal.max-polls")
}

func alignExec(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	return newPipeline(cmd).Align(ctx)
}
