package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// combineCmd merges the fetched records into one multi-FASTA file
var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Combine fetched records into one multi-FASTA file",
	Long: `Combine every record in the sequences directory, in file name order,
into one multi-FASTA file for alignment.`,
	RunE: combineExec,
}

func init() {
	rootCmd.AddCommand(combineCmd)

	flags := combineCmd.Flags()
	flags.StringP("dir", "d", "", "directory of fetched records (default sequences)")
	flags.StringP("out", "o", "", "combined FASTA file (default combined.fasta)")
	setting(flags, "dir", "paths.sequences")
	setting(flags, "out", "paths.combined")
}

func combineExec(cmd *cobra.Command, args []string) error {
	n, err := newPipeline(cmd).Combine()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d records written to %s\n", n, conf.Paths.Combined)
	return nil
}
