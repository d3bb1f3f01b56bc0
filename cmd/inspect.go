package cmd

import (
	"github.com/spf13/cobra"
)

// inspectCmd summarizes an aligned FASTA file
var inspectCmd = &cobra.Command{
	Use:   "inspect [aligned.fasta]",
	Short: "Print an alignment's length and the start of each record",
	Args:  cobra.MaximumNArgs(1),
	RunE:  inspectExec,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	flags := inspectCmd.Flags()
	flags.IntP("width", "w", 0, "columns of each record to print (default 50)")
	setting(flags, "width", "clustal.width")
}

func inspectExec(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		conf.Paths.Aligned = args[0]
	}
	return newPipeline(cmd).Inspect()
}
