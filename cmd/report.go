package cmd

import (
	"github.com/spf13/cobra"
)

// reportCmd reprints the hits of a saved BLAST report
var reportCmd = &cobra.Command{
	Use:   "report [blast.xml]",
	Short: "Print the top hits of a saved BLAST XML report",
	Long: `Print the top hits of a saved BLAST XML report without searching again.
The report defaults to the one written by the last "cox1 blast".`,
	Example: `  cox1 report --hits 10 --min-identity 0.95`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    reportExec,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	flags := reportCmd.Flags()
	flags.IntP("hits", "n", 0, "hits to print (default 3)")
	flags.IntP("width", "w", 0, "symbols of each alignment row to print (default 75)")
	flags.Float64("min-identity", 0, "drop hits with a smaller fraction of identical columns, ex: 0.9")
	setting(flags, "hits", "blast.hits")
	setting(flags, "width", "blast.width")
	setting(flags, "min-identity", "blast.min-identity")
}

func reportExec(cmd *cobra.Command, args []string) error {
	path := conf.Paths.BLAST
	if len(args) > 0 {
		path = args[0]
	}

	_, err := newPipeline(cmd).ReportFile(path)
	return err
}
