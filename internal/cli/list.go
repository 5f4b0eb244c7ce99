package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucrnz/ripzip/internal/archive"
	"github.com/lucrnz/ripzip/internal/util"
)

var listBytes bool

var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List the entries of a ZIP archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listBytes, "bytes", "b", false, "Print sizes in bytes instead of human-readable units")
}

func runList(cmd *cobra.Command, args []string) error {
	entries, err := archive.List(args[0])
	if err != nil {
		return err
	}

	size := util.HumanReadableBytes
	if listBytes {
		size = func(n int64) string { return fmt.Sprint(n) }
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tCOMPRESSED\tMETHOD\tMODIFIED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Name, size(e.Size), size(e.CompressedSize), e.Method, e.Modified.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
