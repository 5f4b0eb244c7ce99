package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucrnz/ripzip/internal/fileops"
)

var moveOverwrite bool

var moveCmd = &cobra.Command{
	Use:   "move <src> <dst>",
	Short: "Move or rename a file",
	Long: `Move or rename a file. Across filesystems the file is copied in chunks and
the source removed afterwards. An existing destination is kept unless
--overwrite is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func init() {
	moveCmd.Flags().BoolVar(&moveOverwrite, "overwrite", false, "Replace an existing destination")
}

func runMove(cmd *cobra.Command, args []string) error {
	dst, err := fileops.MoveFile(cmd.Context(), args[0], args[1], moveOverwrite, tracker)
	if err != nil {
		return fmt.Errorf("error moving %s: %w", args[0], err)
	}
	status(cmd, "✅ Moved %s to %s", args[0], dst)
	output(cmd, "%s", dst)
	return nil
}
