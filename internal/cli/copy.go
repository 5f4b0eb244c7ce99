package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucrnz/ripzip/internal/fileops"
	"github.com/lucrnz/ripzip/internal/logging"
	"github.com/lucrnz/ripzip/internal/progress"
)

var (
	copyOverwrite  bool
	copyRename     bool
	copyBufferSize string
	copyProgress   bool
)

var copyCmd = &cobra.Command{
	Use:   "copy <src> <dst>",
	Short: "Copy a file in fixed-size chunks",
	Long: `Copy a file in fixed-size chunks.

If <dst> is a directory the file keeps its name inside it. An existing
destination is kept unless --overwrite or --rename-on-conflict is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runCopy,
}

func init() {
	f := copyCmd.Flags()
	f.BoolVar(&copyOverwrite, "overwrite", false, "Replace an existing destination")
	f.BoolVar(&copyRename, "rename-on-conflict", false, "Write to \"name (n).ext\" when the destination exists")
	f.StringVar(&copyBufferSize, "buffer-size", "", "Copy buffer size, e.g. \"64KiB\" (default from config)")
	f.BoolVar(&copyProgress, "progress", false, "Log copy progress")
	copyCmd.MarkFlagsMutuallyExclusive("overwrite", "rename-on-conflict")
}

func runCopy(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]
	ctx := cmd.Context()

	buf, err := bufferFromFlags(cmd.Flags(), copyBufferSize)
	if err != nil {
		return err
	}
	opts := fileops.CopyOptions{
		Overwrite:        copyOverwrite,
		RenameOnConflict: copyRename,
		Buffer:           buf,
		Tracker:          tracker,
	}
	if copyProgress {
		if size, err := fileSize(src); err == nil && size > 0 {
			opts.Progress = progress.NewLog(logging.FromContext(ctx), "copy_progress", src, size, 10)
		}
	}

	written, err := fileops.CopyFile(ctx, src, dst, opts)
	if err != nil {
		return fmt.Errorf("error copying %s: %w", src, err)
	}
	status(cmd, "✅ Copied %s to %s", src, written)
	output(cmd, "%s", written)
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
