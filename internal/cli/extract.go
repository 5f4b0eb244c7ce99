package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucrnz/ripzip/internal/archive"
	"github.com/lucrnz/ripzip/internal/util"
)

var (
	extractDir         string
	stripComponents    int
	extractMaxBytesStr string
	extractBufferSize  string
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive>",
	Short: "Extract a ZIP archive",
	Long: `Extract a ZIP archive, including entries written with zstd or xz.
Entries that would land outside the destination directory are rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractDir, "chdir", "C", ".", "Destination directory")
	f.IntVar(&stripComponents, "strip-components", 0, "Strip N leading components from file names during extraction")
	f.StringVar(&extractMaxBytesStr, "max-bytes", "8GiB", "Maximum total bytes to extract (0 = unlimited)")
	f.StringVar(&extractBufferSize, "buffer-size", "", "Copy buffer size (default from config)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	// Validate strip-components
	if stripComponents < 0 {
		return fmt.Errorf("--strip-components must be non-negative, got %d", stripComponents)
	}
	maxBytes, err := util.ParseByteSize(extractMaxBytesStr)
	if err != nil {
		return fmt.Errorf("invalid --max-bytes value: %w", err)
	}
	buf, err := bufferFromFlags(cmd.Flags(), extractBufferSize)
	if err != nil {
		return err
	}

	status(cmd, "Extracting %s...", args[0])
	opts := archive.ExtractOptions{
		StripComponents: stripComponents,
		MaxBytes:        maxBytes,
		Buffer:          buf,
	}
	if err := archive.Extract(cmd.Context(), tracker, args[0], extractDir, opts); err != nil {
		return fmt.Errorf("error extracting archive: %w", err)
	}
	status(cmd, "✅ Extraction complete")
	return nil
}
