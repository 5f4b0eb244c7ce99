package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucrnz/ripzip/internal/fileops"
)

var (
	digestAlgo       string
	digestCheck      string
	digestBufferSize string
)

var digestCmd = &cobra.Command{
	Use:   "digest <file>...",
	Short: "Print or verify file digests",
	Long: `Print the digest of each file in "<hex>  <file>" form, or verify a single
file against --check "<algo>:<hex>".

Supported algorithms: ` + strings.Join(fileops.Algorithms(), ", "),
	Args: cobra.MinimumNArgs(1),
	RunE: runDigest,
}

func init() {
	f := digestCmd.Flags()
	f.StringVarP(&digestAlgo, "algo", "a", fileops.DefaultAlgorithm, "Hash algorithm")
	f.StringVarP(&digestCheck, "check", "c", "", "Expected hash with algorithm prefix (e.g., sha256:xxxxx...)")
	f.StringVar(&digestBufferSize, "buffer-size", "", "Read buffer size (default from config)")
}

func runDigest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	buf, err := bufferFromFlags(cmd.Flags(), digestBufferSize)
	if err != nil {
		return err
	}

	if digestCheck != "" {
		if len(args) != 1 {
			return fmt.Errorf("--check verifies exactly one file, got %d", len(args))
		}
		if err := fileops.Verify(ctx, args[0], digestCheck, buf); err != nil {
			return err
		}
		status(cmd, "✅ Hash verified: %s", args[0])
		return nil
	}

	for _, path := range args {
		sum, err := fileops.Digest(ctx, path, digestAlgo, buf)
		if err != nil {
			return err
		}
		output(cmd, "%s  %s", sum, path)
	}
	return nil
}
