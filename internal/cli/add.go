package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucrnz/ripzip/internal/archive"
	"github.com/lucrnz/ripzip/internal/lockwait"
	"github.com/lucrnz/ripzip/internal/logging"
	"github.com/lucrnz/ripzip/internal/progress"
	"github.com/lucrnz/ripzip/internal/util"
)

var (
	addArchive    string
	addEntry      string
	addOverwrite  bool
	addMethod     string
	addBufferSize string
	addProgress   bool
	addWait       bool
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add a file to a ZIP archive",
	Long: `Add a file to a ZIP archive as a single entry.

The archive defaults to "<file>.zip" next to the file; a relative --archive is
resolved against the file's directory. An entry that already exists is kept
unless --overwrite is given. The archive is rebuilt in a temporary file and
replaced only once the new entry is complete.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	f := addCmd.Flags()
	f.StringVarP(&addArchive, "archive", "a", "", "Archive path (default \"<file>.zip\")")
	f.StringVarP(&addEntry, "entry", "e", "", "Entry name inside the archive (default: file base name)")
	f.BoolVar(&addOverwrite, "overwrite", false, "Replace an existing entry with the same name")
	f.StringVarP(&addMethod, "method", "m", "", "Compression method: store, deflate, zstd, xz (default from config: deflate)")
	f.StringVar(&addBufferSize, "buffer-size", "", "Copy buffer size, e.g. \"64KiB\" (default from config)")
	f.BoolVar(&addProgress, "progress", false, "Log progress while writing the entry")
	f.BoolVarP(&addWait, "wait", "w", false, "Wait until the file is no longer locked by another process")
}

func runAdd(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx := cmd.Context()

	method := cfg.Method
	if addMethod != "" {
		m, err := archive.ParseMethod(addMethod)
		if err != nil {
			return err
		}
		method = m
	}
	buf, err := bufferFromFlags(cmd.Flags(), addBufferSize)
	if err != nil {
		return err
	}

	if addWait {
		status(cmd, "Waiting for %s...", source)
		if err := lockwait.New(cfg.Probe.Interval, cfg.Probe.Attempts).Wait(ctx, source); err != nil {
			return err
		}
	}

	opts := archive.WriteOptions{
		Container: addArchive,
		EntryName: addEntry,
		Overwrite: addOverwrite,
		Method:    method,
		Buffer:    buf,
		Tracker:   tracker,
	}
	if addProgress {
		if size, err := fileSize(source); err == nil && size > 0 {
			opts.Progress = progress.NewLog(logging.FromContext(ctx), "add_progress", source, size, 10)
		}
	}

	h, err := archive.WriteEntry(ctx, source, opts)
	if err != nil {
		return fmt.Errorf("error adding %s: %w", source, err)
	}
	if h.Written {
		status(cmd, "✅ Added %s to %s (%s, %s)", h.Entry, h.Path, method, util.HumanReadableBytes(h.Size))
	} else {
		status(cmd, "Entry %s already exists in %s, kept (use --overwrite to replace)", h.Entry, h.Path)
	}
	output(cmd, "%s", h.Path)
	return nil
}
