package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/lucrnz/ripzip/internal/cleanup"
	"github.com/lucrnz/ripzip/internal/logging"
	"github.com/lucrnz/ripzip/internal/stream"
	"github.com/lucrnz/ripzip/internal/util"
)

const maxSymlinkTarget = 4 * util.KiB

// ExtractOptions configures Extract.
type ExtractOptions struct {
	StripComponents int
	MaxBytes        int64  // total uncompressed limit, 0 = unlimited
	Buffer          []byte // nil allocates stream.DefaultBufferSize
}

// Extract unpacks the container at path into destDir with zip slip
// protection. Files created are registered with tracker until extraction
// finishes.
func Extract(ctx context.Context, tracker *cleanup.Tracker, path, destDir string, opts ExtractOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r, err := openReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	destDir, err = filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if opts.Buffer == nil {
		opts.Buffer = stream.NewBuffer(0)
	}

	var extracted int64
	var created []string
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		dest, err := extractZipFile(ctx, f, destDir, opts, &extracted)
		if err != nil {
			return err
		}
		if dest != "" {
			tracker.Register(dest)
			created = append(created, dest)
		}
	}

	for _, dest := range created {
		tracker.Unregister(dest)
	}
	logging.FromContext(ctx).Info("archive_extracted",
		"archive", path,
		"dest", destDir,
		"entries", len(created),
		"size_bytes", extracted,
		"size", util.HumanReadableBytes(extracted),
	)
	return nil
}

// extractZipFile extracts a single entry and returns the path of the file or
// symlink it created, or "" for directories and skipped entries.
func extractZipFile(ctx context.Context, f *zip.File, destDir string, opts ExtractOptions, extracted *int64) (string, error) {
	destPath, err := util.SafeJoin(destDir, f.Name, opts.StripComponents)
	if err != nil || destPath == "" {
		return "", err
	}

	mode := f.FileInfo().Mode()
	switch {
	case mode.IsDir():
		return "", os.MkdirAll(destPath, 0o755)
	case mode&os.ModeSymlink != 0:
		return destPath, extractSymlink(f, destPath, destDir, opts.StripComponents)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	size := int64(f.UncompressedSize64)
	if opts.MaxBytes > 0 && *extracted+size > opts.MaxBytes {
		return "", fmt.Errorf("extraction exceeded maximum size limit of %s", util.HumanReadableBytes(opts.MaxBytes))
	}

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open zip entry: %w", err)
	}
	defer rc.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	written, err := stream.CopyN(ctx, out, rc, opts.Buffer, size, nil)
	closeErr := out.Close()
	if err != nil {
		os.Remove(destPath)
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("failed to write file %s: %w", f.Name, err)
	}
	if written != size {
		os.Remove(destPath)
		return "", fmt.Errorf("incomplete file %s: wrote %d of %d bytes", f.Name, written, size)
	}
	if closeErr != nil {
		return destPath, fmt.Errorf("failed to close file: %w", closeErr)
	}
	*extracted += written

	// Preserve executable bit if set in archive
	if mode&0o111 != 0 {
		if err := os.Chmod(destPath, 0o755); err != nil {
			return destPath, fmt.Errorf("failed to set executable permission: %w", err)
		}
	}
	return destPath, nil
}

func extractSymlink(f *zip.File, destPath, destDir string, strip int) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open symlink entry: %w", err)
	}
	defer rc.Close()

	target, err := io.ReadAll(io.LimitReader(rc, maxSymlinkTarget+1))
	if err != nil {
		return fmt.Errorf("failed to read symlink target: %w", err)
	}
	if len(target) > maxSymlinkTarget {
		return fmt.Errorf("symlink target too long (limit %d bytes)", maxSymlinkTarget)
	}

	linkname := string(target)
	if !filepath.IsAbs(linkname) {
		linkname = util.StripPathComponents(linkname, strip)
		if linkname == "" {
			return nil
		}
	}
	if !util.IsPathSafe(filepath.Join(filepath.Dir(destPath), linkname), destDir) {
		return fmt.Errorf("symlink escape detected: %s -> %s", f.Name, linkname)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for symlink: %w", err)
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing path for symlink: %w", err)
	}
	if err := os.Symlink(linkname, destPath); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}
	return nil
}
