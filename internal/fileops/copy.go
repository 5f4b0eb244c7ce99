// Package fileops copies, moves and hashes plain files through the chunked
// copy engine.
package fileops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucrnz/ripzip/internal/cleanup"
	"github.com/lucrnz/ripzip/internal/logging"
	"github.com/lucrnz/ripzip/internal/progress"
	"github.com/lucrnz/ripzip/internal/stream"
	"github.com/lucrnz/ripzip/internal/util"
)

// CopyOptions configures CopyFile.
type CopyOptions struct {
	// Overwrite replaces an existing destination. Without it (and without
	// RenameOnConflict) an existing destination is returned untouched.
	Overwrite bool
	// RenameOnConflict writes to the first free "name (n).ext" instead.
	RenameOnConflict bool
	Buffer           []byte
	Progress         progress.Reporter
	Tracker          *cleanup.Tracker
}

// CopyFile copies src to dst and returns the path written. If dst is an
// existing directory the copy keeps src's base name inside it.
//
// Data goes to a temporary file beside the destination that is renamed into
// place once complete, so a failed or cancelled copy never leaves a partial
// destination behind.
func CopyFile(ctx context.Context, src, dst string, opts CopyOptions) (string, error) {
	info, err := statSource(src)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst, err = resolveDestination(src, dst)
	if err != nil {
		return "", err
	}
	logger := logging.FromContext(ctx)

	if dinfo, err := os.Stat(dst); err == nil {
		if os.SameFile(info, dinfo) {
			return "", fmt.Errorf("%w: %s and %s are the same file", stream.ErrInvalidArgument, src, dst)
		}
		switch {
		case opts.RenameOnConflict:
			if dst, err = freeSibling(dst); err != nil {
				return "", err
			}
		case !opts.Overwrite:
			logger.Info("copy_skipped", "source", src, "dest", dst, "reason", "exists")
			return dst, nil
		case dinfo.IsDir():
			return "", fmt.Errorf("%w: destination %s is a directory", stream.ErrInvalidArgument, dst)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", dst, err)
	}

	n, err := copyInto(ctx, src, dst, info, opts.Buffer, opts.Progress, opts.Tracker)
	if err != nil {
		return "", err
	}

	logger.Info("file_copied",
		"source", src,
		"dest", dst,
		"size_bytes", n,
		"size", util.HumanReadableBytes(n),
	)
	return dst, nil
}

// copyInto streams src into a temporary sibling of dst and renames it over
// dst.
func copyInto(ctx context.Context, src, dst string, info fs.FileInfo, buf []byte, rep progress.Reporter, tracker *cleanup.Tracker) (int64, error) {
	if buf == nil {
		buf = stream.NewBuffer(0)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	tracker.Register(tmpPath)
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			if err := tracker.Discard(tmpPath); err != nil {
				logging.FromContext(ctx).Warn("cleanup_failed", "file", tmpPath, "error", err)
			}
		}
	}()

	var n int64
	if rep != nil && info.Size() > 0 {
		n, err = stream.CopyN(ctx, tmp, in, buf, info.Size(), rep)
	} else {
		n, err = stream.Copy(ctx, tmp, in, buf)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return n, err
		}
		return n, fmt.Errorf("copy %s: %w", src, err)
	}

	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("sync %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", dst, err)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return n, fmt.Errorf("set permissions on %s: %w", dst, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return n, fmt.Errorf("rename into %s: %w", dst, err)
	}
	committed = true
	tracker.Unregister(tmpPath)
	return n, nil
}

func statSource(src string) (fs.FileInfo, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("source file %s not found: %w", src, err)
		}
		return nil, fmt.Errorf("stat %s: %w", src, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: source %s is a directory", stream.ErrInvalidArgument, src)
	}
	return info, nil
}

// resolveDestination places src inside dst when dst is an existing
// directory or ends in a path separator.
func resolveDestination(src, dst string) (string, error) {
	if dst == "" {
		return "", fmt.Errorf("%w: empty destination", stream.ErrInvalidArgument)
	}
	if strings.HasSuffix(dst, string(filepath.Separator)) || strings.HasSuffix(dst, "/") {
		return filepath.Join(dst, filepath.Base(src)), nil
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		return filepath.Join(dst, filepath.Base(src)), nil
	}
	return dst, nil
}

// freeSibling returns the first "name (n).ext" next to path that does not
// exist yet.
func freeSibling(path string) (string, error) {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := util.NameWithoutExtension(base)

	entries, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return "", fmt.Errorf("read directory %s: %w", dir, err)
	}
	var taken []string
	for _, e := range entries {
		if name := e.Name(); filepath.Ext(name) == ext {
			taken = append(taken, strings.TrimSuffix(name, ext))
		}
	}
	return filepath.Join(dir, util.FreeName(stem, taken, util.DefaultNamePattern)+ext), nil
}
