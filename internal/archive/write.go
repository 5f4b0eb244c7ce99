// Package archive adds files to ZIP containers and reads them back.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/lucrnz/ripzip/internal/cleanup"
	"github.com/lucrnz/ripzip/internal/logging"
	"github.com/lucrnz/ripzip/internal/progress"
	"github.com/lucrnz/ripzip/internal/stream"
	"github.com/lucrnz/ripzip/internal/util"
)

// ErrDirectoryResolution is returned when a relative container path cannot be
// resolved because the source file's directory cannot be determined.
var ErrDirectoryResolution = errors.New("cannot resolve source directory")

// getwd is replaced in tests.
var getwd = os.Getwd

// WriteOptions configures WriteEntry.
type WriteOptions struct {
	// Container is the archive path. Empty means "<source>.zip"; a relative
	// path is resolved against the source file's directory.
	Container string
	// EntryName defaults to the source file's base name.
	EntryName string
	// Overwrite replaces an existing entry with the same name. Without it an
	// existing entry is left alone and WriteEntry succeeds without writing.
	Overwrite bool
	Method    Method // zero value stores without compression
	// Buffer is reused for every chunk; nil allocates stream.DefaultBufferSize.
	Buffer   []byte
	Progress progress.Reporter
	Tracker  *cleanup.Tracker
}

// Handle identifies the container an entry was written to.
type Handle struct {
	Path    string // absolute container path
	Entry   string
	Written bool  // false when an existing entry was kept
	Size    int64 // bytes streamed into the entry
}

// WriteEntry adds source to a ZIP container as a single entry, replacing an
// entry of the same name when opts.Overwrite is set.
//
// The container is rebuilt in a temporary file next to it: retained entries
// are copied without recompression, the new entry is streamed from source,
// and the result is renamed over the container. On failure or cancellation
// the temporary file is removed and the container is left as it was.
func WriteEntry(ctx context.Context, source string, opts WriteOptions) (*Handle, error) {
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("source file %s not found: %w", source, err)
		}
		return nil, fmt.Errorf("stat %s: %w", source, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: source %s is a directory", stream.ErrInvalidArgument, source)
	}
	if _, ok := methodNames[opts.Method]; !ok {
		return nil, fmt.Errorf("%w: unsupported compression method %s", stream.ErrInvalidArgument, opts.Method)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	container, err := ResolveContainer(source, opts.Container)
	if err != nil {
		return nil, err
	}
	entry := opts.EntryName
	if entry == "" {
		entry = filepath.Base(source)
	}
	entry = filepath.ToSlash(entry)
	buf := opts.Buffer
	if buf == nil {
		buf = stream.NewBuffer(0)
	}
	logger := logging.FromContext(ctx)

	existing, mode, err := openContainer(container)
	if err != nil {
		return nil, err
	}
	closeExisting := func() {
		if existing != nil {
			existing.Close()
			existing = nil
		}
	}
	defer closeExisting()

	replacing := false
	if existing != nil && findEntry(&existing.Reader, entry) != nil {
		if !opts.Overwrite {
			logger.Info("archive_entry_exists", "archive", container, "entry", entry)
			return &Handle{Path: container, Entry: entry}, nil
		}
		replacing = true
	}

	tmp, err := os.CreateTemp(filepath.Dir(container), "."+filepath.Base(container)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temporary archive: %w", err)
	}
	tmpPath := tmp.Name()
	opts.Tracker.Register(tmpPath)
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			if err := opts.Tracker.Discard(tmpPath); err != nil {
				logger.Warn("cleanup_failed", "file", tmpPath, "error", err)
			}
		}
	}()

	zw := zip.NewWriter(tmp)
	registerCompressors(zw)

	if existing != nil {
		if err := zw.SetComment(existing.Comment); err != nil {
			return nil, fmt.Errorf("copy archive comment: %w", err)
		}
		for _, f := range existing.File {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if f.Name == entry {
				continue
			}
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copy entry %s: %w", f.Name, err)
			}
		}
	}

	n, err := writeFileEntry(ctx, zw, source, info, entry, opts.Method, buf, opts.Progress)
	if err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return nil, fmt.Errorf("set archive permissions: %w", err)
	}
	closeExisting()
	if err := os.Rename(tmpPath, container); err != nil {
		return nil, fmt.Errorf("replace archive %s: %w", container, err)
	}
	committed = true
	opts.Tracker.Unregister(tmpPath)

	logger.Info("archive_entry_written",
		"archive", container,
		"entry", entry,
		"method", opts.Method.String(),
		"replaced", replacing,
		"size_bytes", n,
		"size", util.HumanReadableBytes(n),
	)
	return &Handle{Path: container, Entry: entry, Written: true, Size: n}, nil
}

// writeFileEntry creates entry in zw and streams source into it.
func writeFileEntry(ctx context.Context, zw *zip.Writer, source string, info fs.FileInfo, entry string, method Method, buf []byte, rep progress.Reporter) (int64, error) {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, fmt.Errorf("entry header for %s: %w", source, err)
	}
	hdr.Name = entry
	hdr.Method = uint16(method)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return 0, fmt.Errorf("create entry %s: %w", entry, err)
	}

	src, err := os.Open(source)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", source, err)
	}
	defer src.Close()

	var n int64
	if rep != nil && info.Size() > 0 {
		n, err = stream.CopyN(ctx, w, src, buf, info.Size(), rep)
	} else {
		n, err = stream.Copy(ctx, w, src, buf)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return n, err
		}
		return n, fmt.Errorf("write entry %s: %w", entry, err)
	}
	return n, nil
}

// ResolveContainer returns the absolute container path for source. An empty
// container selects "<source>.zip"; a relative one is placed in the source
// file's directory.
func ResolveContainer(source, container string) (string, error) {
	if container != "" && filepath.IsAbs(container) {
		return filepath.Clean(container), nil
	}

	absSource := source
	if !filepath.IsAbs(source) {
		wd, err := getwd()
		if err != nil {
			return "", fmt.Errorf("%w for %s: %w", ErrDirectoryResolution, source, err)
		}
		absSource = filepath.Join(wd, source)
	}
	absSource = filepath.Clean(absSource)

	if container == "" {
		return absSource + ".zip", nil
	}
	return filepath.Join(filepath.Dir(absSource), container), nil
}

// openContainer opens an existing, non-empty container for reading. It
// returns a nil reader when there is nothing to carry over, along with the
// permissions the rebuilt container should get.
func openContainer(path string) (*zip.ReadCloser, fs.FileMode, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, 0o644, nil
	case err != nil:
		return nil, 0, fmt.Errorf("stat archive %s: %w", path, err)
	case info.IsDir():
		return nil, 0, fmt.Errorf("%w: archive %s is a directory", stream.ErrInvalidArgument, path)
	case info.Size() == 0:
		return nil, info.Mode().Perm(), nil
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open archive %s: %w", path, err)
	}
	registerDecompressors(&r.Reader)
	return r, info.Mode().Perm(), nil
}

func findEntry(r *zip.Reader, name string) *zip.File {
	for _, f := range r.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
