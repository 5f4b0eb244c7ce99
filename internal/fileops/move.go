package fileops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/lucrnz/ripzip/internal/cleanup"
	"github.com/lucrnz/ripzip/internal/logging"
)

// MoveFile renames src to dst and returns the final path. An existing
// destination is left as it is unless overwrite is set. When src and dst are
// on different devices the file is copied and the source removed afterwards.
func MoveFile(ctx context.Context, src, dst string, overwrite bool, tracker *cleanup.Tracker) (string, error) {
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
			return dst, nil
		}
		if !overwrite {
			logger.Info("move_skipped", "source", src, "dest", dst, "reason", "exists")
			return dst, nil
		}
		if dinfo.IsDir() {
			return "", fmt.Errorf("destination %s is a directory", dst)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", dst, err)
	}

	err = os.Rename(src, dst)
	if err == nil {
		logger.Info("file_moved", "source", src, "dest", dst)
		return dst, nil
	}
	if !isCrossDevice(err) {
		return "", fmt.Errorf("move %s: %w", src, err)
	}

	logger.Debug("move_cross_device", "source", src, "dest", dst)
	if _, err := copyInto(ctx, src, dst, info, nil, nil, tracker); err != nil {
		return "", err
	}
	if err := os.Remove(src); err != nil {
		return dst, fmt.Errorf("remove %s after copy: %w", src, err)
	}
	logger.Info("file_moved", "source", src, "dest", dst, "copied", true)
	return dst, nil
}
