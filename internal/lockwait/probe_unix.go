//go:build !windows

package lockwait

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// openShared opens path for reading and takes a non-blocking shared flock so
// that an exclusive lock held elsewhere is seen as contention.
func openShared(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_SH|unix.LOCK_NB); err != nil {
		switch {
		case errors.Is(err, unix.EWOULDBLOCK), errors.Is(err, unix.EAGAIN):
			return 0, fmt.Errorf("%w: flock %s: %w", ErrContended, path, err)
		case errors.Is(err, unix.ENOLCK), errors.Is(err, unix.EOPNOTSUPP), errors.Is(err, unix.ENOSYS):
			// filesystem without flock support; fall through to the size check
		default:
			return 0, fmt.Errorf("flock %s: %w", path, err)
		}
	} else {
		defer unix.Flock(fd, unix.LOCK_UN)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}
