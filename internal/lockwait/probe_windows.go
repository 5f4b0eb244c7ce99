//go:build windows

package lockwait

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// openShared opens path for reading. Sharing and lock violations mean another
// process opened the file without read sharing, or locked a range of it.
func openShared(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, windows.ERROR_SHARING_VIOLATION) || errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return 0, fmt.Errorf("%w: %w", ErrContended, err)
		}
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}
