// Package cleanup removes partially written files (temporary containers and
// copy destinations) when an operation fails or the process is interrupted.
package cleanup

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"
)

var logger = slog.Default()

// SetLogger overrides the cleanup logger (useful for CLI configured logging).
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Tracker tracks files that should be removed if the operation writing them
// does not complete. A nil *Tracker is valid and tracks nothing.
type Tracker struct {
	files map[string]struct{}
	mu    sync.Mutex
}

// NewTracker creates a new cleanup tracker
func NewTracker() *Tracker {
	return &Tracker{
		files: make(map[string]struct{}),
	}
}

// Register adds a file path to the cleanup list
func (t *Tracker) Register(path string) {
	if t == nil || path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files[path] = struct{}{}
}

// Unregister removes a file path from the cleanup list, typically once the
// file is complete and has reached its final name.
func (t *Tracker) Unregister(path string) {
	if t == nil || path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.files, path)
}

// Discard deletes a registered file right away and stops tracking it.
// A file that is already gone is not an error.
func (t *Tracker) Discard(path string) error {
	t.Unregister(path)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// GetAll returns the registered files in sorted order.
func (t *Tracker) GetAll() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	files := make([]string, 0, len(t.files))
	for path := range t.files {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// Cleanup removes all registered files
func (t *Tracker) Cleanup() {
	if t == nil {
		return
	}
	t.mu.Lock()
	files := make([]string, 0, len(t.files))
	for path := range t.files {
		files = append(files, path)
	}
	t.files = make(map[string]struct{})
	t.mu.Unlock()

	for _, path := range files {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			// Best effort cleanup - errors are non-critical
			logger.Warn("cleanup_failed", "file", path, "error", err)
			continue
		}
		logger.Debug("cleanup_removed", "file", path)
	}
}
