// Package lockwait waits for files that another process is still writing or
// holding locked.
//
// A probe repeatedly opens the file for shared reading. It succeeds once the
// open works and the file has a positive size. Contention (another process
// holds a conflicting lock) and zero-length files are retried after a sleep;
// any other failure is returned at once.
//
// The positive-size check assumes the writer grows the file as it goes. A
// writer that pre-allocates the full length before writing content passes the
// probe early.
package lockwait

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/lucrnz/ripzip/internal/logging"
)

// Defaults used by the CLI and by New when given non-positive values.
const (
	DefaultInterval = time.Second
	DefaultAttempts = 100
)

var (
	// ErrStillLocked is matched by the error returned when every attempt failed.
	ErrStillLocked = errors.New("file is locked by another process")

	// ErrContended marks an open or lock failure caused by another process
	// holding a conflicting lock. These failures are retried.
	ErrContended = errors.New("file is in use by another process")

	errEmpty = errors.New("file is empty")
)

// LockedError is returned when a probe runs out of attempts.
type LockedError struct {
	Path     string
	Attempts int
	Err      error // failure seen on the last attempt
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("file %s is still locked after %d attempts", e.Path, e.Attempts)
}

// Is reports whether target is ErrStillLocked.
func (e *LockedError) Is(target error) bool { return target == ErrStillLocked }

func (e *LockedError) Unwrap() error { return e.Err }

// Probe holds the retry budget for waiting on a file. A Probe has no per-call
// state and may be shared by concurrent Wait calls. A Probe literal is usable
// as is; New additionally fills in defaults for non-positive values.
type Probe struct {
	Interval    time.Duration
	MaxAttempts int

	// open opens path for shared reading and returns its size.
	open func(path string) (int64, error)
	// sleep pauses for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a probe sleeping interval between attempts, for at most
// maxAttempts attempts. Non-positive values select the defaults.
func New(interval time.Duration, maxAttempts int) *Probe {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultAttempts
	}
	return &Probe{
		Interval:    interval,
		MaxAttempts: maxAttempts,
		open:        openShared,
		sleep:       sleepContext,
	}
}

// WaitUntilAvailable waits until path can be opened for shared reading and has
// a positive size. See Probe.Wait.
func WaitUntilAvailable(ctx context.Context, path string, interval time.Duration, maxAttempts int) error {
	if maxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", maxAttempts)
	}
	return New(interval, maxAttempts).Wait(ctx, path)
}

// Wait probes path until it becomes available, the attempts run out, ctx is
// done, or a failure that is not worth retrying occurs. A missing file is
// reported with an error wrapping fs.ErrNotExist.
func (p *Probe) Wait(ctx context.Context, path string) error {
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", p.MaxAttempts)
	}
	logger := logging.FromContext(ctx)
	open, sleep := p.open, p.sleep
	if open == nil {
		open = openShared
	}
	if sleep == nil {
		sleep = sleepContext
	}

	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		size, err := open(path)
		switch {
		case err == nil && size > 0:
			logger.Debug("probe_available", "file", path, "attempt", attempt, "size_bytes", size)
			return nil
		case err == nil:
			last = errEmpty
		case errors.Is(err, ErrContended):
			last = err
		case errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("file %s not found: %w", path, err)
		default:
			return fmt.Errorf("probe %s: %w", path, err)
		}

		if attempt == p.MaxAttempts {
			break
		}
		logger.Debug("probe_retry",
			"file", path,
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"reason", last.Error(),
			"retry_in", p.Interval.String(),
		)
		if err := sleep(ctx, p.Interval); err != nil {
			return err
		}
	}

	logger.Warn("probe_exhausted", "file", path, "attempts", p.MaxAttempts)
	return &LockedError{Path: path, Attempts: p.MaxAttempts, Err: last}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
