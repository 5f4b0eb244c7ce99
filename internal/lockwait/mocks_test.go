package lockwait

import (
	"context"
	"time"
)

// fakeFile scripts the result of each open attempt. Attempts past the end of
// results repeat the last entry.
type fakeFile struct {
	results []openResult
	opens   int
	sleeps  []time.Duration
	// onSleep runs inside sleep; a non-nil return aborts the probe.
	onSleep func(n int) error
}

type openResult struct {
	size int64
	err  error
}

func (f *fakeFile) open(string) (int64, error) {
	f.opens++
	i := f.opens - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r.size, r.err
}

func (f *fakeFile) sleep(ctx context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	if f.onSleep != nil {
		return f.onSleep(len(f.sleeps))
	}
	return ctx.Err()
}

func (f *fakeFile) probe(interval time.Duration, attempts int) *Probe {
	p := New(interval, attempts)
	p.open = f.open
	p.sleep = f.sleep
	return p
}
