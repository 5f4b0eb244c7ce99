package stream

import (
	"errors"
	"io"
)

var errBoom = errors.New("boom")

// recordingWriter records the size of every Write call.
type recordingWriter struct {
	data   []byte
	writes []int
	after  func(call int) // invoked after each successful write, 1-based
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	w.writes = append(w.writes, len(p))
	if w.after != nil {
		w.after(len(w.writes))
	}
	return len(p), nil
}

// countingReader wraps a reader and counts Read calls. before runs ahead of
// each call, 1-based.
type countingReader struct {
	r      io.Reader
	reads  int
	before func(call int)
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	if c.before != nil {
		c.before(c.reads)
	}
	return c.r.Read(p)
}

// eofWithDataReader returns all of its data together with io.EOF.
type eofWithDataReader struct {
	data []byte
	done bool
}

func (r *eofWithDataReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	r.done = true
	n := copy(p, r.data)
	return n, io.EOF
}

// emptyReader returns zero bytes and no error.
type emptyReader struct{ reads int }

func (r *emptyReader) Read(p []byte) (int, error) {
	r.reads++
	return 0, nil
}

// failingReader returns data once and then an error.
type failingReader struct{ calls int }

func (r *failingReader) Read(p []byte) (int, error) {
	r.calls++
	if r.calls == 1 {
		return copy(p, "abc"), nil
	}
	return 0, errBoom
}

// shortWriter accepts one byte less than asked.
type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return len(p) - 1, nil
}

// errWriter always fails.
type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 0, errBoom }

// panicReader fails the test if it is ever read.
type panicReader struct{}

func (panicReader) Read(p []byte) (int, error) { panic("unexpected read") }
