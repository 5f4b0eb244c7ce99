// Package stream implements the chunked, cancellable copy loop shared by file
// copies, digests and archive entries.
//
// A copy owns one fixed buffer for its whole duration and alternates strictly
// between reading into it and writing it out. Cancellation is checked before
// every read and again between a read and its write, so a cancelled copy never
// issues further I/O.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lucrnz/ripzip/internal/progress"
	"github.com/lucrnz/ripzip/internal/util"
)

// DefaultBufferSize is the buffer length used when callers do not supply one.
const DefaultBufferSize = 4 * util.KiB

// ErrInvalidArgument reports a malformed copy call. No I/O has been attempted
// when it is returned.
var ErrInvalidArgument = errors.New("invalid argument")

// NewBuffer allocates a copy buffer of size bytes, or DefaultBufferSize when
// size is not positive.
func NewBuffer(size int) []byte {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return make([]byte, size)
}

// Copy copies from src to dst through buf until src is exhausted. It returns
// the number of bytes written.
//
// A read returning io.EOF, or zero bytes with no error, ends the copy.
// Read and write errors are returned wrapped and are not retried. If ctx is
// cancelled, ctx.Err() is returned as is.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	if err := validate(dst, src, buf); err != nil {
		return 0, err
	}
	return copyLoop(ctx, dst, src, buf, -1, nil)
}

// CopyN copies at most length bytes from src to dst through buf. If rep is
// non-nil it receives the completion fraction each time it advances by at
// least progress.MinStep; length must then be positive.
//
// Reaching length, io.EOF or a zero-byte read ends the copy. A source shorter
// than length is not an error; callers compare the returned count.
func CopyN(ctx context.Context, dst io.Writer, src io.Reader, buf []byte, length int64, rep progress.Reporter) (int64, error) {
	if err := validate(dst, src, buf); err != nil {
		return 0, err
	}
	if length < 0 {
		return 0, fmt.Errorf("%w: negative target length %d", ErrInvalidArgument, length)
	}
	if rep != nil && length == 0 {
		return 0, fmt.Errorf("%w: progress reporting needs a positive target length", ErrInvalidArgument)
	}
	return copyLoop(ctx, dst, src, buf, length, rep)
}

func validate(dst io.Writer, src io.Reader, buf []byte) error {
	if src == nil {
		return fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	if dst == nil {
		return fmt.Errorf("%w: nil destination", ErrInvalidArgument)
	}
	if len(buf) == 0 {
		return fmt.Errorf("%w: empty copy buffer", ErrInvalidArgument)
	}
	return nil
}

// copyLoop runs the read/write cycle. A negative length means unbounded.
func copyLoop(ctx context.Context, dst io.Writer, src io.Reader, buf []byte, length int64, rep progress.Reporter) (int64, error) {
	var written int64
	var last float64

	for length < 0 || written < length {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		chunk := buf
		if length >= 0 {
			if remaining := length - written; remaining < int64(len(chunk)) {
				chunk = chunk[:remaining]
			}
		}

		n, rerr := src.Read(chunk)
		if n > 0 {
			if err := ctx.Err(); err != nil {
				return written, err
			}
			nw, werr := dst.Write(chunk[:n])
			if nw > 0 {
				written += int64(nw)
			}
			if werr != nil {
				return written, fmt.Errorf("write: %w", werr)
			}
			if nw != n {
				return written, io.ErrShortWrite
			}
			if rep != nil {
				if ok, frac := progress.Step(written, length, last); ok {
					last = frac
					rep.Report(frac)
				}
			}
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return written, fmt.Errorf("read: %w", rerr)
		}
		if n == 0 {
			break
		}
	}

	return written, nil
}
