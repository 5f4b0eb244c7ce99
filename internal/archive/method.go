package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Method is a ZIP compression method id.
type Method uint16

// Supported entry compression methods.
const (
	Store   Method = Method(zip.Store)
	Deflate Method = Method(zip.Deflate)
	Zstd    Method = Method(zstd.ZipMethodWinZip)
	XZ      Method = 95
)

var methodNames = map[Method]string{
	Store:   "store",
	Deflate: "deflate",
	Zstd:    "zstd",
	XZ:      "xz",
}

// ParseMethod maps a method name ("store", "deflate", "zstd", "xz") to its id.
func ParseMethod(s string) (Method, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	if want == "" {
		return Deflate, nil
	}
	for m, name := range methodNames {
		if name == want {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unsupported compression method %q: use store, deflate, zstd or xz", s)
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", uint16(m))
}

// registerCompressors adds the methods that klauspost/compress/zip does not
// provide out of the box.
func registerCompressors(w *zip.Writer) {
	w.RegisterCompressor(uint16(Zstd), zstd.ZipCompressor())
	w.RegisterCompressor(uint16(XZ), func(out io.Writer) (io.WriteCloser, error) {
		return &lazyXZWriter{out: out}, nil
	})
}

// lazyXZWriter defers creating the xz stream until the first Write or Close.
// xz.NewWriter emits the stream header immediately, and the zip writer builds
// the compressor before it writes the local file header.
type lazyXZWriter struct {
	out io.Writer
	xw  *xz.Writer
}

func (w *lazyXZWriter) init() error {
	if w.xw != nil {
		return nil
	}
	xw, err := xz.NewWriter(w.out)
	if err != nil {
		return err
	}
	w.xw = xw
	return nil
}

func (w *lazyXZWriter) Write(p []byte) (int, error) {
	if err := w.init(); err != nil {
		return 0, err
	}
	return w.xw.Write(p)
}

func (w *lazyXZWriter) Close() error {
	if err := w.init(); err != nil {
		return err
	}
	return w.xw.Close()
}

func registerDecompressors(r *zip.Reader) {
	r.RegisterDecompressor(uint16(Zstd), zstd.ZipDecompressor())
	r.RegisterDecompressor(uint16(XZ), func(in io.Reader) io.ReadCloser {
		xr, err := xz.NewReader(in)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return io.NopCloser(xr)
	})
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
