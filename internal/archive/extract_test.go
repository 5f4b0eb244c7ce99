package archive

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucrnz/ripzip/internal/cleanup"
)

func TestExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	writeFile(t, a, "alpha")
	writeFile(t, b, "bravo")
	container := filepath.Join(dir, "out.zip")

	_, err := WriteEntry(context.Background(), a, WriteOptions{Container: container, Method: Zstd})
	require.NoError(t, err)
	_, err = WriteEntry(context.Background(), b, WriteOptions{Container: container, EntryName: "sub/b.txt", Method: XZ})
	require.NoError(t, err)

	dest := t.TempDir()
	tracker := cleanup.NewTracker()
	require.NoError(t, Extract(context.Background(), tracker, container, dest, ExtractOptions{}))

	got, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))
	got, err = os.ReadFile(filepath.Join(dest, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(got))
	assert.Empty(t, tracker.GetAll())
}

func TestExtractStripComponents(t *testing.T) {
	container := filepath.Join(t.TempDir(), "x.zip")
	writeRawZip(t, container, func(zw *zip.Writer) {
		w, err := zw.Create("top/inner/file.txt")
		require.NoError(t, err)
		_, err = w.Write([]byte("deep"))
		require.NoError(t, err)
	})

	dest := t.TempDir()
	require.NoError(t, Extract(context.Background(), nil, container, dest, ExtractOptions{StripComponents: 1}))
	got, err := os.ReadFile(filepath.Join(dest, "inner", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "deep", string(got))
}

func TestExtractRejectsZipSlip(t *testing.T) {
	container := filepath.Join(t.TempDir(), "evil.zip")
	writeRawZip(t, container, func(zw *zip.Writer) {
		w, err := zw.Create("../../escape.txt")
		require.NoError(t, err)
		_, err = w.Write([]byte("x"))
		require.NoError(t, err)
	})

	parent := t.TempDir()
	dest := filepath.Join(parent, "a", "b")
	require.NoError(t, os.MkdirAll(dest, 0o755))

	err := Extract(context.Background(), nil, container, dest, ExtractOptions{})
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(parent, "escape.txt"))
}

func TestExtractMaxBytes(t *testing.T) {
	container := filepath.Join(t.TempDir(), "big.zip")
	writeRawZip(t, container, func(zw *zip.Writer) {
		w, err := zw.Create("big.txt")
		require.NoError(t, err)
		_, err = w.Write(make([]byte, 2048))
		require.NoError(t, err)
	})

	err := Extract(context.Background(), nil, container, t.TempDir(), ExtractOptions{MaxBytes: 1024})
	assert.ErrorContains(t, err, "maximum size")
}

func TestExtractSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	container := filepath.Join(t.TempDir(), "links.zip")
	writeRawZip(t, container, func(zw *zip.Writer) {
		w, err := zw.Create("target.txt")
		require.NoError(t, err)
		_, err = w.Write([]byte("t"))
		require.NoError(t, err)

		hdr := &zip.FileHeader{Name: "link.txt", Method: zip.Store}
		hdr.SetMode(os.ModeSymlink | 0o777)
		w, err = zw.CreateHeader(hdr)
		require.NoError(t, err)
		_, err = w.Write([]byte("target.txt"))
		require.NoError(t, err)
	})

	dest := t.TempDir()
	require.NoError(t, Extract(context.Background(), nil, container, dest, ExtractOptions{}))
	link, err := os.Readlink(filepath.Join(dest, "link.txt"))
	require.NoError(t, err)
	assert.Equal(t, "target.txt", link)
}

func TestExtractCancelled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	writeFile(t, src, "x")
	h, err := WriteEntry(context.Background(), src, WriteOptions{Method: Deflate})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Extract(ctx, nil, h.Path, t.TempDir(), ExtractOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
