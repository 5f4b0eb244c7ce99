package fileops

import (
	"bytes"
	"context"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/lucrnz/ripzip/internal/cleanup"
	"github.com/lucrnz/ripzip/internal/progress"
	"github.com/lucrnz/ripzip/internal/stream"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func noTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	writeFile(t, src, "copy me")
	dst := filepath.Join(dir, "b.txt")

	got, err := CopyFile(context.Background(), src, dst, CopyOptions{Buffer: make([]byte, 3)})
	require.NoError(t, err)
	assert.Equal(t, dst, got)
	assert.Equal(t, "copy me", readFile(t, dst))
	assert.Equal(t, "copy me", readFile(t, src))
	noTempFiles(t, dir)
}

func TestCopyFileIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	writeFile(t, src, "x")
	target := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(target, 0o755))

	got, err := CopyFile(context.Background(), src, target, CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "a.txt"), got)
	assert.Equal(t, "x", readFile(t, got))
}

func TestCopyFileExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	writeFile(t, src, "new")
	writeFile(t, dst, "old")

	got, err := CopyFile(context.Background(), src, dst, CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, dst, got)
	assert.Equal(t, "old", readFile(t, dst), "destination kept without overwrite")

	got, err = CopyFile(context.Background(), src, dst, CopyOptions{Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, dst, got)
	assert.Equal(t, "new", readFile(t, dst))
}

func TestCopyFileRenameOnConflict(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "report.txt")
	require.NoError(t, os.Mkdir(filepath.Dir(src), 0o755))
	writeFile(t, src, "v3")

	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))
	writeFile(t, filepath.Join(out, "report.txt"), "v1")
	writeFile(t, filepath.Join(out, "report (1).txt"), "v2")

	got, err := CopyFile(context.Background(), src, out, CopyOptions{RenameOnConflict: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "report (2).txt"), got)
	assert.Equal(t, "v3", readFile(t, got))
	assert.Equal(t, "v1", readFile(t, filepath.Join(out, "report.txt")))
}

func TestCopyFileSameFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	writeFile(t, src, "x")
	_, err := CopyFile(context.Background(), src, src, CopyOptions{Overwrite: true})
	assert.ErrorIs(t, err, stream.ErrInvalidArgument)
}

func TestCopyFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := CopyFile(context.Background(), filepath.Join(dir, "missing"), filepath.Join(dir, "b"), CopyOptions{})
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = CopyFile(context.Background(), dir, filepath.Join(dir, "b"), CopyOptions{})
	assert.ErrorIs(t, err, stream.ErrInvalidArgument)

	src := filepath.Join(dir, "a.txt")
	writeFile(t, src, "x")
	_, err = CopyFile(context.Background(), src, "", CopyOptions{})
	assert.ErrorIs(t, err, stream.ErrInvalidArgument)
}

func TestCopyFileProgress(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte{1}, 400), 0o644))

	var samples []float64
	rep := progress.ReporterFunc(func(f float64) { samples = append(samples, f) })
	_, err := CopyFile(context.Background(), src, filepath.Join(dir, "b.bin"), CopyOptions{Buffer: make([]byte, 100), Progress: rep})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1}, samples)
}

func TestCopyFileCancelledMidCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte{1}, 4096), 0o644))
	dst := filepath.Join(dir, "b.bin")
	writeFile(t, dst, "previous")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rep := progress.ReporterFunc(func(float64) { cancel() })
	tracker := cleanup.NewTracker()

	_, err := CopyFile(ctx, src, dst, CopyOptions{Overwrite: true, Buffer: make([]byte, 512), Progress: rep, Tracker: tracker})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "previous", readFile(t, dst))
	assert.Empty(t, tracker.GetAll())
	noTempFiles(t, dir)
}

func TestCopyFileCancelledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	writeFile(t, src, "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CopyFile(ctx, src, filepath.Join(dir, "b.txt"), CopyOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "b.txt"))
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	writeFile(t, src, "move me")
	dst := filepath.Join(dir, "b.txt")

	got, err := MoveFile(context.Background(), src, dst, false, nil)
	require.NoError(t, err)
	assert.Equal(t, dst, got)
	assert.Equal(t, "move me", readFile(t, dst))
	assert.NoFileExists(t, src)
}

func TestMoveFileExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	writeFile(t, src, "new")
	writeFile(t, dst, "old")

	got, err := MoveFile(context.Background(), src, dst, false, nil)
	require.NoError(t, err)
	assert.Equal(t, dst, got)
	assert.Equal(t, "old", readFile(t, dst))
	assert.FileExists(t, src)

	_, err = MoveFile(context.Background(), src, dst, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", readFile(t, dst))
	assert.NoFileExists(t, src)
}

func TestMoveFileIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	writeFile(t, src, "x")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))

	got, err := MoveFile(context.Background(), src, out, false, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "a.txt"), got)
}

func TestMoveFileMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := MoveFile(context.Background(), filepath.Join(dir, "nope"), filepath.Join(dir, "b"), false, nil)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.txt")
	writeFile(t, path, "abc")
	b3 := blake3.Sum256([]byte("abc"))

	tests := []struct {
		algo string
		want string
	}{
		{"md5", "900150983cd24fb0d6963f7d28e17f72"},
		{"sha256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"SHA512", "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
		{"blake3", hex.EncodeToString(b3[:])},
	}
	for _, tt := range tests {
		t.Run(tt.algo, func(t *testing.T) {
			got, err := Digest(context.Background(), path, tt.algo, make([]byte, 2))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDigestErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Digest(context.Background(), filepath.Join(dir, "missing"), "sha256", nil)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "abc")
	_, err = Digest(context.Background(), path, "crc32", nil)
	assert.ErrorIs(t, err, stream.ErrInvalidArgument)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Digest(ctx, path, "sha256", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseExpectedHash(t *testing.T) {
	sha := strings.Repeat("a", 64)
	algo, digest, err := ParseExpectedHash("SHA256:" + strings.ToUpper(sha))
	require.NoError(t, err)
	assert.Equal(t, "sha256", algo)
	assert.Equal(t, sha, digest)

	for _, bad := range []string{
		sha,
		"sha1:" + sha,
		"sha256:abc",
		"sha256:" + strings.Repeat("g", 64),
	} {
		_, _, err := ParseExpectedHash(bad)
		assert.Error(t, err, bad)
	}
}

func TestVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.txt")
	writeFile(t, path, "abc")

	assert.NoError(t, Verify(context.Background(), path, "md5:900150983cd24fb0d6963f7d28e17f72", nil))
	err := Verify(context.Background(), path, "md5:"+strings.Repeat("0", 32), nil)
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestAlgorithms(t *testing.T) {
	assert.Equal(t, []string{"blake3", "md5", "sha256", "sha512"}, Algorithms())
}
