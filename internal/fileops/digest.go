package fileops

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/lucrnz/ripzip/internal/stream"
)

// DefaultAlgorithm is used when no algorithm is named.
const DefaultAlgorithm = "sha256"

// hashConfig holds configuration for a hash algorithm
type hashConfig struct {
	name      string
	digestLen int // hex characters
	newHash   func() hash.Hash
}

var supportedHashes = map[string]hashConfig{
	"md5": {
		name:      "MD5",
		digestLen: 32,
		newHash:   md5.New,
	},
	"sha256": {
		name:      "SHA-256",
		digestLen: 64,
		newHash:   sha256.New,
	},
	"sha512": {
		name:      "SHA-512",
		digestLen: 128,
		newHash:   sha512.New,
	},
	"blake3": {
		name:      "BLAKE3",
		digestLen: 64,
		newHash:   func() hash.Hash { return blake3.New() },
	},
}

// Algorithms returns the supported algorithm names, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(supportedHashes))
	for k := range supportedHashes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func lookupHash(algo string) (hashConfig, error) {
	if algo == "" {
		algo = DefaultAlgorithm
	}
	cfg, ok := supportedHashes[strings.ToLower(algo)]
	if !ok {
		return hashConfig{}, fmt.Errorf("%w: unsupported hash algorithm %q. Supported algorithms: %s",
			stream.ErrInvalidArgument, algo, strings.Join(Algorithms(), ", "))
	}
	return cfg, nil
}

// Digest streams the file at path through algo and returns the lowercase hex
// digest.
func Digest(ctx context.Context, path, algo string, buf []byte) (string, error) {
	cfg, err := lookupHash(algo)
	if err != nil {
		return "", err
	}
	if buf == nil {
		buf = stream.NewBuffer(0)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("file %s not found: %w", path, err)
		}
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := cfg.newHash()
	if _, err := stream.Copy(ctx, h, f, buf); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return "", err
		}
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ParseExpectedHash splits "algo:hexdigest" and validates the digest length
// and characters for algo.
func ParseExpectedHash(s string) (algo, digest string, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("hash must be prefixed with the algorithm name followed by a colon. example: sha256:{value}")
	}
	algo = strings.ToLower(parts[0])
	digest = strings.ToLower(parts[1])

	cfg, err := lookupHash(algo)
	if err != nil {
		return "", "", err
	}
	if len(digest) != cfg.digestLen {
		return "", "", fmt.Errorf("invalid %s hash: expected %d hex characters, got %d", cfg.name, cfg.digestLen, len(digest))
	}
	for _, c := range digest {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", "", fmt.Errorf("invalid %s hash: contains non-hex character '%c'", cfg.name, c)
		}
	}
	return algo, digest, nil
}

// ErrHashMismatch is returned by Verify when the digest differs.
var ErrHashMismatch = errors.New("hash mismatch")

// Verify hashes path and compares it with expected ("algo:hexdigest").
func Verify(ctx context.Context, path, expected string, buf []byte) error {
	algo, want, err := ParseExpectedHash(expected)
	if err != nil {
		return err
	}
	got, err := Digest(ctx, path, algo, buf)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w for %s: expected %s:%s, got %s:%s", ErrHashMismatch, path, algo, want, algo, got)
	}
	return nil
}
