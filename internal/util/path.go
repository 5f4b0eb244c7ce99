package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StripPathComponents removes n leading path components from a path.
// Returns empty string if n >= number of components (entry should be skipped).
func StripPathComponents(path string, n int) string {
	if n <= 0 {
		return path
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	if n >= len(parts) {
		return ""
	}
	return filepath.FromSlash(strings.Join(parts[n:], "/"))
}

// IsPathSafe reports whether path stays within destDir (zip slip protection).
func IsPathSafe(path, destDir string) bool {
	cleanPath := filepath.Clean(path)
	cleanDest := filepath.Clean(destDir)
	return cleanPath == cleanDest || strings.HasPrefix(cleanPath, cleanDest+string(filepath.Separator))
}

// SafeJoin strips n leading components from an archive entry name and joins
// the remainder onto destDir. It returns "" with a nil error when the entry is
// stripped away entirely, and an error when the result would escape destDir.
func SafeJoin(destDir, entryName string, strip int) (string, error) {
	name := StripPathComponents(entryName, strip)
	if name == "" {
		return "", nil
	}
	dest := filepath.Join(destDir, name)
	if !IsPathSafe(dest, destDir) {
		return "", fmt.Errorf("zip slip detected: %s", entryName)
	}
	return dest, nil
}

// ChangeExtension replaces the extension of path with ext. ext may be given
// with or without the leading dot; an empty ext removes the extension.
func ChangeExtension(path, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if ext == "" {
		return base
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return base + ext
}

// NameWithoutExtension returns the base name of path without its extension.
func NameWithoutExtension(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
