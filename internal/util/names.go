package util

import (
	"fmt"
	"strings"
)

// DefaultNamePattern formats a candidate name from the original name and a
// counter, producing "report (1)", "report (2)" and so on.
const DefaultNamePattern = "%s (%d)"

// invalidNameChars holds characters rejected in file names on at least one
// supported platform, plus control characters.
var invalidNameChars = func() map[rune]struct{} {
	set := map[rune]struct{}{
		'<': {}, '>': {}, ':': {}, '"': {}, '/': {}, '\\': {}, '|': {}, '?': {}, '*': {},
	}
	for r := rune(0); r < 32; r++ {
		set[r] = struct{}{}
	}
	return set
}()

// FreeName returns name if it is not in taken, otherwise the first name
// produced by pattern (see DefaultNamePattern) that is free.
func FreeName(name string, taken []string, pattern string) string {
	if pattern == "" {
		pattern = DefaultNamePattern
	}
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}
	candidate := name
	for i := 1; ; i++ {
		if _, ok := used[candidate]; !ok {
			return candidate
		}
		candidate = fmt.Sprintf(pattern, name, i)
	}
}

// ValidFileName trims surrounding spaces and replaces every character that
// is not allowed in a file name with repl. Blank input yields "new_file".
func ValidFileName(name string, repl rune) string {
	name = strings.Trim(name, " ")
	if name == "" {
		return "new_file"
	}
	return strings.Map(func(r rune) rune {
		if _, bad := invalidNameChars[r]; bad {
			return repl
		}
		return r
	}, name)
}

// CheckValidFileName reports whether name is non-blank and contains no
// characters that ValidFileName would replace.
func CheckValidFileName(name string) bool {
	name = strings.Trim(name, " ")
	if name == "" {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool {
		_, bad := invalidNameChars[r]
		return bad
	})
}
