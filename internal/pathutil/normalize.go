// Package pathutil canonicalizes component file paths. Paths recorded in
// a package archive may use either separator style depending on the tool
// that produced the archive; everything stored or compared downstream
// uses forward slashes.
package pathutil

import "strings"

// Normalize returns path with every backslash separator rewritten to a
// forward slash. Forward slashes are left untouched, so the result is
// idempotent. Empty input is returned as-is.
func Normalize(path string) string {
	if path == "" {
		return path
	}
	return strings.ReplaceAll(path, `\`, "/")
}

// NormalizePtr is the pointer form of Normalize. A nil path is passed
// through unchanged rather than coerced to a value.
func NormalizePtr(path *string) *string {
	if path == nil {
		return nil
	}
	s := Normalize(*path)
	return &s
}

// NormalizeAll applies Normalize to each element of paths, preserving
// order and nil elements. A nil slice is passed through unchanged, not
// replaced with an empty one.
func NormalizeAll(paths []*string) []*string {
	if paths == nil {
		return nil
	}
	out := make([]*string, len(paths))
	for i, p := range paths {
		out[i] = NormalizePtr(p)
	}
	return out
}
