package pathutil

import "strings"

// TrimParent strips parent from the front of path when path sits inside
// it, returning the remainder without a leading slash. Both operands are
// separator-normalized first, so either may use backslashes. When path
// equals parent the result is empty. When path is not inside parent the
// normalized path is returned otherwise unaltered. An empty parent
// behaves like Normalize.
//
// Matching is case-sensitive and segment-aware: "/foobar" is not inside
// "/foo".
func TrimParent(path, parent string) string {
	p := Normalize(path)
	if parent == "" {
		return p
	}
	par := Normalize(parent)
	if !strings.HasPrefix(p, par) {
		return p
	}
	rest := p[len(par):]
	if rest == "" {
		return ""
	}
	if !strings.HasSuffix(par, "/") && !strings.HasPrefix(rest, "/") {
		// Prefix ends mid-segment; not a containment relationship.
		return p
	}
	return strings.TrimPrefix(rest, "/")
}

// TrimParentPtr is the pointer form of TrimParent. A nil path is passed
// through unchanged; a nil parent behaves like NormalizePtr.
func TrimParentPtr(path, parent *string) *string {
	if path == nil {
		return nil
	}
	if parent == nil {
		return NormalizePtr(path)
	}
	s := TrimParent(*path, *parent)
	return &s
}

// TrimAllParents applies TrimParent to each element of paths against one
// fixed parent, preserving order and nil elements. A nil slice is passed
// through unchanged.
func TrimAllParents(paths []*string, parent *string) []*string {
	if paths == nil {
		return nil
	}
	out := make([]*string, len(paths))
	for i, p := range paths {
		out[i] = TrimParentPtr(p, parent)
	}
	return out
}
