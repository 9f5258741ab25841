package pathutil

import (
	"strings"
	"testing"
)

func TestNormalizeRewritesBackslashes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`a\b\c`, "a/b/c"},
		{"a/b/c", "a/b/c"},
		{`a\b/c`, "a/b/c"},
		{`\`, "/"},
		{"", ""},
		{"no-separators", "no-separators"},
	}

	for _, tc := range cases {
		got := Normalize(tc.in)
		if got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if strings.ContainsRune(got, '\\') {
			t.Errorf("Normalize(%q) left a backslash: %q", tc.in, got)
		}
		if again := Normalize(got); again != got {
			t.Errorf("Normalize not idempotent for %q: %q then %q", tc.in, got, again)
		}
	}
}

func TestNormalizePtrPreservesNil(t *testing.T) {
	if got := NormalizePtr(nil); got != nil {
		t.Fatalf("NormalizePtr(nil) = %v, want nil", got)
	}

	empty := ""
	got := NormalizePtr(&empty)
	if got == nil || *got != "" {
		t.Fatalf("NormalizePtr(&\"\") = %v, want empty string", got)
	}
}

func TestNormalizeAllPassesSentinelsThrough(t *testing.T) {
	if got := NormalizeAll(nil); got != nil {
		t.Fatalf("NormalizeAll(nil) = %v, want nil", got)
	}

	win := `dir\sub\file.txt`
	posix := "dir/sub/file.txt"
	in := []*string{&win, nil, &posix}
	out := NormalizeAll(in)

	if len(out) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(out))
	}
	if out[0] == nil || *out[0] != "dir/sub/file.txt" {
		t.Errorf("element 0 = %v, want dir/sub/file.txt", out[0])
	}
	if out[1] != nil {
		t.Errorf("nil element was not preserved: %v", out[1])
	}
	if out[2] == nil || *out[2] != "dir/sub/file.txt" {
		t.Errorf("element 2 = %v, want dir/sub/file.txt", out[2])
	}
	if in[0] == out[0] {
		t.Errorf("expected fresh element pointers, not aliases of the input")
	}
}
