package pathutil

import "testing"

func TestTrimParent(t *testing.T) {
	cases := []struct {
		path   string
		parent string
		want   string
	}{
		{"/foo/bar", "/foo", "bar"},
		{"/foo/bar", "/foo/", "bar"},
		{"/foo/bar", "/", "foo/bar"},
		{"/foo/bar", "/other", "/foo/bar"},
		{"/foo", "/foo", ""},
		{"/foo/bar/baz", "/foo", "bar/baz"},
		// Prefix that ends mid-segment is not containment.
		{"/foobar", "/foo", "/foobar"},
		// Case-sensitive on segments.
		{"/Foo/bar", "/foo", "/Foo/bar"},
		// Empty parent behaves like Normalize.
		{`\foo\bar`, "", "/foo/bar"},
		// The no-match result is still separator-normalized.
		{`\foo\bar`, "/other", "/foo/bar"},
	}

	for _, tc := range cases {
		got := TrimParent(tc.path, tc.parent)
		if got != tc.want {
			t.Errorf("TrimParent(%q, %q) = %q, want %q", tc.path, tc.parent, got, tc.want)
		}
	}
}

func TestTrimParentMixedSeparatorEquivalence(t *testing.T) {
	a := TrimParent(`\foo\bar`, "/foo")
	b := TrimParent("/foo/bar", "/foo")
	if a != b {
		t.Fatalf("separator styles diverged: %q vs %q", a, b)
	}
	if c := TrimParent("/foo/bar", `\foo`); c != b {
		t.Fatalf("backslash parent diverged: %q vs %q", c, b)
	}
}

func TestTrimParentPtrSentinels(t *testing.T) {
	if got := TrimParentPtr(nil, nil); got != nil {
		t.Fatalf("TrimParentPtr(nil, nil) = %v, want nil", got)
	}

	path := `\foo\bar`
	got := TrimParentPtr(&path, nil)
	if got == nil || *got != "/foo/bar" {
		t.Fatalf("nil parent should normalize only, got %v", got)
	}

	parent := "/foo"
	got = TrimParentPtr(&path, &parent)
	if got == nil || *got != "bar" {
		t.Fatalf("TrimParentPtr = %v, want bar", got)
	}
}

func TestTrimAllParents(t *testing.T) {
	if got := TrimAllParents(nil, nil); got != nil {
		t.Fatalf("TrimAllParents(nil, nil) = %v, want nil", got)
	}

	inside := "/pkg/src/main.c"
	outside := "/other/readme"
	empty := ""
	parent := "/pkg"

	out := TrimAllParents([]*string{&inside, nil, &empty, &outside}, &parent)
	if len(out) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(out))
	}
	if out[0] == nil || *out[0] != "src/main.c" {
		t.Errorf("element 0 = %v, want src/main.c", out[0])
	}
	if out[1] != nil {
		t.Errorf("nil element was not preserved: %v", out[1])
	}
	if out[2] == nil || *out[2] != "" {
		t.Errorf("empty element was not preserved: %v", out[2])
	}
	if out[3] == nil || *out[3] != "/other/readme" {
		t.Errorf("element 3 = %v, want /other/readme", out[3])
	}
}
