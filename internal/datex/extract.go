// Package datex extracts calendar timestamps from free-form metadata
// strings. Package archives carry dates in whatever shape the packaging
// tool emitted, so parsing is a best-effort walk over candidate layouts
// rather than a single format.
package datex

import (
	"strings"
	"time"
)

// defaultLayouts are tried after any caller-supplied layouts, most
// specific first. ISO-8601 and SQL timestamp forms cover the metadata
// files seen in practice; anything else is a caller layout.
var defaultLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Extract attempts to parse text as a timestamp, trying the given Go
// reference layouts in order before the built-in defaults, and returns
// the first plausible hit. It returns nil when text is empty, when no
// layout matches, or when every match is implausible. A parse that lands
// in the future is noise from a misread string, not a real date, so it
// is skipped and the remaining layouts are still tried.
func Extract(text string, layouts ...string) *time.Time {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}

	now := time.Now()
	for _, layout := range layouts {
		if t, ok := parsePlausible(layout, s, now); ok {
			return &t
		}
	}
	for _, layout := range defaultLayouts {
		if t, ok := parsePlausible(layout, s, now); ok {
			return &t
		}
	}
	return nil
}

// ExtractPtr is the pointer form of Extract. A nil text yields nil.
func ExtractPtr(text *string, layouts ...string) *time.Time {
	if text == nil {
		return nil
	}
	return Extract(*text, layouts...)
}

func parsePlausible(layout, s string, now time.Time) (time.Time, bool) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}
	if t.After(now) {
		return time.Time{}, false
	}
	return t, true
}

// ISODate renders the date-only ISO-8601 form of t in UTC.
func ISODate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
