package harvest

import (
	"bufio"
	"io"
	"os"
	"strings"
	"time"

	"github.com/capfei/crawler/internal/datex"
)

// Metadata files worth probing for a release date. Anything larger than
// this cap is some other artifact that happens to share a name.
const metadataMaxBytes = 256 * 1024

var metadataNames = map[string]struct{}{
	"pom.properties": {},
	"MANIFEST.MF":    {},
	"PKG-INFO":       {},
	"METADATA":       {},
}

func isMetadataFile(name string) bool {
	_, ok := metadataNames[name]
	return ok
}

// probeReleaseDate scans a metadata file line by line and returns the
// earliest plausible date found, or nil. Lines that carry tool banners
// ("Created by Maven 3.5.4") or locale-specific zone abbreviations fail
// to parse and contribute nothing, which is the intended outcome.
func probeReleaseDate(path string) *time.Time {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var earliest *time.Time
	scanner := bufio.NewScanner(io.LimitReader(f, metadataMaxBytes))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		for _, candidate := range dateCandidates(line) {
			t := datex.Extract(candidate)
			if t == nil {
				continue
			}
			if earliest == nil || t.Before(*earliest) {
				earliest = t
			}
		}
	}
	return earliest
}

// dateCandidates yields the substrings of a metadata line that may hold
// a timestamp: the line itself, the line without a comment marker, and
// the value side of "key: value" / "key=value" pairs.
func dateCandidates(line string) []string {
	candidates := []string{line}
	if rest := strings.TrimPrefix(line, "#"); rest != line {
		candidates = append(candidates, strings.TrimSpace(rest))
	}
	if _, value, ok := strings.Cut(line, ":"); ok {
		candidates = append(candidates, strings.TrimSpace(value))
	}
	if _, value, ok := strings.Cut(line, "="); ok {
		candidates = append(candidates, strings.TrimSpace(value))
	}
	return candidates
}
