package harvest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/capfei/crawler/internal/datex"
)

func writeMetadata(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestProbeReleaseDateFindsEarliest(t *testing.T) {
	path := writeMetadata(t, "pom.properties",
		"#Created by Maven 3.5.4\n"+
			"build.date=2012-06-01\n"+
			"release=2010-11-13T18:35:12Z\n"+
			"version=1.2.3\n")

	got := probeReleaseDate(path)
	if got == nil {
		t.Fatalf("expected a date, got nil")
	}
	if datex.ISODate(*got) != "2010-11-13" {
		t.Fatalf("ISODate = %q, want 2010-11-13", datex.ISODate(*got))
	}
}

func TestProbeReleaseDateIgnoresNoise(t *testing.T) {
	path := writeMetadata(t, "MANIFEST.MF",
		"Manifest-Version: 1.0\n"+
			"Created-By: Apache Maven 3.5.4\n"+
			// Locale-stamped line with an unknown zone abbreviation.
			"#Tue Jun 05 10:32:01 CEST 2018\n")

	if got := probeReleaseDate(path); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestIsMetadataFile(t *testing.T) {
	if !isMetadataFile("pom.properties") || !isMetadataFile("MANIFEST.MF") {
		t.Fatalf("expected metadata names to match")
	}
	if isMetadataFile("main.c") || isMetadataFile("pom.xml.bak") {
		t.Fatalf("unexpected metadata match")
	}
}
