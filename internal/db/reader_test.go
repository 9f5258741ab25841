package db

import (
	"database/sql"
	"testing"

	"github.com/capfei/crawler/internal/entry"

	_ "modernc.org/sqlite"
)

func seedFiles(t *testing.T, database *sql.DB) {
	t.Helper()

	insert := func(path, name string, kind entry.Kind, size, mtime int64) {
		_, err := database.Exec(
			`INSERT INTO files (path, name, kind, size, mtime) VALUES (?, ?, ?, ?, ?)`,
			path, name, kind, size, mtime,
		)
		if err != nil {
			t.Fatalf("insert %s: %v", path, err)
		}
	}

	insert("src", "src", entry.KindDir, 0, 10)
	insert("src/main.c", "main.c", entry.KindFile, 500, 20)
	insert("src/util.c", "util.c", entry.KindFile, 100, 30)
	insert("LICENSE", "LICENSE", entry.KindFile, 42, 40)
}

func TestListFilesPrefixAndSort(t *testing.T) {
	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	if err := InitSchema(database); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	seedFiles(t, database)

	all, err := ListFiles(database, "", "path", 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
	if all[0].Path != "LICENSE" {
		t.Fatalf("expected path order, got %s first", all[0].Path)
	}

	src, err := ListFiles(database, "src/", "size", 10)
	if err != nil {
		t.Fatalf("list src: %v", err)
	}
	if len(src) != 2 {
		t.Fatalf("expected 2 records under src/, got %d", len(src))
	}
	if src[0].Name != "main.c" {
		t.Fatalf("expected largest first, got %s", src[0].Name)
	}

	// Backslash prefixes are normalized before matching.
	win, err := ListFiles(database, `src\`, "path", 10)
	if err != nil {
		t.Fatalf("list with backslash prefix: %v", err)
	}
	if len(win) != 2 {
		t.Fatalf("expected 2 records for backslash prefix, got %d", len(win))
	}
}

func TestListFilesPrefixWildcardsAreLiteral(t *testing.T) {
	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	if err := InitSchema(database); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	insert := func(path, name string) {
		_, err := database.Exec(
			`INSERT INTO files (path, name, kind, size, mtime) VALUES (?, ?, ?, ?, ?)`,
			path, name, entry.KindFile, 1, 1,
		)
		if err != nil {
			t.Fatalf("insert %s: %v", path, err)
		}
	}
	insert("pkg_info/PKG-INFO", "PKG-INFO")
	insert("pkgXinfo/README", "README")
	insert("100%/done", "done")

	got, err := ListFiles(database, "pkg_", "path", 10)
	if err != nil {
		t.Fatalf("list underscore prefix: %v", err)
	}
	if len(got) != 1 || got[0].Path != "pkg_info/PKG-INFO" {
		t.Fatalf("underscore prefix over-matched: %v", got)
	}

	got, err = ListFiles(database, "100%", "path", 10)
	if err != nil {
		t.Fatalf("list percent prefix: %v", err)
	}
	if len(got) != 1 || got[0].Path != "100%/done" {
		t.Fatalf("percent prefix over-matched: %v", got)
	}
}

func TestGetHarvestRoundTrip(t *testing.T) {
	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	if err := InitSchema(database); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	_, err = database.Exec(
		`INSERT INTO harvest_meta (id, harvest_id, root_path, start_time, end_time, file_count, dir_count, total_size, error_count, release_date, status)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		"h-1", "/tmp/pkg", 1000, 2000, 3, 1, 642, 0, "2010-11-13", entry.StatusComplete,
	)
	if err != nil {
		t.Fatalf("insert meta: %v", err)
	}

	h, err := GetHarvest(database)
	if err != nil {
		t.Fatalf("get harvest: %v", err)
	}
	if h.ID != "h-1" || h.RootPath != "/tmp/pkg" || h.FileCount != 3 {
		t.Fatalf("unexpected harvest: %+v", h)
	}
	if h.ReleaseDate == nil || h.ReleaseDate.Format("2006-01-02") != "2010-11-13" {
		t.Fatalf("unexpected release date: %v", h.ReleaseDate)
	}
	if h.Status != entry.StatusComplete {
		t.Fatalf("status = %q, want %q", h.Status, entry.StatusComplete)
	}
}
