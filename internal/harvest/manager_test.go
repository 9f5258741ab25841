package harvest

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/capfei/crawler/internal/db"
	"github.com/capfei/crawler/internal/entry"

	_ "modernc.org/sqlite"
)

func TestManagerRunCreatesLatestAndRetention(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "file.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	outDir := t.TempDir()
	mgr := NewManager(outDir, 1)
	opts := DefaultOptions().WithWorkers(1)

	ctx := context.Background()
	firstDB, err := mgr.Run(ctx, root, opts)
	if err != nil {
		t.Fatalf("first harvest: %v", err)
	}
	if _, err := os.Stat(firstDB); err != nil {
		t.Fatalf("first db missing: %v", err)
	}

	latest := filepath.Join(outDir, "latest.db")
	if info, err := os.Lstat(latest); err == nil && (info.Mode()&os.ModeSymlink != 0) {
		resolved, err := filepath.EvalSymlinks(latest)
		if err != nil {
			t.Fatalf("resolve latest: %v", err)
		}
		firstResolved, err := filepath.EvalSymlinks(firstDB)
		if err != nil {
			t.Fatalf("resolve first db: %v", err)
		}
		if resolved != firstResolved {
			t.Fatalf("latest does not point to first db: %s", resolved)
		}
	}

	// Database names carry second-resolution timestamps.
	time.Sleep(1100 * time.Millisecond)

	secondDB, err := mgr.Run(ctx, root, opts)
	if err != nil {
		t.Fatalf("second harvest: %v", err)
	}
	if _, err := os.Stat(secondDB); err != nil {
		t.Fatalf("second db missing: %v", err)
	}

	if _, err := os.Stat(firstDB); err == nil {
		t.Fatalf("expected first db to be pruned")
	}

	harvests, err := mgr.ListHarvests()
	if err != nil {
		t.Fatalf("list harvests: %v", err)
	}
	if len(harvests) != 1 {
		t.Fatalf("expected 1 retained harvest, got %d", len(harvests))
	}
}

func TestManagerKeepsCanceledHarvest(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "file.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	outDir := t.TempDir()
	mgr := NewManager(outDir, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dbPath, err := mgr.Run(ctx, root, DefaultOptions().WithWorkers(1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if dbPath == "" {
		t.Fatalf("expected the path of the partial database")
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("partial db missing: %v", err)
	}

	// A canceled harvest never becomes latest.db.
	if _, err := os.Lstat(filepath.Join(outDir, "latest.db")); err == nil {
		t.Fatalf("latest.db should not exist after a canceled harvest")
	}

	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open partial db: %v", err)
	}
	defer database.Close()

	h, err := db.GetHarvest(database)
	if err != nil {
		t.Fatalf("get harvest: %v", err)
	}
	if h.Status != entry.StatusCanceled {
		t.Fatalf("status = %q, want %q", h.Status, entry.StatusCanceled)
	}
}
