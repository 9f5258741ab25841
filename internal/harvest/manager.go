package harvest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/capfei/crawler/internal/db"

	_ "modernc.org/sqlite"
)

// ProgressFunc is called periodically with current harvest progress.
type ProgressFunc func(files, dirs, errors int64, totalBytes int64)

// Manager handles the harvest lifecycle including locking and retention.
type Manager struct {
	outputDir    string
	retention    int
	lockFile     *os.File
	progressFunc ProgressFunc
}

// NewManager creates a new harvest manager.
func NewManager(outputDir string, retention int) *Manager {
	return &Manager{
		outputDir: outputDir,
		retention: retention,
	}
}

// SetProgressFunc sets a callback for progress updates during a harvest.
func (m *Manager) SetProgressFunc(f ProgressFunc) {
	m.progressFunc = f
}

// Run harvests root into a new timestamped database under the output
// directory, repoints latest.db, prunes past the retention count, and
// returns the path of the new database. If the context is canceled
// mid-harvest the partial database is finalized with a canceled status
// and its path is returned alongside the context error.
func (m *Manager) Run(ctx context.Context, root string, opts *Options) (string, error) {
	if err := os.MkdirAll(m.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := m.acquireLock(); err != nil {
		return "", err
	}
	defer m.releaseLock()

	// Write to a temp path first, then rename into place
	tempPath := filepath.Join(m.outputDir, fmt.Sprintf(".harvest-%d.tmp.db", os.Getpid()))
	os.Remove(tempPath)

	database, err := sql.Open("sqlite", tempPath)
	if err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to create database: %w", err)
	}

	if err := db.InitSchema(database); err != nil {
		database.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := db.ApplyWritePragmas(database); err != nil {
		database.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to apply pragmas: %w", err)
	}

	scanner := NewScanner(opts)

	// Start progress reporter if callback is set
	progressDone := make(chan struct{})
	if m.progressFunc != nil {
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-progressDone:
					return
				case <-ticker.C:
					if p := scanner.Progress(); p != nil {
						m.progressFunc(p.Files, p.Dirs, p.Errors, p.TotalBytes)
					}
				}
			}
		}()
	}

	scanErr := scanner.Run(ctx, root, database)
	close(progressDone)
	canceled := errors.Is(scanErr, context.Canceled) || errors.Is(scanErr, context.DeadlineExceeded)
	if scanErr != nil && !canceled {
		database.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("harvest failed: %w", scanErr)
	}

	if err := db.BuildIndexes(database); err != nil {
		database.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to build indexes: %w", err)
	}

	if err := db.Finalize(database); err != nil {
		database.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to finalize database: %w", err)
	}

	database.Close()

	// Atomic rename to final location
	finalName := fmt.Sprintf("harvest-%s.db", time.Now().Format("20060102-150405"))
	finalPath := filepath.Join(m.outputDir, finalName)

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename database: %w", err)
	}

	// A canceled harvest keeps its partial database for inspection but
	// never becomes latest.db and never triggers pruning.
	if canceled {
		return finalPath, scanErr
	}

	// Update latest.db symlink atomically via temp symlink + rename
	latestPath := filepath.Join(m.outputDir, "latest.db")
	tempLink := filepath.Join(m.outputDir, ".latest.db.tmp")
	os.Remove(tempLink) // Clean up any stale temp link
	if err := os.Symlink(finalName, tempLink); err == nil {
		if err := os.Rename(tempLink, latestPath); err != nil {
			os.Remove(tempLink)
			fmt.Fprintf(os.Stderr, "warning: failed to update latest.db symlink: %v\n", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "warning: failed to create latest.db symlink: %v\n", err)
	}

	if err := m.pruneOldHarvests(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to prune old harvests: %v\n", err)
	}

	return finalPath, nil
}

func (m *Manager) acquireLock() error {
	lockPath := filepath.Join(m.outputDir, ".crawler.lock")
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}

	// Try to acquire exclusive lock
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return fmt.Errorf("another harvest is in progress")
	}

	m.lockFile = f
	return nil
}

func (m *Manager) releaseLock() {
	if m.lockFile != nil {
		syscall.Flock(int(m.lockFile.Fd()), syscall.LOCK_UN)
		m.lockFile.Close()
		m.lockFile = nil
	}
}

func (m *Manager) pruneOldHarvests() error {
	if m.retention <= 0 {
		return nil
	}

	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return err
	}

	var harvests []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "harvest-") && strings.HasSuffix(e.Name(), ".db") {
			harvests = append(harvests, e.Name())
		}
	}

	// Names embed the timestamp, so lexical order is chronological
	sort.Strings(harvests)

	for len(harvests) > m.retention {
		oldPath := filepath.Join(m.outputDir, harvests[0])
		if err := os.Remove(oldPath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", harvests[0], err)
		}
		harvests = harvests[1:]
	}

	return nil
}

// GetLatest returns the path to the latest harvest database.
func (m *Manager) GetLatest() (string, error) {
	latestPath := filepath.Join(m.outputDir, "latest.db")
	resolved, err := filepath.EvalSymlinks(latestPath)
	if err != nil {
		return "", fmt.Errorf("no harvest found: %w", err)
	}
	return resolved, nil
}

// ListHarvests returns all harvest databases sorted by date.
func (m *Manager) ListHarvests() ([]string, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, err
	}

	var harvests []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "harvest-") && strings.HasSuffix(e.Name(), ".db") {
			harvests = append(harvests, filepath.Join(m.outputDir, e.Name()))
		}
	}

	sort.Strings(harvests)
	return harvests, nil
}
