package harvest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/capfei/crawler/internal/datex"
	"github.com/capfei/crawler/internal/db"
	"github.com/capfei/crawler/internal/entry"
	"github.com/google/uuid"
)

// Scanner coordinates one harvest of an unpacked component tree.
type Scanner struct {
	opts     *Options
	id       string
	root     string
	database *sql.DB

	recordCh chan entry.FileRecord
	errorCh  chan entry.ScanError
	dateCh   chan time.Time
	dirQueue chan dirWork

	inFlight int64

	wg        sync.WaitGroup
	closeOnce sync.Once

	ingester *db.Ingester

	releaseMu sync.Mutex
	release   *time.Time
}

type dirWork struct {
	path string
}

// NewScanner creates a new scanner.
func NewScanner(opts *Options) *Scanner {
	if opts == nil {
		opts = DefaultOptions()
	}
	queueSize := opts.Workers * 2048
	if queueSize < 8192 {
		queueSize = 8192
	}
	recordChSize := opts.BatchSize * 2
	if recordChSize < 10000 {
		recordChSize = 10000
	}
	return &Scanner{
		opts:     opts,
		id:       uuid.New().String(),
		recordCh: make(chan entry.FileRecord, recordChSize),
		errorCh:  make(chan entry.ScanError, 1000),
		dateCh:   make(chan time.Time, 64),
		dirQueue: make(chan dirWork, queueSize),
	}
}

// ID returns the harvest identifier.
func (s *Scanner) ID() string {
	return s.id
}

// Run executes the harvest starting from root and writes to the database.
func (s *Scanner) Run(ctx context.Context, root string, database *sql.DB) error {
	s.root = root
	s.database = database

	// Create cancellable context for max-errors abort
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootInfo, err := os.Lstat(root)
	if err != nil {
		return fmt.Errorf("failed to stat root: %w", err)
	}
	if !rootInfo.IsDir() {
		return fmt.Errorf("root %s is not a directory", root)
	}

	startTime := time.Now()
	if err := s.initHarvestMeta(startTime); err != nil {
		return err
	}

	// Start ingester
	s.ingester = db.NewIngester(s.database, s.recordCh, s.errorCh, s.opts.BatchSize, s.opts.FlushIntervalMs, s.opts.MaxErrors, cancel)
	ingesterDone := make(chan error, 1)
	go func() {
		ingesterDone <- s.ingester.Run(ctx)
	}()

	// Collect metadata dates; the earliest plausible one wins
	dateDone := make(chan struct{})
	go func() {
		defer close(dateDone)
		for t := range s.dateCh {
			s.releaseMu.Lock()
			if s.release == nil || t.Before(*s.release) {
				tt := t
				s.release = &tt
			}
			s.releaseMu.Unlock()
		}
	}()

	// Start workers
	for i := 0; i < s.opts.Workers; i++ {
		worker := NewWorker(i, s.opts, s.root, s.recordCh, s.errorCh, s.dateCh, s.dirQueue, &s.inFlight)
		s.wg.Add(1)
		go func(w *Worker) {
			defer s.wg.Done()
			w.Run(ctx)
		}(worker)
	}

	// Seed the queue with root
	atomic.AddInt64(&s.inFlight, 1)
	select {
	case s.dirQueue <- dirWork{path: root}:
	case <-ctx.Done():
		atomic.AddInt64(&s.inFlight, -1)
	}

	// Monitor for completion or cancellation
	go s.monitorCompletion(ctx)

	// Wait for all in-flight directory processing to finish
	s.wg.Wait()

	// Ensure queue is closed after workers exit (safe if already closed)
	s.closeDirQueue()

	close(s.recordCh)
	close(s.errorCh)
	close(s.dateCh)
	<-dateDone

	if err := <-ingesterDone; err != nil {
		return fmt.Errorf("ingester error: %w", err)
	}

	if ctx.Err() != nil {
		// Keep the partial fileset but mark it so readers can tell it
		// apart from a completed harvest.
		if err := s.finalizeHarvestMeta(entry.StatusCanceled, s.ingester.ErrorCount()); err != nil {
			return fmt.Errorf("failed to finalize canceled harvest: %w", err)
		}
		return ctx.Err()
	}

	return s.finalizeHarvestMeta(entry.StatusComplete, s.ingester.ErrorCount())
}

func (s *Scanner) monitorCompletion(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeDirQueue()
			return
		case <-ticker.C:
			if atomic.LoadInt64(&s.inFlight) == 0 {
				s.closeDirQueue()
				return
			}
		}
	}
}

func (s *Scanner) closeDirQueue() {
	s.closeOnce.Do(func() {
		close(s.dirQueue)
	})
}

// Progress returns current harvest progress (safe for concurrent access).
// Returns nil if the harvest hasn't started.
func (s *Scanner) Progress() *db.Progress {
	if s.ingester == nil {
		return nil
	}
	p := s.ingester.Progress()
	return &p
}

// ReleaseDate returns the earliest metadata date seen so far, or nil.
func (s *Scanner) ReleaseDate() *time.Time {
	s.releaseMu.Lock()
	defer s.releaseMu.Unlock()
	if s.release == nil {
		return nil
	}
	t := *s.release
	return &t
}

func (s *Scanner) initHarvestMeta(startTime time.Time) error {
	_, err := s.database.Exec(
		`INSERT INTO harvest_meta (id, harvest_id, root_path, start_time, status) VALUES (1, ?, ?, ?, ?)`,
		s.id, s.root, startTime.Unix(), entry.StatusRunning,
	)
	return err
}

func (s *Scanner) finalizeHarvestMeta(status string, errorCount int64) error {
	var fileCount, dirCount, totalSize int64
	row := s.database.QueryRow(`SELECT COUNT(*) FROM files WHERE kind = 0`)
	if err := row.Scan(&fileCount); err != nil {
		return fmt.Errorf("failed to count files: %w", err)
	}

	row = s.database.QueryRow(`SELECT COUNT(*) FROM files WHERE kind = 1`)
	if err := row.Scan(&dirCount); err != nil {
		return fmt.Errorf("failed to count directories: %w", err)
	}

	row = s.database.QueryRow(`SELECT COALESCE(SUM(size), 0) FROM files WHERE kind = 0`)
	if err := row.Scan(&totalSize); err != nil {
		return fmt.Errorf("failed to sum sizes: %w", err)
	}

	var releaseDate interface{}
	if t := s.ReleaseDate(); t != nil {
		releaseDate = datex.ISODate(*t)
	}

	_, err := s.database.Exec(
		`UPDATE harvest_meta SET end_time = ?, file_count = ?, dir_count = ?, total_size = ?, error_count = ?, release_date = ?, status = ? WHERE id = 1`,
		time.Now().Unix(), fileCount, dirCount, totalSize, errorCount, releaseDate, status,
	)
	return err
}
