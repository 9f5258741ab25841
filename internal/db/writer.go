package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/capfei/crawler/internal/entry"
)

const insertFileSQL = `INSERT OR REPLACE INTO files (path, name, kind, size, mtime) VALUES (?, ?, ?, ?, ?)`
const insertErrorSQL = `INSERT INTO harvest_errors (path, message) VALUES (?, ?)`

const maxErrorsSampled = 1000

// Ingester batches harvested records and writes them to the database.
type Ingester struct {
	db              *sql.DB
	fileCh          <-chan entry.FileRecord
	errorCh         <-chan entry.ScanError
	batchSize       int
	flushIntervalMs int
	maxErrors       int
	cancelFunc      context.CancelFunc

	fileBatch   []entry.FileRecord
	errorBatch  []entry.ScanError
	errorCapped bool

	// Progress tracking (atomic)
	fileCount  int64
	dirCount   int64
	errorCount int64
	totalBytes int64

	fileStmt  *sql.Stmt
	errorStmt *sql.Stmt
}

// Progress holds current harvest progress.
type Progress struct {
	Files      int64
	Dirs       int64
	Errors     int64
	TotalBytes int64
}

// NewIngester creates a new ingester.
func NewIngester(db *sql.DB, fileCh <-chan entry.FileRecord, errorCh <-chan entry.ScanError, batchSize, flushIntervalMs, maxErrors int, cancelFunc context.CancelFunc) *Ingester {
	return &Ingester{
		db:              db,
		fileCh:          fileCh,
		errorCh:         errorCh,
		batchSize:       batchSize,
		flushIntervalMs: flushIntervalMs,
		maxErrors:       maxErrors,
		cancelFunc:      cancelFunc,
		fileBatch:       make([]entry.FileRecord, 0, batchSize),
		errorBatch:      make([]entry.ScanError, 0, 100),
	}
}

// Run consumes records from the channels and batches them to the
// database. It returns when both input channels are closed. Any write
// failure cancels the harvest context so producers blocked on the
// record channel unwind instead of waiting on a dead consumer.
func (ing *Ingester) Run(ctx context.Context) error {
	err := ing.run(ctx)
	if err != nil && ing.cancelFunc != nil {
		ing.cancelFunc()
	}
	return err
}

func (ing *Ingester) run(ctx context.Context) error {
	var err error
	ing.fileStmt, err = ing.db.Prepare(insertFileSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare file statement: %w", err)
	}
	defer ing.fileStmt.Close()

	ing.errorStmt, err = ing.db.Prepare(insertErrorSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare error statement: %w", err)
	}
	defer ing.errorStmt.Close()

	ticker := time.NewTicker(time.Duration(ing.flushIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	fileCh := ing.fileCh
	errorCh := ing.errorCh

	for fileCh != nil || errorCh != nil {
		select {
		case <-ctx.Done():
			return ing.flush()

		case r, ok := <-fileCh:
			if !ok {
				fileCh = nil
				continue
			}
			switch r.Kind {
			case entry.KindFile:
				atomic.AddInt64(&ing.fileCount, 1)
				atomic.AddInt64(&ing.totalBytes, r.Size)
			case entry.KindDir:
				atomic.AddInt64(&ing.dirCount, 1)
			}
			ing.fileBatch = append(ing.fileBatch, r)
			if len(ing.fileBatch) >= ing.batchSize {
				if err := ing.flushFiles(); err != nil {
					return err
				}
			}

		case e, ok := <-errorCh:
			if !ok {
				errorCh = nil
				continue
			}
			count := atomic.AddInt64(&ing.errorCount, 1)
			if ing.maxErrors > 0 && count >= int64(ing.maxErrors) {
				if ing.cancelFunc != nil {
					ing.cancelFunc() // Signal harvest to stop
				}
			}
			// Only sample first N errors to bound memory
			if !ing.errorCapped {
				ing.errorBatch = append(ing.errorBatch, e)
				if len(ing.errorBatch) >= maxErrorsSampled {
					ing.errorCapped = true
					if err := ing.flushErrors(); err != nil {
						return err
					}
				}
			}

		case <-ticker.C:
			if err := ing.flush(); err != nil {
				return err
			}
		}
	}

	return ing.flush()
}

func (ing *Ingester) flush() error {
	if err := ing.flushFiles(); err != nil {
		return err
	}
	return ing.flushErrors()
}

func (ing *Ingester) flushFiles() error {
	if len(ing.fileBatch) == 0 {
		return nil
	}

	tx, err := ing.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt := tx.Stmt(ing.fileStmt)
	for _, r := range ing.fileBatch {
		_, err := stmt.Exec(r.Path, r.Name, r.Kind, r.Size, r.ModTime.Unix())
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert file %q: %w", r.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	ing.fileBatch = ing.fileBatch[:0]
	return nil
}

func (ing *Ingester) flushErrors() error {
	if len(ing.errorBatch) == 0 {
		return nil
	}

	tx, err := ing.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin error transaction: %w", err)
	}

	stmt := tx.Stmt(ing.errorStmt)
	for _, e := range ing.errorBatch {
		_, err := stmt.Exec(e.Path, e.Message)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert error for %q: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit error transaction: %w", err)
	}

	ing.errorBatch = ing.errorBatch[:0]
	return nil
}

// ErrorCount returns the total number of errors encountered.
func (ing *Ingester) ErrorCount() int64 {
	return atomic.LoadInt64(&ing.errorCount)
}

// Progress returns current harvest progress (safe for concurrent access).
func (ing *Ingester) Progress() Progress {
	return Progress{
		Files:      atomic.LoadInt64(&ing.fileCount),
		Dirs:       atomic.LoadInt64(&ing.dirCount),
		Errors:     atomic.LoadInt64(&ing.errorCount),
		TotalBytes: atomic.LoadInt64(&ing.totalBytes),
	}
}
