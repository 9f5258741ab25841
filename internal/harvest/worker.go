package harvest

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/capfei/crawler/internal/entry"
	"github.com/capfei/crawler/internal/pathutil"
)

// Worker processes directories and emits fileset records.
type Worker struct {
	id       int
	opts     *Options
	root     string
	recordCh chan<- entry.FileRecord
	errorCh  chan<- entry.ScanError
	dateCh   chan<- time.Time
	dirQueue chan dirWork
	inFlight *int64
	stack    []dirWork
}

// NewWorker creates a new worker.
func NewWorker(id int, opts *Options, root string, recordCh chan<- entry.FileRecord, errorCh chan<- entry.ScanError, dateCh chan<- time.Time, dirQueue chan dirWork, inFlight *int64) *Worker {
	return &Worker{
		id:       id,
		opts:     opts,
		root:     root,
		recordCh: recordCh,
		errorCh:  errorCh,
		dateCh:   dateCh,
		dirQueue: dirQueue,
		inFlight: inFlight,
	}
}

// Run processes directory work until the queue is closed.
func (w *Worker) Run(ctx context.Context) {
	for {
		if len(w.stack) > 0 {
			work := w.stack[len(w.stack)-1]
			w.stack = w.stack[:len(w.stack)-1]
			w.processWork(ctx, work)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case work, ok := <-w.dirQueue:
			if !ok {
				return
			}
			w.processWork(ctx, work)
		}
	}
}

// processDirectory reads a directory and emits a record for each child.
func (w *Worker) processDirectory(ctx context.Context, dirPath string) {
	if ctx.Err() != nil {
		return
	}

	dirEntries, err := os.ReadDir(dirPath)
	if err != nil {
		// Non-blocking send - drop error if channel full (errors are sampled anyway)
		select {
		case w.errorCh <- entry.ScanError{Path: w.relative(dirPath), Message: err.Error()}:
		default:
		}
		return
	}

	for i, de := range dirEntries {
		// Check for cancellation every 100 entries
		if i%100 == 0 && ctx.Err() != nil {
			return
		}

		childPath := filepath.Join(dirPath, de.Name())

		if w.opts.ShouldExclude(childPath) {
			continue
		}

		// Always use Lstat to avoid following symlinks
		info, err := os.Lstat(childPath)
		if err != nil {
			select {
			case w.errorCh <- entry.ScanError{Path: w.relative(childPath), Message: err.Error()}:
			default:
			}
			continue
		}

		kind := entry.KindFromMode(info.Mode())
		r := entry.FileRecord{
			Path:    w.relative(childPath),
			Name:    de.Name(),
			Kind:    kind,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}

		select {
		case w.recordCh <- r:
		case <-ctx.Done():
			return
		}

		if kind == entry.KindFile && isMetadataFile(de.Name()) && info.Size() <= metadataMaxBytes {
			if t := probeReleaseDate(childPath); t != nil {
				select {
				case w.dateCh <- *t:
				case <-ctx.Done():
					return
				}
			}
		}

		if kind == entry.KindDir {
			w.enqueueOrStack(ctx, childPath)
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// relative converts an absolute walk path into the canonical
// root-relative form stored in the database.
func (w *Worker) relative(path string) string {
	return pathutil.TrimParent(path, w.root)
}

func (w *Worker) processWork(ctx context.Context, work dirWork) {
	w.processDirectory(ctx, work.path)
	atomic.AddInt64(w.inFlight, -1)
}

func (w *Worker) enqueueOrStack(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	atomic.AddInt64(w.inFlight, 1)
	select {
	case w.dirQueue <- dirWork{path: path}:
	default:
		// Queue full: keep work local to avoid deadlock
		w.stack = append(w.stack, dirWork{path: path})
	}
}
