package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/capfei/crawler/internal/datex"
	"github.com/capfei/crawler/internal/db"
	"github.com/capfei/crawler/internal/harvest"
	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Harvest a component directory into a database",
	Long:  `Walk an unpacked component tree and record its fileset in a SQLite database.`,
	RunE:  runScan,
}

var (
	scanRoot      string
	scanOut       string
	scanWorkers   int
	scanRetention int
	scanExclude   []string
	scanMaxErrors int
	scanProgress  time.Duration
)

func init() {
	scanCmd.Flags().StringVarP(&scanRoot, "root", "r", ".", "Component directory to harvest")
	scanCmd.Flags().StringVarP(&scanOut, "out", "o", "./data", "Output directory for database")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 4, "Number of worker goroutines")
	scanCmd.Flags().IntVar(&scanRetention, "retention", 5, "Number of harvests to retain (0 = unlimited)")
	scanCmd.Flags().StringSliceVarP(&scanExclude, "exclude", "e", nil, "Regex patterns to exclude (can be repeated)")
	scanCmd.Flags().IntVar(&scanMaxErrors, "max-errors", 0, "Stop after N errors (0 = unlimited)")
	scanCmd.Flags().DurationVar(&scanProgress, "progress-interval", 30*time.Second, "Emit progress lines to stderr at this interval when not a TTY (0 to disable)")
}

func runScan(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(scanRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve root path: %w", err)
	}

	outDir, err := filepath.Abs(scanOut)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}

	fmt.Printf("Harvesting %s...\n", root)

	opts := harvest.DefaultOptions().
		WithWorkers(scanWorkers).
		WithMaxErrors(scanMaxErrors)

	for _, pattern := range scanExclude {
		if err := opts.AddExcludePattern(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}

	mgr := harvest.NewManager(outDir, scanRetention)
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nCanceling... (press Ctrl+C again to force)")
		cancel()
		<-sigCh
		os.Exit(130)
	}()
	startTime := time.Now()

	// Set up progress display
	var lastFiles, lastDirs, lastErrors, lastBytes int64
	var spinnerIdx int
	isTTY := isTerminal()

	mgr.SetProgressFunc(func(files, dirs, errors int64, totalBytes int64) {
		atomic.StoreInt64(&lastFiles, files)
		atomic.StoreInt64(&lastDirs, dirs)
		atomic.StoreInt64(&lastErrors, errors)
		atomic.StoreInt64(&lastBytes, totalBytes)
	})

	// Progress display goroutine
	progressDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		lastNonTTY := time.Now()
		for {
			select {
			case <-progressDone:
				return
			case <-ticker.C:
				files := atomic.LoadInt64(&lastFiles)
				dirs := atomic.LoadInt64(&lastDirs)
				errCount := atomic.LoadInt64(&lastErrors)
				bytes := atomic.LoadInt64(&lastBytes)
				elapsed := time.Since(startTime).Round(time.Millisecond)

				if isTTY {
					spinner := spinnerFrames[spinnerIdx%len(spinnerFrames)]
					spinnerIdx++

					errStr := ""
					if errCount > 0 {
						errStr = fmt.Sprintf(" | %d errors", errCount)
					}

					fmt.Fprintf(os.Stderr, "\r\033[K%s Harvesting... %d files | %d dirs | %s | %s%s",
						spinner, files, dirs, humanizeBytes(bytes), elapsed, errStr)
				} else if scanProgress > 0 && time.Since(lastNonTTY) >= scanProgress {
					fmt.Fprintf(os.Stderr, "PROGRESS files=%d dirs=%d bytes=%s elapsed=%s errors=%d\n",
						files, dirs, humanizeBytes(bytes), elapsed, errCount)
					lastNonTTY = time.Now()
				}
			}
		}
	}()

	dbPath, err := mgr.Run(ctx, root, opts)
	close(progressDone)

	// Clear progress line
	if isTTY {
		fmt.Fprintf(os.Stderr, "\r\033[K")
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Harvest canceled.")
			if dbPath != "" {
				fmt.Printf("Partial database: %s\n", dbPath)
			}
			return nil
		}
		return fmt.Errorf("harvest failed: %w", err)
	}

	fmt.Printf("Database: %s\n", dbPath)
	fmt.Printf("Harvest completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	// Print summary
	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil // Non-fatal
	}
	defer database.Close()

	h, err := db.GetHarvest(database)
	if err != nil {
		return nil // Non-fatal
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Files: %d\n", h.FileCount)
	fmt.Printf("  Directories: %d\n", h.DirCount)
	fmt.Printf("  Total size: %s\n", humanizeBytes(h.TotalSize))
	if h.ReleaseDate != nil {
		fmt.Printf("  Release date: %s\n", datex.ISODate(*h.ReleaseDate))
	}
	if h.ErrorCount > 0 {
		fmt.Printf("  Errors: %d\n", h.ErrorCount)
	}

	return nil
}

func humanizeBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
