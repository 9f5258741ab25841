package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/capfei/crawler/internal/datex"
	"github.com/capfei/crawler/internal/db"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display harvest metadata",
	Long:  `Print metadata about a harvest database including timestamps and statistics.`,
	RunE:  runInfo,
}

var infoDB string

func init() {
	infoCmd.Flags().StringVarP(&infoDB, "db", "d", "./data/latest.db", "Path to database file")
}

func runInfo(cmd *cobra.Command, args []string) error {
	database, err := sql.Open("sqlite", infoDB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	h, err := db.GetHarvest(database)
	if err != nil {
		return fmt.Errorf("failed to read harvest metadata: %w", err)
	}

	fmt.Printf("Harvest Information\n")
	fmt.Printf("===================\n\n")
	fmt.Printf("Harvest ID:   %s\n", h.ID)
	fmt.Printf("Root Path:    %s\n", h.RootPath)
	fmt.Printf("Status:       %s\n", h.Status)
	fmt.Printf("Start Time:   %s\n", h.StartTime.Format(time.RFC3339))
	if !h.EndTime.IsZero() {
		fmt.Printf("End Time:     %s\n", h.EndTime.Format(time.RFC3339))
		fmt.Printf("Duration:     %s\n", h.EndTime.Sub(h.StartTime).Round(time.Millisecond))
	}
	if h.ReleaseDate != nil {
		fmt.Printf("Release Date: %s\n", datex.ISODate(*h.ReleaseDate))
	}
	fmt.Printf("\nStatistics\n")
	fmt.Printf("----------\n")
	fmt.Printf("Files:       %s\n", humanize.Comma(h.FileCount))
	fmt.Printf("Directories: %s\n", humanize.Comma(h.DirCount))
	fmt.Printf("Total Size:  %s\n", humanize.Bytes(uint64(h.TotalSize)))
	if h.ErrorCount > 0 {
		fmt.Printf("Errors:      %s\n", humanize.Comma(h.ErrorCount))
	}

	return nil
}
