package main

import (
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/capfei/crawler/internal/datex"
	"github.com/capfei/crawler/internal/db"
	"github.com/capfei/crawler/internal/entry"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a harvest database non-interactively",
	Long:  `Query the harvested fileset and output results for scripting.`,
	RunE:  runQuery,
}

var (
	queryDB     string
	queryPrefix string
	querySort   string
	queryLimit  int
)

func init() {
	queryCmd.Flags().StringVarP(&queryDB, "db", "d", "./data/latest.db", "Path to database file")
	queryCmd.Flags().StringVarP(&queryPrefix, "prefix", "p", "", "Canonical path prefix to match")
	queryCmd.Flags().StringVarP(&querySort, "sort", "s", "path", "Sort by: path, size, date, name")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 50, "Maximum number of results")
}

func runQuery(cmd *cobra.Command, args []string) error {
	database, err := sql.Open("sqlite", queryDB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	records, err := db.ListFiles(database, queryPrefix, querySort, queryLimit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KIND\tSIZE\tMODIFIED\tPATH\n")
	for _, r := range records {
		size := ""
		if r.Kind == entry.KindFile {
			size = humanize.Bytes(uint64(r.Size))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.Kind,
			size,
			datex.ISODate(r.ModTime),
			r.Path,
		)
	}
	w.Flush()

	return nil
}
