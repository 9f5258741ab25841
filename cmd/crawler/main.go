package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "crawler",
	Short: "A component metadata harvester",
	Long: `crawler inspects unpacked software components and records their
filesets in SQLite with canonical paths and release dates. It can
drive external scanner tools and provides a TUI browser for
exploring harvested filesets.`,
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(execCmd)
}
