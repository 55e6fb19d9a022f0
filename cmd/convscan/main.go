// Package main implements the convscan CLI, which turns static-analysis
// diagnostic logs into structured unsafe-conversion records and reports.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "convscan",
	Short: "Unsafe conversion diagnostic scanner",
	Long: `convscan scans the diagnostic logs a static analyzer writes for every package of a corpus,
extracts pointer cast, transmute and memory-safety bug findings into a record store, and
reports pattern frequencies and popularity rankings over the result.`,
	SilenceUsage: true,
}

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or TOML config file (values can be overridden by flags)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
