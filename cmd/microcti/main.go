// Command microcti is the single binary backing every scheduler job
// subcommand, the HTTP API, and the live log websocket: the scheduler
// re-invokes this same executable per job, exactly as
// internal/scheduler.Scheduler.runJob expects.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var baseDir string

var rootCmd = &cobra.Command{
	Use:   "microcti",
	Short: "Cyber-threat-intelligence aggregator",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", defaultBaseDir(), "base directory for config/data/logs/cache/backup")
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func defaultBaseDir() string {
	if v := os.Getenv("UCTI_BASE_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + "/.microcti"
}
