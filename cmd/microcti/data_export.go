package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/esoadamo/micro-cti-go/internal/ingest"
)

var dataExportCmd = &cobra.Command{
	Use:   "data-export",
	Short: "Write a gzip-compressed JSONL backup snapshot of in-flight posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, cleanup, err := loadDeps(ctx, false)
		if err != nil {
			return err
		}
		defer cleanup()

		path := deps.Dirs.Backup + "/snapshot-" + time.Now().UTC().Format("20060102T150405Z") + ".jsonl.gz"
		n, err := ingest.ExportSnapshot(ctx, deps.Store, path)
		if err != nil {
			return err
		}
		log.Printf("data-export: wrote %d posts to %s", n, path)
		return nil
	},
}

var dataImportCmd = &cobra.Command{
	Use:   "data-import <snapshot.jsonl.gz>",
	Short: "Restore posts from a snapshot written by data-export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, cleanup, err := loadDeps(ctx, false)
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := ingest.ImportSnapshot(ctx, deps.Store, args[0])
		if err != nil {
			return err
		}
		log.Printf("data-import: restored %d posts from %s", n, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataExportCmd)
	rootCmd.AddCommand(dataImportCmd)
}
