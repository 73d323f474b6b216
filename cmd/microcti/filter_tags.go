package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/esoadamo/micro-cti-go/internal/enrich"
)

var filterTagsCmd = &cobra.Command{
	Use:   "filter-tags",
	Short: "Delete low-signal tags and merge near-duplicate ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, cleanup, err := loadDeps(ctx, false)
		if err != nil {
			return err
		}
		defer cleanup()

		merged, deleted, err := enrich.RunTagCleanupStage(ctx, deps.Store)
		if err != nil {
			return err
		}
		log.Printf("filter-tags: merged %d tags, deleted %d tags", merged, deleted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterTagsCmd)
}
