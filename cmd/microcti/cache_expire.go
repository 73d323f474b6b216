package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/esoadamo/micro-cti-go/internal/search"
)

var cacheExpireCmd = &cobra.Command{
	Use:   "cache-expire",
	Short: "Delete expired search result cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, cleanup, err := loadDeps(ctx, false)
		if err != nil {
			return err
		}
		defer cleanup()

		removed, err := search.ExpireCache(ctx, deps.Store, time.Now().UTC())
		if err != nil {
			return err
		}
		log.Printf("cache-expire: removed %d entries", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheExpireCmd)
}
