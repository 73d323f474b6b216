package main

import (
	"github.com/spf13/cobra"

	"github.com/esoadamo/micro-cti-go/internal/enrich"
)

var filterPostsCmd = &cobra.Command{
	Use:   "filter-posts",
	Short: "Re-run cybersecurity classification over historical posts, forcing the Oracle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, cleanup, err := loadDeps(ctx, true)
		if err != nil {
			return err
		}
		defer cleanup()

		_, err = enrich.RunFilterStage(ctx, deps.Store, deps.Oracle, true)
		return err
	},
}

func init() {
	rootCmd.AddCommand(filterPostsCmd)
}
