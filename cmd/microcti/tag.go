package main

import (
	"github.com/spf13/cobra"

	"github.com/esoadamo/micro-cti-go/internal/enrich"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Run tag assignment then IoC extraction over newly visible posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, cleanup, err := loadDeps(ctx, true)
		if err != nil {
			return err
		}
		defer cleanup()

		if _, err := enrich.RunTagStage(ctx, deps.Store, deps.Oracle); err != nil {
			return err
		}
		_, err = enrich.RunIoCStage(ctx, deps.Store, deps.Oracle)
		return err
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)
}
