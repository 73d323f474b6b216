package main

import (
	"github.com/spf13/cobra"

	"github.com/esoadamo/micro-cti-go/internal/enrich"
	"github.com/esoadamo/micro-cti-go/internal/ingest"
)

var noFetch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch every configured source once, then run filter/tag/IoC stages over whatever is unprocessed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, cleanup, err := loadDeps(ctx, true)
		if err != nil {
			return err
		}
		defer cleanup()

		if !noFetch {
			if err := ingest.RunAll(ctx, deps.Store, deps.Adapters, nil); err != nil {
				return err
			}
		}

		if _, err := enrich.RunFilterStage(ctx, deps.Store, deps.Oracle, false); err != nil {
			return err
		}
		if _, err := enrich.RunTagStage(ctx, deps.Store, deps.Oracle); err != nil {
			return err
		}
		_, err = enrich.RunIoCStage(ctx, deps.Store, deps.Oracle)
		return err
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&noFetch, "no-fetch", false, "skip source fetching, only run stages over whatever remains unprocessed")
	rootCmd.AddCommand(ingestCmd)
}
