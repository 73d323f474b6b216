package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/esoadamo/micro-cti-go/internal/ingest"
)

var telegramListChannelsCmd = &cobra.Command{
	Use:   "telegram-list-channels",
	Short: "Probe every configured Telegram chat and report which ones currently resolve",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, cleanup, err := loadDeps(ctx, false)
		if err != nil {
			return err
		}
		defer cleanup()

		if deps.Config.Telegram == nil {
			return fmt.Errorf("telegram-list-channels: no [telegram] section configured")
		}

		result := ingest.ListTelegramChannels(ctx, *deps.Config.Telegram)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(telegramListChannelsCmd)
}
