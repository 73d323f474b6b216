package ingest

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/esoadamo/micro-cti-go/internal/config"
)

// ChannelReachability is the result of probing every configured
// Telegram channel's public preview page, split into the channels that
// resolved and those that did not.
type ChannelReachability struct {
	Reachable   []string `toml:"reachable"`
	Unreachable []string `toml:"unreachable"`
}

// ListTelegramChannels probes every [telegram].chats entry against
// its t.me/s/<channel> preview page, the diagnostic counterpart of
// TelegramAdapter.Run: it tells an operator which configured channel
// names don't currently resolve to a public channel, the way the
// original dialog-listing job flagged channels the bot account
// could no longer see.
func ListTelegramChannels(ctx context.Context, cfg config.TelegramConfig) ChannelReachability {
	client := &http.Client{Timeout: 15 * time.Second}
	var out ChannelReachability

	for _, chat := range cfg.Chats {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://t.me/s/"+chat, nil)
		if err != nil {
			out.Unreachable = append(out.Unreachable, chat)
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			out.Unreachable = append(out.Unreachable, chat)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			out.Reachable = append(out.Reachable, chat)
		} else {
			out.Unreachable = append(out.Unreachable, chat)
		}
	}

	sort.Strings(out.Reachable)
	sort.Strings(out.Unreachable)
	return out
}
