package ingest

import "github.com/esoadamo/micro-cti-go/internal/config"

// BuildAdapters returns one Adapter per source section present in cfg.
// A source with no `[section]` in config.toml is simply omitted,
// rather than erroring — operators may run with only a subset of
// sources configured.
func BuildAdapters(cfg *config.Config) []Adapter {
	var adapters []Adapter

	if cfg.Mastodon != nil {
		adapters = append(adapters, NewMastodonAdapter(*cfg.Mastodon))
	}
	if cfg.Bluesky != nil {
		adapters = append(adapters, NewBlueskyAdapter(*cfg.Bluesky))
	}
	if cfg.Airtable != nil {
		adapters = append(adapters, NewAirtableAdapter(*cfg.Airtable))
	}
	if cfg.Baserow != nil {
		adapters = append(adapters, NewBaserowAdapter(*cfg.Baserow))
	}
	if cfg.Telegram != nil {
		adapters = append(adapters, NewTelegramAdapter(*cfg.Telegram))
	}
	if len(cfg.RSS) > 0 {
		adapters = append(adapters, NewRSSAdapter(cfg.RSS))
	}

	return adapters
}
