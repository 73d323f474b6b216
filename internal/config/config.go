// Package config loads the TOML configuration document described in
// spec.md §6, following the teacher's internal/config.Load shape: a
// typed value object populated once at startup, with an optional
// .env overlay loaded first via godotenv.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the fully parsed config.toml document.
type Config struct {
	AI       AIConfig           `toml:"ai"`
	Mastodon *MastodonConfig    `toml:"mastodon"`
	Airtable *AirtableConfig    `toml:"airtable"`
	Baserow  *BaserowConfig     `toml:"baserow"`
	Bluesky  *BlueskyConfig     `toml:"bluesky"`
	Telegram *TelegramConfig    `toml:"telegram"`
	RSS      map[string]RSSFeed `toml:"rss"`
	MISPOrg  MISPOrgConfig      `toml:"misp-org"`
}

// AIConfig configures the Oracle's LLM backend(s).
type AIConfig struct {
	Provider string      `toml:"provider"` // "mistral" or "openai-compatible"
	Model    string      `toml:"model"`
	APIKey   APIKeyValue `toml:"api_key"`
	BaseURL  string      `toml:"base_url"`
}

// APIKeyValue accepts either a single key or a list of keys in TOML,
// matching spec §6's "string or list".
type APIKeyValue []string

// UnmarshalTOML implements toml.Unmarshaler, since api_key may decode
// from either a bare string or an array of strings.
func (v *APIKeyValue) UnmarshalTOML(data any) error {
	switch t := data.(type) {
	case string:
		*v = APIKeyValue{t}
	case []any:
		keys := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("api_key: expected string entries, got %T", item)
			}
			keys = append(keys, s)
		}
		*v = keys
	default:
		return fmt.Errorf("api_key: expected string or list of strings, got %T", data)
	}
	return nil
}

// MastodonConfig holds Mastodon application credentials.
type MastodonConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AccessToken  string `toml:"access_token"`
	APIBaseURL   string `toml:"api_base_url"`
}

// AirtableConfig holds Airtable table coordinates.
type AirtableConfig struct {
	APIKey  string `toml:"api_key"`
	BaseID  string `toml:"base_id"`
	TableID string `toml:"table_id"`
}

// BaserowConfig holds Baserow table coordinates.
type BaserowConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	TableID string `toml:"table_id"`
}

// BlueskyConfig holds Bluesky credentials and the feeds to poll.
type BlueskyConfig struct {
	Handle      string   `toml:"handle"`
	AppPassword string   `toml:"app_password"`
	Feeds       []string `toml:"feeds"`
}

// TelegramConfig holds Telegram API credentials and the chats to drain.
type TelegramConfig struct {
	APIID   int      `toml:"api_id"`
	APIHash string   `toml:"api_hash"`
	Chats   []string `toml:"chats"`
}

// RSSFeed is one entry of the `[rss.<name>]` table map.
type RSSFeed struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// MISPOrgConfig identifies the organisation emitted in MISP feed output.
type MISPOrgConfig struct {
	Name  string `toml:"name"`
	UUID  string `toml:"uuid"`
	Email string `toml:"email"`
}

// Load reads <config dir>/config.toml, with an optional .env overlay
// loaded first (a missing .env is not an error — it is common in
// production where secrets come from the environment directly).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("config: [ai].provider is required")
	}
	if len(cfg.AI.APIKey) == 0 {
		return nil, fmt.Errorf("config: [ai].api_key is required")
	}

	return &cfg, nil
}

// MustGetenv reads an environment variable or returns def when unset.
func MustGetenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
