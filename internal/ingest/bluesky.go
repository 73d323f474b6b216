package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

const blueskyBaseURL = "https://bsky.social"

// BlueskyAdapter drains every configured feed via the AT Protocol
// XRPC HTTP surface.
type BlueskyAdapter struct {
	cfg    config.BlueskyConfig
	client *http.Client
}

func NewBlueskyAdapter(cfg config.BlueskyConfig) *BlueskyAdapter {
	return &BlueskyAdapter{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}}
}

func (a *BlueskyAdapter) Name() string { return "bluesky" }

type blueskySession struct {
	AccessJwt string `json:"accessJwt"`
}

type blueskyFeedResponse struct {
	Cursor string            `json:"cursor"`
	Feed   []blueskyFeedItem `json:"feed"`
}

type blueskyFeedItem struct {
	Post struct {
		URI    string `json:"uri"`
		CID    string `json:"cid"`
		Author struct {
			Handle string `json:"handle"`
		} `json:"author"`
		Record struct {
			Text      string `json:"text"`
			CreatedAt string `json:"createdAt"`
		} `json:"record"`
	} `json:"post"`
}

func (a *BlueskyAdapter) login(ctx context.Context) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"identifier": a.cfg.Handle,
		"password":   a.cfg.AppPassword,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		blueskyBaseURL+"/xrpc/com.atproto.server.createSession", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bluesky login: unexpected status %s", resp.Status)
	}

	var session blueskySession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", err
	}
	return session.AccessJwt, nil
}

func (a *BlueskyAdapter) Run(ctx context.Context, st store.Store, onPost func(*models.Post)) error {
	watermark, err := st.WatermarkFor(ctx, a.Name())
	if err != nil {
		return models.NewFetchError("bluesky: resolving watermark", []error{err})
	}

	token, err := a.login(ctx)
	if err != nil {
		return models.NewFetchError("bluesky: login", []error{err})
	}

	var failures []error
	for _, feed := range a.cfg.Feeds {
		if err := a.drainFeed(ctx, st, token, feed, watermark, onPost); err != nil {
			failures = append(failures, fmt.Errorf("bluesky: feed %s: %w", feed, err))
		}
	}

	if len(failures) > 0 {
		return models.NewFetchError("bluesky", failures)
	}
	return nil
}

func (a *BlueskyAdapter) drainFeed(ctx context.Context, st store.Store, token, feed string, watermark time.Time, onPost func(*models.Post)) error {
	cursor := ""
	for {
		resp, err := a.fetchPage(ctx, token, feed, cursor)
		if err != nil {
			return err
		}
		if len(resp.Feed) == 0 {
			return nil
		}

		stop := false
		for _, item := range resp.Feed {
			createdAt, err := time.Parse(time.RFC3339, item.Post.Record.CreatedAt)
			if err != nil {
				continue
			}
			if createdAt.Before(watermark) {
				stop = true
				break
			}

			user := item.Post.Author.Handle
			p := &models.Post{
				Source:      a.Name(),
				SourceID:    item.Post.CID,
				User:        user,
				URL:         fmt.Sprintf("https://bsky.app/profile/%s/post/%s", user, lastPathSegment(item.Post.URI)),
				CreatedAt:   createdAt,
				FetchedAt:   time.Now().UTC(),
				ContentHTML: item.Post.Record.Text,
				ContentTxt:  item.Post.Record.Text,
				Raw:         mustJSON(item),
			}
			if err := persistOne(ctx, st, p, onPost); err != nil {
				return err
			}
		}
		if stop || resp.Cursor == "" {
			return nil
		}
		cursor = resp.Cursor
		time.Sleep(10 * time.Second)
	}
}

func (a *BlueskyAdapter) fetchPage(ctx context.Context, token, feed, cursor string) (*blueskyFeedResponse, error) {
	endpoint, _ := url.Parse(blueskyBaseURL + "/xrpc/app.bsky.feed.getFeed")
	q := endpoint.Query()
	q.Set("feed", feed)
	q.Set("limit", "50")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Language", "en")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out blueskyFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func lastPathSegment(uri string) string {
	for i := len(uri) - 1; i >= 0; i-- {
		if uri[i] == '/' {
			return uri[i+1:]
		}
	}
	return uri
}

// persistOne is persistIfNew without the return value, for adapters
// that don't need the saved row beyond the onPost callback.
func persistOne(ctx context.Context, st store.Store, p *models.Post, onPost func(*models.Post)) error {
	_, err := persistIfNew(ctx, st, p, onPost)
	return err
}
