package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

// MastodonAdapter drains the home timeline of one Mastodon account.
type MastodonAdapter struct {
	cfg    config.MastodonConfig
	client *http.Client
}

func NewMastodonAdapter(cfg config.MastodonConfig) *MastodonAdapter {
	return &MastodonAdapter{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}}
}

func (a *MastodonAdapter) Name() string { return "mastodon" }

type mastodonStatus struct {
	ID        string    `json:"id"`
	URI       string    `json:"uri"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Content   string    `json:"content"`
	Account   struct {
		Acct string `json:"acct"`
	} `json:"account"`
}

var hashtagSpaceFix = regexp.MustCompile(`#\s+(\w)`)

func (a *MastodonAdapter) Run(ctx context.Context, st store.Store, onPost func(*models.Post)) error {
	watermark, err := st.WatermarkFor(ctx, a.Name())
	if err != nil {
		return models.NewFetchError("mastodon: resolving watermark", []error{err})
	}

	var failures []error
	var maxID string
	for {
		statuses, rateRemaining, rateReset, err := a.fetchTimeline(ctx, maxID)
		if err != nil {
			failures = append(failures, fmt.Errorf("mastodon: fetching timeline: %w", err))
			break
		}
		if len(statuses) == 0 {
			break
		}

		stop := false
		for _, s := range statuses {
			if s.CreatedAt.Before(watermark) {
				stop = true
				break
			}

			contentText := hashtagSpaceFix.ReplaceAllString(htmlToText(s.Content), "#$1")
			permalink := s.URL
			if permalink == "" {
				permalink = s.URI
			}
			p := &models.Post{
				Source:      a.Name(),
				SourceID:    s.ID,
				User:        s.Account.Acct,
				URL:         permalink,
				CreatedAt:   s.CreatedAt,
				FetchedAt:   time.Now().UTC(),
				ContentHTML: s.Content,
				ContentTxt:  contentText,
				Raw:         mustJSON(s),
			}
			if _, err := persistIfNew(ctx, st, p, onPost); err != nil {
				failures = append(failures, fmt.Errorf("mastodon: persisting status %s: %w", s.ID, err))
			}
		}
		if stop {
			break
		}

		maxID = statuses[len(statuses)-1].ID
		if rateRemaining <= 1 {
			sleepFor := time.Until(rateReset)
			if sleepFor > 0 {
				select {
				case <-ctx.Done():
					return models.NewFetchError("mastodon", append(failures, ctx.Err()))
				case <-time.After(sleepFor):
				}
			}
		}
	}

	if len(failures) > 0 {
		return models.NewFetchError("mastodon", failures)
	}
	return nil
}

func (a *MastodonAdapter) fetchTimeline(ctx context.Context, maxID string) ([]mastodonStatus, int, time.Time, error) {
	endpoint, err := url.Parse(a.cfg.APIBaseURL + "/api/v1/timelines/home")
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	q := endpoint.Query()
	if maxID != "" {
		q.Set("max_id", maxID)
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, time.Time{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var statuses []mastodonStatus
	if err := json.NewDecoder(resp.Body).Decode(&statuses); err != nil {
		return nil, 0, time.Time{}, err
	}

	remaining, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	reset, _ := time.Parse(time.RFC3339, resp.Header.Get("X-RateLimit-Reset"))
	return statuses, remaining, reset, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
