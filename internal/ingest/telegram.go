package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

// TelegramAdapter drains the public preview pages (t.me/s/<channel>)
// of every configured chat. [telegram].api_id/api_hash are carried in
// config for a future MTProto client but unused here.
type TelegramAdapter struct {
	cfg    config.TelegramConfig
	client *http.Client
}

func NewTelegramAdapter(cfg config.TelegramConfig) *TelegramAdapter {
	return &TelegramAdapter{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}}
}

func (a *TelegramAdapter) Name() string { return "telegram" }

func (a *TelegramAdapter) Run(ctx context.Context, st store.Store, onPost func(*models.Post)) error {
	watermark, err := st.WatermarkFor(ctx, a.Name())
	if err != nil {
		return models.NewFetchError("telegram: resolving watermark", []error{err})
	}

	var failures []error
	for _, chat := range a.cfg.Chats {
		if err := a.drainChat(ctx, st, chat, watermark, onPost); err != nil {
			failures = append(failures, fmt.Errorf("telegram: channel %s: %w", chat, err))
		}
	}

	if len(failures) > 0 {
		return models.NewFetchError("telegram", failures)
	}
	return nil
}

func (a *TelegramAdapter) drainChat(ctx context.Context, st store.Store, chat string, watermark time.Time, onPost func(*models.Post)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://t.me/s/"+chat, nil)
	if err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	var innerErr error
	doc.Find(".tgme_widget_message").Each(func(_ int, sel *goquery.Selection) {
		dataPost, ok := sel.Attr("data-post")
		if !ok {
			return
		}
		createdAtStr, _ := sel.Find("time.time").Attr("datetime")
		createdAt, err := time.Parse(time.RFC3339, createdAtStr)
		if err != nil || createdAt.Before(watermark) {
			return
		}

		textSel := sel.Find(".tgme_widget_message_text").First()
		contentHTML, _ := textSel.Html()
		contentTxt := strings.TrimSpace(textSel.Text())
		if contentTxt == "" {
			return
		}

		p := &models.Post{
			Source:      a.Name(),
			SourceID:    dataPost,
			User:        chat,
			URL:         "https://t.me/" + dataPost,
			CreatedAt:   createdAt,
			FetchedAt:   time.Now().UTC(),
			ContentHTML: contentHTML,
			ContentTxt:  contentTxt,
			Raw:         fmt.Sprintf(`{"data_post":%q}`, dataPost),
		}
		if err := persistOne(ctx, st, p, onPost); err != nil {
			innerErr = err
		}
	})

	return innerErr
}
