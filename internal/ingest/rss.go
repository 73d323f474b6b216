package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

// RSSAdapter is one producer iterating every configured [rss.<name>]
// feed, writing each entry under source "rss:<name>".
type RSSAdapter struct {
	feeds  map[string]config.RSSFeed
	parser *gofeed.Parser
}

func NewRSSAdapter(feeds map[string]config.RSSFeed) *RSSAdapter {
	return &RSSAdapter{feeds: feeds, parser: gofeed.NewParser()}
}

func (a *RSSAdapter) Name() string { return "rss" }

func (a *RSSAdapter) Run(ctx context.Context, st store.Store, onPost func(*models.Post)) error {
	var failures []error
	for name, feedCfg := range a.feeds {
		source := "rss:" + name
		if err := a.drainFeed(ctx, st, source, feedCfg, onPost); err != nil {
			failures = append(failures, fmt.Errorf("rss: feed %s: %w", name, err))
		}
	}

	if len(failures) > 0 {
		return models.NewFetchError("rss", failures)
	}
	return nil
}

func (a *RSSAdapter) drainFeed(ctx context.Context, st store.Store, source string, feedCfg config.RSSFeed, onPost func(*models.Post)) error {
	watermark, err := st.WatermarkFor(ctx, source)
	if err != nil {
		return err
	}

	feed, err := a.parser.ParseURLWithContext(feedCfg.URL, ctx)
	if err != nil {
		return err
	}

	for _, item := range feed.Items {
		createdAt := itemTime(item)
		if createdAt.Before(watermark) {
			continue
		}

		contentHTML := item.Content
		if contentHTML == "" {
			contentHTML = item.Description
		}
		contentTxt := htmlToText(contentHTML)
		if contentTxt == "" {
			contentTxt = item.Title
		}

		sourceID := item.GUID
		if sourceID == "" {
			sourceID = item.Link
		}

		p := &models.Post{
			Source:      source,
			SourceID:    sourceID,
			User:        feedCfg.Name,
			URL:         item.Link,
			CreatedAt:   createdAt,
			FetchedAt:   time.Now().UTC(),
			ContentHTML: contentHTML,
			ContentTxt:  contentTxt,
			Raw:         mustJSON(item),
		}
		if err := persistOne(ctx, st, p, onPost); err != nil {
			return err
		}
	}
	return nil
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Now().UTC()
}
