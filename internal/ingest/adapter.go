// Package ingest implements the SourceAdapters: lazy, cancellable
// producers of Posts against the Store, one per external source.
package ingest

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

// Adapter is the common contract every source implements: compute a
// watermark, enumerate new entries in descending chronological order
// down to that watermark, and persist+emit each one that doesn't
// already exist.
type Adapter interface {
	// Name is the Post.Source tag this adapter writes, e.g. "mastodon"
	// or "rss:foo".
	Name() string
	// Run drains the source down to its watermark, calling onPost for
	// every newly persisted Post. It returns a *models.FetchError
	// wrapping every per-entry failure encountered; partial success is
	// the norm, so a non-nil error does not mean nothing was ingested.
	Run(ctx context.Context, st store.Store, onPost func(*models.Post)) error
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// isTriviallyShort reports whether txt has fewer than 3
// whitespace-separated tokens, per spec §4.3 step 4.
func isTriviallyShort(txt string) bool {
	return len(strings.Fields(txt)) < 3
}

// htmlToText strips markup, appending each <img alt="..."> as plain
// text and collapsing whitespace, matching the teacher's goquery-based
// HTML cleanup style.
func htmlToText(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return whitespaceRun.ReplaceAllString(htmlContent, " ")
	}

	var b strings.Builder
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		b.WriteString(s.Text())
	})
	if b.Len() == 0 {
		b.WriteString(doc.Text())
	}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); ok && alt != "" {
			b.WriteString(" ")
			b.WriteString(alt)
		}
	})

	return strings.TrimSpace(whitespaceRun.ReplaceAllString(b.String(), " "))
}

// persistIfNew checks (source, sourceID) for existence, and on miss
// upserts p, marks it ingested when trivially short, and invokes
// onPost with the stored row. It returns (nil, nil) when the post
// already existed.
func persistIfNew(ctx context.Context, st store.Store, p *models.Post, onPost func(*models.Post)) (*models.Post, error) {
	existing, err := st.FindPostBySourceAndSourceID(ctx, p.Source, p.SourceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	p.IsHidden = p.IsHidden || isTriviallyShort(p.ContentTxt)
	p.IsIngested = isTriviallyShort(p.ContentTxt)

	saved, err := st.UpsertPost(ctx, p)
	if err != nil {
		return nil, err
	}
	if onPost != nil {
		onPost(saved)
	}
	return saved, nil
}
