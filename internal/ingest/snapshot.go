package ingest

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

const snapshotBatchSize = 1000
const snapshotConcurrency = 16

// snapshotPost is the JSON-lines record shape written by ExportSnapshot
// and read back by ImportSnapshot, one per line, gzip-compressed.
type snapshotPost struct {
	Source      string         `json:"source"`
	SourceID    string         `json:"source_id"`
	User        string         `json:"user"`
	URL         string         `json:"url"`
	CreatedAt   time.Time      `json:"created_at"`
	FetchedAt   time.Time      `json:"fetched_at"`
	ContentHTML string         `json:"content_html"`
	ContentTxt  string         `json:"content_txt"`
	Raw         string         `json:"raw"`
	IsHidden    bool           `json:"is_hidden"`
	IsIngested  bool           `json:"is_ingested"`
	Tags        []snapshotTag  `json:"tags"`
}

type snapshotTag struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ExportSnapshot writes every Post not yet fully processed
// (is_hidden=false OR is_ingested=false), with its tags, as gzip-compressed
// JSON lines to path — a portable backup of in-flight data.
func ExportSnapshot(ctx context.Context, st store.Store, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()
	w := bufio.NewWriter(gz)
	defer w.Flush()

	written := 0
	lastID := int64(0)
	for {
		posts, err := st.FindPostsPendingSnapshot(ctx, lastID, snapshotBatchSize)
		if err != nil {
			return written, err
		}
		if len(posts) == 0 {
			break
		}

		for _, p := range posts {
			lastID = p.ID
			line, err := json.Marshal(toSnapshotPost(p))
			if err != nil {
				return written, err
			}
			if _, err := w.Write(append(line, '\n')); err != nil {
				return written, err
			}
			written++
		}

		if len(posts) < snapshotBatchSize {
			break
		}
	}

	return written, nil
}

func toSnapshotPost(p *models.Post) snapshotPost {
	tags := make([]snapshotTag, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, snapshotTag{Name: t.Name, Color: t.Color})
	}
	return snapshotPost{
		Source: p.Source, SourceID: p.SourceID, User: p.User, URL: p.URL,
		CreatedAt: p.CreatedAt, FetchedAt: p.FetchedAt,
		ContentHTML: p.ContentHTML, ContentTxt: p.ContentTxt, Raw: p.Raw,
		IsHidden: p.IsHidden, IsIngested: p.IsIngested, Tags: tags,
	}
}

// ImportSnapshot reads a gzip JSON-lines file written by ExportSnapshot
// and restores every post (deduplicated by source+source_id, same as
// a SourceAdapter) one at a time, in file order.
func ImportSnapshot(ctx context.Context, st store.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("reading snapshot gzip header: %w", err)
	}
	defer gz.Close()

	sem := semaphore.NewWeighted(snapshotConcurrency)
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var restored int
	var failures []error
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var sp snapshotPost
		if err := json.Unmarshal(line, &sp); err != nil {
			failures = append(failures, err)
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			failures = append(failures, err)
			break
		}
		if err := restoreOne(ctx, st, sp); err != nil {
			failures = append(failures, err)
		} else {
			restored++
		}
		sem.Release(1)
	}
	if err := scanner.Err(); err != nil {
		failures = append(failures, err)
	}

	if len(failures) > 0 {
		return restored, models.NewFetchError("snapshot import", failures)
	}
	return restored, nil
}

func restoreOne(ctx context.Context, st store.Store, sp snapshotPost) error {
	existing, err := st.FindPostBySourceAndSourceID(ctx, sp.Source, sp.SourceID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	p := &models.Post{
		Source: sp.Source, SourceID: sp.SourceID, User: sp.User, URL: sp.URL,
		CreatedAt: sp.CreatedAt, FetchedAt: sp.FetchedAt,
		ContentHTML: sp.ContentHTML, ContentTxt: sp.ContentTxt, Raw: sp.Raw,
		IsHidden: sp.IsHidden, IsIngested: sp.IsIngested,
	}
	saved, err := st.UpsertPost(ctx, p)
	if err != nil {
		return err
	}

	if len(sp.Tags) > 0 {
		var tagIDs []int64
		for _, t := range sp.Tags {
			tag, err := st.UpsertTagByName(ctx, t.Name, func() string { return t.Color })
			if err != nil {
				return err
			}
			tagIDs = append(tagIDs, tag.ID)
		}
		if err := st.ConnectTags(ctx, saved.ID, tagIDs); err != nil {
			return err
		}
	}
	return nil
}
