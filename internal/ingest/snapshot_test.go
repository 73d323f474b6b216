package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s := store.New(":memory:")
	require.NoError(t, s.Acquire(context.Background()))
	t.Cleanup(func() { require.NoError(t, s.Release()) })
	return s
}

func TestExportThenImportSnapshotRoundTrips(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	_, err := src.UpsertPost(ctx, &models.Post{
		Source: "rss:foo", SourceID: "u1", User: "alice", URL: "https://example.com/1",
		CreatedAt: time.Now().UTC(), FetchedAt: time.Now().UTC(),
		ContentTxt: "hello cyber world", Raw: "{}",
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "posts.jsonl.gz")
	n, err := ExportSnapshot(ctx, src, path)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = os.Stat(path)
	require.NoError(t, err)

	dst := newTestStore(t)
	restored, err := ImportSnapshot(ctx, dst, path)
	require.NoError(t, err)
	require.Equal(t, 1, restored)

	p, err := dst.FindPostBySourceAndSourceID(ctx, "rss:foo", "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "alice", p.User)
}

func TestImportSnapshotSkipsExistingPosts(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	_, err := src.UpsertPost(ctx, &models.Post{
		Source: "rss:foo", SourceID: "u1", User: "alice", URL: "https://example.com/1",
		CreatedAt: time.Now().UTC(), FetchedAt: time.Now().UTC(),
		ContentTxt: "hello cyber world", Raw: "{}",
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "posts.jsonl.gz")
	_, err = ExportSnapshot(ctx, src, path)
	require.NoError(t, err)

	dst := newTestStore(t)
	_, err = dst.UpsertPost(ctx, &models.Post{
		Source: "rss:foo", SourceID: "u1", User: "mallory", URL: "https://example.com/1",
		CreatedAt: time.Now().UTC(), FetchedAt: time.Now().UTC(),
		ContentTxt: "already here", Raw: "{}",
	})
	require.NoError(t, err)

	restored, err := ImportSnapshot(ctx, dst, path)
	require.NoError(t, err)
	require.Equal(t, 0, restored)

	p, err := dst.FindPostBySourceAndSourceID(ctx, "rss:foo", "u1")
	require.NoError(t, err)
	require.Equal(t, "mallory", p.User)
}
