package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/esoadamo/micro-cti-go/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := New(":memory:")
	require.NoError(t, s.Acquire(context.Background()))
	t.Cleanup(func() { require.NoError(t, s.Release()) })
	return s
}

func TestUpsertPostIsFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := &models.Post{
		Source: "rss:foo", SourceID: "u1", User: "alice", URL: "https://example.com/1",
		CreatedAt: time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), FetchedAt: time.Now().UTC(),
		ContentTxt: "hello world", Raw: "{}",
	}
	first, err := s.UpsertPost(ctx, p)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	dup := &models.Post{
		Source: "rss:foo", SourceID: "u1", User: "mallory", URL: "https://example.com/2",
		CreatedAt: time.Now().UTC(), FetchedAt: time.Now().UTC(),
		ContentTxt: "different content", Raw: "{}",
	}
	second, err := s.UpsertPost(ctx, dup)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "alice", second.User)
}

func TestFindPostBySourceAndSourceIDMissing(t *testing.T) {
	s := newTestStore(t)
	p, err := s.FindPostBySourceAndSourceID(context.Background(), "mastodon", "does-not-exist")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestUpsertTagByNameIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	calls := 0
	colorFn := func() string { calls++; return "#ff0000" }

	t1, err := s.UpsertTagByName(ctx, "#RCE", colorFn)
	require.NoError(t, err)
	t2, err := s.UpsertTagByName(ctx, "#RCE", colorFn)
	require.NoError(t, err)

	require.Equal(t, t1.ID, t2.ID)
	require.Equal(t, 1, calls)
}

func TestUpsertIoCByTripleUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ioc := models.IoC{Value: "CVE-2025-1234", Type: models.IoCTypeVulnerability, Subtype: ""}
	a, err := s.UpsertIoCByTriple(ctx, ioc)
	require.NoError(t, err)
	b, err := s.UpsertIoCByTriple(ctx, ioc)
	require.NoError(t, err)
	require.Equal(t, a.ID, b.ID)
}

func TestWatermarkDefaultsToOneDayAgoWhenEmpty(t *testing.T) {
	s := newTestStore(t)
	wm, err := s.WatermarkFor(context.Background(), "mastodon")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().UTC().Add(-24*time.Hour), wm, 5*time.Second)
}

func TestFullTextMatchRespectsHiddenAndWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	visible := "New critical RCE in FooServer CVE-2025-1234"
	p := &models.Post{
		Source: "rss:foo", SourceID: "u1", User: "alice", URL: "https://example.com/1",
		CreatedAt: time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), FetchedAt: time.Now().UTC(),
		ContentTxt: visible, ContentSearch: &visible, Raw: "{}",
	}
	_, err := s.UpsertPost(ctx, p)
	require.NoError(t, err)

	hiddenTxt := "unrelated gardening tips"
	hidden := &models.Post{
		Source: "rss:foo", SourceID: "u2", User: "bob", URL: "https://example.com/2",
		CreatedAt: time.Date(2025, 1, 2, 11, 0, 0, 0, time.UTC), FetchedAt: time.Now().UTC(),
		ContentTxt: hiddenTxt, ContentSearch: &hiddenTxt, Raw: "{}", IsHidden: true,
	}
	_, err = s.UpsertPost(ctx, hidden)
	require.NoError(t, err)

	ids, err := s.FullTextMatch(ctx, "FooServer",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), 100)
	require.NoError(t, err)
	require.Len(t, ids, 1)
}
