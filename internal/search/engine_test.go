package search

import (
	"context"
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

func seedPost(t *testing.T, st *store.SQLiteStore, sourceID, contentTxt string, createdAt time.Time, tagCount int) *models.Post {
	t.Helper()
	ctx := context.Background()
	p, err := st.UpsertPost(ctx, &models.Post{
		Source: "rss:feed", SourceID: sourceID, User: "alice", URL: "https://example.com/" + sourceID,
		CreatedAt: createdAt, FetchedAt: createdAt, ContentTxt: contentTxt, Raw: "{}",
	})
	require.NoError(t, err)

	var tagIDs []int64
	for i := 0; i < tagCount; i++ {
		tag, err := st.UpsertTagByName(ctx, "TAG"+string(rune('A'+i)), func() string { return "#fff" })
		require.NoError(t, err)
		tagIDs = append(tagIDs, tag.ID)
	}
	if len(tagIDs) > 0 {
		require.NoError(t, st.ConnectTags(ctx, p.ID, tagIDs))
	}

	cs := contentTxt + " source:rss:feed user:alice " + createdAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	require.NoError(t, st.UpdatePostFields(ctx, p.ID, map[string]any{"content_search": cs, "is_hidden": false}))
	return p
}

func TestEngineSearchFindsMatchingPostWithinAgeWindow(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Now().UTC()

	match := seedPost(t, st, "1", "New critical RCE in FooServer CVE-2025-1234", now.Add(-time.Hour), 5)
	seedPost(t, st, "2", "a completely unrelated cooking recipe post", now.Add(-time.Hour), 5)

	e := &Engine{Store: st}
	hits, cmds, err := e.Search(ctx, `"FooServer" CVE-2025-1234 !age:30`, now)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, match.ID, hits[0].Post.ID)
	require.GreaterOrEqual(t, hits[0].RelevancyScore, float64(15))
	require.Equal(t, 15, cmds.MinScore)
	require.WithinDuration(t, now.AddDate(0, 0, -30), cmds.From, time.Second)
}

func TestEngineSearchOrMatchesBothDisjuncts(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Now().UTC()

	seedPost(t, st, "1", "foo campaign detected across the globe today", now, 5)
	seedPost(t, st, "2", "bar campaign detected across the globe today", now, 5)

	e := &Engine{Store: st}
	hits, _, err := e.Search(ctx, "foo OR bar", now)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestEngineSearchAppliesTagPenaltyBelowMinScore(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Now().UTC()

	seedPost(t, st, "1", "obscure exploit mention", now, 0)

	e := &Engine{Store: st}
	hits, _, err := e.Search(ctx, "obscure exploit mention !min_score:90", now)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestEngineSearchCachesSecondCallWithoutRecomputing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Now().UTC()

	seedPost(t, st, "1", "critical exploit chain disclosed today", now, 5)

	e := &Engine{Store: st, CacheDir: filepath.Join(t.TempDir(), "cache"), CacheTTL: time.Hour}
	first, _, err := e.Search(ctx, "critical exploit chain", now)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, _, err := e.Search(ctx, "critical exploit chain", now)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, first[0].Post.ID, second[0].Post.ID)
}

func TestEngineDistinctDropsNearDuplicatePosts(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Now().UTC()

	seedPost(t, st, "1", "major breach disclosed at acme corp today", now.Add(-2*time.Hour), 5)
	seedPost(t, st, "2", "major breach disclosed at acme corp today", now.Add(-time.Hour), 5)

	e := &Engine{Store: st}
	hits, _, err := e.Search(ctx, "major breach disclosed !distinct:95", now)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}
