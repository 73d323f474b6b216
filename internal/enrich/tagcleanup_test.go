package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

func newTagCleanupPost(t *testing.T, st *store.SQLiteStore, sourceID string) *models.Post {
	t.Helper()
	p, err := st.UpsertPost(context.Background(), &models.Post{
		Source: "rss:x", SourceID: sourceID, URL: "https://example.com/" + sourceID,
		ContentTxt: "placeholder", CreatedAt: time.Now(), FetchedAt: time.Now(),
	})
	require.NoError(t, err)
	return p
}

func TestRunTagCleanupStageDeletesShortTags(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.UpsertTagByName(ctx, "ABC", func() string { return "#fff" })
	require.NoError(t, err)

	merged, deleted, err := RunTagCleanupStage(ctx, st)
	require.NoError(t, err)
	require.Equal(t, 0, merged)
	require.Equal(t, 1, deleted)

	all, err := st.AllTags(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestRunTagCleanupStageMergesPrefixTags(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	p1 := newTagCleanupPost(t, st, "1")
	p2 := newTagCleanupPost(t, st, "2")

	base, err := st.UpsertTagByName(ctx, "RANSOM", func() string { return "#fff" })
	require.NoError(t, err)
	ext, err := st.UpsertTagByName(ctx, "RANSOMWARE", func() string { return "#fff" })
	require.NoError(t, err)
	require.NoError(t, st.ConnectTags(ctx, p1.ID, []int64{base.ID, ext.ID}))
	require.NoError(t, st.ConnectTags(ctx, p2.ID, []int64{base.ID}))

	merged, _, err := RunTagCleanupStage(ctx, st)
	require.NoError(t, err)
	require.Equal(t, 1, merged)

	all, err := st.AllTags(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "RANSOM", all[0].Name)
}

func TestRunTagCleanupStageDeletesTagsAttachedToAtMostOnePost(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	p := newTagCleanupPost(t, st, "1")

	lonely, err := st.UpsertTagByName(ctx, "OBSCURE", func() string { return "#fff" })
	require.NoError(t, err)
	require.NoError(t, st.ConnectTags(ctx, p.ID, []int64{lonely.ID}))

	_, deleted, err := RunTagCleanupStage(ctx, st)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
}
