package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/oracle"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s := store.New(":memory:")
	require.NoError(t, s.Acquire(context.Background()))
	t.Cleanup(func() { require.NoError(t, s.Release()) })
	return s
}

// stubOracle answers every Ask call with a preset value, ignoring the
// prompts, for deterministic stage tests.
type stubOracle struct {
	boolAnswer    bool
	stringsAnswer []string
	iocsAnswer    []oracle.IoCCandidate
}

func (s *stubOracle) Ask(ctx context.Context, systemPrompt, userPrompt string, schema oracle.OutputSchema, retries int) (any, error) {
	switch schema {
	case oracle.SchemaBool:
		return s.boolAnswer, nil
	case oracle.SchemaStringList:
		return s.stringsAnswer, nil
	default:
		return s.iocsAnswer, nil
	}
}

func TestContainsCybersecKeywordStripsHandlesAndMatchesSubstring(t *testing.T) {
	require.True(t, containsCybersecKeyword("@alice reported a new exploit today"))
	require.False(t, containsCybersecKeyword("@bob had lunch with friends"))
}

func TestRunFilterStageHidesNonCybersecPostsViaOracle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	visible, err := st.UpsertPost(ctx, &models.Post{
		Source: "rss:x", SourceID: "1", URL: "https://a", ContentTxt: "new exploit released",
		CreatedAt: time.Now(), FetchedAt: time.Now(),
	})
	require.NoError(t, err)
	hidden, err := st.UpsertPost(ctx, &models.Post{
		Source: "rss:x", SourceID: "2", URL: "https://b", ContentTxt: "what a lovely day for a walk",
		CreatedAt: time.Now(), FetchedAt: time.Now(),
	})
	require.NoError(t, err)

	o := &stubOracle{boolAnswer: false}
	n, err := RunFilterStage(ctx, st, o, false)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	posts, err := st.FindPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	byID := map[int64]*models.Post{}
	for _, p := range posts {
		byID[p.ID] = p
	}
	require.False(t, byID[visible.ID].IsHidden)
	require.True(t, byID[hidden.ID].IsHidden)
	require.True(t, byID[visible.ID].IsIngested)
	require.True(t, byID[hidden.ID].IsIngested)
}

func TestRunTagStageAssignsLiteralAndProposedHashtags(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	p, err := st.UpsertPost(ctx, &models.Post{
		Source: "rss:x", SourceID: "1", URL: "https://a",
		ContentTxt: "#phishing campaign targets banks with a brand new exploit kit this week across many regions today",
		CreatedAt:  time.Now(), FetchedAt: time.Now(),
	})
	require.NoError(t, err)

	o := &stubOracle{stringsAnswer: []string{"#malware"}}
	n, err := RunTagStage(ctx, st, o)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	posts, err := st.FindPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.True(t, posts[0].ID == p.ID)
	require.True(t, posts[0].TagsAssigned)

	var names []string
	for _, tag := range posts[0].Tags {
		names = append(names, tag.Name)
	}
	require.Contains(t, names, "#PHISHING")
	require.Contains(t, names, "#MALWARE")
}

func TestRunIoCStageValidatesAndAddsPostLink(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	p, err := st.UpsertPost(ctx, &models.Post{
		Source: "rss:x", SourceID: "1", URL: "https://example.com/report",
		ContentTxt: "beacons to 1.2.3.4 and hxxps://evil[.]example/payload",
		CreatedAt:  time.Now(), FetchedAt: time.Now(),
	})
	require.NoError(t, err)

	o := &stubOracle{iocsAnswer: []oracle.IoCCandidate{
		{Value: "1.2.3.4", Type: "ip", Comment: "c2 address"},
		{Value: "hxxps://evil[.]example/payload", Type: "url", Comment: "payload"},
		{Value: "not a real ioc", Type: "ip", Comment: "bogus"},
	}}
	n, err := RunIoCStage(ctx, st, o)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	posts, err := st.FindPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.True(t, posts[0].IoCsAssigned)

	var values []string
	for _, ioc := range posts[0].IoCs {
		values = append(values, ioc.Value)
	}
	require.Contains(t, values, "1.2.3.4")
	require.Contains(t, values, "https://evil.example/payload")
	require.Contains(t, values, p.URL)
}
