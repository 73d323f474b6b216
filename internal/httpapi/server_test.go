package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/search"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s := store.New(":memory:")
	require.NoError(t, s.Acquire(context.Background()))
	t.Cleanup(func() { require.NoError(t, s.Release()) })
	return s
}

func seedPost(t *testing.T, st *store.SQLiteStore, sourceID, contentTxt string, createdAt time.Time) *models.Post {
	t.Helper()
	ctx := context.Background()
	p, err := st.UpsertPost(ctx, &models.Post{
		Source: "rss:feed", SourceID: sourceID, User: "alice", URL: "https://example.com/" + sourceID,
		CreatedAt: createdAt, FetchedAt: createdAt, ContentTxt: contentTxt, Raw: "{}",
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		tag, err := st.UpsertTagByName(ctx, "TAG"+string(rune('A'+i)), func() string { return "#fff" })
		require.NoError(t, err)
		require.NoError(t, st.ConnectTags(ctx, p.ID, []int64{tag.ID}))
	}

	ioc, err := st.UpsertIoCByTriple(ctx, models.IoC{Type: models.IoCTypeDomain, Value: "evil.example"})
	require.NoError(t, err)
	require.NoError(t, st.ConnectIoCs(ctx, p.ID, []int64{ioc.ID}))

	cs := contentTxt + " source:rss:feed user:alice " + createdAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	require.NoError(t, st.UpdatePostFields(ctx, p.ID, map[string]any{"content_search": cs, "is_hidden": false}))
	return p
}

func newTestServer(t *testing.T, now time.Time) *Server {
	st := newTestStore(t)
	seedPost(t, st, "1", "critical exploit chain disclosed today", now.Add(-time.Hour))

	return &Server{
		Engine:  &search.Engine{Store: st},
		Store:   st,
		MISPOrg: config.MISPOrgConfig{Name: "uCTI", UUID: "55f6ea5e-2c87-4b43-a2e0-000000000000", Email: "cti@example.org"},
		Now:     func() time.Time { return now },
	}
}

func TestHandleSearchJSONReturnsMatchedPosts(t *testing.T) {
	now := time.Now().UTC()
	s := newTestServer(t, now)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=critical+exploit+chain", nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 1)
	require.Equal(t, "alice", resp.Posts[0].User)
	require.NotEmpty(t, resp.Posts[0].UID)
}

func TestHandleIoCJSONAggregatesAcrossMatchedPosts(t *testing.T) {
	now := time.Now().UTC()
	s := newTestServer(t, now)

	req := httptest.NewRequest(http.MethodGet, "/ioc/json/?q=critical+exploit+chain", nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var rows []iocRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	require.Equal(t, "evil.example", rows[0].Value)
	require.Len(t, rows[0].Links, 1)
}

func TestHandleMISPManifestBuildsEventForMatchedPost(t *testing.T) {
	now := time.Now().UTC()
	s := newTestServer(t, now)

	req := httptest.NewRequest(http.MethodGet, "/ioc/misp/?q=critical+exploit+chain", nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	location := w.Result().Header.Get("Location")
	require.Contains(t, location, "/manifest.json")

	req2 := httptest.NewRequest(http.MethodGet, location, nil)
	w2 := httptest.NewRecorder()
	s.Routes().ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)

	var manifest map[string]map[string]any
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &manifest))
	require.Len(t, manifest, 1)
}

func TestHandleHealthcheckReportsOK(t *testing.T) {
	now := time.Now().UTC()
	s := newTestServer(t, now)

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
}

func TestHandleFaviconServesSVG(t *testing.T) {
	s := newTestServer(t, time.Now().UTC())
	req := httptest.NewRequest(http.MethodGet, "/favicon.svg", nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "svg")
}
