package misp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/models"
)

func testOrgConfig() config.MISPOrgConfig {
	return config.MISPOrgConfig{
		Name:  "uCTI",
		UUID:  "55f6ea5e-2c87-4b43-a2e0-000000000000",
		Email: "cti@example.org",
	}
}

func TestBuildEventProducesDeterministicUUIDForSameURL(t *testing.T) {
	org := orgFromConfig(testOrgConfig())
	post := &models.Post{URL: "https://example.com/post/1", CreatedAt: time.Now()}
	now := time.Now()

	a := BuildEvent(org, post, nil, now)
	b := BuildEvent(org, post, nil, now)

	require.Equal(t, a.Event.UUID, b.Event.UUID)
	require.NotEmpty(t, a.Event.UUID)
}

func TestBuildEventMarksRecentPostsOngoingAndOldPostsComplete(t *testing.T) {
	org := orgFromConfig(testOrgConfig())
	now := time.Now()

	recent := &models.Post{URL: "https://example.com/recent", CreatedAt: now.AddDate(0, 0, -1)}
	old := &models.Post{URL: "https://example.com/old", CreatedAt: now.AddDate(0, 0, -30)}

	require.Equal(t, analysisOngoing, BuildEvent(org, recent, nil, now).Event.Analysis)
	require.Equal(t, analysisComplete, BuildEvent(org, old, nil, now).Event.Analysis)
}

func TestBuildEventConvertsIoCsAndAppendsSourceLink(t *testing.T) {
	org := orgFromConfig(testOrgConfig())
	post := &models.Post{URL: "https://example.com/post/2", CreatedAt: time.Now()}
	iocs := []*models.IoC{
		{Type: models.IoCTypeDomain, Value: "evil.example", Comment: "c2 domain"},
		{Type: models.IoCTypeHash, Subtype: "sha256", Value: "a" + strings.Repeat("b", 63)},
	}

	doc := BuildEvent(org, post, iocs, time.Now())

	require.Len(t, doc.Event.Attribute, 3) // 2 iocs + trailing source link
	require.Equal(t, "domain", doc.Event.Attribute[0].Type)
	require.Equal(t, "Network activity", doc.Event.Attribute[0].Category)
	require.Equal(t, "sha256", doc.Event.Attribute[1].Type)

	last := doc.Event.Attribute[len(doc.Event.Attribute)-1]
	require.Equal(t, "link", last.Type)
	require.Equal(t, post.URL, last.Value)
	require.True(t, last.DisableCorrelation)
}

func TestGenerateFeedSkipsPostsWithNoIoCsAndFillsManifest(t *testing.T) {
	now := time.Now()
	withIoCs := &models.Post{URL: "https://example.com/a", CreatedAt: now, IoCs: []*models.IoC{
		{Type: models.IoCTypeIP, Value: "203.0.113.5"},
	}}
	withoutIoCs := &models.Post{URL: "https://example.com/b", CreatedAt: now}

	feed := GenerateFeed(testOrgConfig(), []*models.Post{withIoCs, withoutIoCs}, now)

	require.Len(t, feed.Events, 1)
	require.Len(t, feed.Manifest, 1)

	entry, ok := feed.Manifest[feed.Events[0].Event.UUID]
	require.True(t, ok)
	require.Equal(t, feed.Events[0].Event.Info, entry.Info)
}
