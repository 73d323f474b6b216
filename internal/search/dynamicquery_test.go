package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDynamicQueriesSplitsWindowIntoWeeklyChunks(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Now().UTC()

	seedPost(t, st, "1", "critical exploit chain disclosed today", now.Add(-20*24*time.Hour), 5)

	e := &Engine{Store: st}
	windows, err := DynamicQueries(ctx, e, "critical exploit chain !age:21", now)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(windows), 3)
	require.True(t, windows[0].From.Before(windows[len(windows)-1].From))

	var total int
	for _, w := range windows {
		total += len(w.Hits)
	}
	require.Equal(t, 1, total)
}
