package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLastRunStoreDefaultsToZeroTime(t *testing.T) {
	s, err := newLastRunStore(t.TempDir())
	require.NoError(t, err)
	require.True(t, s.get("ingest").IsZero())
}

func TestLastRunStorePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	s, err := newLastRunStore(dir)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.markNow("ingest", now))

	reloaded, err := newLastRunStore(dir)
	require.NoError(t, err)
	require.Equal(t, now, reloaded.get("ingest"))
}

func TestJobsTableHasTheFiveScheduledEntries(t *testing.T) {
	require.Len(t, Jobs, 5)
	for _, name := range []string{"cache-expire", "data-export", "filter-tags", "ingest", "tag"} {
		_, ok := Jobs[name]
		require.True(t, ok, "missing job %s", name)
	}
}
