package enrich

import (
	"context"
	"sort"
	"strings"

	"github.com/esoadamo/micro-cti-go/internal/search/textsim"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

const (
	tagMinNameLength  = 5
	tagFuzzyThreshold = 90
)

// RunTagCleanupStage backs the filter-tags job: it drops tags whose
// name is too short to be meaningful, merges tags that are a prefix of
// one another or are near-duplicates by fuzzy ratio, and finally
// drops whatever is left attached to at most one post. The pairwise
// comparison is O(n²) over every remaining tag — acceptable at the
// tens-of-thousands scale this runs at, not millions.
func RunTagCleanupStage(ctx context.Context, st store.Store) (merged int, deleted int, err error) {
	tags, err := st.AllTags(ctx)
	if err != nil {
		return 0, 0, err
	}

	type tagRef struct {
		id   int64
		name string
	}
	var kept []tagRef
	for _, t := range tags {
		if len(t.Name) < tagMinNameLength {
			if err := st.DeleteTag(ctx, t.ID); err != nil {
				return merged, deleted, err
			}
			deleted++
			continue
		}
		kept = append(kept, tagRef{id: t.ID, name: t.Name})
	}

	// combine[mainID] accumulates every tag ID to merge into mainID.
	combine := make(map[int64][]int64)
	ignore := make(map[int64]bool)

	for i := 0; i < len(kept); i++ {
		a := kept[i]
		if ignore[a.id] {
			continue
		}
		for j := i + 1; j < len(kept); j++ {
			b := kept[j]
			if ignore[b.id] {
				continue
			}
			nameA, nameB := strings.ToLower(a.name), strings.ToLower(b.name)

			switch {
			case strings.HasPrefix(nameA, nameB):
				combine[b.id] = append(combine[b.id], a.id)
				ignore[a.id], ignore[b.id] = true, true
			case strings.HasPrefix(nameB, nameA):
				combine[a.id] = append(combine[a.id], b.id)
				ignore[a.id], ignore[b.id] = true, true
			case textsim.Ratio(nameA, nameB) > tagFuzzyThreshold:
				combine[a.id] = append(combine[a.id], b.id)
				ignore[a.id], ignore[b.id] = true, true
			}
		}
	}

	// Deterministic merge order, for stable logging/tests.
	mainIDs := make([]int64, 0, len(combine))
	for id := range combine {
		mainIDs = append(mainIDs, id)
	}
	sort.Slice(mainIDs, func(i, j int) bool { return mainIDs[i] < mainIDs[j] })

	for _, mainID := range mainIDs {
		for _, subID := range combine[mainID] {
			if err := st.ReparentTag(ctx, subID, mainID); err != nil {
				return merged, deleted, err
			}
			merged++
		}
	}

	survivors, err := st.AllTags(ctx)
	if err != nil {
		return merged, deleted, err
	}
	for _, t := range survivors {
		count, err := st.TagPostCount(ctx, t.ID)
		if err != nil {
			return merged, deleted, err
		}
		if count <= 1 {
			if err := st.DeleteTag(ctx, t.ID); err != nil {
				return merged, deleted, err
			}
			deleted++
		}
	}

	return merged, deleted, nil
}
