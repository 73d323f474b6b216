// Package enrich implements the staged post transformer: cybersecurity
// filtering, tag assignment and IoC extraction, each stage draining a
// selection predicate over the Store until nothing more matches.
package enrich

import (
	"context"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

const batchSize = 200

// drain repeatedly fetches up to batchSize posts matching filter and
// runs process over each, stopping once a fetch comes back empty.
// process is expected to flip the post out of filter's selection so
// the loop terminates; a failing post is recorded and skipped, other
// posts in the batch still proceed.
func drain(ctx context.Context, st store.Store, filter store.PostFilter, process func(context.Context, *models.Post) error) (int, error) {
	filter.Limit = batchSize
	var processed int
	var failures []error
	attempted := make(map[int64]bool)

	for {
		posts, err := st.FindPosts(ctx, filter)
		if err != nil {
			return processed, err
		}

		fresh := posts[:0:0]
		for _, p := range posts {
			if !attempted[p.ID] {
				fresh = append(fresh, p)
			}
		}
		if len(fresh) == 0 {
			break
		}

		for _, p := range fresh {
			attempted[p.ID] = true
			if err := process(ctx, p); err != nil {
				failures = append(failures, err)
				continue
			}
			processed++
		}
	}

	if len(failures) > 0 {
		return processed, models.NewFetchError("enrich stage", failures)
	}
	return processed, nil
}
