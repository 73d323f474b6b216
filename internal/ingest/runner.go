package ingest

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

// maxConcurrentAdapters bounds how many SourceAdapters run at once, so
// a large adapter set doesn't starve the Store's single connection.
const maxConcurrentAdapters = 16

// RunAll runs every adapter concurrently (bounded by
// maxConcurrentAdapters) and returns a FetchError aggregating every
// adapter's own error, or nil if every adapter succeeded fully. One
// adapter failing never cancels the others — this is a fan-out, not
// an all-or-nothing barrier.
func RunAll(ctx context.Context, st store.Store, adapters []Adapter, onPost func(*models.Post)) error {
	sem := semaphore.NewWeighted(maxConcurrentAdapters)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error

	for _, adapter := range adapters {
		adapter := adapter
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures = append(failures, err)
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			log.Printf("[ingest] %s: starting", adapter.Name())
			if err := adapter.Run(ctx, st, onPost); err != nil {
				log.Printf("[ingest] %s: failed: %v", adapter.Name(), err)
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return
			}
			log.Printf("[ingest] %s: done", adapter.Name())
		}()
	}

	wg.Wait()

	if len(failures) > 0 {
		return models.NewFetchError("ingest run", failures)
	}
	return nil
}
