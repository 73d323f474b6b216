package search

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

// cachedHit is the gob-encoded payload shape, keyed by PostID rather
// than a full Post copy: the cache hydrates Posts from the Store at
// read time, trading a small extra query for a payload that can never
// go stale relative to tag/IoC edits made after it was written.
type cachedHit struct {
	PostID         int64
	RelevancyScore float64
	DistinctScore  int
}

func cacheKey(canonicalQuery string) string {
	sum := sha256.Sum256([]byte(canonicalQuery))
	return hex.EncodeToString(sum[:])
}

// loadCache returns the cached hits for canonicalQuery if a
// non-expired SearchCache row exists, else ok=false.
func loadCache(ctx context.Context, st store.Store, canonicalQuery string, now time.Time) ([]Hit, bool, error) {
	row, err := st.CacheGet(ctx, cacheKey(canonicalQuery))
	if err != nil {
		return nil, false, err
	}
	if row == nil || !row.ExpiresAt.After(now) {
		return nil, false, nil
	}

	raw, err := os.ReadFile(row.FilePath)
	if err != nil {
		return nil, false, fmt.Errorf("reading cache payload: %w", err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, false, fmt.Errorf("reading cache gzip header: %w", err)
	}
	defer gz.Close()

	var cached []cachedHit
	if err := gob.NewDecoder(gz).Decode(&cached); err != nil {
		return nil, false, fmt.Errorf("decoding cache payload: %w", err)
	}

	hits := make([]Hit, 0, len(cached))
	for _, c := range cached {
		posts, err := st.FindPosts(ctx, store.PostFilter{IDs: []int64{c.PostID}, Limit: 1})
		if err != nil {
			return nil, false, err
		}
		if len(posts) == 0 {
			continue
		}
		hits = append(hits, Hit{Post: posts[0], RelevancyScore: c.RelevancyScore, DistinctScore: c.DistinctScore})
	}
	return hits, true, nil
}

// saveCache writes hits to a gzip+gob file under baseDir and upserts
// the SearchCache row with its expiry. ttl<=0 disables caching.
func saveCache(ctx context.Context, st store.Store, canonicalQuery string, hits []Hit, ttl time.Duration, baseDir string, now time.Time) error {
	if ttl <= 0 {
		return nil
	}

	cached := make([]cachedHit, len(hits))
	for i, h := range hits {
		cached[i] = cachedHit{PostID: h.Post.ID, RelevancyScore: h.RelevancyScore, DistinctScore: h.DistinctScore}
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(cached); err != nil {
		return fmt.Errorf("encoding cache payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return err
	}

	key := cacheKey(canonicalQuery)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	path := filepath.Join(baseDir, key+".gob.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing cache payload: %w", err)
	}

	return st.CacheUpsert(ctx, &models.SearchCache{
		QueryHash: key,
		Query:     canonicalQuery,
		ExpiresAt: now.Add(ttl),
		FilePath:  path,
	})
}

// ExpireCache deletes every SearchCache row (and its backing file)
// whose expiry has passed, for the cache-expire job.
func ExpireCache(ctx context.Context, st store.Store, now time.Time) (int, error) {
	expired, err := st.CacheExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	var removed int
	for _, row := range expired {
		if err := os.Remove(row.FilePath); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing cache file %s: %w", row.FilePath, err)
		}
		if err := st.CacheDelete(ctx, row.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
