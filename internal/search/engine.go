// Package search implements the query-language-driven SearchEngine:
// two-stage retrieval against the Store's full-text index, token-set
// scoring and penalties, distinct-post filtering and a result cache.
package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/search/query"
	"github.com/esoadamo/micro-cti-go/internal/search/textsim"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

// Hit pairs a matched Post with the metadata the scoring stage
// computed for it.
type Hit struct {
	Post           *models.Post
	RelevancyScore float64
	DistinctScore  int
}

// Engine runs searches against a Store, optionally caching results
// under CacheDir with CacheTTL (0 disables caching).
type Engine struct {
	Store    store.Store
	CacheDir string
	CacheTTL time.Duration
}

const retrievalFanout = 10

// Search parses raw, resolves retrieval and scoring, and returns the
// final hit list plus the resolved commands (for debug surfacing).
func (e *Engine) Search(ctx context.Context, raw string, now time.Time) ([]Hit, query.Commands, error) {
	q, err := query.ParseQuery(raw, now)
	if err != nil {
		return nil, query.Commands{}, err
	}
	canonical := q.CanonicalQuery()

	if e.CacheTTL > 0 {
		if hits, ok, err := loadCache(ctx, e.Store, canonical, now); err != nil {
			return nil, query.Commands{}, err
		} else if ok {
			return hits, q.Commands, nil
		}
	}

	hits, err := e.compute(ctx, q, now)
	if err != nil {
		return nil, query.Commands{}, err
	}

	if err := saveCache(ctx, e.Store, canonical, hits, e.CacheTTL, e.CacheDir, now); err != nil {
		return nil, query.Commands{}, err
	}
	return hits, q.Commands, nil
}

func (e *Engine) compute(ctx context.Context, q *query.ParsedQuery, now time.Time) ([]Hit, error) {
	if q.AST == nil {
		return nil, nil
	}

	leaves := q.AST.Leaves()
	hardFrom, hardTo := q.Commands.HardWindow()
	limit := q.Commands.Count * retrievalFanout

	seen := make(map[int64]bool)
	var ids []int64
	for _, leaf := range leaves {
		matched, err := e.Store.FullTextMatch(ctx, leaf, hardFrom, hardTo, limit)
		if err != nil {
			return nil, err
		}
		for _, id := range matched {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	posts, err := e.Store.FindPosts(ctx, store.PostFilter{IDs: ids})
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, p := range posts {
		if p.ContentSearch == nil {
			continue
		}
		score := baseScore(leaves, *p.ContentSearch)
		score *= tagPenalty(len(p.Tags))
		score *= datePenalty(p.CreatedAt, q.Commands.From, q.Commands.To)
		if adj := astAdjustment(q.AST, p, q.Commands.Strict); adj != nil {
			score *= *adj
		}
		if score < float64(q.Commands.MinScore) {
			continue
		}
		hits = append(hits, Hit{Post: p, RelevancyScore: score})
	}

	if q.Commands.Distinct {
		hits = dropDistinctDuplicates(hits, q.Commands.DistinctN)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].RelevancyScore != hits[j].RelevancyScore {
			return hits[i].RelevancyScore > hits[j].RelevancyScore
		}
		return hits[i].Post.CreatedAt.After(hits[j].Post.CreatedAt)
	})
	if len(hits) > q.Commands.Count {
		hits = hits[:q.Commands.Count]
	}
	return hits, nil
}

func baseScore(leaves []string, contentSearch string) float64 {
	best := 0
	for _, leaf := range leaves {
		if r := textsim.TokenSetRatio(leaf, contentSearch); r > best {
			best = r
		}
	}
	return float64(best)
}

// tagPenalty applies the strongest-matching bracket: 0 tags is a
// deeper penalty than <3, which is deeper than <5.
func tagPenalty(tagCount int) float64 {
	switch {
	case tagCount < 1:
		return 0.55
	case tagCount < 3:
		return 0.7
	case tagCount < 5:
		return 0.85
	default:
		return 1.0
	}
}

func datePenalty(createdAt, from, to time.Time) float64 {
	var daysOutside float64
	switch {
	case createdAt.Before(from):
		daysOutside = from.Sub(createdAt).Hours() / 24
	case createdAt.After(to):
		daysOutside = createdAt.Sub(to).Hours() / 24
	}
	switch {
	case daysOutside > 180:
		return 0.6
	case daysOutside > 60:
		return 0.7
	case daysOutside > 21:
		return 0.8
	case daysOutside > 0:
		return 0.9
	default:
		return 1.0
	}
}

// astAdjustment walks the AST against a specific post, producing the
// exact/selector-term relevancy multiplier; nil means "no opinion" and
// is dropped before OR/AND aggregation.
func astAdjustment(n *query.Node, p *models.Post, strict bool) *float64 {
	switch n.Kind {
	case query.KindExact:
		var v float64
		phrase := n.Text
		if p.ContentSearch != nil && strings.Contains(strings.ToLower(*p.ContentSearch), phrase) {
			v = 1.0
		} else if strict {
			v = 0.0
		} else {
			v = 0.5
		}
		return &v

	case query.KindTerm:
		kind, prefix, ok := n.Selector()
		if !ok {
			return nil
		}
		var actual string
		switch kind {
		case "user":
			actual = p.User
		case "source":
			actual = p.Source
		}
		var v float64
		if strings.HasPrefix(strings.ToLower(actual), strings.ToLower(prefix)) {
			v = 1.0
		} else if strict {
			v = 0.0
		} else {
			v = 0.3
		}
		return &v

	case query.KindOr:
		var max *float64
		for _, c := range n.Children {
			if v := astAdjustment(c, p, strict); v != nil && (max == nil || *v > *max) {
				max = v
			}
		}
		return max

	case query.KindAnd:
		var min *float64
		for _, c := range n.Children {
			if v := astAdjustment(c, p, strict); v != nil && (min == nil || *v < *min) {
				min = v
			}
		}
		return min

	default:
		return nil
	}
}

// dropDistinctDuplicates sorts ascending by created_at and drops the
// later-created post of any pair whose content_txt token-set ratio is
// ≥ n, recording that ratio as the kept post's DistinctScore.
func dropDistinctDuplicates(hits []Hit, n int) []Hit {
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Post.CreatedAt.Before(hits[j].Post.CreatedAt)
	})

	kept := make([]Hit, 0, len(hits))
	for _, h := range hits {
		duplicate := false
		for i := range kept {
			ratio := textsim.TokenSetRatio(kept[i].Post.ContentTxt, h.Post.ContentTxt)
			if ratio >= n {
				duplicate = true
				if ratio > kept[i].DistinctScore {
					kept[i].DistinctScore = ratio
				}
				break
			}
		}
		if !duplicate {
			kept = append(kept, h)
		}
	}
	return kept
}
