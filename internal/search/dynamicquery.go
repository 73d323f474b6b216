package search

import (
	"context"
	"fmt"
	"time"

	"github.com/esoadamo/micro-cti-go/internal/search/query"
)

const dynamicWindowDays = 7

// WindowResult is one 7-day slice of a dynamic query.
type WindowResult struct {
	From time.Time
	To   time.Time
	Hits []Hit
}

// DynamicQueries backs /api/dynamic-queries: it resolves baseQuery's
// soft date window, splits it into oldest-first 7-day sub-windows, and
// runs baseQuery once per sub-window with its own explicit !from/!to,
// so a caller (the web API's dynamic-queries handler) can page
// through a long time range without ever scoring more than a week of
// candidates at once.
func DynamicQueries(ctx context.Context, e *Engine, baseQuery string, now time.Time) ([]WindowResult, error) {
	q, err := query.ParseQuery(baseQuery, now)
	if err != nil {
		return nil, err
	}

	var windows []WindowResult
	for from := q.Commands.From; from.Before(q.Commands.To); from = from.AddDate(0, 0, dynamicWindowDays) {
		to := from.AddDate(0, 0, dynamicWindowDays)
		if to.After(q.Commands.To) {
			to = q.Commands.To
		}

		windowQuery := fmt.Sprintf("%s !from:%s !to:%s", stripDateCommands(baseQuery),
			from.Format("2006-01-02"), to.Format("2006-01-02"))
		hits, _, err := e.Search(ctx, windowQuery, now)
		if err != nil {
			return nil, err
		}
		windows = append(windows, WindowResult{From: from, To: to, Hits: hits})
	}
	return windows, nil
}

func stripDateCommands(raw string) string {
	return query.DateCommandPattern().ReplaceAllString(raw, " ")
}
