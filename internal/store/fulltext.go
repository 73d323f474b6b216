package store

import (
	"context"
	"strings"
	"time"
)

// FullTextMatch runs booleanQuery against the posts_fts index, restricted
// to visible Posts whose created_at falls in [hardFrom, hardTo], and
// returns matching post ids. booleanQuery is a plain space-separated list
// of terms (implicit AND) — SearchEngine's stage-1 retrieval (spec §4.5.3)
// builds it from one ANDed leaf of the query AST. Each term is quoted as
// an FTS5 string phrase before the query runs, since a bareword containing
// `-`, `:`, `.` or other FTS5-special characters (a CVE id, a domain, an
// IP) would otherwise raise a syntax error from SQLite.
func (s *SQLiteStore) FullTextMatch(ctx context.Context, booleanQuery string, hardFrom, hardTo time.Time, limit int) ([]int64, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT p.id FROM posts_fts f
		JOIN posts p ON p.id = f.rowid
		WHERE posts_fts MATCH ?
		  AND p.is_hidden = 0
		  AND p.created_at >= ? AND p.created_at <= ?
		LIMIT ?`,
		quoteFTS5Query(booleanQuery), hardFrom, hardTo, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// quoteFTS5Query wraps every whitespace-separated term in raw as an FTS5
// string phrase ("term"), doubling any embedded quote per FTS5's escaping
// rule, so the query survives MATCH regardless of which characters the
// original term contains. Space-separated phrases still mean implicit AND.
func quoteFTS5Query(raw string) string {
	fields := strings.Fields(raw)
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
