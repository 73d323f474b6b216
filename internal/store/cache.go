package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/esoadamo/micro-cti-go/internal/models"
)

// CacheGet returns nil, nil when no row matches queryHash.
func (s *SQLiteStore) CacheGet(ctx context.Context, queryHash string) (*models.SearchCache, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var c models.SearchCache
	err = db.QueryRowContext(ctx, `SELECT id, query_hash, query, expires_at, filepath
		FROM search_cache WHERE query_hash = ?`, queryHash).
		Scan(&c.ID, &c.QueryHash, &c.Query, &c.ExpiresAt, &c.FilePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CacheUpsert creates or replaces the row for c.QueryHash.
func (s *SQLiteStore) CacheUpsert(ctx context.Context, c *models.SearchCache) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO search_cache (query_hash, query, expires_at, filepath)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(query_hash) DO UPDATE SET
			query = excluded.query, expires_at = excluded.expires_at, filepath = excluded.filepath`,
		c.QueryHash, c.Query, c.ExpiresAt, c.FilePath,
	)
	return err
}

// CacheExpired returns every row with expires_at < now, for the
// cache-expire job.
func (s *SQLiteStore) CacheExpired(ctx context.Context, now time.Time) ([]*models.SearchCache, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT id, query_hash, query, expires_at, filepath
		FROM search_cache WHERE expires_at < ?`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SearchCache
	for rows.Next() {
		var c models.SearchCache
		if err := rows.Scan(&c.ID, &c.QueryHash, &c.Query, &c.ExpiresAt, &c.FilePath); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// CacheDelete removes one search_cache row by id.
func (s *SQLiteStore) CacheDelete(ctx context.Context, id int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM search_cache WHERE id = ?`, id)
	return err
}
