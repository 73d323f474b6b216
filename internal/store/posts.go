package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/esoadamo/micro-cti-go/internal/models"
)

// UpsertPost creates or, on a (source, source_id) collision, returns the
// pre-existing row. Spec §4.1 requires the adapter to skip on duplicate
// rather than overwrite, preserving first-write FetchedAt semantics, so
// this never updates an existing row.
func (s *SQLiteStore) UpsertPost(ctx context.Context, p *models.Post) (*models.Post, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	existing, err := s.FindPostBySourceAndSourceID(ctx, p.Source, p.SourceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO posts (source, source_id, user, url, created_at, fetched_at,
			content_html, content_txt, content_search, raw, is_hidden, is_ingested,
			tags_assigned, iocs_assigned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Source, p.SourceID, p.User, p.URL, p.CreatedAt, p.FetchedAt,
		p.ContentHTML, p.ContentTxt, p.ContentSearch, p.Raw,
		boolToInt(p.IsHidden), boolToInt(p.IsIngested),
		boolToInt(p.TagsAssigned), boolToInt(p.IoCsAssigned),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

// FindPostBySourceAndSourceID returns nil, nil when no row matches.
func (s *SQLiteStore) FindPostBySourceAndSourceID(ctx context.Context, source, sourceID string) (*models.Post, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, postSelectCols+` WHERE source = ? AND source_id = ?`, source, sourceID)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

const postSelectCols = `SELECT id, source, source_id, user, url, created_at, fetched_at,
	content_html, content_txt, content_search, raw, is_hidden, is_ingested,
	tags_assigned, iocs_assigned FROM posts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var p models.Post
	var isHidden, isIngested, tagsAssigned, iocsAssigned int
	if err := row.Scan(
		&p.ID, &p.Source, &p.SourceID, &p.User, &p.URL, &p.CreatedAt, &p.FetchedAt,
		&p.ContentHTML, &p.ContentTxt, &p.ContentSearch, &p.Raw,
		&isHidden, &isIngested, &tagsAssigned, &iocsAssigned,
	); err != nil {
		return nil, err
	}
	p.IsHidden = isHidden != 0
	p.IsIngested = isIngested != 0
	p.TagsAssigned = tagsAssigned != 0
	p.IoCsAssigned = iocsAssigned != 0
	return &p, nil
}

// FindPosts returns Posts matching filter, with their Tags and IoCs
// populated.
func (s *SQLiteStore) FindPosts(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if filter.Source != "" {
		where = append(where, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.IsIngested != nil {
		where = append(where, "is_ingested = ?")
		args = append(args, boolToInt(*filter.IsIngested))
	}
	if filter.TagsAssigned != nil {
		where = append(where, "tags_assigned = ?")
		args = append(args, boolToInt(*filter.TagsAssigned))
	}
	if filter.IoCsAssigned != nil {
		where = append(where, "iocs_assigned = ?")
		args = append(args, boolToInt(*filter.IoCsAssigned))
	}
	if filter.IsHidden != nil {
		where = append(where, "is_hidden = ?")
		args = append(args, boolToInt(*filter.IsHidden))
	}
	if len(filter.IDs) > 0 {
		placeholders := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		where = append(where, "id IN ("+strings.Join(placeholders, ",")+")")
	}

	query := postSelectCols
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.OrderByIDAsc {
		query += " ORDER BY id ASC"
	} else {
		query += " ORDER BY id DESC"
	}
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range posts {
		if err := s.loadRelations(ctx, p); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (s *SQLiteStore) loadRelations(ctx context.Context, p *models.Post) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	tagRows, err := db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id WHERE pt.post_id = ?`, p.ID)
	if err != nil {
		return err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var t models.Tag
		if err := tagRows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return err
		}
		p.Tags = append(p.Tags, &t)
	}
	if err := tagRows.Err(); err != nil {
		return err
	}

	iocRows, err := db.QueryContext(ctx, `
		SELECT i.id, i.value, i.type, i.subtype, i.comment FROM iocs i
		JOIN post_iocs pi ON pi.ioc_id = i.id WHERE pi.post_id = ?`, p.ID)
	if err != nil {
		return err
	}
	defer iocRows.Close()
	for iocRows.Next() {
		var ioc models.IoC
		var typ string
		if err := iocRows.Scan(&ioc.ID, &ioc.Value, &typ, &ioc.Subtype, &ioc.Comment); err != nil {
			return err
		}
		ioc.Type = models.IoCType(typ)
		p.IoCs = append(p.IoCs, &ioc)
	}
	return iocRows.Err()
}

// UpdatePostFields performs a partial update keyed by column name. Valid
// keys: content_search, is_hidden, is_ingested, tags_assigned,
// iocs_assigned.
func (s *SQLiteStore) UpdatePostFields(ctx context.Context, id int64, fields map[string]any) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	var sets []string
	var args []any
	for col, val := range fields {
		if !allowedPostColumn(col) {
			return fmt.Errorf("update post: column %q is not updatable", col)
		}
		sets = append(sets, col+" = ?")
		switch v := val.(type) {
		case bool:
			args = append(args, boolToInt(v))
		default:
			args = append(args, v)
		}
	}
	args = append(args, id)

	_, err = db.ExecContext(ctx, `UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	return err
}

func allowedPostColumn(col string) bool {
	switch col {
	case "content_search", "is_hidden", "is_ingested", "tags_assigned", "iocs_assigned":
		return true
	}
	return false
}

// WatermarkFor returns the most recent created_at among stored Posts for
// source, defaulting to now-1day when none exist, per spec §4.3.1.
func (s *SQLiteStore) WatermarkFor(ctx context.Context, source string) (time.Time, error) {
	db, err := s.conn()
	if err != nil {
		return time.Time{}, err
	}
	var t sql.NullTime
	err = db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM posts WHERE source = ?`, source).Scan(&t)
	if err != nil {
		return time.Time{}, err
	}
	if !t.Valid {
		return time.Now().UTC().Add(-24 * time.Hour), nil
	}
	return t.Time, nil
}

// RawBatch returns Posts with id in [fromID, toID), for the data-export
// job's snapshotting.
func (s *SQLiteStore) RawBatch(ctx context.Context, fromID, toID int64) ([]*models.Post, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, postSelectCols+` WHERE id >= ? AND id < ? ORDER BY id ASC`, fromID, toID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// FindPostsPendingSnapshot returns up to limit Posts with id > minID
// that are not yet fully processed (is_hidden=false OR
// is_ingested=false), with Tags loaded, for ExportSnapshot's
// cursor-paginated backup sweep.
func (s *SQLiteStore) FindPostsPendingSnapshot(ctx context.Context, minID int64, limit int) ([]*models.Post, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, postSelectCols+`
		WHERE id > ? AND (is_hidden = 0 OR is_ingested = 0)
		ORDER BY id ASC LIMIT ?`, minID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range posts {
		if err := s.loadRelations(ctx, p); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
