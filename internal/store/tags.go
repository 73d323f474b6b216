package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/esoadamo/micro-cti-go/internal/models"
)

// UpsertTagByName creates a Tag (with a fresh color from colorFn) on
// miss, or returns the existing one. name is expected to already be
// uppercase per spec §3.
func (s *SQLiteStore) UpsertTagByName(ctx context.Context, name string, colorFn func() string) (*models.Tag, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var t models.Tag
	err = db.QueryRowContext(ctx, `SELECT id, name, color FROM tags WHERE name = ?`, name).
		Scan(&t.ID, &t.Name, &t.Color)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	color := colorFn()
	res, err := db.ExecContext(ctx, `INSERT INTO tags (name, color) VALUES (?, ?)`, name, color)
	if err != nil {
		// Lost a race against a concurrent insert; fetch the winner.
		var t2 models.Tag
		if err2 := db.QueryRowContext(ctx, `SELECT id, name, color FROM tags WHERE name = ?`, name).
			Scan(&t2.ID, &t2.Name, &t2.Color); err2 == nil {
			return &t2, nil
		}
		return nil, fmt.Errorf("inserting tag %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Tag{ID: id, Name: name, Color: color}, nil
}

// ConnectTags links postID to every id in tagIDs, ignoring duplicates.
func (s *SQLiteStore) ConnectTags(ctx context.Context, postID int64, tagIDs []int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`, postID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// AllTags returns every Tag, for the tag-cleanup job.
func (s *SQLiteStore) AllTags(ctx context.Context) ([]*models.Tag, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT id, name, color FROM tags`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// TagPostCount returns how many Posts reference tagID.
func (s *SQLiteStore) TagPostCount(ctx context.Context, tagID int64) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM post_tags WHERE tag_id = ?`, tagID).Scan(&count)
	return count, err
}

// DeleteTag removes a Tag and its post relations.
func (s *SQLiteStore) DeleteTag(ctx context.Context, id int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	return err
}

// ReparentTag moves every post_tags relation from fromID to toID and
// deletes fromID, used when the tag-cleanup job judges two tags
// equivalent (spec §3 "relations are re-parented").
func (s *SQLiteStore) ReparentTag(ctx context.Context, fromID, toID int64) error {
	return s.Transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO post_tags (post_id, tag_id) SELECT post_id, ? FROM post_tags WHERE tag_id = ?`,
			toID, fromID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE tag_id = ?`, fromID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, fromID)
		return err
	})
}
