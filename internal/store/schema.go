package store

import (
	"context"
	"database/sql"
)

// migrate creates every table, index and FTS5 virtual table the store
// needs. It is idempotent (IF NOT EXISTS throughout) so it can run on
// every Acquire.
func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			source         TEXT NOT NULL,
			source_id      TEXT NOT NULL,
			user           TEXT NOT NULL,
			url            TEXT NOT NULL,
			created_at     TIMESTAMP NOT NULL,
			fetched_at     TIMESTAMP NOT NULL,
			content_html   TEXT NOT NULL,
			content_txt    TEXT NOT NULL,
			content_search TEXT,
			raw            TEXT NOT NULL,
			is_hidden      INTEGER NOT NULL DEFAULT 0,
			is_ingested    INTEGER NOT NULL DEFAULT 0,
			tags_assigned  INTEGER NOT NULL DEFAULT 0,
			iocs_assigned  INTEGER NOT NULL DEFAULT 0,
			UNIQUE(source, source_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_source_created ON posts(source, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_stage_flags ON posts(is_ingested, tags_assigned, iocs_assigned, is_hidden)`,

		`CREATE TABLE IF NOT EXISTS tags (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			name  TEXT NOT NULL UNIQUE,
			color TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS post_tags (
			post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			tag_id  INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (post_id, tag_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_post_tags_tag ON post_tags(tag_id)`,

		`CREATE TABLE IF NOT EXISTS iocs (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			value   TEXT NOT NULL,
			type    TEXT NOT NULL,
			subtype TEXT NOT NULL DEFAULT '',
			comment TEXT NOT NULL DEFAULT '',
			UNIQUE(type, subtype, value)
		)`,
		`CREATE TABLE IF NOT EXISTS post_iocs (
			post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			ioc_id  INTEGER NOT NULL REFERENCES iocs(id) ON DELETE CASCADE,
			PRIMARY KEY (post_id, ioc_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_post_iocs_ioc ON post_iocs(ioc_id)`,

		`CREATE TABLE IF NOT EXISTS search_cache (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			query_hash TEXT NOT NULL UNIQUE,
			query      TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			filepath   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_cache_expires ON search_cache(expires_at)`,

		// content_search full-text index, kept in sync by triggers below
		// (spec §4.1: "full-text index on content_search").
		`CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			content_search,
			content='posts',
			content_rowid='id',
			tokenize='porter unicode61'
		)`,
		`CREATE TRIGGER IF NOT EXISTS posts_ai AFTER INSERT ON posts BEGIN
			INSERT INTO posts_fts(rowid, content_search) VALUES (new.id, coalesce(new.content_search, ''));
		END`,
		`CREATE TRIGGER IF NOT EXISTS posts_ad AFTER DELETE ON posts BEGIN
			INSERT INTO posts_fts(posts_fts, rowid, content_search) VALUES ('delete', old.id, coalesce(old.content_search, ''));
		END`,
		`CREATE TRIGGER IF NOT EXISTS posts_au AFTER UPDATE ON posts BEGIN
			INSERT INTO posts_fts(posts_fts, rowid, content_search) VALUES ('delete', old.id, coalesce(old.content_search, ''));
			INSERT INTO posts_fts(rowid, content_search) VALUES (new.id, coalesce(new.content_search, ''));
		END`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
