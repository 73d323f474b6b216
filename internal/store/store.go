// Package store persists Posts, Tags, IoCs and SearchCache rows and
// exposes the transactional and query primitives spec.md §4.1 requires,
// including a boolean-mode full-text predicate over content_search.
//
// A single long-lived connection is shared across components; all
// operations are safe for concurrent use (the underlying *sql.DB pools
// its own locking). Acquire/Release reference-count the connection
// per spec §5, opening it on first acquisition and closing it when the
// last holder releases — the Go-idiomatic replacement for the original's
// module-level cache dict (spec.md §9).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/esoadamo/micro-cti-go/internal/models"
)

// PostFilter narrows FindPosts to a subset of Posts.
type PostFilter struct {
	Source       string
	IsIngested   *bool
	TagsAssigned *bool
	IoCsAssigned *bool
	IsHidden     *bool
	IDs          []int64
	OrderByIDAsc bool
	Limit        int
}

// Store is the persistence surface every other subsystem talks to.
type Store interface {
	Acquire(ctx context.Context) error
	Release() error

	UpsertPost(ctx context.Context, p *models.Post) (*models.Post, error)
	FindPostBySourceAndSourceID(ctx context.Context, source, sourceID string) (*models.Post, error)
	FindPosts(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	FindPostsPendingSnapshot(ctx context.Context, minID int64, limit int) ([]*models.Post, error)
	UpdatePostFields(ctx context.Context, id int64, fields map[string]any) error
	WatermarkFor(ctx context.Context, source string) (time.Time, error)

	ConnectTags(ctx context.Context, postID int64, tagIDs []int64) error
	ConnectIoCs(ctx context.Context, postID int64, iocIDs []int64) error
	UpsertTagByName(ctx context.Context, name string, colorFn func() string) (*models.Tag, error)
	UpsertIoCByTriple(ctx context.Context, ioc models.IoC) (*models.IoC, error)
	DeleteTag(ctx context.Context, id int64) error
	AllTags(ctx context.Context) ([]*models.Tag, error)
	TagPostCount(ctx context.Context, tagID int64) (int, error)
	ReparentTag(ctx context.Context, fromID, toID int64) error

	FullTextMatch(ctx context.Context, booleanQuery string, hardFrom, hardTo time.Time, limit int) ([]int64, error)

	CacheGet(ctx context.Context, queryHash string) (*models.SearchCache, error)
	CacheUpsert(ctx context.Context, c *models.SearchCache) error
	CacheExpired(ctx context.Context, now time.Time) ([]*models.SearchCache, error)
	CacheDelete(ctx context.Context, id int64) error

	RawBatch(ctx context.Context, fromID, toID int64) ([]*models.Post, error)

	Transaction(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

// SQLiteStore is the ncruces/go-sqlite3-backed Store implementation.
type SQLiteStore struct {
	path string

	mu       sync.Mutex
	refCount int
	db       *sql.DB
}

// New returns a SQLiteStore backed by the database file at path. The
// connection itself is not opened until the first Acquire.
func New(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Acquire increments the reference count, opening the database
// connection and running migrations on the first call.
func (s *SQLiteStore) Acquire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refCount == 0 {
		db, err := sql.Open("sqlite3", s.path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		db.SetMaxOpenConns(1) // models the spec's single shared connection
		if err := migrate(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("migrating store: %w", err)
		}
		s.db = db
	}
	s.refCount++
	return nil
}

// Release decrements the reference count, closing the connection when
// the last holder releases it.
func (s *SQLiteStore) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refCount == 0 {
		return fmt.Errorf("store: Release called without a matching Acquire")
	}
	s.refCount--
	if s.refCount == 0 && s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLiteStore) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("store: not acquired")
	}
	return s.db, nil
}

// Transaction runs fn inside a *sql.Tx, committing on success and rolling
// back on error or panic.
func (s *SQLiteStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(ctx, tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
