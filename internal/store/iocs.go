package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/esoadamo/micro-cti-go/internal/models"
)

// UpsertIoCByTriple creates an IoC keyed by (type, subtype, value) or
// returns the existing one, per the unique key in spec §3.
func (s *SQLiteStore) UpsertIoCByTriple(ctx context.Context, ioc models.IoC) (*models.IoC, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var existing models.IoC
	var typ string
	err = db.QueryRowContext(ctx, `SELECT id, value, type, subtype, comment FROM iocs
		WHERE type = ? AND subtype = ? AND value = ?`, string(ioc.Type), ioc.Subtype, ioc.Value).
		Scan(&existing.ID, &existing.Value, &typ, &existing.Subtype, &existing.Comment)
	if err == nil {
		existing.Type = models.IoCType(typ)
		return &existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	res, err := db.ExecContext(ctx, `INSERT INTO iocs (value, type, subtype, comment) VALUES (?, ?, ?, ?)`,
		ioc.Value, string(ioc.Type), ioc.Subtype, ioc.Comment)
	if err != nil {
		var existing2 models.IoC
		var typ2 string
		if err2 := db.QueryRowContext(ctx, `SELECT id, value, type, subtype, comment FROM iocs
			WHERE type = ? AND subtype = ? AND value = ?`, string(ioc.Type), ioc.Subtype, ioc.Value).
			Scan(&existing2.ID, &existing2.Value, &typ2, &existing2.Subtype, &existing2.Comment); err2 == nil {
			existing2.Type = models.IoCType(typ2)
			return &existing2, nil
		}
		return nil, fmt.Errorf("inserting ioc %q: %w", ioc.Value, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	ioc.ID = id
	return &ioc, nil
}

// ConnectIoCs links postID to every id in iocIDs, ignoring duplicates.
func (s *SQLiteStore) ConnectIoCs(ctx context.Context, postID int64, iocIDs []int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	for _, iocID := range iocIDs {
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO post_iocs (post_id, ioc_id) VALUES (?, ?)`, postID, iocID); err != nil {
			return err
		}
	}
	return nil
}
