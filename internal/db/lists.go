package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medialib/medialib-go-server/internal/model"
)

// MaxNextPerType bounds the "next up" shortlist per media kind.
const MaxNextPerType = 6

// ListNext returns the shortlist, optionally filtered to one media kind.
func (db *DB) ListNext(mediaType string) ([]model.NextEntry, error) {
	var rows *sql.Rows
	var err error
	if mediaType != "" {
		rows, err = db.Query(`SELECT mediaId, mediaType FROM next WHERE mediaType = ?`, mediaType)
	} else {
		rows, err = db.Query(`SELECT mediaId, mediaType FROM next`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.NextEntry
	for rows.Next() {
		var e model.NextEntry
		if err := rows.Scan(&e.MediaID, &e.MediaType); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceNext rewrites the shortlist for the media kinds present in
// entries; kinds absent from the input are left untouched. Counts per kind
// must already be validated against MaxNextPerType.
func (db *DB) ReplaceNext(ctx context.Context, entries []model.NextEntry) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		types := map[string]bool{}
		for _, e := range entries {
			types[e.MediaType] = true
		}
		for t := range types {
			if _, err := tx.Exec(`DELETE FROM next WHERE mediaType = ?`, t); err != nil {
				return err
			}
		}
		for _, e := range entries {
			if _, err := tx.Exec(`INSERT INTO next (mediaId, mediaType) VALUES (?, ?)`, e.MediaID, e.MediaType); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) DeleteNext(mediaID int64, mediaType string) error {
	_, err := db.Exec(`DELETE FROM next WHERE mediaId = ? AND mediaType = ?`, mediaID, mediaType)
	return err
}

// ListSortOrder returns the custom game order, ascending by position.
func (db *DB) ListSortOrder() ([]model.SortEntry, error) {
	rows, err := db.Query(`SELECT gameId, position FROM sortorder ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.SortEntry
	for rows.Next() {
		var e model.SortEntry
		if err := rows.Scan(&e.GameID, &e.Position); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceSortOrder rewrites the whole table; position is the array index.
// Unlike the next-up shortlist this is an unconditional full replace.
func (db *DB) ReplaceSortOrder(ctx context.Context, gameIDs []int64) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM sortorder`); err != nil {
			return err
		}
		for position, gameID := range gameIDs {
			if _, err := tx.Exec(`INSERT INTO sortorder (gameId, position) VALUES (?, ?)`, gameID, position); err != nil {
				return fmt.Errorf("sort position %d: %w", position, err)
			}
		}
		return nil
	})
}
