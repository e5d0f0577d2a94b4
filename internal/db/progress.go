package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/medialib/medialib-go-server/internal/model"
)

// ListProgress returns every watched episode of one series.
func (db *DB) ListProgress(seriesID int64) ([]model.EpisodeProgress, error) {
	rows, err := db.Query(`SELECT season, episode, watchedAt FROM seriesprogress WHERE seriesId = ? ORDER BY season, episode`, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []model.EpisodeProgress
	for rows.Next() {
		var p model.EpisodeProgress
		if err := rows.Scan(&p.Season, &p.Episode, &p.WatchedAt); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

// ToggleProgress flips the watched state of one episode and reports the
// new state.
func (db *DB) ToggleProgress(ctx context.Context, seriesID int64, season, episode int) (bool, error) {
	var watched bool
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM seriesprogress WHERE seriesId = ? AND season = ? AND episode = ?)`,
			seriesID, season, episode).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			_, err = tx.Exec(`DELETE FROM seriesprogress WHERE seriesId = ? AND season = ? AND episode = ?`,
				seriesID, season, episode)
			watched = false
			return err
		}
		_, err = tx.Exec(`INSERT INTO seriesprogress (seriesId, season, episode, watchedAt) VALUES (?, ?, ?, ?)`,
			seriesID, season, episode, time.Now().UnixMilli())
		watched = true
		return err
	})
	return watched, err
}

// SetSeasonProgress marks the given episode numbers of one season watched
// or unwatched in bulk. Marking watched is idempotent; episodes already
// present keep a refreshed watchedAt.
func (db *DB) SetSeasonProgress(ctx context.Context, seriesID int64, season int, episodes []int, watched bool) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if !watched {
			for _, ep := range episodes {
				if _, err := tx.Exec(`DELETE FROM seriesprogress WHERE seriesId = ? AND season = ? AND episode = ?`,
					seriesID, season, ep); err != nil {
					return err
				}
			}
			return nil
		}
		now := time.Now().UnixMilli()
		for _, ep := range episodes {
			// REPLACE works on both SQLite and MySQL
			if _, err := tx.Exec(`REPLACE INTO seriesprogress (seriesId, season, episode, watchedAt) VALUES (?, ?, ?, ?)`,
				seriesID, season, ep, now); err != nil {
				return err
			}
		}
		return nil
	})
}
