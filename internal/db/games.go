package db

import (
	"context"
	"database/sql"

	"github.com/medialib/medialib-go-server/internal/model"
)

// GetGame loads one game with its platform and tag children.
// Returns sql.ErrNoRows when the id is unknown.
func (db *DB) GetGame(id int64) (*model.Game, error) {
	var g model.Game
	row := db.QueryRow(`SELECT id, externalId, status, userRating FROM games WHERE id = ?`, id)
	if err := row.Scan(&g.ID, &g.ExternalID, &g.Status, &g.UserRating); err != nil {
		return nil, err
	}

	platforms, err := db.fetchPlatforms(g.ID)
	if err != nil {
		return nil, err
	}
	g.Platforms = platforms

	tags, err := db.fetchTags(g.ID)
	if err != nil {
		return nil, err
	}
	g.Tags = tags

	return &g, nil
}

func (db *DB) ListGames() ([]model.Game, error) {
	rows, err := db.Query(`SELECT id, externalId, status, userRating FROM games`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.ExternalID, &g.Status, &g.UserRating); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range games {
		platforms, err := db.fetchPlatforms(games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Platforms = platforms

		tags, err := db.fetchTags(games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Tags = tags
	}

	return games, nil
}

func (db *DB) GameExternalIDExists(externalID string) (bool, error) {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM games WHERE externalId = ?)`, externalID).Scan(&exists)
	return exists, err
}

// CreateGame inserts a game and its platform associations in one transaction.
func (db *DB) CreateGame(ctx context.Context, externalID, status string, platforms []model.Platform) (int64, error) {
	var gameID int64
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO games (externalId, status) VALUES (?, ?)`, externalID, status)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		gameID = id

		for _, p := range platforms {
			if _, err := tx.Exec(`INSERT INTO gameplatforms (gameId, platform, storefront) VALUES (?, ?, ?)`,
				gameID, p.Platform, p.Storefront); err != nil {
				return err
			}
		}
		return nil
	})
	return gameID, err
}

func (db *DB) UpdateGame(id int64, externalID, status string) error {
	_, err := db.Exec(`UPDATE games SET externalId = ?, status = ? WHERE id = ?`, externalID, status, id)
	return err
}

// ReplaceGamePlatforms swaps the full platform list. Applying an empty list
// removes every association.
func (db *DB) ReplaceGamePlatforms(ctx context.Context, gameID int64, platforms []model.Platform) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM gameplatforms WHERE gameId = ?`, gameID); err != nil {
			return err
		}
		for _, p := range platforms {
			if _, err := tx.Exec(`INSERT INTO gameplatforms (gameId, platform, storefront) VALUES (?, ?, ?)`,
				gameID, p.Platform, p.Storefront); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) ReplaceGameTags(ctx context.Context, gameID int64, tags []string) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM gametags WHERE gameId = ?`, gameID); err != nil {
			return err
		}
		seen := map[string]bool{}
		for _, tag := range tags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			if _, err := tx.Exec(`INSERT INTO gametags (gameId, tag) VALUES (?, ?)`, gameID, tag); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteGame removes a game; platforms, tags, sort position and next-up
// membership of the game go with it (FK cascade, next cleaned explicitly
// since the next table spans media kinds without a FK).
func (db *DB) DeleteGame(ctx context.Context, id int64) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM next WHERE mediaId = ? AND mediaType = 'game'`, id); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM games WHERE id = ?`, id)
		return err
	})
}

func (db *DB) fetchPlatforms(gameID int64) ([]model.Platform, error) {
	rows, err := db.Query(`SELECT id, platform, storefront FROM gameplatforms WHERE gameId = ?`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var platforms []model.Platform
	for rows.Next() {
		var p model.Platform
		if err := rows.Scan(&p.ID, &p.Platform, &p.Storefront); err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}
	return platforms, rows.Err()
}

func (db *DB) fetchTags(gameID int64) ([]string, error) {
	rows, err := db.Query(`SELECT tag FROM gametags WHERE gameId = ?`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
