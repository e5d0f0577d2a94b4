package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medialib/medialib-go-server/internal/model"
)

// mediaTable maps a media kind to its table. Only ever called with the
// validated kinds "movie" and "series"; anything else is a programming error.
func mediaTable(mediaType string) string {
	switch mediaType {
	case "movie":
		return "movies"
	case "series":
		return "series"
	}
	panic(fmt.Sprintf("unknown media type %q", mediaType))
}

// GetMovie loads one movie with its provider children.
func (db *DB) GetMovie(id int64) (*model.Movie, error) {
	item, err := db.getMedia(id, "movie")
	if err != nil {
		return nil, err
	}
	return &model.Movie{ID: item.ID, ExternalID: item.ExternalID, Status: item.Status, UserRating: item.UserRating, Providers: item.Providers}, nil
}

// GetSeries loads one series with its provider children.
func (db *DB) GetSeries(id int64) (*model.Series, error) {
	item, err := db.getMedia(id, "series")
	if err != nil {
		return nil, err
	}
	return &model.Series{ID: item.ID, ExternalID: item.ExternalID, Status: item.Status, UserRating: item.UserRating, Providers: item.Providers}, nil
}

type mediaItem struct {
	ID         int64
	ExternalID string
	Status     string
	UserRating *int
	Providers  []model.Provider
}

func (db *DB) getMedia(id int64, mediaType string) (*mediaItem, error) {
	var m mediaItem
	query := fmt.Sprintf(`SELECT id, externalId, status, userRating FROM %s WHERE id = ?`, mediaTable(mediaType))
	row := db.QueryRow(query, id)
	if err := row.Scan(&m.ID, &m.ExternalID, &m.Status, &m.UserRating); err != nil {
		return nil, err
	}

	providers, err := db.fetchProviders(m.ID, mediaType)
	if err != nil {
		return nil, err
	}
	m.Providers = providers
	return &m, nil
}

func (db *DB) ListMovies() ([]model.Movie, error) {
	items, err := db.listMedia("movie")
	if err != nil {
		return nil, err
	}
	movies := make([]model.Movie, len(items))
	for i, m := range items {
		movies[i] = model.Movie{ID: m.ID, ExternalID: m.ExternalID, Status: m.Status, UserRating: m.UserRating, Providers: m.Providers}
	}
	return movies, nil
}

func (db *DB) ListSeries() ([]model.Series, error) {
	items, err := db.listMedia("series")
	if err != nil {
		return nil, err
	}
	series := make([]model.Series, len(items))
	for i, m := range items {
		series[i] = model.Series{ID: m.ID, ExternalID: m.ExternalID, Status: m.Status, UserRating: m.UserRating, Providers: m.Providers}
	}
	return series, nil
}

func (db *DB) listMedia(mediaType string) ([]mediaItem, error) {
	query := fmt.Sprintf(`SELECT id, externalId, status, userRating FROM %s`, mediaTable(mediaType))
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []mediaItem
	for rows.Next() {
		var m mediaItem
		if err := rows.Scan(&m.ID, &m.ExternalID, &m.Status, &m.UserRating); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		providers, err := db.fetchProviders(items[i].ID, mediaType)
		if err != nil {
			return nil, err
		}
		items[i].Providers = providers
	}
	return items, nil
}

func (db *DB) MediaExternalIDExists(externalID, mediaType string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE externalId = ?)`, mediaTable(mediaType))
	err := db.QueryRow(query, externalID).Scan(&exists)
	return exists, err
}

// CreateMedia inserts a movie or series and its provider associations in
// one transaction.
func (db *DB) CreateMedia(ctx context.Context, mediaType, externalID, status string, providers []string) (int64, error) {
	var mediaID int64
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`INSERT INTO %s (externalId, status) VALUES (?, ?)`, mediaTable(mediaType))
		res, err := tx.Exec(query, externalID, status)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		mediaID = id

		for _, p := range providers {
			if _, err := tx.Exec(`INSERT INTO mediaproviders (mediaId, mediaType, provider) VALUES (?, ?, ?)`,
				mediaID, mediaType, p); err != nil {
				return err
			}
		}
		return nil
	})
	return mediaID, err
}

func (db *DB) UpdateMedia(id int64, mediaType, status string, userRating *int) error {
	query := fmt.Sprintf(`UPDATE %s SET status = ?, userRating = ? WHERE id = ?`, mediaTable(mediaType))
	_, err := db.Exec(query, status, userRating, id)
	return err
}

func (db *DB) ReplaceMediaProviders(ctx context.Context, id int64, mediaType string, providers []string) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM mediaproviders WHERE mediaId = ? AND mediaType = ?`, id, mediaType); err != nil {
			return err
		}
		for _, p := range providers {
			if _, err := tx.Exec(`INSERT INTO mediaproviders (mediaId, mediaType, provider) VALUES (?, ?, ?)`,
				id, mediaType, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteMedia removes a movie or series together with its provider rows and
// next-up membership (neither carries a FK across media kinds).
func (db *DB) DeleteMedia(ctx context.Context, id int64, mediaType string) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM mediaproviders WHERE mediaId = ? AND mediaType = ?`, id, mediaType); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM next WHERE mediaId = ? AND mediaType = ?`, id, mediaType); err != nil {
			return err
		}
		query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, mediaTable(mediaType))
		_, err := tx.Exec(query, id)
		return err
	})
}

func (db *DB) fetchProviders(mediaID int64, mediaType string) ([]model.Provider, error) {
	rows, err := db.Query(`SELECT id, provider FROM mediaproviders WHERE mediaId = ? AND mediaType = ?`, mediaID, mediaType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []model.Provider
	for rows.Next() {
		var p model.Provider
		if err := rows.Scan(&p.ID, &p.Provider); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}
