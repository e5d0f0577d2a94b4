package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/medialib/medialib-go-server/internal/model"
)

// Export dumps every table into one document.
func (db *DB) Export() (*model.ExportDocument, error) {
	doc := &model.ExportDocument{
		ExportedAt:        time.Now().UTC().Format(time.RFC3339),
		Games:             []model.Game{},
		GamePlatforms:     []model.PlatformRow{},
		GameTags:          []model.TagRow{},
		SortOrder:         []model.SortRow{},
		Next:              []model.NextRow{},
		Movies:            []model.Movie{},
		Series:            []model.Series{},
		MediaProviders:    []model.ProviderRow{},
		SeriesProgress:    []model.ProgressRow{},
		HLTBCache:         []model.HLTBCacheRow{},
		TMDBCache:         []model.TMDBCacheRow{},
		TMDBCacheEpisodes: []model.EpisodeCacheRow{},
	}

	rows, err := db.Query(`SELECT id, externalId, status, userRating FROM games`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.ExternalID, &g.Status, &g.UserRating); err != nil {
			rows.Close()
			return nil, err
		}
		doc.Games = append(doc.Games, g)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, gameId, platform, storefront FROM gameplatforms`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var p model.PlatformRow
		if err := rows.Scan(&p.ID, &p.GameID, &p.Platform, &p.Storefront); err != nil {
			rows.Close()
			return nil, err
		}
		doc.GamePlatforms = append(doc.GamePlatforms, p)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, gameId, tag FROM gametags`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var t model.TagRow
		if err := rows.Scan(&t.ID, &t.GameID, &t.Tag); err != nil {
			rows.Close()
			return nil, err
		}
		doc.GameTags = append(doc.GameTags, t)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, gameId, position FROM sortorder`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var s model.SortRow
		if err := rows.Scan(&s.ID, &s.GameID, &s.Position); err != nil {
			rows.Close()
			return nil, err
		}
		doc.SortOrder = append(doc.SortOrder, s)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, mediaId, mediaType FROM next`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var n model.NextRow
		if err := rows.Scan(&n.ID, &n.MediaID, &n.MediaType); err != nil {
			rows.Close()
			return nil, err
		}
		doc.Next = append(doc.Next, n)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, externalId, status, userRating FROM movies`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.ExternalID, &m.Status, &m.UserRating); err != nil {
			rows.Close()
			return nil, err
		}
		doc.Movies = append(doc.Movies, m)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, externalId, status, userRating FROM series`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var s model.Series
		if err := rows.Scan(&s.ID, &s.ExternalID, &s.Status, &s.UserRating); err != nil {
			rows.Close()
			return nil, err
		}
		doc.Series = append(doc.Series, s)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, mediaId, mediaType, provider FROM mediaproviders`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var p model.ProviderRow
		if err := rows.Scan(&p.ID, &p.MediaID, &p.MediaType, &p.Provider); err != nil {
			rows.Close()
			return nil, err
		}
		doc.MediaProviders = append(doc.MediaProviders, p)
	}
	rows.Close()

	rows, err = db.Query(`SELECT seriesId, season, episode, watchedAt FROM seriesprogress`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var p model.ProgressRow
		if err := rows.Scan(&p.SeriesID, &p.Season, &p.Episode, &p.WatchedAt); err != nil {
			rows.Close()
			return nil, err
		}
		doc.SeriesProgress = append(doc.SeriesProgress, p)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, name, imageUrl, gameplayMain, gameplayExtra, gameplayComplete, gameplayAll, rating, dlcs, updatedAt, ttlMs FROM hltbcache`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c model.HLTBCacheRow
		if err := rows.Scan(&c.ID, &c.Name, &c.ImageURL, &c.GameplayMain, &c.GameplayExtra, &c.GameplayComplete,
			&c.GameplayAll, &c.Rating, &c.DLCs, &c.UpdatedAt, &c.TTLMs); err != nil {
			rows.Close()
			return nil, err
		}
		doc.HLTBCache = append(doc.HLTBCache, c)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, mediaType, titleEn, titleDe, imageUrl, year, certification, rating, runtime, seasons, episodes, genres, streamingProviders, linkUrl, originalLang, updatedAt, ttlMs FROM tmdbcache`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c model.TMDBCacheRow
		if err := rows.Scan(&c.ID, &c.MediaType, &c.TitleEn, &c.TitleDe, &c.ImageURL, &c.Year, &c.Certification,
			&c.Rating, &c.Runtime, &c.Seasons, &c.Episodes, &c.Genres, &c.StreamingProviders, &c.LinkURL,
			&c.OriginalLang, &c.UpdatedAt, &c.TTLMs); err != nil {
			rows.Close()
			return nil, err
		}
		doc.TMDBCache = append(doc.TMDBCache, c)
	}
	rows.Close()

	rows, err = db.Query(`SELECT seriesId, season, episode, titleEn, airDate, runtime, updatedAt FROM tmdbcacheepisodes`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c model.EpisodeCacheRow
		if err := rows.Scan(&c.SeriesID, &c.Season, &c.Episode, &c.TitleEn, &c.AirDate, &c.Runtime, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		doc.TMDBCacheEpisodes = append(doc.TMDBCacheEpisodes, c)
	}
	rows.Close()

	return doc, nil
}

// Import wipes every table and reloads from the document. All-or-nothing:
// a failure mid-import leaves the previous state intact.
func (db *DB) Import(ctx context.Context, doc *model.ExportDocument) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		wipe := []string{
			"seriesprogress", "next", "sortorder", "gametags", "gameplatforms", "games",
			"mediaproviders", "movies", "series", "hltbcache", "tmdbcache", "tmdbcacheepisodes",
		}
		for _, table := range wipe {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return err
			}
		}

		for _, g := range doc.Games {
			if _, err := tx.Exec(`INSERT INTO games (id, externalId, status, userRating) VALUES (?, ?, ?, ?)`,
				g.ID, g.ExternalID, g.Status, g.UserRating); err != nil {
				return err
			}
		}
		for _, p := range doc.GamePlatforms {
			if _, err := tx.Exec(`INSERT INTO gameplatforms (id, gameId, platform, storefront) VALUES (?, ?, ?, ?)`,
				p.ID, p.GameID, p.Platform, p.Storefront); err != nil {
				return err
			}
		}
		for _, t := range doc.GameTags {
			if _, err := tx.Exec(`INSERT INTO gametags (id, gameId, tag) VALUES (?, ?, ?)`,
				t.ID, t.GameID, t.Tag); err != nil {
				return err
			}
		}
		for _, s := range doc.SortOrder {
			if _, err := tx.Exec(`INSERT INTO sortorder (id, gameId, position) VALUES (?, ?, ?)`,
				s.ID, s.GameID, s.Position); err != nil {
				return err
			}
		}
		for _, n := range doc.Next {
			if _, err := tx.Exec(`INSERT INTO next (id, mediaId, mediaType) VALUES (?, ?, ?)`,
				n.ID, n.MediaID, n.MediaType); err != nil {
				return err
			}
		}
		for _, m := range doc.Movies {
			if _, err := tx.Exec(`INSERT INTO movies (id, externalId, status, userRating) VALUES (?, ?, ?, ?)`,
				m.ID, m.ExternalID, m.Status, m.UserRating); err != nil {
				return err
			}
		}
		for _, s := range doc.Series {
			if _, err := tx.Exec(`INSERT INTO series (id, externalId, status, userRating) VALUES (?, ?, ?, ?)`,
				s.ID, s.ExternalID, s.Status, s.UserRating); err != nil {
				return err
			}
		}
		for _, p := range doc.MediaProviders {
			if _, err := tx.Exec(`INSERT INTO mediaproviders (id, mediaId, mediaType, provider) VALUES (?, ?, ?, ?)`,
				p.ID, p.MediaID, p.MediaType, p.Provider); err != nil {
				return err
			}
		}
		for _, p := range doc.SeriesProgress {
			if _, err := tx.Exec(`INSERT INTO seriesprogress (seriesId, season, episode, watchedAt) VALUES (?, ?, ?, ?)`,
				p.SeriesID, p.Season, p.Episode, p.WatchedAt); err != nil {
				return err
			}
		}
		for _, c := range doc.HLTBCache {
			if _, err := tx.Exec(`INSERT INTO hltbcache (id, name, imageUrl, gameplayMain, gameplayExtra, gameplayComplete, gameplayAll, rating, dlcs, updatedAt, ttlMs)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.Name, c.ImageURL, c.GameplayMain, c.GameplayExtra, c.GameplayComplete, c.GameplayAll,
				c.Rating, c.DLCs, c.UpdatedAt, c.TTLMs); err != nil {
				return err
			}
		}
		for _, c := range doc.TMDBCache {
			if _, err := tx.Exec(`INSERT INTO tmdbcache (id, mediaType, titleEn, titleDe, imageUrl, year, certification, rating, runtime, seasons, episodes, genres, streamingProviders, linkUrl, originalLang, updatedAt, ttlMs)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.MediaType, c.TitleEn, c.TitleDe, c.ImageURL, c.Year, c.Certification, c.Rating,
				c.Runtime, c.Seasons, c.Episodes, c.Genres, c.StreamingProviders, c.LinkURL, c.OriginalLang,
				c.UpdatedAt, c.TTLMs); err != nil {
				return err
			}
		}
		for _, c := range doc.TMDBCacheEpisodes {
			if _, err := tx.Exec(`INSERT INTO tmdbcacheepisodes (seriesId, season, episode, titleEn, airDate, runtime, updatedAt)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				c.SeriesID, c.Season, c.Episode, c.TitleEn, c.AirDate, c.Runtime, c.UpdatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}
