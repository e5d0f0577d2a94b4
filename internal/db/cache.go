package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/medialib/medialib-go-server/internal/model"
)

// Provider cache TTLs. The two top-level caches roll a per-row TTL at every
// write, uniform within [CacheTTLMin, CacheTTLMax), so entries written in a
// burst do not all expire in the same instant. Episode metadata changes
// rarely, so the sub-cache uses a longer fixed TTL.
const (
	CacheTTLMin     = 5 * 24 * time.Hour
	CacheTTLMax     = 10 * 24 * time.Hour
	EpisodeCacheTTL = 30 * 24 * time.Hour
)

func rollTTLMs() int64 {
	spread := (CacheTTLMax - CacheTTLMin).Milliseconds()
	return CacheTTLMin.Milliseconds() + rand.Int63n(spread)
}

// fresh reports whether a row written at updatedAt (unix ms) is still
// within its TTL. Expired rows read as absent but are never deleted here;
// the next put simply overwrites them.
func fresh(updatedAt, ttlMs int64) bool {
	return time.Now().UnixMilli()-updatedAt <= ttlMs
}

// ── HLTB cache ──

// GetHLTB returns the cached snapshot for one game, or nil on a miss or an
// expired row.
func (db *DB) GetHLTB(id string) (*model.HLTBGame, error) {
	var g model.HLTBGame
	var name, dlcsJSON sql.NullString
	var updatedAt, ttlMs int64
	row := db.QueryRow(`SELECT id, name, imageUrl, gameplayMain, gameplayExtra, gameplayComplete, gameplayAll, rating, dlcs, updatedAt, ttlMs
		FROM hltbcache WHERE id = ?`, id)
	err := row.Scan(&g.ID, &name, &g.ImageURL, &g.GameplayMain, &g.GameplayExtra, &g.GameplayComplete,
		&g.GameplayAll, &g.Rating, &dlcsJSON, &updatedAt, &ttlMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !fresh(updatedAt, ttlMs) {
		return nil, nil
	}

	g.Name = name.String
	g.DLCs = []model.DLC{}
	if dlcsJSON.Valid && dlcsJSON.String != "" {
		if err := json.Unmarshal([]byte(dlcsJSON.String), &g.DLCs); err != nil {
			return nil, err
		}
	}
	return &g, nil
}

// PutHLTB upserts a snapshot, refreshing updatedAt and re-rolling the TTL.
func (db *DB) PutHLTB(g *model.HLTBGame) error {
	dlcs, err := json.Marshal(g.DLCs)
	if err != nil {
		return err
	}
	_, err = db.Exec(`REPLACE INTO hltbcache
		(id, name, imageUrl, gameplayMain, gameplayExtra, gameplayComplete, gameplayAll, rating, dlcs, updatedAt, ttlMs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.ImageURL, g.GameplayMain, g.GameplayExtra, g.GameplayComplete, g.GameplayAll,
		g.Rating, string(dlcs), time.Now().UnixMilli(), rollTTLMs())
	return err
}

func (db *DB) InvalidateHLTB(id string) error {
	_, err := db.Exec(`DELETE FROM hltbcache WHERE id = ?`, id)
	return err
}

// ── TMDB cache ──

func (db *DB) GetTMDB(id, mediaType string) (*model.TMDBItem, error) {
	var item model.TMDBItem
	var genresJSON, providersJSON sql.NullString
	var updatedAt, ttlMs int64
	row := db.QueryRow(`SELECT id, mediaType, titleEn, titleDe, imageUrl, year, certification, rating,
		runtime, seasons, episodes, genres, streamingProviders, linkUrl, originalLang, updatedAt, ttlMs
		FROM tmdbcache WHERE id = ? AND mediaType = ?`, id, mediaType)
	err := row.Scan(&item.ID, &item.MediaType, &item.TitleEn, &item.TitleDe, &item.ImageURL, &item.Year,
		&item.Certification, &item.Rating, &item.Runtime, &item.Seasons, &item.Episodes,
		&genresJSON, &providersJSON, &item.LinkURL, &item.OriginalLang, &updatedAt, &ttlMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !fresh(updatedAt, ttlMs) {
		return nil, nil
	}

	item.Genres = []string{}
	if genresJSON.Valid && genresJSON.String != "" {
		if err := json.Unmarshal([]byte(genresJSON.String), &item.Genres); err != nil {
			return nil, err
		}
	}
	item.StreamingProviders = []model.StreamingProvider{}
	if providersJSON.Valid && providersJSON.String != "" {
		if err := json.Unmarshal([]byte(providersJSON.String), &item.StreamingProviders); err != nil {
			return nil, err
		}
	}
	return &item, nil
}

func (db *DB) PutTMDB(item *model.TMDBItem) error {
	genres, err := json.Marshal(item.Genres)
	if err != nil {
		return err
	}
	providers, err := json.Marshal(item.StreamingProviders)
	if err != nil {
		return err
	}
	_, err = db.Exec(`REPLACE INTO tmdbcache
		(id, mediaType, titleEn, titleDe, imageUrl, year, certification, rating, runtime, seasons, episodes,
		 genres, streamingProviders, linkUrl, originalLang, updatedAt, ttlMs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.MediaType, item.TitleEn, item.TitleDe, item.ImageURL, item.Year, item.Certification,
		item.Rating, item.Runtime, item.Seasons, item.Episodes, string(genres), string(providers),
		item.LinkURL, item.OriginalLang, time.Now().UnixMilli(), rollTTLMs())
	return err
}

func (db *DB) InvalidateTMDB(id, mediaType string) error {
	_, err := db.Exec(`DELETE FROM tmdbcache WHERE id = ? AND mediaType = ?`, id, mediaType)
	return err
}

// SetCachedSeriesRuntime is the runtime backfill write: it fills the
// series-level runtime computed from cached episode runtimes, leaving
// updatedAt and ttlMs alone so it does not extend the row's life.
func (db *DB) SetCachedSeriesRuntime(id string, runtime int) error {
	_, err := db.Exec(`UPDATE tmdbcache SET runtime = ? WHERE id = ? AND mediaType = 'series'`, runtime, id)
	return err
}

// ── Episode sub-cache ──

// GetEpisodes returns the cached episode list of a series, or nil when the
// series has no rows or the set is older than the fixed episode TTL
// (judged from the first row; all rows of a series are written together).
func (db *DB) GetEpisodes(seriesID string) ([]model.Episode, error) {
	rows, err := db.Query(`SELECT season, episode, titleEn, airDate, runtime, updatedAt
		FROM tmdbcacheepisodes WHERE seriesId = ? ORDER BY season, episode`, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []model.Episode
	var oldest int64 = -1
	for rows.Next() {
		var ep model.Episode
		var updatedAt int64
		if err := rows.Scan(&ep.Season, &ep.Episode, &ep.TitleEn, &ep.AirDate, &ep.Runtime, &updatedAt); err != nil {
			return nil, err
		}
		if oldest < 0 || updatedAt < oldest {
			oldest = updatedAt
		}
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if episodes == nil {
		return nil, nil
	}
	if !fresh(oldest, EpisodeCacheTTL.Milliseconds()) {
		return nil, nil
	}
	return episodes, nil
}

func (db *DB) PutEpisodes(ctx context.Context, seriesID string, episodes []model.Episode) error {
	now := time.Now().UnixMilli()
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, ep := range episodes {
			if _, err := tx.Exec(`REPLACE INTO tmdbcacheepisodes (seriesId, season, episode, titleEn, airDate, runtime, updatedAt)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				seriesID, ep.Season, ep.Episode, ep.TitleEn, ep.AirDate, ep.Runtime, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) InvalidateEpisodes(seriesID string) error {
	_, err := db.Exec(`DELETE FROM tmdbcacheepisodes WHERE seriesId = ?`, seriesID)
	return err
}
