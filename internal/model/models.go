package model

// Library items. IDs are SQLite/MySQL autoincrement surrogates; the
// ExternalID is the provider's stable id (HLTB game id or TMDB id).

type Game struct {
	ID         int64      `json:"id" db:"id"`
	ExternalID string     `json:"externalId" db:"externalId"`
	Status     string     `json:"status" db:"status"`
	UserRating *int       `json:"userRating" db:"userRating"`
	Platforms  []Platform `json:"platforms" db:"-"`
	Tags       []string   `json:"tags" db:"-"`
}

type Platform struct {
	ID         int64   `json:"id" db:"id"`
	Platform   string  `json:"platform" db:"platform"`
	Storefront *string `json:"storefront" db:"storefront"`
}

type Movie struct {
	ID         int64      `json:"id" db:"id"`
	ExternalID string     `json:"externalId" db:"externalId"`
	Status     string     `json:"status" db:"status"`
	UserRating *int       `json:"userRating" db:"userRating"`
	Providers  []Provider `json:"providers" db:"-"`
}

type Series struct {
	ID         int64      `json:"id" db:"id"`
	ExternalID string     `json:"externalId" db:"externalId"`
	Status     string     `json:"status" db:"status"`
	UserRating *int       `json:"userRating" db:"userRating"`
	Providers  []Provider `json:"providers" db:"-"`
}

// Provider is a user-curated "where can I watch this" association,
// distinct from the streamingProviders metadata cached from TMDB.
type Provider struct {
	ID       int64  `json:"id" db:"id"`
	Provider string `json:"provider" db:"provider"`
}

type NextEntry struct {
	MediaID   int64  `json:"mediaId" db:"mediaId"`
	MediaType string `json:"mediaType" db:"mediaType"`
}

type SortEntry struct {
	GameID   int64 `json:"gameId" db:"gameId"`
	Position int   `json:"position" db:"position"`
}

// EpisodeProgress marks one episode as watched. Presence of a row means
// watched; toggling deletes or inserts it.
type EpisodeProgress struct {
	Season    int   `json:"season" db:"season"`
	Episode   int   `json:"episode" db:"episode"`
	WatchedAt int64 `json:"watchedAt" db:"watchedAt"`
}

// ── Provider snapshots ──

// HLTBGame is the denormalized snapshot of one HowLongToBeat entry.
type HLTBGame struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	ImageURL         *string  `json:"imageUrl"`
	GameplayMain     *float64 `json:"gameplayMain"`
	GameplayExtra    *float64 `json:"gameplayExtra"`
	GameplayComplete *float64 `json:"gameplayComplete"`
	GameplayAll      *float64 `json:"gameplayAll"`
	Rating           *float64 `json:"rating"`
	DLCs             []DLC    `json:"dlcs"`
}

type DLC struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TMDBItem is the denormalized snapshot of one TMDB movie or series,
// fetched once per locale (de-DE and en-US) and merged.
type TMDBItem struct {
	ID                 string              `json:"id"`
	MediaType          string              `json:"mediaType"`
	TitleEn            *string             `json:"titleEn"`
	TitleDe            *string             `json:"titleDe"`
	ImageURL           *string             `json:"imageUrl"`
	Year               *string             `json:"year"`
	Certification      *string             `json:"certification"`
	Rating             *float64            `json:"rating"`
	Runtime            *int                `json:"runtime"`
	Seasons            *int                `json:"seasons"`
	Episodes           *int                `json:"episodes"`
	Genres             []string            `json:"genres"`
	StreamingProviders []StreamingProvider `json:"streamingProviders"`
	LinkURL            *string             `json:"linkUrl"`
	OriginalLang       *string             `json:"originalLang"`
}

type StreamingProvider struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// Episode is one row of the per-episode sub-cache.
type Episode struct {
	Season  int     `json:"season"`
	Episode int     `json:"episode"`
	TitleEn *string `json:"titleEn"`
	AirDate *string `json:"airDate"`
	Runtime *int    `json:"runtime"`
}

// SearchResult is the minimal shape returned by the HLTB search
// passthrough endpoint.
type SearchResult struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

type MediaSearchResult struct {
	ID       string   `json:"id"`
	TitleEn  *string  `json:"titleEn"`
	TitleDe  *string  `json:"titleDe"`
	ImageURL *string  `json:"imageUrl"`
	Year     *string  `json:"year"`
	Rating   *float64 `json:"rating"`
}

// ── Aggregated views ──
// Identity and user-owned fields come from the local row, display fields
// from the snapshot with per-field fallbacks. The surrogate id is exposed
// as a string, matching what the frontend stores.

type AggregatedGame struct {
	ID               string     `json:"id"`
	ExternalID       string     `json:"externalId"`
	Name             string     `json:"name"`
	ImageURL         *string    `json:"imageUrl"`
	Status           string     `json:"status"`
	Platforms        []Platform `json:"platforms"`
	Tags             []string   `json:"tags"`
	GameplayMain     *float64   `json:"gameplayMain"`
	GameplayExtra    *float64   `json:"gameplayExtra"`
	GameplayComplete *float64   `json:"gameplayComplete"`
	GameplayAll      *float64   `json:"gameplayAll"`
	Rating           *float64   `json:"rating"`
	DLCs             []DLC      `json:"dlcs"`
}

type AggregatedMovie struct {
	ID            string     `json:"id"`
	ExternalID    string     `json:"externalId"`
	Status        string     `json:"status"`
	UserRating    *int       `json:"userRating"`
	Providers     []Provider `json:"providers"`
	Title         string     `json:"title"`
	TitleDe       *string    `json:"titleDe"`
	ImageURL      *string    `json:"imageUrl"`
	Year          *string    `json:"year"`
	Certification *string    `json:"certification"`
	Rating        *float64   `json:"rating"`
	Runtime       *int       `json:"runtime"`
	Genres        []string   `json:"genres"`
	LinkURL       *string    `json:"linkUrl"`
}

type AggregatedSeries struct {
	ID                 string              `json:"id"`
	ExternalID         string              `json:"externalId"`
	Status             string              `json:"status"`
	UserRating         *int                `json:"userRating"`
	Providers          []Provider          `json:"providers"`
	Title              string              `json:"title"`
	TitleDe            *string             `json:"titleDe"`
	ImageURL           *string             `json:"imageUrl"`
	Year               *string             `json:"year"`
	Certification      *string             `json:"certification"`
	Rating             *float64            `json:"rating"`
	Runtime            *int                `json:"runtime"`
	Seasons            *int                `json:"seasons"`
	Episodes           *int                `json:"episodes"`
	Genres             []string            `json:"genres"`
	StreamingProviders []StreamingProvider `json:"streamingProviders"`
	LinkURL            *string             `json:"linkUrl"`
}

// ── Admin export/import ──
// Raw table rows as dumped by GET /api/admin/export and accepted by
// POST /api/admin/import.

type PlatformRow struct {
	ID         int64   `json:"id"`
	GameID     int64   `json:"gameId"`
	Platform   string  `json:"platform"`
	Storefront *string `json:"storefront"`
}

type TagRow struct {
	ID     int64  `json:"id"`
	GameID int64  `json:"gameId"`
	Tag    string `json:"tag"`
}

type SortRow struct {
	ID       int64 `json:"id"`
	GameID   int64 `json:"gameId"`
	Position int   `json:"position"`
}

type NextRow struct {
	ID        int64  `json:"id"`
	MediaID   int64  `json:"mediaId"`
	MediaType string `json:"mediaType"`
}

type ProviderRow struct {
	ID        int64  `json:"id"`
	MediaID   int64  `json:"mediaId"`
	MediaType string `json:"mediaType"`
	Provider  string `json:"provider"`
}

type ProgressRow struct {
	SeriesID  int64 `json:"seriesId"`
	Season    int   `json:"season"`
	Episode   int   `json:"episode"`
	WatchedAt int64 `json:"watchedAt"`
}

type HLTBCacheRow struct {
	ID               string   `json:"id"`
	Name             *string  `json:"name"`
	ImageURL         *string  `json:"imageUrl"`
	GameplayMain     *float64 `json:"gameplayMain"`
	GameplayExtra    *float64 `json:"gameplayExtra"`
	GameplayComplete *float64 `json:"gameplayComplete"`
	GameplayAll      *float64 `json:"gameplayAll"`
	Rating           *float64 `json:"rating"`
	DLCs             *string  `json:"dlcs"`
	UpdatedAt        int64    `json:"updatedAt"`
	TTLMs            int64    `json:"ttlMs"`
}

type TMDBCacheRow struct {
	ID                 string   `json:"id"`
	MediaType          string   `json:"mediaType"`
	TitleEn            *string  `json:"titleEn"`
	TitleDe            *string  `json:"titleDe"`
	ImageURL           *string  `json:"imageUrl"`
	Year               *string  `json:"year"`
	Certification      *string  `json:"certification"`
	Rating             *float64 `json:"rating"`
	Runtime            *int     `json:"runtime"`
	Seasons            *int     `json:"seasons"`
	Episodes           *int     `json:"episodes"`
	Genres             *string  `json:"genres"`
	StreamingProviders *string  `json:"streamingProviders"`
	LinkURL            *string  `json:"linkUrl"`
	OriginalLang       *string  `json:"originalLang"`
	UpdatedAt          int64    `json:"updatedAt"`
	TTLMs              int64    `json:"ttlMs"`
}

type EpisodeCacheRow struct {
	SeriesID  string  `json:"seriesId"`
	Season    int     `json:"season"`
	Episode   int     `json:"episode"`
	TitleEn   *string `json:"titleEn"`
	AirDate   *string `json:"airDate"`
	Runtime   *int    `json:"runtime"`
	UpdatedAt int64   `json:"updatedAt"`
}

type ExportDocument struct {
	ExportedAt        string            `json:"exportedAt"`
	Games             []Game            `json:"games"`
	GamePlatforms     []PlatformRow     `json:"gameplatforms"`
	GameTags          []TagRow          `json:"gametags"`
	SortOrder         []SortRow         `json:"sortorder"`
	Next              []NextRow         `json:"next"`
	Movies            []Movie           `json:"movies"`
	Series            []Series          `json:"series"`
	MediaProviders    []ProviderRow     `json:"mediaproviders"`
	SeriesProgress    []ProgressRow     `json:"seriesprogress"`
	HLTBCache         []HLTBCacheRow    `json:"hltbcache"`
	TMDBCache         []TMDBCacheRow    `json:"tmdbcache"`
	TMDBCacheEpisodes []EpisodeCacheRow `json:"tmdbcacheepisodes"`
}
