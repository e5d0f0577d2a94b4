// Package api wires the HTTP surface: JSON handlers under /api, CORS for
// the frontend origin, request logging and optional static file serving.
package api

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/medialib/medialib-go-server/internal/aggregate"
	"github.com/medialib/medialib-go-server/internal/db"
)

type RouterConfig struct {
	DB           *db.DB
	Agg          *aggregate.Aggregator
	HLTB         HLTBClient
	TMDB         TMDBClient
	PasswordHash string
	FrontendURL  string
	StaticDir    string
}

func NewRouter(cfg RouterConfig) http.Handler {
	games := &GamesHandler{DB: cfg.DB, Agg: cfg.Agg}
	movies := &MediaHandler{DB: cfg.DB, Agg: cfg.Agg, MediaType: "movie"}
	series := &MediaHandler{DB: cfg.DB, Agg: cfg.Agg, MediaType: "series"}
	search := &SearchHandler{DB: cfg.DB, HLTB: cfg.HLTB, TMDB: cfg.TMDB}
	lists := &ListsHandler{DB: cfg.DB}
	admin := &AdminHandler{DB: cfg.DB, PasswordHash: cfg.PasswordHash}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/games", games.List)
	mux.HandleFunc("POST /api/games", games.Create)
	mux.HandleFunc("GET /api/games/{id}", games.Get)
	mux.HandleFunc("PUT /api/games/{id}", games.Update)
	mux.HandleFunc("DELETE /api/games/{id}", games.Delete)
	mux.HandleFunc("PUT /api/games/{id}/platforms", games.PutPlatforms)
	mux.HandleFunc("PUT /api/games/{id}/tags", games.PutTags)
	mux.HandleFunc("DELETE /api/games/{id}/cache", games.DeleteCache)

	mux.HandleFunc("GET /api/movies", movies.List)
	mux.HandleFunc("POST /api/movies", movies.Create)
	mux.HandleFunc("PUT /api/movies/{id}", movies.Update)
	mux.HandleFunc("DELETE /api/movies/{id}", movies.Delete)
	mux.HandleFunc("PUT /api/movies/{id}/providers", movies.PutProviders)
	mux.HandleFunc("DELETE /api/movies/{id}/cache", movies.DeleteCache)

	mux.HandleFunc("GET /api/series", series.List)
	mux.HandleFunc("POST /api/series", series.Create)
	mux.HandleFunc("PUT /api/series/{id}", series.Update)
	mux.HandleFunc("DELETE /api/series/{id}", series.Delete)
	mux.HandleFunc("PUT /api/series/{id}/providers", series.PutProviders)
	mux.HandleFunc("DELETE /api/series/{id}/cache", series.DeleteCache)
	mux.HandleFunc("GET /api/series/{id}/episodes", series.Episodes)
	mux.HandleFunc("GET /api/series/{id}/progress", series.Progress)
	mux.HandleFunc("POST /api/series/{id}/progress/toggle", series.ToggleProgress)
	mux.HandleFunc("PUT /api/series/{id}/progress/season", series.SetSeasonProgress)

	mux.HandleFunc("GET /api/hltb/search", search.SearchHLTB)
	mux.HandleFunc("GET /api/hltb/{id}", search.GetHLTB)
	mux.HandleFunc("DELETE /api/hltb/cache/{id}", search.DeleteHLTBCache)
	mux.HandleFunc("GET /api/tmdb/search", search.SearchTMDB)
	mux.HandleFunc("GET /api/tmdb/{id}", search.GetTMDB)
	mux.HandleFunc("DELETE /api/tmdb/cache/{id}", search.DeleteTMDBCache)

	mux.HandleFunc("GET /api/next", lists.GetNext)
	mux.HandleFunc("PUT /api/next", lists.PutNext)
	mux.HandleFunc("DELETE /api/next/{mediaId}", lists.DeleteNext)
	mux.HandleFunc("GET /api/sort-order", lists.GetSortOrder)
	mux.HandleFunc("PUT /api/sort-order", lists.PutSortOrder)

	mux.HandleFunc("POST /api/admin/login", admin.Login)
	mux.HandleFunc("GET /api/admin/export", AdminAuth(cfg.PasswordHash, admin.Export))
	mux.HandleFunc("POST /api/admin/import", AdminAuth(cfg.PasswordHash, admin.Import))

	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	} else {
		mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return LoggingMiddleware(c.Handler(mux))
}
