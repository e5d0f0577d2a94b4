package api

import (
	"net/http"

	"github.com/medialib/medialib-go-server/internal/db"
	"github.com/medialib/medialib-go-server/internal/model"
)

// HLTBClient is the subset of hltb.Client the passthrough endpoints use.
type HLTBClient interface {
	Search(query string) ([]model.SearchResult, error)
	Game(id string) (*model.HLTBGame, error)
}

// TMDBClient is the subset of tmdb.Client the passthrough endpoints use.
type TMDBClient interface {
	Search(query, mediaType string) ([]model.MediaSearchResult, error)
	Movie(id string) (*model.TMDBItem, error)
	Series(id string) (*model.TMDBItem, error)
}

// SearchHandler exposes the providers directly: search for the add-item
// flow and id lookups that go through the cache. Unlike the aggregated
// library reads these report upstream failures to the caller.
type SearchHandler struct {
	DB   *db.DB
	HLTB HLTBClient
	TMDB TMDBClient
}

// SearchHLTB handles GET /api/hltb/search?q=
func (h *SearchHandler) SearchHLTB(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		JSONError(w, "query parameter q is required", http.StatusBadRequest)
		return
	}
	results, err := h.HLTB.Search(query)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// GetHLTB handles GET /api/hltb/{id}, serving from cache when fresh.
func (h *SearchHandler) GetHLTB(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	cached, err := h.DB.GetHLTB(id)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	game, err := h.HLTB.Game(id)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if err := h.DB.PutHLTB(game); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// DeleteHLTBCache handles DELETE /api/hltb/cache/{id}
func (h *SearchHandler) DeleteHLTBCache(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.InvalidateHLTB(r.PathValue("id")); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mediaTypeParam(r *http.Request) (string, bool) {
	t := r.URL.Query().Get("type")
	return t, model.Contains(model.MediaTypes, t) && t != "game"
}

// SearchTMDB handles GET /api/tmdb/search?q=&type=
func (h *SearchHandler) SearchTMDB(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		JSONError(w, "query parameter q is required", http.StatusBadRequest)
		return
	}
	mediaType, ok := mediaTypeParam(r)
	if !ok {
		JSONError(w, "type must be movie or series", http.StatusBadRequest)
		return
	}
	results, err := h.TMDB.Search(query, mediaType)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// GetTMDB handles GET /api/tmdb/{id}?type=, serving from cache when fresh.
func (h *SearchHandler) GetTMDB(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	mediaType, ok := mediaTypeParam(r)
	if !ok {
		JSONError(w, "type must be movie or series", http.StatusBadRequest)
		return
	}

	cached, err := h.DB.GetTMDB(id, mediaType)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	var item *model.TMDBItem
	if mediaType == "movie" {
		item, err = h.TMDB.Movie(id)
	} else {
		item, err = h.TMDB.Series(id)
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if err := h.DB.PutTMDB(item); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteTMDBCache handles DELETE /api/tmdb/cache/{id}?type=. For series
// the episode sub-cache is dropped as well.
func (h *SearchHandler) DeleteTMDBCache(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	mediaType, ok := mediaTypeParam(r)
	if !ok {
		JSONError(w, "type must be movie or series", http.StatusBadRequest)
		return
	}
	if err := h.DB.InvalidateTMDB(id, mediaType); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if mediaType == "series" {
		if err := h.DB.InvalidateEpisodes(id); err != nil {
			JSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
