package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/medialib/medialib-go-server/internal/aggregate"
	"github.com/medialib/medialib-go-server/internal/db"
	"github.com/medialib/medialib-go-server/internal/model"
)

// MediaHandler serves both movies and series; the two differ only in
// table, status enum and the series-specific sub-routes in series.go.
type MediaHandler struct {
	DB        *db.DB
	Agg       *aggregate.Aggregator
	MediaType string
}

func (h *MediaHandler) statuses() []string {
	if h.MediaType == "movie" {
		return model.MovieStatuses
	}
	return model.SeriesStatuses
}

func (h *MediaHandler) notFoundMsg() string {
	return h.MediaType + " not found"
}

// getMedia loads one row of this handler's kind as the generic pair the
// aggregator works with.
func (h *MediaHandler) getMedia(id int64) (*model.Movie, *model.Series, error) {
	if h.MediaType == "movie" {
		m, err := h.DB.GetMovie(id)
		return m, nil, err
	}
	s, err := h.DB.GetSeries(id)
	return nil, s, err
}

func (h *MediaHandler) writeAggregated(w http.ResponseWriter, code int, id int64) {
	movie, series, err := h.getMedia(id)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if movie != nil {
		writeJSON(w, code, h.Agg.Movie(movie))
		return
	}
	writeJSON(w, code, h.Agg.Series(series))
}

// List handles GET /api/movies and GET /api/series
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.MediaType == "movie" {
		movies, err := h.DB.ListMovies()
		if err != nil {
			JSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, h.Agg.Movies(movies))
		return
	}
	series, err := h.DB.ListSeries()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.Agg.SeriesList(series))
}

// Create handles POST /api/movies and POST /api/series
func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExternalID string   `json:"externalId"`
		Status     string   `json:"status"`
		Providers  []string `json:"providers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ExternalID == "" {
		JSONError(w, "externalId is required", http.StatusBadRequest)
		return
	}
	if !model.Contains(h.statuses(), req.Status) {
		JSONError(w, "invalid status: "+req.Status, http.StatusBadRequest)
		return
	}

	exists, err := h.DB.MediaExternalIDExists(req.ExternalID, h.MediaType)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if exists {
		JSONError(w, h.MediaType+" already in library", http.StatusConflict)
		return
	}

	id, err := h.DB.CreateMedia(r.Context(), h.MediaType, req.ExternalID, req.Status, req.Providers)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeAggregated(w, http.StatusCreated, id)
}

// Update handles PUT /api/movies/{id} and PUT /api/series/{id}. Status
// and userRating are updatable; omitted fields keep their stored value.
func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	movie, series, err := h.getMedia(id)
	if err == sql.ErrNoRows {
		JSONError(w, h.notFoundMsg(), http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := ""
	var rating *int
	if movie != nil {
		status, rating = movie.Status, movie.UserRating
	} else {
		status, rating = series.Status, series.UserRating
	}

	var req struct {
		Status     *string `json:"status"`
		UserRating *int    `json:"userRating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status != nil {
		if !model.Contains(h.statuses(), *req.Status) {
			JSONError(w, "invalid status: "+*req.Status, http.StatusBadRequest)
			return
		}
		status = *req.Status
	}
	if req.UserRating != nil {
		if *req.UserRating < 1 || *req.UserRating > 10 {
			JSONError(w, "userRating must be between 1 and 10", http.StatusBadRequest)
			return
		}
		rating = req.UserRating
	}

	if err := h.DB.UpdateMedia(id, h.MediaType, status, rating); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeAggregated(w, http.StatusOK, id)
}

// Delete handles DELETE /api/movies/{id} and DELETE /api/series/{id}
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, _, err := h.getMedia(id); err == sql.ErrNoRows {
		JSONError(w, h.notFoundMsg(), http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.DB.DeleteMedia(r.Context(), id, h.MediaType); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutProviders handles PUT /api/movies/{id}/providers and the series
// counterpart. Full replace; empty array clears.
func (h *MediaHandler) PutProviders(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, _, err := h.getMedia(id); err == sql.ErrNoRows {
		JSONError(w, h.notFoundMsg(), http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var providers []string
	if err := json.NewDecoder(r.Body).Decode(&providers); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.DB.ReplaceMediaProviders(r.Context(), id, h.MediaType, providers); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeAggregated(w, http.StatusOK, id)
}

// DeleteCache handles DELETE /api/movies/{id}/cache and the series
// counterpart. For series the episode sub-cache goes with it.
func (h *MediaHandler) DeleteCache(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	movie, series, err := h.getMedia(id)
	if err == sql.ErrNoRows {
		JSONError(w, h.notFoundMsg(), http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	externalID := ""
	if movie != nil {
		externalID = movie.ExternalID
	} else {
		externalID = series.ExternalID
	}
	if err := h.DB.InvalidateTMDB(externalID, h.MediaType); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if h.MediaType == "series" {
		if err := h.DB.InvalidateEpisodes(externalID); err != nil {
			JSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
