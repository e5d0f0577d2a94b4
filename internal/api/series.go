package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/medialib/medialib-go-server/internal/model"
)

// Series-specific sub-routes: the episode list and the watched-progress
// endpoints. These hang off the series MediaHandler.

// Episodes handles GET /api/series/{id}/episodes
func (h *MediaHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	series, err := h.DB.GetSeries(id)
	if err == sql.ErrNoRows {
		JSONError(w, "series not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	episodes, err := h.Agg.Episodes(r.Context(), series.ExternalID)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, episodes)
}

// Progress handles GET /api/series/{id}/progress
func (h *MediaHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.DB.GetSeries(id); err == sql.ErrNoRows {
		JSONError(w, "series not found", http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	progress, err := h.DB.ListProgress(id)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if progress == nil {
		progress = []model.EpisodeProgress{}
	}
	writeJSON(w, http.StatusOK, progress)
}

// ToggleProgress handles POST /api/series/{id}/progress/toggle
func (h *MediaHandler) ToggleProgress(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.DB.GetSeries(id); err == sql.ErrNoRows {
		JSONError(w, "series not found", http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var req struct {
		Season  *int `json:"season"`
		Episode *int `json:"episode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Season == nil || req.Episode == nil || *req.Season < 1 || *req.Episode < 1 {
		JSONError(w, "season and episode are required", http.StatusBadRequest)
		return
	}

	watched, err := h.DB.ToggleProgress(r.Context(), id, *req.Season, *req.Episode)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"watched": watched})
}

// SetSeasonProgress handles PUT /api/series/{id}/progress/season, marking
// a batch of episodes of one season watched or unwatched.
func (h *MediaHandler) SetSeasonProgress(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.DB.GetSeries(id); err == sql.ErrNoRows {
		JSONError(w, "series not found", http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var req struct {
		Season   *int  `json:"season"`
		Episodes []int `json:"episodes"`
		Watched  *bool `json:"watched"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Season == nil || *req.Season < 1 || req.Watched == nil {
		JSONError(w, "season and watched are required", http.StatusBadRequest)
		return
	}
	for _, ep := range req.Episodes {
		if ep < 1 {
			JSONError(w, "episode numbers must be positive", http.StatusBadRequest)
			return
		}
	}

	if err := h.DB.SetSeasonProgress(r.Context(), id, *req.Season, req.Episodes, *req.Watched); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	progress, err := h.DB.ListProgress(id)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if progress == nil {
		progress = []model.EpisodeProgress{}
	}
	writeJSON(w, http.StatusOK, progress)
}
