package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/medialib/medialib-go-server/internal/aggregate"
	"github.com/medialib/medialib-go-server/internal/db"
	"github.com/medialib/medialib-go-server/internal/model"
)

type GamesHandler struct {
	DB  *db.DB
	Agg *aggregate.Aggregator
}

type platformInput struct {
	Platform   string  `json:"platform"`
	Storefront *string `json:"storefront"`
}

func validatePlatforms(inputs []platformInput) ([]model.Platform, string) {
	platforms := make([]model.Platform, 0, len(inputs))
	for _, in := range inputs {
		if !model.Contains(model.GamePlatforms, in.Platform) {
			return nil, "invalid platform: " + in.Platform
		}
		if in.Storefront != nil && !model.Contains(model.Storefronts, *in.Storefront) {
			return nil, "invalid storefront: " + *in.Storefront
		}
		platforms = append(platforms, model.Platform{Platform: in.Platform, Storefront: in.Storefront})
	}
	return platforms, ""
}

// List handles GET /api/games
func (h *GamesHandler) List(w http.ResponseWriter, r *http.Request) {
	games, err := h.DB.ListGames()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.Agg.Games(games))
}

// Create handles POST /api/games
func (h *GamesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExternalID string          `json:"externalId"`
		Status     string          `json:"status"`
		Platforms  []platformInput `json:"platforms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ExternalID == "" {
		JSONError(w, "externalId is required", http.StatusBadRequest)
		return
	}
	if !model.Contains(model.GameStatuses, req.Status) {
		JSONError(w, "invalid status: "+req.Status, http.StatusBadRequest)
		return
	}
	platforms, msg := validatePlatforms(req.Platforms)
	if msg != "" {
		JSONError(w, msg, http.StatusBadRequest)
		return
	}

	exists, err := h.DB.GameExternalIDExists(req.ExternalID)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if exists {
		JSONError(w, "game already in library", http.StatusConflict)
		return
	}

	id, err := h.DB.CreateGame(r.Context(), req.ExternalID, req.Status, platforms)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	game, err := h.DB.GetGame(id)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, h.Agg.Game(game))
}

// Get handles GET /api/games/{id}
func (h *GamesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	game, err := h.DB.GetGame(id)
	if err == sql.ErrNoRows {
		JSONError(w, "game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.Agg.Game(game))
}

// Update handles PUT /api/games/{id}. Only status changes; the external
// id is immutable once added.
func (h *GamesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	game, err := h.DB.GetGame(id)
	if err == sql.ErrNoRows {
		JSONError(w, "game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var req struct {
		Status *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status != nil {
		if !model.Contains(model.GameStatuses, *req.Status) {
			JSONError(w, "invalid status: "+*req.Status, http.StatusBadRequest)
			return
		}
		game.Status = *req.Status
	}

	if err := h.DB.UpdateGame(id, game.ExternalID, game.Status); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.Agg.Game(game))
}

// Delete handles DELETE /api/games/{id}
func (h *GamesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.DB.GetGame(id); err == sql.ErrNoRows {
		JSONError(w, "game not found", http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.DB.DeleteGame(r.Context(), id); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutPlatforms handles PUT /api/games/{id}/platforms. The body is the full
// platform list; an empty array clears every association.
func (h *GamesHandler) PutPlatforms(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.DB.GetGame(id); err == sql.ErrNoRows {
		JSONError(w, "game not found", http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var inputs []platformInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	platforms, msg := validatePlatforms(inputs)
	if msg != "" {
		JSONError(w, msg, http.StatusBadRequest)
		return
	}

	if err := h.DB.ReplaceGamePlatforms(r.Context(), id, platforms); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	game, err := h.DB.GetGame(id)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if game.Platforms == nil {
		game.Platforms = []model.Platform{}
	}
	writeJSON(w, http.StatusOK, game.Platforms)
}

// PutTags handles PUT /api/games/{id}/tags
func (h *GamesHandler) PutTags(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.DB.GetGame(id); err == sql.ErrNoRows {
		JSONError(w, "game not found", http.StatusNotFound)
		return
	} else if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var tags []string
	if err := json.NewDecoder(r.Body).Decode(&tags); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	for _, tag := range tags {
		if !model.Contains(model.GameTags, tag) {
			JSONError(w, "invalid tag: "+tag, http.StatusBadRequest)
			return
		}
	}

	if err := h.DB.ReplaceGameTags(r.Context(), id, tags); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	game, err := h.DB.GetGame(id)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if game.Tags == nil {
		game.Tags = []string{}
	}
	writeJSON(w, http.StatusOK, game.Tags)
}

// DeleteCache handles DELETE /api/games/{id}/cache, forcing a fresh
// provider fetch on the next read.
func (h *GamesHandler) DeleteCache(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	game, err := h.DB.GetGame(id)
	if err == sql.ErrNoRows {
		JSONError(w, "game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.DB.InvalidateHLTB(game.ExternalID); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
