package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/medialib/medialib-go-server/internal/db"
	"github.com/medialib/medialib-go-server/internal/model"
)

// ListsHandler serves the next-up shortlist and the custom game sort order.
type ListsHandler struct {
	DB *db.DB
}

// GetNext handles GET /api/next?type=
func (h *ListsHandler) GetNext(w http.ResponseWriter, r *http.Request) {
	mediaType := r.URL.Query().Get("type")
	if mediaType != "" && !model.Contains(model.MediaTypes, mediaType) {
		JSONError(w, "invalid type: "+mediaType, http.StatusBadRequest)
		return
	}

	entries, err := h.DB.ListNext(mediaType)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []model.NextEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// PutNext handles PUT /api/next. The body is the full shortlist for the
// media kinds it mentions; kinds not mentioned keep their entries. A kind
// exceeding the per-type cap rejects the whole request untouched.
func (h *ListsHandler) PutNext(w http.ResponseWriter, r *http.Request) {
	var entries []model.NextEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	counts := map[string]int{}
	for _, e := range entries {
		if !model.Contains(model.MediaTypes, e.MediaType) {
			JSONError(w, "invalid mediaType: "+e.MediaType, http.StatusBadRequest)
			return
		}
		counts[e.MediaType]++
		if counts[e.MediaType] > db.MaxNextPerType {
			JSONError(w, fmt.Sprintf("at most %d entries per type", db.MaxNextPerType), http.StatusBadRequest)
			return
		}
	}

	if err := h.DB.ReplaceNext(r.Context(), entries); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	all, err := h.DB.ListNext("")
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if all == nil {
		all = []model.NextEntry{}
	}
	writeJSON(w, http.StatusOK, all)
}

// DeleteNext handles DELETE /api/next/{mediaId}?type=
func (h *ListsHandler) DeleteNext(w http.ResponseWriter, r *http.Request) {
	mediaID, err := strconv.ParseInt(r.PathValue("mediaId"), 10, 64)
	if err != nil {
		JSONError(w, "invalid mediaId", http.StatusBadRequest)
		return
	}
	mediaType := r.URL.Query().Get("type")
	if !model.Contains(model.MediaTypes, mediaType) {
		JSONError(w, "invalid type: "+mediaType, http.StatusBadRequest)
		return
	}

	if err := h.DB.DeleteNext(mediaID, mediaType); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSortOrder handles GET /api/sort-order
func (h *ListsHandler) GetSortOrder(w http.ResponseWriter, r *http.Request) {
	entries, err := h.DB.ListSortOrder()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	order := make([]int64, 0, len(entries))
	for _, e := range entries {
		order = append(order, e.GameID)
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"order": order})
}

// PutSortOrder handles PUT /api/sort-order. Full replace; position is the
// index in the submitted array.
func (h *ListsHandler) PutSortOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order []int64 `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Order == nil {
		JSONError(w, "order is required", http.StatusBadRequest)
		return
	}

	if err := h.DB.ReplaceSortOrder(r.Context(), req.Order); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"order": req.Order})
}
