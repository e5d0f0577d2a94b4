package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/medialib/medialib-go-server/internal/auth"
	"github.com/medialib/medialib-go-server/internal/db"
	"github.com/medialib/medialib-go-server/internal/model"
)

// AdminHandler serves the backup endpoints and the optional login.
// PasswordHash is empty when no ADMIN_PASSWORD is configured; login then
// answers 404 and export/import stay open.
type AdminHandler struct {
	DB           *db.DB
	PasswordHash string
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.PasswordHash == "" {
		JSONError(w, "admin login not configured", http.StatusNotFound)
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ok, err := auth.VerifyPassword(req.Password, h.PasswordHash)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		JSONError(w, "invalid password", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Export handles GET /api/admin/export, dumping every table as one
// downloadable document.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.DB.Export()
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("medialib-export-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	json.NewEncoder(w).Encode(doc)
}

// Import handles POST /api/admin/import. The document replaces the entire
// database; a body without a games key is rejected before anything is
// touched.
func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if _, ok := raw["games"]; !ok {
		JSONError(w, "not a library export: games missing", http.StatusBadRequest)
		return
	}

	buf, err := json.Marshal(raw)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var doc model.ExportDocument
	if err := json.Unmarshal(buf, &doc); err != nil {
		JSONError(w, "invalid export document: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.DB.Import(r.Context(), &doc); err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}
