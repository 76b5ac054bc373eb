package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dom/snake-arena/internal/service"
	"github.com/go-chi/chi/v5"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Resolve answers pending/completed/unknown for a spectator link.
func (h *SessionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	resolution := h.sessionService.Resolve(r.Context(), sessionID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resolution)
}

func paginationParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
