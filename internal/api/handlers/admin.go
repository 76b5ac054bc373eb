package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/snake-arena/internal/domain"
	"github.com/dom/snake-arena/internal/service"
)

type AdminHandler struct {
	ingestService *service.IngestService
	ratingService *service.RatingService
}

func NewAdminHandler(ingestService *service.IngestService, ratingService *service.RatingService) *AdminHandler {
	return &AdminHandler{ingestService: ingestService, ratingService: ratingService}
}

type IngestRequest struct {
	ReplayPath     string `json:"replayPath"`
	ForceRecompute bool   `json:"forceRecompute"`
}

// Ingest re-runs ingestion from a stored replay artifact. This is also the
// recovery path for jobs the queue dropped.
func (h *AdminHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ReplayPath == "" {
		http.Error(w, "replayPath is required", http.StatusBadRequest)
		return
	}

	err := h.ingestService.IngestFile(r.Context(), req.ReplayPath, service.IngestOptions{ForceRecompute: req.ForceRecompute})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReplayNotFound):
			http.Error(w, "Replay artifact not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrReplayParse):
			http.Error(w, "Replay artifact is malformed", http.StatusUnprocessableEntity)
		default:
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetRatings re-baselines the ladder: every model back to the default
// prior, aggregates zeroed.
func (h *AdminHandler) ResetRatings(w http.ResponseWriter, r *http.Request) {
	if err := h.ratingService.ResetAll(r.Context()); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
