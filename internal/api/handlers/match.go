package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/snake-arena/internal/repository"
	"github.com/dom/snake-arena/internal/runner"
	"github.com/dom/snake-arena/internal/service"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type MatchHandler struct {
	matchService *service.MatchService
	gameRepo     repository.GameRepository
	queue        *service.IngestQueue
}

func NewMatchHandler(matchService *service.MatchService, gameRepo repository.GameRepository, queue *service.IngestQueue) *MatchHandler {
	return &MatchHandler{matchService: matchService, gameRepo: gameRepo, queue: queue}
}

type StartMatchRequest struct {
	ModelA    string `json:"modelA"`
	ModelB    string `json:"modelB"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	MaxRounds int    `json:"maxRounds"`
	NumApples int    `json:"numApples"`
}

type StartMatchResponse struct {
	SessionID string `json:"sessionId"`
	ExpiresAt string `json:"expiresAt"`
}

func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.matchService.StartMatch(r.Context(), runner.MatchConfig{
		ModelA:    req.ModelA,
		ModelB:    req.ModelB,
		Width:     req.Width,
		Height:    req.Height,
		MaxRounds: req.MaxRounds,
		NumApples: req.NumApples,
	})
	if err != nil {
		if errors.Is(err, runner.ErrConfigInvalid) {
			http.Error(w, "Both modelA and modelB are required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(StartMatchResponse{
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	game, err := h.gameRepo.GetByID(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(game)
}

func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 20)

	games, err := h.gameRepo.List(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"games":       games,
		"pendingJobs": h.queue.PendingJobs(),
	})
}
