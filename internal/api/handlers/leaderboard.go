package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dom/snake-arena/internal/repository"
	"github.com/dom/snake-arena/internal/service"
)

type LeaderboardHandler struct {
	modelRepo          repository.ModelRepository
	matchmakingService *service.MatchmakingService
}

func NewLeaderboardHandler(modelRepo repository.ModelRepository, matchmakingService *service.MatchmakingService) *LeaderboardHandler {
	return &LeaderboardHandler{modelRepo: modelRepo, matchmakingService: matchmakingService}
}

func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	minGames := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("minGames")); err == nil && v > 0 {
		minGames = v
	}

	models, err := h.modelRepo.GetLeaderboard(r.Context(), minGames)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"models": models})
}

func (h *LeaderboardHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	mode := service.SuggestMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = service.ModeLadder
	}

	limit := 5
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 20 {
		limit = v
	}
	minGames := 3
	if v, err := strconv.Atoi(r.URL.Query().Get("minGames")); err == nil && v >= 0 {
		minGames = v
	}

	result, err := h.matchmakingService.Suggest(r.Context(), mode, limit, minGames)
	if err != nil {
		http.Error(w, "Invalid suggestion mode", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
