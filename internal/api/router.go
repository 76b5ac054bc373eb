package api

import (
	"net/http"

	"github.com/dom/snake-arena/internal/api/handlers"
	"github.com/dom/snake-arena/internal/api/middleware"
	"github.com/dom/snake-arena/internal/repository"
	"github.com/dom/snake-arena/internal/service"
	"github.com/dom/snake-arena/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, broadcaster *websocket.Broadcaster, repos *repository.Repositories) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	matchHandler := handlers.NewMatchHandler(services.Match, repos.Game, services.Queue)
	sessionHandler := handlers.NewSessionHandler(services.Session)
	spectateHandler := handlers.NewSpectateHandler(broadcaster, services.Session)
	leaderboardHandler := handlers.NewLeaderboardHandler(repos.Model, services.Matchmaking)
	adminHandler := handlers.NewAdminHandler(services.Ingest, services.Rating)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// Public spectator surface
		r.Get("/sessions/{id}", sessionHandler.Resolve)
		r.Get("/sessions/{id}/spectate", spectateHandler.Handle)
		r.Get("/games", matchHandler.List)
		r.Get("/games/{id}", matchHandler.Get)
		r.Get("/leaderboard", leaderboardHandler.List)
		r.Get("/matchups/suggestions", leaderboardHandler.Suggestions)

		// Operator routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOperator(services.Auth))
			r.Post("/matches", matchHandler.Start)
			r.Post("/admin/ingest", adminHandler.Ingest)
			r.Post("/admin/ratings/reset", adminHandler.ResetRatings)
		})
	})

	return r
}
