package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/snake-arena/internal/api"
	"github.com/dom/snake-arena/internal/config"
	"github.com/dom/snake-arena/internal/repository/postgres"
	"github.com/dom/snake-arena/internal/service"
	"github.com/dom/snake-arena/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Initialize stream broadcaster
	broadcaster := websocket.NewBroadcaster()

	// Initialize services
	services := service.NewServices(db, repos, broadcaster, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services.Queue.Start(ctx)
	if err := services.Session.StartJanitor(ctx); err != nil {
		log.Fatalf("failed to start session janitor: %v", err)
	}

	// Initialize router
	router := api.NewRouter(services, broadcaster, repos)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	// Let queued ingestions finish before the process dies.
	services.Queue.Stop()
	services.Session.StopJanitor()

	log.Println("Server stopped")
}
