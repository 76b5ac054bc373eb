package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/snake-arena/internal/api"
	"github.com/dom/snake-arena/internal/config"
	"github.com/dom/snake-arena/internal/repository"
	repoPostgres "github.com/dom/snake-arena/internal/repository/postgres"
	"github.com/dom/snake-arena/internal/service"
	"github.com/dom/snake-arena/internal/websocket"
)

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0", // Random port
		Environment:        "test",
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		AdminUser:          "operator",
		AdminPassword:      "operator-password",
		SimulatorPath:      "snake-sim",
		MatchTimeout:       30 * time.Second,
		ReplayDir:          "replays",
		PendingSessionTTL:  5 * time.Minute,
		SessionRetention:   30 * 24 * time.Hour,
		IngestQueueDepth:   16,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server      *httptest.Server
	DB          *TestDB
	Repos       *repository.Repositories
	Services    *service.Services
	Broadcaster *websocket.Broadcaster
	Config      *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	return NewTestServerWithConfig(t, nil)
}

// NewTestServerWithConfig lets a test adjust the configuration before the
// services are wired, e.g. to point SimulatorPath at a fake simulator.
func NewTestServerWithConfig(t *testing.T, mutate func(*config.Config)) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()
	if mutate != nil {
		mutate(cfg)
	}

	repos := repoPostgres.NewRepositories(testDB.DB)
	broadcaster := websocket.NewBroadcaster()
	services := service.NewServices(testDB.DB, repos, broadcaster, cfg)
	services.Queue.Start(context.Background())

	router := api.NewRouter(services, broadcaster, repos)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:      server,
		DB:          testDB,
		Repos:       repos,
		Services:    services,
		Broadcaster: broadcaster,
		Config:      cfg,
	}

	t.Cleanup(func() {
		server.Close()
		services.Queue.Stop()
	})

	return ts
}

// OperatorToken logs the configured operator in and returns a bearer token.
func (ts *TestServer) OperatorToken(t *testing.T) string {
	t.Helper()
	token, err := ts.Services.Auth.Login(ts.Config.AdminUser, ts.Config.AdminPassword)
	if err != nil {
		t.Fatalf("operator login failed: %v", err)
	}
	return token
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// SpectateURL returns the WebSocket URL for a session's spectator stream.
func (ts *TestServer) SpectateURL(sessionID string) string {
	return fmt.Sprintf("ws%s/api/v1/sessions/%s/spectate", ts.Server.URL[4:], sessionID)
}
