package service

import (
	"github.com/dom/snake-arena/internal/config"
	"github.com/dom/snake-arena/internal/repository"
	"github.com/dom/snake-arena/internal/runner"
	"github.com/dom/snake-arena/internal/websocket"
	"gorm.io/gorm"
)

type Services struct {
	Auth        *AuthService
	Session     *SessionService
	Rating      *RatingService
	Ingest      *IngestService
	Queue       *IngestQueue
	Match       *MatchService
	Matchmaking *MatchmakingService
}

func NewServices(db *gorm.DB, repos *repository.Repositories, broadcaster *websocket.Broadcaster, cfg *config.Config) *Services {
	matchRunner := runner.New(cfg.SimulatorPath, nil, cfg.MatchTimeout)

	rating := NewRatingService(db)
	ingest := NewIngestService(db, rating)
	queue := NewIngestQueue(ingest, cfg.IngestQueueDepth)
	sessions := NewSessionService(NewMemorySessionStore(), repos.LiveSession, cfg.PendingSessionTTL, cfg.SessionRetention)

	return &Services{
		Auth:        NewAuthService(cfg),
		Session:     sessions,
		Rating:      rating,
		Ingest:      ingest,
		Queue:       queue,
		Match:       NewMatchService(matchRunner, broadcaster, sessions, queue, repos.Game),
		Matchmaking: NewMatchmakingService(repos.Model, repos.Participant),
	}
}
