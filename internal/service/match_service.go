package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dom/snake-arena/internal/domain"
	"github.com/dom/snake-arena/internal/repository"
	"github.com/dom/snake-arena/internal/runner"
	"github.com/dom/snake-arena/internal/websocket"
)

// MatchService ties the pieces together: it reserves a live session, drives
// the simulator, streams progress to the session's subscriber, and on
// completion hands the result to the ingest queue. Spectators are passive;
// a dropped connection never cancels the match, and ingestion happens
// exactly once regardless of spectator presence.
type MatchService struct {
	runner      *runner.Runner
	broadcaster *websocket.Broadcaster
	sessions    *SessionService
	queue       *IngestQueue
	gameRepo    repository.GameRepository
}

func NewMatchService(r *runner.Runner, broadcaster *websocket.Broadcaster, sessions *SessionService, queue *IngestQueue, gameRepo repository.GameRepository) *MatchService {
	return &MatchService{
		runner:      r,
		broadcaster: broadcaster,
		sessions:    sessions,
		queue:       queue,
		gameRepo:    gameRepo,
	}
}

// StartMatch reserves a pending session and launches the match in the
// background. The returned session id is the durable spectator link.
func (s *MatchService) StartMatch(ctx context.Context, cfg runner.MatchConfig) (*domain.LiveSession, error) {
	if cfg.ModelA == "" || cfg.ModelB == "" {
		return nil, runner.ErrConfigInvalid
	}

	session, err := s.sessions.CreatePending(ctx, cfg.ModelA, cfg.ModelB)
	if err != nil {
		return nil, err
	}

	// The match outlives the request that started it.
	go s.runMatch(session.ID, cfg)
	return session, nil
}

func (s *MatchService) runMatch(sessionID string, cfg runner.MatchConfig) {
	ctx := context.Background()

	callbacks := &runner.Callbacks{
		OnStatus: func(ev runner.StatusEvent) {
			s.broadcaster.Send(sessionID, websocket.StreamEvent{Type: websocket.EventTypeStatus, Payload: ev})
		},
		OnFrame: func(ev runner.FrameEvent) {
			s.broadcaster.Send(sessionID, websocket.StreamEvent{Type: websocket.EventTypeFrame, Payload: ev})
		},
		OnChunk: func(ev runner.ChunkEvent) {
			s.broadcaster.Send(sessionID, websocket.StreamEvent{Type: websocket.EventTypeChunk, Payload: ev})
		},
	}

	result, err := s.runner.Run(ctx, cfg, callbacks)
	if err != nil {
		log.Printf("ERROR [service.MatchService] match for session %s failed: %v", sessionID, err)
		s.broadcaster.Fail(sessionID, failureCode(err), err.Error())
		return
	}

	s.broadcaster.Send(sessionID, websocket.StreamEvent{Type: websocket.EventTypeResult, Payload: result})
	s.broadcaster.CloseSession(sessionID)

	// Pending game row up front; the ingestor finalizes it from the replay.
	now := time.Now()
	game := &domain.Game{
		ID:          result.GameID,
		Status:      domain.GameStatusPending,
		StartTime:   &now,
		BoardWidth:  cfg.Width,
		BoardHeight: cfg.Height,
		NumApples:   cfg.NumApples,
		ReplayPath:  result.ReplayPath,
		GameType:    cfg.GameType,
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		// Likely a concurrent retry of the same game id; the ingestor
		// upsert settles it either way.
		log.Printf("WARN [service.MatchService] could not create pending game row %s: %v", result.GameID, err)
	}

	if err := s.sessions.MarkCompleted(ctx, sessionID, result.GameID); err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			// The match outlived the session TTL. The session stays
			// unknown; the game is still ingested below.
			log.Printf("WARN [service.MatchService] session %s expired before match finished, game %s kept", sessionID, result.GameID)
		} else {
			log.Printf("ERROR [service.MatchService] could not mark session %s completed: %v", sessionID, err)
		}
	}

	if err := s.queue.Enqueue(IngestJob{GameID: result.GameID, ReplayPath: result.ReplayPath}); err != nil {
		log.Printf("ERROR [service.MatchService] game %s not queued for ingestion: %v", result.GameID, err)
	}
}

func failureCode(err error) string {
	switch {
	case errors.Is(err, runner.ErrConfigInvalid):
		return "CONFIG_INVALID"
	case errors.Is(err, runner.ErrProcessSpawnFailed):
		return "SPAWN_FAILED"
	case errors.Is(err, runner.ErrProcessTimeout):
		return "TIMEOUT"
	case errors.Is(err, runner.ErrProcessCrashed):
		return "CRASHED"
	case errors.Is(err, runner.ErrMalformedOutput):
		return "MALFORMED_OUTPUT"
	default:
		return "INTERNAL"
	}
}
