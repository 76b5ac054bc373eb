package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dom/snake-arena/internal/domain"
	"github.com/dom/snake-arena/internal/repository"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultPendingTTL       = 5 * time.Minute
	DefaultSessionRetention = 30 * 24 * time.Hour
)

// SessionService tracks live-session lifecycle: pending until the match
// completes, unknown forever once the pending TTL passes. Writes go through
// the in-memory store and best-effort into Postgres; a database outage
// degrades durability, never a request.
type SessionService struct {
	store      SessionStore
	repo       repository.LiveSessionRepository
	pendingTTL time.Duration
	retention  time.Duration
	sched      gocron.Scheduler

	// now is swapped in tests to drive TTL expiry.
	now func() time.Time
}

func NewSessionService(store SessionStore, repo repository.LiveSessionRepository, pendingTTL, retention time.Duration) *SessionService {
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	if retention <= 0 {
		retention = DefaultSessionRetention
	}
	return &SessionService{
		store:      store,
		repo:       repo,
		pendingTTL: pendingTTL,
		retention:  retention,
		now:        time.Now,
	}
}

// CreatePending reserves a session for a not-yet-started match.
func (s *SessionService) CreatePending(ctx context.Context, modelA, modelB string) (*domain.LiveSession, error) {
	now := s.now()
	session := &domain.LiveSession{
		ID:        uuid.New().String(),
		ModelA:    domain.CanonicalSlug(modelA),
		ModelB:    domain.CanonicalSlug(modelB),
		Status:    domain.SessionPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.pendingTTL),
	}
	s.store.Set(session)

	if err := s.repo.Create(ctx, session); err != nil {
		log.Printf("ERROR [service.SessionService] failed to persist pending session %s, continuing in-memory only: %v", session.ID, err)
	}
	return session, nil
}

// Resolve answers exactly one of pending, completed(gameID), unknown.
// Expiry is checked before pending is ever returned: a client must never
// open a stream against a session that is already dead.
func (s *SessionService) Resolve(ctx context.Context, id string) domain.Resolution {
	session, ok := s.store.Get(id)
	if !ok {
		// Read-through: completed sessions survive restarts in Postgres.
		persisted, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("ERROR [service.SessionService] session lookup %s: %v", id, err)
			}
			return domain.Resolution{State: domain.SessionUnknown}
		}
		s.store.Set(persisted)
		session = persisted
	}

	switch {
	case session.Status == domain.SessionCompleted:
		res := domain.Resolution{State: domain.SessionCompleted}
		if session.GameID != nil {
			res.GameID = *session.GameID
		}
		return res
	case session.Expired(s.now()):
		return domain.Resolution{State: domain.SessionUnknown}
	default:
		return domain.Resolution{State: domain.SessionPending}
	}
}

// MarkCompleted records the session's resulting game. Idempotent: repeated
// completion of the same session is a no-op. A TTL-expired session is
// terminal unknown and stays that way; a match finishing past the deadline
// gets ErrSessionExpired, never a completed session.
func (s *SessionService) MarkCompleted(ctx context.Context, id, gameID string) error {
	session, ok := s.store.Get(id)
	if !ok {
		persisted, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSessionNotFound
			}
			return err
		}
		session = persisted
	}
	if session.Status == domain.SessionCompleted {
		return nil
	}
	if session.Expired(s.now()) {
		return domain.ErrSessionExpired
	}

	session.Status = domain.SessionCompleted
	session.GameID = &gameID
	s.store.Set(session)

	// Write-through; losing this write only costs durable resolution
	// across a restart.
	if err := s.repo.Update(ctx, session); err != nil {
		log.Printf("ERROR [service.SessionService] failed to persist completion of session %s: %v", id, err)
	}
	return nil
}

// SweepExpired drops TTL-expired pending sessions. Resolve already treats
// them as unknown; sweeping just reclaims memory and rows.
func (s *SessionService) SweepExpired(ctx context.Context) {
	now := s.now()
	removed := s.store.Sweep(func(session *domain.LiveSession) bool {
		return session.Expired(now)
	})
	if removed > 0 {
		log.Printf("[service.SessionService] swept %d expired pending sessions", removed)
	}
	if _, err := s.repo.DeletePendingBefore(ctx, now); err != nil {
		log.Printf("ERROR [service.SessionService] pending sweep: %v", err)
	}
}

// PurgeCompleted removes completed sessions past the retention window.
func (s *SessionService) PurgeCompleted(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)
	s.store.Sweep(func(session *domain.LiveSession) bool {
		return session.Status == domain.SessionCompleted && session.CreatedAt.Before(cutoff)
	})
	removed, err := s.repo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("ERROR [service.SessionService] retention purge: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[service.SessionService] purged %d completed sessions older than %s", removed, s.retention)
	}
}

// StartJanitor schedules the TTL sweep and the retention purge.
func (s *SessionService) StartJanitor(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() { s.SweepExpired(ctx) }),
	); err != nil {
		return err
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() { s.PurgeCompleted(ctx) }),
	); err != nil {
		return err
	}

	sched.Start()
	s.sched = sched
	return nil
}

func (s *SessionService) StopJanitor() {
	if s.sched != nil {
		if err := s.sched.Shutdown(); err != nil {
			log.Printf("ERROR [service.SessionService] scheduler shutdown: %v", err)
		}
	}
}
