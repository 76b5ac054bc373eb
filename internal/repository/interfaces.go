package repository

import (
	"context"
	"time"

	"github.com/dom/snake-arena/internal/domain"
	"github.com/google/uuid"
)

type GameRepository interface {
	Create(ctx context.Context, game *domain.Game) error
	GetByID(ctx context.Context, id string) (*domain.Game, error)
	Update(ctx context.Context, game *domain.Game) error
	List(ctx context.Context, limit, offset int) ([]*domain.Game, error)
}

type GameParticipantRepository interface {
	GetByGameID(ctx context.Context, gameID string) ([]*domain.GameParticipant, error)
	GetPairCounts(ctx context.Context) ([]*domain.PairCount, error)
}

type ModelRepository interface {
	Create(ctx context.Context, model *domain.Model) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Model, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Model, error)
	Update(ctx context.Context, model *domain.Model) error
	GetLeaderboard(ctx context.Context, minGames int) ([]*domain.Model, error)
	GetAll(ctx context.Context) ([]*domain.Model, error)
}

type LiveSessionRepository interface {
	Create(ctx context.Context, session *domain.LiveSession) error
	GetByID(ctx context.Context, id string) (*domain.LiveSession, error)
	Update(ctx context.Context, session *domain.LiveSession) error
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Repositories struct {
	Game        GameRepository
	Participant GameParticipantRepository
	Model       ModelRepository
	LiveSession LiveSessionRepository
}
