package postgres

import (
	"context"
	"time"

	"github.com/dom/snake-arena/internal/domain"
	"gorm.io/gorm"
)

type liveSessionRepository struct {
	db *gorm.DB
}

func NewLiveSessionRepository(db *gorm.DB) *liveSessionRepository {
	return &liveSessionRepository{db: db}
}

func (r *liveSessionRepository) Create(ctx context.Context, session *domain.LiveSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *liveSessionRepository) GetByID(ctx context.Context, id string) (*domain.LiveSession, error) {
	var session domain.LiveSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *liveSessionRepository) Update(ctx context.Context, session *domain.LiveSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *liveSessionRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.SessionCompleted, cutoff).
		Delete(&domain.LiveSession{})
	return res.RowsAffected, res.Error
}

func (r *liveSessionRepository) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", domain.SessionPending, cutoff).
		Delete(&domain.LiveSession{})
	return res.RowsAffected, res.Error
}
