package postgres

import (
	"context"

	"github.com/dom/snake-arena/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type modelRepository struct {
	db *gorm.DB
}

func NewModelRepository(db *gorm.DB) *modelRepository {
	return &modelRepository{db: db}
}

func (r *modelRepository) Create(ctx context.Context, model *domain.Model) error {
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *modelRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Model, error) {
	var model domain.Model
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (r *modelRepository) GetBySlug(ctx context.Context, slug string) (*domain.Model, error) {
	var model domain.Model
	err := r.db.WithContext(ctx).First(&model, "model_slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (r *modelRepository) Update(ctx context.Context, model *domain.Model) error {
	return r.db.WithContext(ctx).Save(model).Error
}

func (r *modelRepository) GetLeaderboard(ctx context.Context, minGames int) ([]*domain.Model, error) {
	var models []*domain.Model
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND games_played >= ?", true, minGames).
		Order("trueskill_exposed DESC, model_slug ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return models, nil
}

func (r *modelRepository) GetAll(ctx context.Context) ([]*domain.Model, error) {
	var models []*domain.Model
	err := r.db.WithContext(ctx).Order("model_slug ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}
	return models, nil
}
