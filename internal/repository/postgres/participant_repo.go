package postgres

import (
	"context"

	"github.com/dom/snake-arena/internal/domain"
	"gorm.io/gorm"
)

type gameParticipantRepository struct {
	db *gorm.DB
}

func NewGameParticipantRepository(db *gorm.DB) *gameParticipantRepository {
	return &gameParticipantRepository{db: db}
}

func (r *gameParticipantRepository) GetByGameID(ctx context.Context, gameID string) ([]*domain.GameParticipant, error) {
	var participants []*domain.GameParticipant
	err := r.db.WithContext(ctx).
		Preload("Model").
		Where("game_id = ?", gameID).
		Order("player_slot ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// GetPairCounts derives the pairing history from completed games: one row
// per unordered model pair that has met at least once.
func (r *gameParticipantRepository) GetPairCounts(ctx context.Context) ([]*domain.PairCount, error) {
	var counts []*domain.PairCount
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			LEAST(ma.model_slug, mb.model_slug)    AS slug_a,
			GREATEST(ma.model_slug, mb.model_slug) AS slug_b,
			COUNT(*)                               AS matches,
			MAX(g.start_time)                      AS last_played
		FROM game_participants pa
		JOIN game_participants pb
			ON pa.game_id = pb.game_id AND pa.player_slot < pb.player_slot
		JOIN games g ON g.id = pa.game_id
		JOIN models ma ON ma.id = pa.model_id
		JOIN models mb ON mb.id = pb.model_id
		GROUP BY LEAST(ma.model_slug, mb.model_slug), GREATEST(ma.model_slug, mb.model_slug)
	`).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
