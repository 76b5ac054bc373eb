package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/dom/snake-arena/internal/domain"
	trueskill "github.com/mafredri/go-trueskill"
	"gorm.io/gorm"
)

const (
	// Chance of a tied snake game, in percent. Feeds the TrueSkill factor
	// graph's draw margin.
	drawProbabilityPct = 10.0

	eloKFactor = 32.0
)

var ErrNotTwoPlayer = errors.New("rating update requires exactly two participants")

// Rating is a competitor's current skill state. Exposed is the conservative
// display value mu - 3*sigma.
type Rating struct {
	Mu      float64 `json:"mu"`
	Sigma   float64 `json:"sigma"`
	Exposed float64 `json:"exposed"`
}

// RatingService maintains per-model TrueSkill state, updated once per
// ingested game. Elo is kept alongside as the fallback path: if the primary
// update fails the match still counts, just with a cruder rating move.
type RatingService struct {
	db *gorm.DB
	ts trueskill.Config
}

func NewRatingService(db *gorm.DB) *RatingService {
	drawOpt, err := trueskill.DrawProbability(drawProbabilityPct)
	if err != nil {
		log.Printf("ERROR [service.RatingService] invalid draw probability, using zero: %v", err)
		drawOpt = trueskill.DrawProbabilityZero()
	}
	ts := trueskill.New(
		trueskill.Mu(domain.DefaultMu),
		trueskill.Sigma(domain.DefaultSigma),
		drawOpt,
	)
	return &RatingService{db: db, ts: ts}
}

func (s *RatingService) GetRating(ctx context.Context, rawID string) (*Rating, error) {
	var model domain.Model
	err := s.db.WithContext(ctx).First(&model, "model_slug = ?", domain.CanonicalSlug(rawID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrModelNotFound
		}
		return nil, err
	}
	return &Rating{Mu: model.TrueskillMu, Sigma: model.TrueskillSigma, Exposed: model.TrueskillExposed}, nil
}

// ApplyMatchOutcome recomputes ratings for an already-ingested game in its
// own transaction, serialized against ingestion of the same game by the
// per-game advisory lock.
func (s *RatingService) ApplyMatchOutcome(ctx context.Context, gameID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGame(tx, gameID); err != nil {
			return err
		}

		var game domain.Game
		if err := tx.First(&game, "id = ?", gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrGameNotFound
			}
			return err
		}
		var participants []*domain.GameParticipant
		if err := tx.Where("game_id = ?", gameID).Order("player_slot ASC").Find(&participants).Error; err != nil {
			return err
		}
		return s.applyOutcomeTx(tx, participants)
	})
}

// applyOutcomeTx applies one game's rating delta and aggregate counters
// inside the caller's transaction, so counters and ratings cannot diverge.
func (s *RatingService) applyOutcomeTx(tx *gorm.DB, participants []*domain.GameParticipant) error {
	if len(participants) != 2 {
		return ErrNotTwoPlayer
	}

	a, b := participants[0], participants[1]
	var modelA, modelB domain.Model
	if err := tx.First(&modelA, "id = ?", a.ModelID).Error; err != nil {
		return err
	}
	if err := tx.First(&modelB, "id = ?", b.ModelID).Error; err != nil {
		return err
	}

	if err := s.updateTrueSkill(&modelA, &modelB, a.Result); err != nil {
		log.Printf("ERROR [service.RatingService] primary rating update failed for %s vs %s, falling back to Elo: %v",
			modelA.ModelSlug, modelB.ModelSlug, err)
		if err := updateElo(&modelA, &modelB, a.Result); err != nil {
			return fmt.Errorf("rating fallback failed: %w", err)
		}
	}

	applyAggregates(&modelA, a)
	applyAggregates(&modelB, b)

	if err := tx.Save(&modelA).Error; err != nil {
		return err
	}
	return tx.Save(&modelB).Error
}

// updateTrueSkill runs the two-player factor-graph update. The library is
// panic-happy on degenerate inputs, so the call is fenced and any NaN output
// is treated as a failure for the Elo fallback to absorb.
func (s *RatingService) updateTrueSkill(modelA, modelB *domain.Model, resultA domain.ParticipantResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("trueskill update panicked: %v", r)
		}
	}()

	// Winner first; ties are rank-equal.
	first, second := modelA, modelB
	if resultA == domain.ResultLost {
		first, second = modelB, modelA
	}
	draw := resultA == domain.ResultTied

	players := []trueskill.Player{
		trueskill.NewPlayer(first.TrueskillMu, first.TrueskillSigma),
		trueskill.NewPlayer(second.TrueskillMu, second.TrueskillSigma),
	}
	adjusted, _ := s.ts.AdjustSkills(players, draw)

	for i, m := range []*domain.Model{first, second} {
		mu, sigma := adjusted[i].Mu(), adjusted[i].Sigma()
		if math.IsNaN(mu) || math.IsNaN(sigma) || sigma <= 0 {
			return fmt.Errorf("trueskill produced degenerate skill for %s: mu=%v sigma=%v", m.ModelSlug, mu, sigma)
		}
		m.TrueskillMu = mu
		m.TrueskillSigma = sigma
		m.TrueskillExposed = mu - 3*sigma
	}
	return nil
}

// updateElo is the fixed-K pairwise fallback.
func updateElo(modelA, modelB *domain.Model, resultA domain.ParticipantResult) error {
	expectA := 1.0 / (1.0 + math.Pow(10, (modelB.EloRating-modelA.EloRating)/400.0))

	var scoreA float64
	switch resultA {
	case domain.ResultWon:
		scoreA = 1.0
	case domain.ResultLost:
		scoreA = 0.0
	case domain.ResultTied:
		scoreA = 0.5
	default:
		return fmt.Errorf("unknown participant result %q", resultA)
	}

	delta := eloKFactor * (scoreA - expectA)
	modelA.EloRating += delta
	modelB.EloRating -= delta
	return nil
}

func applyAggregates(model *domain.Model, participant *domain.GameParticipant) {
	switch participant.Result {
	case domain.ResultWon:
		model.Wins++
	case domain.ResultLost:
		model.Losses++
	case domain.ResultTied:
		model.Ties++
	}
	model.GamesPlayed++
	model.TotalScore += participant.Score
}

// ResetAll restores every model to the default prior and zeroes aggregates.
// Used when re-baselining the ladder after a rating-algorithm change.
func (s *RatingService) ResetAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Model(&domain.Model{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"wins":              0,
			"losses":            0,
			"ties":              0,
			"games_played":      0,
			"total_score":       0,
			"trueskill_mu":      domain.DefaultMu,
			"trueskill_sigma":   domain.DefaultSigma,
			"trueskill_exposed": domain.DefaultMu - 3*domain.DefaultSigma,
			"elo_rating":        domain.DefaultElo,
		}).Error
}

// lockGame takes the per-game advisory transaction lock. Ingestion and
// forced recomputes of the same game id serialize on it.
func lockGame(tx *gorm.DB, gameID string) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", gameID).Error
}
