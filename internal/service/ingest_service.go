package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"

	"github.com/dom/snake-arena/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngestOptions control a single ingestion run.
type IngestOptions struct {
	// ForceRecompute re-applies the rating update even when the game was
	// already completed. Without it, re-ingesting an unchanged replay never
	// double-applies rating deltas.
	ForceRecompute bool
}

// IngestService normalizes a completed match's replay artifact into game,
// participant, and model rows. Upserts are keyed by game id and
// (game_id, player_slot), so re-ingesting an unchanged replay is a no-op on
// final state.
type IngestService struct {
	db     *gorm.DB
	rating *RatingService
}

func NewIngestService(db *gorm.DB, rating *RatingService) *IngestService {
	return &IngestService{db: db, rating: rating}
}

// IngestFile reads, parses, and ingests the replay artifact at path.
func (s *IngestService) IngestFile(ctx context.Context, path string, opts IngestOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrReplayNotFound, path)
	}

	var replay domain.Replay
	if err := json.Unmarshal(data, &replay); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrReplayParse, err)
	}
	return s.Ingest(ctx, &replay, path, opts)
}

// Ingest upserts one replay inside a single transaction, guarded by the
// per-game advisory lock so a forced recompute and a fresh ingestion of the
// same game id serialize instead of interleaving.
func (s *IngestService) Ingest(ctx context.Context, replay *domain.Replay, replayPath string, opts IngestOptions) error {
	if err := validateReplay(replay); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGame(tx, replay.Game.ID); err != nil {
			return err
		}

		firstCompletion, err := upsertGame(tx, replay, replayPath)
		if err != nil {
			return err
		}

		participants, err := s.upsertParticipants(tx, replay)
		if err != nil {
			return err
		}

		if firstCompletion || opts.ForceRecompute {
			// A rating failure here is fatal for the job: partial state
			// (game without rating applied) must not be committed.
			if err := s.rating.applyOutcomeTx(tx, participants); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkFailed flips a game that never finished ingesting to failed. The
// pending row written at match start is the usual target; a game that
// already completed is left alone, and re-running ingestion from the stored
// replay still recovers a failed game to completed.
func (s *IngestService) MarkFailed(ctx context.Context, gameID string) error {
	return s.db.WithContext(ctx).
		Model(&domain.Game{}).
		Where("id = ? AND status <> ?", gameID, domain.GameStatusCompleted).
		Update("status", domain.GameStatusFailed).Error
}

func validateReplay(replay *domain.Replay) error {
	if replay.Game.ID == "" {
		return fmt.Errorf("%w: missing game id", domain.ErrReplayParse)
	}
	if len(replay.Players) != 2 {
		return fmt.Errorf("%w: expected 2 players, got %d", domain.ErrReplayParse, len(replay.Players))
	}
	slugs := make(map[string]struct{}, len(replay.Players))
	for slot, player := range replay.Players {
		if _, err := strconv.Atoi(slot); err != nil {
			return fmt.Errorf("%w: bad player slot %q", domain.ErrReplayParse, slot)
		}
		if player.Name == "" {
			return fmt.Errorf("%w: player slot %s has no name", domain.ErrReplayParse, slot)
		}
		switch domain.ParticipantResult(player.Result) {
		case domain.ResultWon, domain.ResultLost, domain.ResultTied:
		default:
			return fmt.Errorf("%w: bad result %q for slot %s", domain.ErrReplayParse, player.Result, slot)
		}
		slugs[domain.CanonicalSlug(player.Name)] = struct{}{}
	}
	// A model cannot play itself: both slots resolving to one models row
	// would double-write its aggregates.
	if len(slugs) < len(replay.Players) {
		return fmt.Errorf("%w: both players resolve to the same model", domain.ErrReplayParse)
	}
	return nil
}

// upsertGame writes the game row and reports whether this ingestion completed
// the game for the first time. A pending row created at match start still
// counts: the rating update keys off the completion transition, not row
// existence.
func upsertGame(tx *gorm.DB, replay *domain.Replay, replayPath string) (bool, error) {
	totalScore := 0
	for _, player := range replay.Players {
		totalScore += player.Score
	}

	gameType := replay.Game.GameType
	if gameType == "" {
		gameType = "snake"
	}

	game := domain.Game{
		ID:          replay.Game.ID,
		Status:      domain.GameStatusCompleted,
		StartTime:   replay.Game.StartTime,
		EndTime:     replay.Game.EndTime,
		Rounds:      replay.Game.Rounds,
		BoardWidth:  replay.Game.Width,
		BoardHeight: replay.Game.Height,
		NumApples:   replay.Game.NumApples,
		TotalScore:  totalScore,
		TotalCost:   replay.Totals.Cost,
		ReplayPath:  replayPath,
		GameType:    gameType,
	}

	var existing domain.Game
	err := tx.First(&existing, "id = ?", game.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, tx.Create(&game).Error
	}
	if err != nil {
		return false, err
	}

	game.CreatedAt = existing.CreatedAt
	game.Summary = existing.Summary
	firstCompletion := existing.Status != domain.GameStatusCompleted
	return firstCompletion, tx.Save(&game).Error
}

func (s *IngestService) upsertParticipants(tx *gorm.DB, replay *domain.Replay) ([]*domain.GameParticipant, error) {
	slots := make([]string, 0, len(replay.Players))
	for slot := range replay.Players {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	participants := make([]*domain.GameParticipant, 0, len(slots))
	for _, slot := range slots {
		player := replay.Players[slot]
		slotNum, _ := strconv.Atoi(slot)

		model, err := upsertModel(tx, player.Name)
		if err != nil {
			return nil, err
		}

		participant := &domain.GameParticipant{
			GameID:      replay.Game.ID,
			ModelID:     model.ID,
			PlayerSlot:  slotNum,
			Score:       player.Score,
			Result:      domain.ParticipantResult(player.Result),
			DeathRound:  player.DeathRound,
			DeathReason: player.DeathReason,
			Cost:        player.Cost,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game_id"}, {Name: "player_slot"}},
			DoUpdates: clause.AssignmentColumns([]string{"model_id", "score", "result", "death_round", "death_reason", "cost"}),
		}).Create(participant).Error
		if err != nil {
			return nil, err
		}
		participants = append(participants, participant)
	}
	return participants, nil
}

// upsertModel resolves a raw competitor identifier to its single models row,
// creating it at the default prior on first sight. Canonicalization happens
// before lookup, so identifiers that slug equal can never split into two
// rows.
func upsertModel(tx *gorm.DB, rawID string) (*domain.Model, error) {
	canonical := domain.CanonicalSlug(rawID)

	var model domain.Model
	err := tx.First(&model, "model_slug = ?", canonical).Error
	if err == nil {
		return &model, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := domain.NewModel(rawID)
	// DoNothing tolerates a concurrent creator; re-read settles the winner.
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "model_slug"}},
		DoNothing: true,
	}).Create(fresh).Error
	if err != nil {
		return nil, err
	}
	if err := tx.First(&model, "model_slug = ?", canonical).Error; err != nil {
		return nil, err
	}
	log.Printf("[service.IngestService] registered new model %s (%s)", model.ModelSlug, model.Name)
	return &model, nil
}
