package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dom/snake-arena/internal/domain"
	"gorm.io/gorm"
)

// ModelBuilder creates test models with a builder pattern
type ModelBuilder struct {
	rawID string
	mu    float64
	sigma float64
	games int
	wins  int
}

func NewModelBuilder(rawID string) *ModelBuilder {
	return &ModelBuilder{
		rawID: rawID,
		mu:    domain.DefaultMu,
		sigma: domain.DefaultSigma,
	}
}

func (b *ModelBuilder) WithRating(mu, sigma float64) *ModelBuilder {
	b.mu = mu
	b.sigma = sigma
	return b
}

func (b *ModelBuilder) WithRecord(games, wins int) *ModelBuilder {
	b.games = games
	b.wins = wins
	return b
}

func (b *ModelBuilder) Build(t *testing.T, db *gorm.DB) *domain.Model {
	t.Helper()

	model := domain.NewModel(b.rawID)
	model.TrueskillMu = b.mu
	model.TrueskillSigma = b.sigma
	model.TrueskillExposed = b.mu - 3*b.sigma
	model.GamesPlayed = b.games
	model.Wins = b.wins
	model.Losses = b.games - b.wins

	if err := db.Create(model).Error; err != nil {
		t.Fatalf("failed to create model: %v", err)
	}
	return model
}

// InMemoryModel builds the model without persisting it, for pure scoring
// tests.
func (b *ModelBuilder) InMemoryModel() *domain.Model {
	model := domain.NewModel(b.rawID)
	model.TrueskillMu = b.mu
	model.TrueskillSigma = b.sigma
	model.TrueskillExposed = b.mu - 3*b.sigma
	model.GamesPlayed = b.games
	model.Wins = b.wins
	return model
}

// ReplayBuilder assembles a replay artifact for ingestion tests.
type ReplayBuilder struct {
	gameID  string
	nameA   string
	nameB   string
	scoreA  int
	scoreB  int
	resultA string
	resultB string
	rounds  int
	cost    float64
}

func NewReplayBuilder(gameID string) *ReplayBuilder {
	return &ReplayBuilder{
		gameID:  gameID,
		nameA:   "openai/gpt-test-a",
		nameB:   "anthropic/test-b",
		scoreA:  7,
		scoreB:  3,
		resultA: "won",
		resultB: "lost",
		rounds:  42,
		cost:    0.25,
	}
}

func (b *ReplayBuilder) WithPlayers(nameA, nameB string) *ReplayBuilder {
	b.nameA = nameA
	b.nameB = nameB
	return b
}

func (b *ReplayBuilder) WithOutcome(resultA, resultB string) *ReplayBuilder {
	b.resultA = resultA
	b.resultB = resultB
	return b
}

func (b *ReplayBuilder) WithScores(scoreA, scoreB int) *ReplayBuilder {
	b.scoreA = scoreA
	b.scoreB = scoreB
	return b
}

func (b *ReplayBuilder) Replay() *domain.Replay {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)
	deathRound := b.rounds - 1
	deathReason := "wall_collision"

	return &domain.Replay{
		Game: domain.ReplayGame{
			ID:        b.gameID,
			StartTime: &start,
			EndTime:   &end,
			Rounds:    b.rounds,
			Width:     10,
			Height:    10,
			NumApples: 5,
		},
		Players: map[string]domain.ReplayPlayer{
			"1": {Name: b.nameA, Score: b.scoreA, Result: b.resultA, Cost: 0.15},
			"2": {Name: b.nameB, Score: b.scoreB, Result: b.resultB, Cost: 0.10, DeathRound: &deathRound, DeathReason: &deathReason},
		},
		Totals: domain.ReplayTotals{Cost: b.cost},
	}
}

// WriteFile writes the replay artifact to a temp file and returns its path.
func (b *ReplayBuilder) WriteFile(t *testing.T) string {
	t.Helper()

	data, err := json.Marshal(b.Replay())
	if err != nil {
		t.Fatalf("failed to marshal replay: %v", err)
	}

	path := filepath.Join(t.TempDir(), fmt.Sprintf("%s.json", b.gameID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write replay file: %v", err)
	}
	return path
}
