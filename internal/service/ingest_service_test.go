package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dom/snake-arena/internal/domain"
	"github.com/dom/snake-arena/internal/service"
	"github.com/dom/snake-arena/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newIngestFixture(t *testing.T) (*gorm.DB, *service.IngestService) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	tdb := testutil.NewTestDB(t)
	rating := service.NewRatingService(tdb.DB)
	return tdb.DB, service.NewIngestService(tdb.DB, rating)
}

func mustGetModel(t *testing.T, db *gorm.DB, slug string) *domain.Model {
	t.Helper()
	var model domain.Model
	require.NoError(t, db.First(&model, "model_slug = ?", slug).Error)
	return &model
}

func TestIngestFileCreatesEverything(t *testing.T) {
	db, svc := newIngestFixture(t)
	ctx := context.Background()

	path := testutil.NewReplayBuilder("game-1").
		WithPlayers("openai/gpt-5", "anthropic/claude-4").
		WriteFile(t)
	require.NoError(t, svc.IngestFile(ctx, path, service.IngestOptions{}))

	var game domain.Game
	require.NoError(t, db.First(&game, "id = ?", "game-1").Error)
	assert.Equal(t, domain.GameStatusCompleted, game.Status)
	assert.Equal(t, 10, game.TotalScore)
	assert.Equal(t, path, game.ReplayPath)
	assert.Equal(t, "snake", game.GameType)

	var participants []domain.GameParticipant
	require.NoError(t, db.Where("game_id = ?", "game-1").Order("player_slot").Find(&participants).Error)
	require.Len(t, participants, 2)
	assert.Equal(t, domain.ResultWon, participants[0].Result)
	assert.Equal(t, domain.ResultLost, participants[1].Result)
	require.NotNil(t, participants[1].DeathReason)
	assert.Equal(t, "wall_collision", *participants[1].DeathReason)

	winner := mustGetModel(t, db, "openai-gpt-5")
	loser := mustGetModel(t, db, "anthropic-claude-4")
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 1, winner.GamesPlayed)
	assert.Equal(t, 7, winner.TotalScore)
	assert.Equal(t, 1, loser.Losses)
	assert.Greater(t, winner.TrueskillMu, domain.DefaultMu)
	assert.Less(t, loser.TrueskillMu, domain.DefaultMu)
}

func TestIngestTwiceIsIdempotent(t *testing.T) {
	db, svc := newIngestFixture(t)
	ctx := context.Background()

	path := testutil.NewReplayBuilder("game-1").WriteFile(t)
	require.NoError(t, svc.IngestFile(ctx, path, service.IngestOptions{}))

	winnerAfterFirst := mustGetModel(t, db, "openai-gpt-test-a")

	require.NoError(t, svc.IngestFile(ctx, path, service.IngestOptions{}))

	winnerAfterSecond := mustGetModel(t, db, "openai-gpt-test-a")
	assert.Equal(t, winnerAfterFirst.GamesPlayed, winnerAfterSecond.GamesPlayed)
	assert.Equal(t, winnerAfterFirst.Wins, winnerAfterSecond.Wins)
	assert.InDelta(t, winnerAfterFirst.TrueskillMu, winnerAfterSecond.TrueskillMu, 1e-9)
	assert.InDelta(t, winnerAfterFirst.EloRating, winnerAfterSecond.EloRating, 1e-9)

	var participantCount int64
	require.NoError(t, db.Model(&domain.GameParticipant{}).Where("game_id = ?", "game-1").Count(&participantCount).Error)
	assert.EqualValues(t, 2, participantCount)

	var gameCount int64
	require.NoError(t, db.Model(&domain.Game{}).Count(&gameCount).Error)
	assert.EqualValues(t, 1, gameCount)
}

func TestIngestFinalizesPendingGame(t *testing.T) {
	db, svc := newIngestFixture(t)
	ctx := context.Background()

	// Match start writes a pending row before the replay is ingested.
	require.NoError(t, db.Create(&domain.Game{
		ID:       "game-1",
		Status:   domain.GameStatusPending,
		GameType: "snake",
	}).Error)

	path := testutil.NewReplayBuilder("game-1").WriteFile(t)
	require.NoError(t, svc.IngestFile(ctx, path, service.IngestOptions{}))

	var game domain.Game
	require.NoError(t, db.First(&game, "id = ?", "game-1").Error)
	assert.Equal(t, domain.GameStatusCompleted, game.Status)

	winner := mustGetModel(t, db, "openai-gpt-test-a")
	assert.Equal(t, 1, winner.Wins, "completing a pending game applies ratings")

	// A second ingestion of the now-completed game does not.
	require.NoError(t, svc.IngestFile(ctx, path, service.IngestOptions{}))
	winner = mustGetModel(t, db, "openai-gpt-test-a")
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 1, winner.GamesPlayed)
}

func TestIngestMarkFailedThenRecover(t *testing.T) {
	db, svc := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&domain.Game{
		ID:       "game-1",
		Status:   domain.GameStatusPending,
		GameType: "snake",
	}).Error)

	require.NoError(t, svc.MarkFailed(ctx, "game-1"))

	var game domain.Game
	require.NoError(t, db.First(&game, "id = ?", "game-1").Error)
	assert.Equal(t, domain.GameStatusFailed, game.Status)

	// Re-running ingestion from the stored replay recovers the game and
	// applies ratings exactly once.
	path := testutil.NewReplayBuilder("game-1").WriteFile(t)
	require.NoError(t, svc.IngestFile(ctx, path, service.IngestOptions{}))

	require.NoError(t, db.First(&game, "id = ?", "game-1").Error)
	assert.Equal(t, domain.GameStatusCompleted, game.Status)
	winner := mustGetModel(t, db, "openai-gpt-test-a")
	assert.Equal(t, 1, winner.Wins)

	// Completed games are immune to a late failure mark.
	require.NoError(t, svc.MarkFailed(ctx, "game-1"))
	require.NoError(t, db.First(&game, "id = ?", "game-1").Error)
	assert.Equal(t, domain.GameStatusCompleted, game.Status)
}

func TestIngestForceRecompute(t *testing.T) {
	db, svc := newIngestFixture(t)
	ctx := context.Background()

	path := testutil.NewReplayBuilder("game-1").WriteFile(t)
	require.NoError(t, svc.IngestFile(ctx, path, service.IngestOptions{}))

	afterFirst := mustGetModel(t, db, "openai-gpt-test-a")

	require.NoError(t, svc.IngestFile(ctx, path, service.IngestOptions{ForceRecompute: true}))

	afterForce := mustGetModel(t, db, "openai-gpt-test-a")
	assert.Equal(t, afterFirst.GamesPlayed+1, afterForce.GamesPlayed, "forced recompute re-applies aggregates")
	assert.Greater(t, afterForce.TrueskillMu, afterFirst.TrueskillMu)
}

func TestIngestCanonicalizesModelIdentifiers(t *testing.T) {
	db, svc := newIngestFixture(t)
	ctx := context.Background()

	first := testutil.NewReplayBuilder("game-1").
		WithPlayers("OpenAI/GPT-5", "anthropic/claude-4").
		WriteFile(t)
	second := testutil.NewReplayBuilder("game-2").
		WithPlayers("  openai gpt-5 ", "anthropic/claude-4").
		WriteFile(t)

	require.NoError(t, svc.IngestFile(ctx, first, service.IngestOptions{}))
	require.NoError(t, svc.IngestFile(ctx, second, service.IngestOptions{}))

	var count int64
	require.NoError(t, db.Model(&domain.Model{}).Where("model_slug = ?", "openai-gpt-5").Count(&count).Error)
	assert.EqualValues(t, 1, count, "slug-equal identifiers must share one row")

	model := mustGetModel(t, db, "openai-gpt-5")
	assert.Equal(t, 2, model.GamesPlayed)
	assert.Equal(t, "OpenAI/GPT-5", model.Name, "first-seen raw form kept for display")
}

func TestIngestTiedGame(t *testing.T) {
	db, svc := newIngestFixture(t)
	ctx := context.Background()

	path := testutil.NewReplayBuilder("game-1").
		WithOutcome("tied", "tied").
		WithScores(4, 4).
		WriteFile(t)
	require.NoError(t, svc.IngestFile(ctx, path, service.IngestOptions{}))

	a := mustGetModel(t, db, "openai-gpt-test-a")
	b := mustGetModel(t, db, "anthropic-test-b")
	assert.Equal(t, 1, a.Ties)
	assert.Equal(t, 1, b.Ties)
	assert.InDelta(t, a.TrueskillMu, b.TrueskillMu, 1e-9)
	assert.InDelta(t, domain.DefaultElo, a.EloRating, 1e-9)
}

func TestIngestFileMissing(t *testing.T) {
	_, svc := newIngestFixture(t)
	err := svc.IngestFile(context.Background(), "/nonexistent/replay.json", service.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrReplayNotFound)
}

func TestIngestRejectsMalformedReplays(t *testing.T) {
	_, svc := newIngestFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*domain.Replay)
	}{
		{"missing game id", func(r *domain.Replay) { r.Game.ID = "" }},
		{"one player", func(r *domain.Replay) { delete(r.Players, "2") }},
		{"non-numeric slot", func(r *domain.Replay) {
			r.Players["left"] = r.Players["1"]
			delete(r.Players, "1")
		}},
		{"unnamed player", func(r *domain.Replay) {
			p := r.Players["1"]
			p.Name = ""
			r.Players["1"] = p
		}},
		{"bad result", func(r *domain.Replay) {
			p := r.Players["1"]
			p.Result = "forfeited"
			r.Players["1"] = p
		}},
		{"both slots one model", func(r *domain.Replay) {
			// Distinct raw identifiers that canonicalize to the same
			// model would double-write one row's aggregates.
			p := r.Players["2"]
			p.Name = "OpenAI/GPT Test A"
			r.Players["2"] = p
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replay := testutil.NewReplayBuilder("game-bad").Replay()
			tt.mutate(replay)
			err := svc.Ingest(ctx, replay, "replays/game-bad.json", service.IngestOptions{})
			assert.ErrorIs(t, err, domain.ErrReplayParse)
		})
	}
}

func TestIngestConcurrentGamesThroughQueue(t *testing.T) {
	db, svc := newIngestFixture(t)

	// Every game features the same two models, the worst case for rating
	// read-modify-write races. The queue serializes them.
	const games = 5
	q := service.NewIngestQueue(svc, games)
	q.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < games; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			path := testutil.NewReplayBuilder(gameID(n)).
				WithPlayers("shared/model-a", "shared/model-b").
				WriteFile(t)
			assert.NoError(t, q.Enqueue(service.IngestJob{GameID: gameID(n), ReplayPath: path}))
		}(i)
	}
	wg.Wait()
	q.Stop()

	a := mustGetModel(t, db, "shared-model-a")
	b := mustGetModel(t, db, "shared-model-b")
	assert.Equal(t, games, a.GamesPlayed)
	assert.Equal(t, games, a.Wins)
	assert.Equal(t, games, b.GamesPlayed)
	assert.Equal(t, games, b.Losses)

	var gameCount int64
	require.NoError(t, db.Model(&domain.Game{}).Count(&gameCount).Error)
	assert.EqualValues(t, games, gameCount)
}

func gameID(n int) string {
	return "game-" + string(rune('a'+n))
}

func TestIngestConcurrentDisjointPairs(t *testing.T) {
	db, svc := newIngestFixture(t)

	const games = 4
	q := service.NewIngestQueue(svc, games)
	q.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < games; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := gameID(n)
			path := testutil.NewReplayBuilder(id).
				WithPlayers("winner-"+id, "loser-"+id).
				WriteFile(t)
			assert.NoError(t, q.Enqueue(service.IngestJob{GameID: id, ReplayPath: path}))
		}(i)
	}
	wg.Wait()
	q.Stop()

	for i := 0; i < games; i++ {
		id := gameID(i)
		winner := mustGetModel(t, db, "winner-"+id)
		loser := mustGetModel(t, db, "loser-"+id)
		assert.Equal(t, 1, winner.GamesPlayed)
		assert.Equal(t, 1, winner.Wins)
		assert.Equal(t, 1, loser.GamesPlayed)
		assert.Equal(t, 1, loser.Losses)
	}
}
