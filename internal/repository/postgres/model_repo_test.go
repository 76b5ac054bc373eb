package postgres_test

import (
	"context"
	"testing"

	"github.com/dom/snake-arena/internal/domain"
	"github.com/dom/snake-arena/internal/repository/postgres"
	"github.com/dom/snake-arena/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestModelRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewModelRepository(testDB.DB)
	ctx := context.Background()

	model := domain.NewModel("openai/gpt-5")
	require.NoError(t, repo.Create(ctx, model))

	got, err := repo.GetBySlug(ctx, "openai-gpt-5")
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-5", got.Name)
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, domain.DefaultMu, got.TrueskillMu)
	assert.Equal(t, domain.DefaultElo, got.EloRating)
	assert.True(t, got.IsActive)

	byID, err := repo.GetByID(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ModelSlug, byID.ModelSlug)

	_, err = repo.GetBySlug(ctx, "never-seen")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestModelRepository_SlugUnique(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewModelRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.NewModel("openai/gpt-5")))
	assert.Error(t, repo.Create(ctx, domain.NewModel("OpenAI/GPT-5")), "slug-equal identifiers must collide")
}

func TestModelRepository_GetLeaderboard(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewModelRepository(testDB.DB)
	ctx := context.Background()

	testutil.NewModelBuilder("mid").WithRating(30, 2).WithRecord(10, 5).Build(t, testDB.DB)
	testutil.NewModelBuilder("top").WithRating(40, 2).WithRecord(10, 9).Build(t, testDB.DB)
	testutil.NewModelBuilder("rookie").WithRating(50, 8).WithRecord(1, 1).Build(t, testDB.DB)

	retired := testutil.NewModelBuilder("retired").WithRating(45, 2).WithRecord(10, 8).Build(t, testDB.DB)
	retired.IsActive = false
	require.NoError(t, repo.Update(ctx, retired))

	board, err := repo.GetLeaderboard(ctx, 5)
	require.NoError(t, err)
	require.Len(t, board, 2, "rookie below min games and retired models are excluded")
	assert.Equal(t, "top", board[0].ModelSlug)
	assert.Equal(t, "mid", board[1].ModelSlug)

	all, err := repo.GetLeaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Exposed ratings: top 34, rookie 26, mid 24.
	assert.Equal(t, []string{"top", "rookie", "mid"}, []string{all[0].ModelSlug, all[1].ModelSlug, all[2].ModelSlug})
}
