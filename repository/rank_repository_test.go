package repository

import (
	"context"
	"testing"

	"progressbot/models"
	"progressbot/repository/testutil"
	"progressbot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankRepository_Upsert(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRankRepository(testDB.DB, 100)
	ctx := context.Background()

	t.Run("creates rank", func(t *testing.T) {
		rank := testutil.CreateTestRank(100, "apprentice", 1000)
		err := repo.Upsert(ctx, rank)
		require.NoError(t, err)

		stored, err := repo.Get(ctx, models.LabelRef("apprentice"))
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, int64(1000), stored.MinimumWordCount)
		assert.False(t, stored.CreatedAt.IsZero())
	})

	t.Run("replaces threshold for same identifier", func(t *testing.T) {
		rank := testutil.CreateTestRank(100, "apprentice", 2000)
		err := repo.Upsert(ctx, rank)
		require.NoError(t, err)

		stored, err := repo.Get(ctx, models.LabelRef("apprentice"))
		require.NoError(t, err)
		assert.Equal(t, int64(2000), stored.MinimumWordCount)

		ranks, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, ranks, 1)
	})

	t.Run("duplicate threshold rejected by constraint", func(t *testing.T) {
		rank := testutil.CreateTestRoleRank(100, 555, 2000)
		err := repo.Upsert(ctx, rank)
		assert.Error(t, err)
	})

	t.Run("role-backed rank round-trips", func(t *testing.T) {
		rank := testutil.CreateTestRoleRank(100, 555, 5000)
		err := repo.Upsert(ctx, rank)
		require.NoError(t, err)

		stored, err := repo.Get(ctx, models.RoleRef(555))
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, models.RoleRef(555), stored.Ref)
		assert.Equal(t, int64(5000), stored.MinimumWordCount)
	})
}

func TestRankRepository_Get(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRankRepository(testDB.DB, 100)
	ctx := context.Background()

	t.Run("missing rank", func(t *testing.T) {
		rank, err := repo.Get(ctx, models.LabelRef("veteran"))
		require.NoError(t, err)
		assert.Nil(t, rank)
	})

	t.Run("guild isolation", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestRank(100, "novice", 0)))

		otherRepo := NewRankRepository(testDB.DB, 200)
		rank, err := otherRepo.Get(ctx, models.LabelRef("novice"))
		require.NoError(t, err)
		assert.Nil(t, rank)
	})
}

func TestRankRepository_GetAll(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRankRepository(testDB.DB, 100)
	ctx := context.Background()

	t.Run("empty table", func(t *testing.T) {
		ranks, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, ranks)
	})

	t.Run("ascending by threshold", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestRank(100, "master", 5000)))
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestRank(100, "novice", 0)))
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestRank(100, "apprentice", 1000)))

		ranks, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, ranks, 3)
		assert.Equal(t, models.LabelRef("novice"), ranks[0].Ref)
		assert.Equal(t, models.LabelRef("apprentice"), ranks[1].Ref)
		assert.Equal(t, models.LabelRef("master"), ranks[2].Ref)
	})
}

func TestRankRepository_Delete(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRankRepository(testDB.DB, 100)
	ctx := context.Background()

	t.Run("missing rank", func(t *testing.T) {
		err := repo.Delete(ctx, models.LabelRef("veteran"))
		assert.ErrorIs(t, err, service.ErrRankNotFound)
	})

	t.Run("removes rank", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, testutil.CreateTestRank(100, "novice", 0)))

		err := repo.Delete(ctx, models.LabelRef("novice"))
		require.NoError(t, err)

		rank, err := repo.Get(ctx, models.LabelRef("novice"))
		require.NoError(t, err)
		assert.Nil(t, rank)
	})
}

func TestRankRepository_Clear(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRankRepository(testDB.DB, 100)
	otherRepo := NewRankRepository(testDB.DB, 200)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestRank(100, "novice", 0)))
	require.NoError(t, repo.Upsert(ctx, testutil.CreateTestRank(100, "master", 5000)))
	require.NoError(t, otherRepo.Upsert(ctx, testutil.CreateTestRank(200, "novice", 0)))

	require.NoError(t, repo.Clear(ctx))

	ranks, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, ranks)

	// Clearing one guild leaves the others alone.
	otherRanks, err := otherRepo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, otherRanks, 1)
}
