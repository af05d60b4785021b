package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/repository/storage/sqlite"
)

func newSQLiteRepo(t *testing.T) (context.Context, StatsRepository) {
	t.Helper()

	ctx := context.Background()

	st, err := sqlite.New(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	require.NoError(t, st.Init(ctx))

	return ctx, NewSQLiteStatsRepository(st.Connection)
}

func TestSQLiteStatsRepository_Increments(t *testing.T) {
	ctx, statsRepo := newSQLiteRepo(t)

	require.NoError(t, statsRepo.IncrementFlips(ctx, "alice"))
	require.NoError(t, statsRepo.IncrementFlips(ctx, "alice"))
	require.NoError(t, statsRepo.IncrementMatches(ctx, "alice"))
	require.NoError(t, statsRepo.IncrementErrors(ctx, "alice"))

	stats, err := statsRepo.GetByPlayer(ctx, "alice")

	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Flips)
	assert.Equal(t, int64(1), stats.Matches)
	assert.Equal(t, int64(1), stats.Errors)
}

func TestSQLiteStatsRepository_GetByPlayer_NotFound(t *testing.T) {
	ctx, statsRepo := newSQLiteRepo(t)

	_, err := statsRepo.GetByPlayer(ctx, "nobody")

	require.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestSQLiteStatsRepository_Top(t *testing.T) {
	ctx, statsRepo := newSQLiteRepo(t)

	for player, matches := range map[string]int{"alice": 2, "bob": 5, "carol": 4} {
		for i := 0; i < matches; i++ {
			require.NoError(t, statsRepo.IncrementMatches(ctx, player))
		}
	}

	scores, err := statsRepo.Top(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, []entity.PlayerScore{
		{Player: "bob", Matches: 5},
		{Player: "carol", Matches: 4},
	}, scores)
}
