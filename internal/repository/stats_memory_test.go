package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

func TestMemoryStatsRepository_Increments(t *testing.T) {
	ctx := context.Background()
	statsRepo := NewMemoryStatsRepository()

	require.NoError(t, statsRepo.IncrementFlips(ctx, "alice"))
	require.NoError(t, statsRepo.IncrementFlips(ctx, "alice"))
	require.NoError(t, statsRepo.IncrementMatches(ctx, "alice"))
	require.NoError(t, statsRepo.IncrementErrors(ctx, "bob"))

	stats, err := statsRepo.GetByPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Flips)
	assert.Equal(t, int64(1), stats.Matches)
	assert.Equal(t, int64(0), stats.Errors)

	_, err = statsRepo.GetByPlayer(ctx, "nobody")
	require.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestMemoryStatsRepository_Top(t *testing.T) {
	ctx := context.Background()
	statsRepo := NewMemoryStatsRepository()

	for player, matches := range map[string]int{"alice": 1, "bob": 3, "carol": 2} {
		for i := 0; i < matches; i++ {
			require.NoError(t, statsRepo.IncrementMatches(ctx, player))
		}
	}

	scores, err := statsRepo.Top(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, []entity.PlayerScore{
		{Player: "bob", Matches: 3},
		{Player: "carol", Matches: 2},
	}, scores)
}

func TestMemoryStatsRepository_GetByPlayerReturnsCopy(t *testing.T) {
	ctx := context.Background()
	statsRepo := NewMemoryStatsRepository()

	require.NoError(t, statsRepo.IncrementFlips(ctx, "alice"))

	stats, err := statsRepo.GetByPlayer(ctx, "alice")
	require.NoError(t, err)

	// When: the caller scribbles on the returned struct
	stats.Flips = 99

	// Then: the stored counters are untouched
	fresh, err := statsRepo.GetByPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.Flips)
}

func TestMemoryStatsRepository_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	statsRepo := NewMemoryStatsRepository()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = statsRepo.IncrementFlips(ctx, "alice")
			}
		}()
	}
	wg.Wait()

	stats, err := statsRepo.GetByPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(400), stats.Flips)
}
