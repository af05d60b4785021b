package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/apperror"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/scramble"
)

// statsRecorder is a StatsService stand-in that just counts calls.
type statsRecorder struct {
	mu      sync.Mutex
	flips   map[string]int
	matches map[string]int
	errs    map[string]int
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		flips:   make(map[string]int),
		matches: make(map[string]int),
		errs:    make(map[string]int),
	}
}

func (that *statsRecorder) RecordFlip(_ context.Context, player string) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.flips[player]++

	return nil
}

func (that *statsRecorder) RecordMatch(_ context.Context, player string) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.matches[player]++

	return nil
}

func (that *statsRecorder) RecordError(_ context.Context, player string) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.errs[player]++

	return nil
}

func (that *statsRecorder) Leaderboard(_ context.Context, _ int) ([]entity.PlayerScore, error) {
	return nil, nil
}

func (that *statsRecorder) PlayerStats(_ context.Context, _ string) (*entity.PlayerStats, error) {
	return &entity.PlayerStats{}, nil
}

func newGameplay(t *testing.T, labels ...string) (GameplayService, *statsRecorder) {
	t.Helper()

	grid, err := entity.NewGrid(1, len(labels), labels)
	require.NoError(t, err)

	recorder := newStatsRecorder()
	logger := slog.Default()

	return NewGameplayService(logger, scramble.New(grid), recorder), recorder
}

func TestGameplayService_Flip(t *testing.T) {
	ctx := context.Background()

	t.Run("CountsFlipsAndMatches", func(t *testing.T) {
		gameplay, recorder := newGameplay(t, "A", "A")

		// When: a pair is flipped
		view, err := gameplay.Flip(ctx, "p1", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, "1x2\nmy A\ndown\n", view)

		view, err = gameplay.Flip(ctx, "p1", 0, 1)
		require.NoError(t, err)
		assert.Equal(t, "1x2\nmy A\nmy A\n", view)

		// Then: both flips and the match are counted
		assert.Equal(t, 2, recorder.flips["p1"])
		assert.Equal(t, 1, recorder.matches["p1"])
		assert.Equal(t, 0, recorder.errs["p1"])
	})

	t.Run("CountsRuleViolations", func(t *testing.T) {
		gameplay, recorder := newGameplay(t, "A", "B")

		// When: the player flips outside the board
		_, err := gameplay.Flip(ctx, "p1", 4, 4)

		// Then: the error passes through and is counted
		require.ErrorIs(t, err, apperror.ErrOutOfBounds)
		assert.Equal(t, 1, recorder.errs["p1"])
		assert.Equal(t, 0, recorder.flips["p1"])
	})

	t.Run("IgnoresCancellations", func(t *testing.T) {
		gameplay, recorder := newGameplay(t, "A", "B")

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := gameplay.Flip(cancelled, "p1", 0, 0)

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, recorder.errs["p1"])
	})
}

func TestGameplayService_Look(t *testing.T) {
	ctx := context.Background()
	gameplay, _ := newGameplay(t, "A", "B")

	view, err := gameplay.Look(ctx, "p1")

	require.NoError(t, err)
	assert.Equal(t, "1x2\ndown\ndown\n", view)
}

func TestGameplayService_MapCards(t *testing.T) {
	ctx := context.Background()
	gameplay, _ := newGameplay(t, "A", "B")

	// When: only A is renamed by the table
	view, err := gameplay.MapCards(ctx, "p1", map[string]string{"A": "Z"})
	require.NoError(t, err)
	assert.Equal(t, "1x2\ndown\ndown\n", view)

	// Then: A became Z and B kept its label
	view, err = gameplay.Flip(ctx, "p1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "1x2\nmy Z\ndown\n", view)

	view, err = gameplay.Flip(ctx, "p1", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "1x2\nup Z\nup B\n", view)
}

func TestGameplayService_Watch(t *testing.T) {
	ctx := context.Background()
	gameplay, _ := newGameplay(t, "A", "B")

	viewCh := make(chan string, 1)
	go func() {
		view, err := gameplay.Watch(ctx, "obs")
		if err == nil {
			viewCh <- view
		}
	}()
	time.Sleep(50 * time.Millisecond)

	_, err := gameplay.Flip(ctx, "p1", 0, 0)
	require.NoError(t, err)

	select {
	case view := <-viewCh:
		assert.Equal(t, "1x2\nup A\ndown\n", view)
	case <-time.After(time.Second):
		t.Fatal("watch did not report the flip")
	}
}
