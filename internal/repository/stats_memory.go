package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

// memoryStats keeps the counters in process memory. It is the default
// backend: a board without redis or sqlite configured still keeps score
// for as long as it runs.
type memoryStats struct {
	mu    sync.RWMutex
	stats map[string]*entity.PlayerStats
}

func NewMemoryStatsRepository() StatsRepository {
	return &memoryStats{
		stats: make(map[string]*entity.PlayerStats),
	}
}

func (that *memoryStats) IncrementFlips(_ context.Context, player string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.get(player).Flips++

	return nil
}

func (that *memoryStats) IncrementMatches(_ context.Context, player string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.get(player).Matches++

	return nil
}

func (that *memoryStats) IncrementErrors(_ context.Context, player string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.get(player).Errors++

	return nil
}

func (that *memoryStats) Top(_ context.Context, limit int) ([]entity.PlayerScore, error) {
	if limit <= 0 {
		return nil, nil
	}

	that.mu.RLock()
	scores := make([]entity.PlayerScore, 0, len(that.stats))
	for player, stats := range that.stats {
		scores = append(scores, entity.PlayerScore{Player: player, Matches: stats.Matches})
	}
	that.mu.RUnlock()

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Matches != scores[j].Matches {
			return scores[i].Matches > scores[j].Matches
		}

		return scores[i].Player < scores[j].Player
	})

	if len(scores) > limit {
		scores = scores[:limit]
	}

	return scores, nil
}

func (that *memoryStats) GetByPlayer(_ context.Context, player string) (*entity.PlayerStats, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	stats, ok := that.stats[player]
	if !ok {
		return nil, ErrPlayerNotFound
	}

	copied := *stats

	return &copied, nil
}

// get returns the live entry for a player, creating it on first use.
// Callers hold the write lock.
func (that *memoryStats) get(player string) *entity.PlayerStats {
	stats, ok := that.stats[player]
	if !ok {
		stats = &entity.PlayerStats{Player: player}
		that.stats[player] = stats
	}

	return stats
}
