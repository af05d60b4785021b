package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

var ErrPlayerNotFound = errors.New("player not found")

const leaderboardKey = "leaderboard"

type StatsRepository interface {
	IncrementFlips(ctx context.Context, player string) error
	IncrementMatches(ctx context.Context, player string) error
	IncrementErrors(ctx context.Context, player string) error

	Top(ctx context.Context, limit int) ([]entity.PlayerScore, error)
	GetByPlayer(ctx context.Context, player string) (*entity.PlayerStats, error)
}

type dbStats struct {
	client *redis.Client
}

func NewStatsRepository(client *redis.Client) StatsRepository {
	return &dbStats{
		client: client,
	}
}

func (that *dbStats) IncrementFlips(ctx context.Context, player string) error {
	err := that.client.HIncrBy(ctx, statsKey(player), "flips", 1).Err()
	if err != nil {
		return fmt.Errorf("failed to increment flips: %w", err)
	}

	return nil
}

func (that *dbStats) IncrementMatches(ctx context.Context, player string) error {
	// The hash counter and the leaderboard score move together.
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, statsKey(player), "matches", 1)
		pipe.ZIncrBy(ctx, leaderboardKey, 1, player)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment matches: %w", err)
	}

	return nil
}

func (that *dbStats) IncrementErrors(ctx context.Context, player string) error {
	err := that.client.HIncrBy(ctx, statsKey(player), "errors", 1).Err()
	if err != nil {
		return fmt.Errorf("failed to increment errors: %w", err)
	}

	return nil
}

func (that *dbStats) Top(ctx context.Context, limit int) ([]entity.PlayerScore, error) {
	if limit <= 0 {
		return nil, nil
	}

	members, err := that.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	scores := make([]entity.PlayerScore, 0, len(members))
	for _, member := range members {
		player, ok := member.Member.(string)
		if !ok {
			continue
		}

		scores = append(scores, entity.PlayerScore{
			Player:  player,
			Matches: int64(member.Score),
		})
	}

	return scores, nil
}

func (that *dbStats) GetByPlayer(ctx context.Context, player string) (*entity.PlayerStats, error) {
	fields, err := that.client.HGetAll(ctx, statsKey(player)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats by player: %w", err)
	}

	if len(fields) == 0 {
		return nil, ErrPlayerNotFound
	}

	stats := &entity.PlayerStats{Player: player}
	stats.Flips = parseCounter(fields["flips"])
	stats.Matches = parseCounter(fields["matches"])
	stats.Errors = parseCounter(fields["errors"])

	return stats, nil
}

func statsKey(player string) string {
	return "stats:" + player
}

func parseCounter(raw string) int64 {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}

	return value
}
