package service

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

type StatsService interface {
	RecordFlip(ctx context.Context, player string) error
	RecordMatch(ctx context.Context, player string) error
	RecordError(ctx context.Context, player string) error

	Leaderboard(ctx context.Context, limit int) ([]entity.PlayerScore, error)
	PlayerStats(ctx context.Context, player string) (*entity.PlayerStats, error)
}

type statsRepo interface {
	IncrementFlips(ctx context.Context, player string) error
	IncrementMatches(ctx context.Context, player string) error
	IncrementErrors(ctx context.Context, player string) error

	Top(ctx context.Context, limit int) ([]entity.PlayerScore, error)
	GetByPlayer(ctx context.Context, player string) (*entity.PlayerStats, error)
}

type statsService struct {
	statsRepo statsRepo
}

func NewStatsService(statsRepo statsRepo) StatsService {
	return &statsService{
		statsRepo: statsRepo,
	}
}

func (that *statsService) RecordFlip(ctx context.Context, player string) error {
	if err := that.statsRepo.IncrementFlips(ctx, player); err != nil {
		return fmt.Errorf("failed to record flip: %w", err)
	}

	return nil
}

func (that *statsService) RecordMatch(ctx context.Context, player string) error {
	if err := that.statsRepo.IncrementMatches(ctx, player); err != nil {
		return fmt.Errorf("failed to record match: %w", err)
	}

	return nil
}

func (that *statsService) RecordError(ctx context.Context, player string) error {
	if err := that.statsRepo.IncrementErrors(ctx, player); err != nil {
		return fmt.Errorf("failed to record error: %w", err)
	}

	return nil
}

func (that *statsService) Leaderboard(ctx context.Context, limit int) ([]entity.PlayerScore, error) {
	scores, err := that.statsRepo.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	return scores, nil
}

func (that *statsService) PlayerStats(ctx context.Context, player string) (*entity.PlayerStats, error) {
	stats, err := that.statsRepo.GetByPlayer(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for player %s: %w", player, err)
	}

	return stats, nil
}
