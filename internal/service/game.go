package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/apperror"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/scramble"
)

type GameplayService interface {
	Look(ctx context.Context, player string) (string, error)
	Flip(ctx context.Context, player string, row, col int) (string, error)
	Watch(ctx context.Context, player string) (string, error)
	MapCards(ctx context.Context, player string, labels map[string]string) (string, error)
}

type gameplayService struct {
	logger *slog.Logger

	board        *scramble.Board
	statsService StatsService
}

func NewGameplayService(logger *slog.Logger, board *scramble.Board, statsService StatsService) GameplayService {
	return &gameplayService{
		logger:       logger,
		board:        board,
		statsService: statsService,
	}
}

func (that *gameplayService) Look(ctx context.Context, player string) (string, error) {
	view, err := that.board.RenderFor(ctx, player)
	if err != nil {
		return "", fmt.Errorf("failed to render board: %w", err)
	}

	return view, nil
}

func (that *gameplayService) Flip(ctx context.Context, player string, row, col int) (string, error) {
	result, err := that.board.Flip(ctx, player, row, col)
	if err != nil {
		if isPlayerError(err) {
			that.recordError(ctx, player)
		}

		return "", fmt.Errorf("failed to flip %d,%d: %w", row, col, err)
	}

	that.recordFlip(ctx, player, result.Matched)

	return result.View, nil
}

func (that *gameplayService) Watch(ctx context.Context, player string) (string, error) {
	view, err := that.board.Watch(ctx, player)
	if err != nil {
		return "", fmt.Errorf("failed to watch board: %w", err)
	}

	return view, nil
}

// MapCards rewrites every card label through the given table; labels
// missing from it keep their current value. Returns the caller's view
// once all labels are committed.
func (that *gameplayService) MapCards(ctx context.Context, player string, labels map[string]string) (string, error) {
	transform := func(_ context.Context, label string) (string, error) {
		next, ok := labels[label]
		if !ok {
			return label, nil
		}

		return next, nil
	}

	if err := that.board.MapCards(ctx, transform); err != nil {
		return "", fmt.Errorf("failed to map cards: %w", err)
	}

	view, err := that.board.RenderFor(ctx, player)
	if err != nil {
		return "", fmt.Errorf("failed to render board: %w", err)
	}

	return view, nil
}

// recordFlip counts a settled flip; stats are best effort and never
// fail the move itself.
func (that *gameplayService) recordFlip(ctx context.Context, player string, matched bool) {
	if err := that.statsService.RecordFlip(ctx, player); err != nil {
		that.logger.Error("failed to record flip", "player", player, "error", err)
	}

	if !matched {
		return
	}

	if err := that.statsService.RecordMatch(ctx, player); err != nil {
		that.logger.Error("failed to record match", "player", player, "error", err)
	}
}

func (that *gameplayService) recordError(ctx context.Context, player string) {
	if err := that.statsService.RecordError(ctx, player); err != nil {
		that.logger.Error("failed to record player error", "player", player, "error", err)
	}
}

// isPlayerError tells rule violations apart from cancellations and
// infrastructure failures.
func isPlayerError(err error) bool {
	return errors.Is(err, apperror.ErrOutOfBounds) ||
		errors.Is(err, apperror.ErrNoCard) ||
		errors.Is(err, apperror.ErrAlreadyControlled) ||
		errors.Is(err, apperror.ErrSelfControlled)
}
