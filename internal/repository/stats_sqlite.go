package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

type sqliteStats struct {
	conn *sql.DB
}

func NewSQLiteStatsRepository(conn *sql.DB) StatsRepository {
	return &sqliteStats{
		conn: conn,
	}
}

func (that *sqliteStats) IncrementFlips(ctx context.Context, player string) error {
	return that.increment(ctx, player, "flips")
}

func (that *sqliteStats) IncrementMatches(ctx context.Context, player string) error {
	return that.increment(ctx, player, "matches")
}

func (that *sqliteStats) IncrementErrors(ctx context.Context, player string) error {
	return that.increment(ctx, player, "errors")
}

func (that *sqliteStats) increment(ctx context.Context, player, column string) error {
	query := fmt.Sprintf(`INSERT INTO player_stats (player, %s) VALUES (?, 1)
		ON CONFLICT(player) DO UPDATE SET %s = %s + 1`, column, column, column)

	_, err := that.conn.ExecContext(ctx, query, player)
	if err != nil {
		return fmt.Errorf("can't increment %s: %w", column, err)
	}

	return nil
}

func (that *sqliteStats) Top(ctx context.Context, limit int) ([]entity.PlayerScore, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT player, matches FROM player_stats ORDER BY matches DESC, player ASC LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("can't query leaderboard: %w", err)
	}
	defer rows.Close()

	var scores []entity.PlayerScore
	for rows.Next() {
		var score entity.PlayerScore
		if err = rows.Scan(&score.Player, &score.Matches); err != nil {
			return nil, fmt.Errorf("can't scan leaderboard row: %w", err)
		}
		scores = append(scores, score)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read leaderboard rows: %w", err)
	}

	return scores, nil
}

func (that *sqliteStats) GetByPlayer(ctx context.Context, player string) (*entity.PlayerStats, error) {
	query := `SELECT flips, matches, errors FROM player_stats WHERE player = ?`

	stats := &entity.PlayerStats{Player: player}

	err := that.conn.QueryRowContext(ctx, query, player).Scan(&stats.Flips, &stats.Matches, &stats.Errors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find player stats: %w", err)
	}

	return stats, nil
}
