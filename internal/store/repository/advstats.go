package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/store"
)

// AdvStatsRepository writes derived rows to player_adv_stats.
type AdvStatsRepository struct {
	db *store.Database
}

// NewAdvStatsRepository creates a new derived-stats repository.
func NewAdvStatsRepository(db *store.Database) *AdvStatsRepository {
	return &AdvStatsRepository{db: db}
}

var upsertAdvStats = store.UpsertAdvStatsSQL(func(n int) string { return "$" + strconv.Itoa(n) })

// UpsertRows writes rows in one transaction, replacing rows with the same
// (game, player, slice, calc version).
func (r *AdvStatsRepository) UpsertRows(ctx context.Context, rows []advstats.PlayerGameRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertAdvStats)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i].Values()...); err != nil {
			return fmt.Errorf("upserting game %d player %d %s: %w", rows[i].GameID, rows[i].PlayerID, rows[i].Slice, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// CountRows returns how many rows a game has under calcVersion.
func (r *AdvStatsRepository) CountRows(ctx context.Context, gameID int64, calcVersion string) (int, error) {
	var n int
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM player_adv_stats WHERE game_id = $1 AND calc_version = $2`,
		gameID, calcVersion,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}
