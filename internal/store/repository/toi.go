package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/rinkside/internal/store"
	"github.com/fortuna/rinkside/internal/toi"
)

// TOIRepository reads raw ice time from player_gamelogs. It implements
// toi.Source.
type TOIRepository struct {
	db *store.Database
}

// NewTOIRepository creates a new ice-time repository.
func NewTOIRepository(db *store.Database) *TOIRepository {
	return &TOIRepository{db: db}
}

const toiColumns = `COALESCE(total_toi, 0), COALESCE(ev_toi, 0), COALESCE(pp_toi, 0), COALESCE(sh_toi, 0)`

// PlayerTOI returns one player's raw buckets, or false without a gamelog.
func (r *TOIRepository) PlayerTOI(ctx context.Context, gameID, playerID int64) (toi.Raw, bool, error) {
	query := `SELECT ` + toiColumns + ` FROM player_gamelogs WHERE game_id = $1 AND player_id = $2`

	var raw toi.Raw
	err := r.db.DB().QueryRowContext(ctx, query, gameID, playerID).Scan(&raw.Total, &raw.EV, &raw.PP, &raw.SH)
	if errors.Is(err, sql.ErrNoRows) {
		return toi.Raw{}, false, nil
	}
	if err != nil {
		return toi.Raw{}, false, fmt.Errorf("querying player toi: %w", err)
	}
	return raw, true, nil
}

// GameTOI returns the raw buckets of every player with a gamelog.
func (r *TOIRepository) GameTOI(ctx context.Context, gameID int64) (map[int64]toi.Raw, error) {
	query := `SELECT player_id, ` + toiColumns + ` FROM player_gamelogs WHERE game_id = $1`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying game toi: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]toi.Raw)
	for rows.Next() {
		var (
			pid int64
			raw toi.Raw
		)
		if err := rows.Scan(&pid, &raw.Total, &raw.EV, &raw.PP, &raw.SH); err != nil {
			return nil, fmt.Errorf("scanning game toi: %w", err)
		}
		out[pid] = raw
	}
	return out, rows.Err()
}
