package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/store"
)

// LineupRepository reads pbp_lineups.
type LineupRepository struct {
	db *store.Database
}

// NewLineupRepository creates a new lineup repository.
func NewLineupRepository(db *store.Database) *LineupRepository {
	return &LineupRepository{db: db}
}

// Lineup returns every lineup entry of a game.
func (r *LineupRepository) Lineup(ctx context.Context, gameID int64) ([]store.LineupEntry, error) {
	query := `
		SELECT game_id, player_id, team_abbr, player_position, lineup_position
		FROM pbp_lineups
		WHERE game_id = $1
		ORDER BY team_abbr, player_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying lineup: %w", err)
	}
	defer rows.Close()

	var entries []store.LineupEntry
	for rows.Next() {
		var (
			e         store.LineupEntry
			playerPos sql.NullString
			lineupPos sql.NullString
		)
		if err := rows.Scan(&e.GameID, &e.PlayerID, &e.TeamAbbr, &playerPos, &lineupPos); err != nil {
			return nil, fmt.Errorf("scanning lineup: %w", err)
		}
		e.PlayerPosition = playerPos.String
		e.LineupPosition = lineupPos.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Skaters returns the distinct non-goalie players of a game.
func (r *LineupRepository) Skaters(ctx context.Context, gameID int64) ([]advstats.Skater, error) {
	entries, err := r.Lineup(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return store.Skaters(entries), nil
}
