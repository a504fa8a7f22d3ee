package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/store"
)

// GameRepository reads pbp_games.
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository.
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

const gameColumns = `game_id, game_date, season, game_code, home_team_abbr, away_team_abbr`

// GetByID finds a game by ID. A missing game is store.ErrNotFound.
func (r *GameRepository) GetByID(ctx context.Context, gameID int64) (*store.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM pbp_games WHERE game_id = $1`

	game, err := scanGame(r.db.DB().QueryRowContext(ctx, query, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %d: %w", gameID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}
	return game, nil
}

// GetByDate returns all games played on the calendar date of date.
func (r *GameRepository) GetByDate(ctx context.Context, date time.Time) ([]*store.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM pbp_games
		WHERE game_date = $1::date
		ORDER BY game_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []*store.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// GameIDsForDate lists the ids of the games played on date.
func (r *GameRepository) GameIDsForDate(ctx context.Context, date time.Time) ([]int64, error) {
	games, err := r.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(games))
	for i, g := range games {
		ids[i] = g.GameID
	}
	return ids, nil
}

// GameMeta returns the row context of a game, or false when it is unknown.
func (r *GameRepository) GameMeta(ctx context.Context, gameID int64) (advstats.GameMeta, bool, error) {
	g, err := r.GetByID(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return advstats.GameMeta{}, false, nil
	}
	if err != nil {
		return advstats.GameMeta{}, false, err
	}
	return g.Meta(), true, nil
}

// ResolveGameCode finds the game a YYYYMMDD-AWAY-HOME code refers to. A
// stored game_code wins; otherwise date and teams are matched.
func (r *GameRepository) ResolveGameCode(ctx context.Context, code string) (int64, bool, error) {
	var id int64
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT game_id FROM pbp_games WHERE game_code = $1 ORDER BY game_id LIMIT 1`, code).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("resolving game code: %w", err)
	}

	gc, err := store.ParseGameCode(code)
	if err != nil {
		return 0, false, err
	}

	query := `
		SELECT game_id FROM pbp_games
		WHERE game_date = $1::date
			AND UPPER(TRIM(away_team_abbr)) = $2
			AND UPPER(TRIM(home_team_abbr)) = $3
		ORDER BY game_id
		LIMIT 1
	`
	err = r.db.DB().QueryRowContext(ctx, query, gc.Date.Format("2006-01-02"), gc.Away, gc.Home).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolving game code: %w", err)
	}
	return id, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(s rowScanner) (*store.Game, error) {
	var (
		g      store.Game
		date   sql.NullTime
		season sql.NullString
		code   sql.NullString
	)
	if err := s.Scan(&g.GameID, &date, &season, &code, &g.HomeTeamAbbr, &g.AwayTeamAbbr); err != nil {
		return nil, err
	}
	g.GameDate = date.Time
	g.Season = season.String
	g.GameCode = code.String
	return &g, nil
}
