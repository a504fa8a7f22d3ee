package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lib/pq"

	"github.com/fortuna/rinkside/internal/pbp"
	"github.com/fortuna/rinkside/internal/store"
)

// FeedXGColumns are the pbp_events columns probed for a feed-supplied xG
// value, in preference order.
var FeedXGColumns = []string{"xg", "xG", "expected_goals", "expectedGoals", "exp_goals", "shot_xg", "xg_shot"}

// actingSide maps an event's team onto HOME/AWAY using the joined game row.
const actingSide = `CASE
			WHEN UPPER(TRIM(e.team_abbr)) = UPPER(TRIM(g.home_team_abbr)) THEN 'HOME'
			WHEN UPPER(TRIM(e.team_abbr)) = UPPER(TRIM(g.away_team_abbr)) THEN 'AWAY'
		END`

// PBPRepository reads play-by-play events for the analytics engine. It
// implements service.EventReader.
type PBPRepository struct {
	db     *store.Database
	logger *slog.Logger

	mu         sync.Mutex
	xgResolved bool
	xgColumn   string
}

// NewPBPRepository creates a new play-by-play repository.
func NewPBPRepository(db *store.Database) *PBPRepository {
	return &PBPRepository{db: db, logger: db.Logger()}
}

// GameTeams returns the home and away teams of a game, or false when the
// game is unknown.
func (r *PBPRepository) GameTeams(ctx context.Context, gameID int64) (pbp.GameTeams, bool, error) {
	if gameID <= 0 {
		return pbp.GameTeams{}, false, nil
	}

	teams := pbp.GameTeams{GameID: gameID}
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT home_team_abbr, away_team_abbr FROM pbp_games WHERE game_id = $1`, gameID,
	).Scan(&teams.Home, &teams.Away)
	if errors.Is(err, sql.ErrNoRows) {
		return pbp.GameTeams{}, false, nil
	}
	if err != nil {
		return pbp.GameTeams{}, false, fmt.Errorf("querying game teams: %w", err)
	}
	return teams, true, nil
}

// OnIceEvents returns the shot, goal and penalty events of a game paired with
// every non-goalie on the ice for them, restricted to sit. A playerID of 0
// returns all skaters.
func (r *PBPRepository) OnIceEvents(ctx context.Context, gameID, playerID int64, sit pbp.Situation) ([]pbp.OnIceRow, error) {
	if gameID <= 0 || playerID < 0 {
		return nil, nil
	}
	cols, err := r.eventSelect(ctx)
	if err != nil {
		return nil, err
	}

	args := pbp.NewArgs(gameID)
	player := ""
	if playerID > 0 {
		player = "AND oi.player_id = " + args.Add(playerID)
	}
	filter := sit.Compile(args, pbp.EventColumns("oi.side"))

	query := `
		SELECT oi.player_id, oi.side, ` + cols + `
		FROM pbp_on_ice oi
		JOIN pbp_events e ON e.event_id = oi.event_id
		WHERE e.game_id = $1
			AND UPPER(e.event_type) IN ('SHOT', 'GOAL', 'PENALTY')
			AND NOT COALESCE(oi.is_goalie, FALSE)
			` + player + `
			AND ` + filter + `
		ORDER BY e.seq, e.event_id, oi.player_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("querying on-ice events: %w", err)
	}
	defer rows.Close()

	var out []pbp.OnIceRow
	for rows.Next() {
		var (
			row  pbp.OnIceRow
			side string
		)
		ev, err := scanEvent(rows, &row.PlayerID, &side)
		if err != nil {
			return nil, fmt.Errorf("scanning on-ice event: %w", err)
		}
		row.Side = pbp.ParseSide(side)
		row.Event = ev
		out = append(out, row)
	}
	return out, rows.Err()
}

// PlayerShotEvents returns the shots and goals a player took or scored,
// restricted to sit with the acting team's side.
func (r *PBPRepository) PlayerShotEvents(ctx context.Context, gameID, playerID int64, sit pbp.Situation) ([]pbp.Event, error) {
	if gameID <= 0 || playerID <= 0 {
		return nil, nil
	}
	cols, err := r.eventSelect(ctx)
	if err != nil {
		return nil, err
	}

	args := pbp.NewArgs(gameID, playerID)
	filter := sit.Compile(args, pbp.EventColumns(actingSide))

	query := `
		SELECT ` + cols + `
		FROM pbp_events e
		JOIN pbp_games g ON g.game_id = e.game_id
		WHERE e.game_id = $1
			AND (e.shooter_id = $2 OR e.scorer_id = $2)
			AND UPPER(e.event_type) IN ('SHOT', 'GOAL')
			AND ` + filter + `
		ORDER BY e.seq, e.event_id
	`
	return r.queryEvents(ctx, query, args.Values())
}

// PenaltiesTaken returns the penalties a player was charged with,
// restricted to sit with the acting team's side.
func (r *PBPRepository) PenaltiesTaken(ctx context.Context, gameID, playerID int64, sit pbp.Situation) ([]pbp.Event, error) {
	if gameID <= 0 || playerID <= 0 {
		return nil, nil
	}
	cols, err := r.eventSelect(ctx)
	if err != nil {
		return nil, err
	}

	args := pbp.NewArgs(gameID, playerID, string(pbp.RolePenalized))
	filter := sit.Compile(args, pbp.EventColumns(actingSide))

	query := `
		SELECT ` + cols + `
		FROM pbp_events e
		JOIN pbp_games g ON g.game_id = e.game_id
		JOIN pbp_actors a ON a.event_id = e.event_id AND a.player_id = $2 AND UPPER(a.role) = $3
		WHERE e.game_id = $1
			AND UPPER(e.event_type) = 'PENALTY'
			AND ` + filter + `
		ORDER BY e.seq, e.event_id
	`
	return r.queryEvents(ctx, query, args.Values())
}

func (r *PBPRepository) queryEvents(ctx context.Context, query string, args []any) ([]pbp.Event, error) {
	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var out []pbp.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// FeedXGProbeSQL lists the FeedXGColumns present on pbp_events in the
// current schema.
const FeedXGProbeSQL = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
			AND table_name = 'pbp_events'
			AND column_name = ANY($1)
	`

// FeedXGColumn returns the detected feed xG column of pbp_events, or "" when
// the table has none. Detection runs once per repository; a failed probe is
// retried on the next call.
func (r *PBPRepository) FeedXGColumn(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.xgResolved {
		return r.xgColumn, nil
	}

	rows, err := r.db.DB().QueryContext(ctx, FeedXGProbeSQL, pq.Array(FeedXGColumns))
	if err != nil {
		return "", fmt.Errorf("probing feed xG column: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("probing feed xG column: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("probing feed xG column: %w", err)
	}

	r.xgColumn = pickFeedColumn(present)
	r.xgResolved = true
	if r.xgColumn == "" {
		r.logger.Info("pbp_events has no feed xG column; using heuristic xG")
	} else {
		r.logger.Info("using feed xG column", "column", r.xgColumn)
	}
	return r.xgColumn, nil
}

func pickFeedColumn(present map[string]bool) string {
	for _, c := range FeedXGColumns {
		if present[c] {
			return c
		}
	}
	return ""
}

// eventSelect renders the pbp_events select list under alias e.
func (r *PBPRepository) eventSelect(ctx context.Context) (string, error) {
	col, err := r.FeedXGColumn(ctx)
	if err != nil {
		return "", err
	}
	return EventSelectList(col), nil
}

// FeedXGExpr reads feedColumn as float8 whatever its declared type. Blank
// and non-numeric values become NULL so the heuristic applies to that event.
func FeedXGExpr(feedColumn string) string {
	if feedColumn == "" {
		return "NULL::float8"
	}
	v := "TRIM(e." + pq.QuoteIdentifier(feedColumn) + "::text)"
	return "CASE WHEN " + v + ` ~ '^[-+]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][-+]?[0-9]+)?$'` +
		" THEN " + v + "::float8 END"
}

// EventSelectList renders the columns scanEvent reads, with feedColumn as
// the xG source or NULL when empty.
func EventSelectList(feedColumn string) string {
	xg := FeedXGExpr(feedColumn)
	return strings.Join([]string{
		"e.event_id", "e.game_id", "COALESCE(e.seq, 0)", "COALESCE(e.period, 0)", "COALESCE(e.elapsed_seconds, 0)",
		"e.event_type", "COALESCE(e.team_abbr, '')", "e.x_raw", "e.y_raw",
		"e.home_skaters", "e.away_skaters", "COALESCE(e.state_key, '')", "COALESCE(e.strength, '')",
		"COALESCE(e.is_on_goal, FALSE)", "COALESCE(e.is_missed, FALSE)", "COALESCE(e.is_blocked, FALSE)", "COALESCE(e.is_empty_net, FALSE)",
		"COALESCE(e.shot_type, '')", "COALESCE(e.faceoff_winner_side, '')",
		"COALESCE(e.penalty_severity, '')", "COALESCE(e.penalty_minutes, 0)", "COALESCE(e.penalty_type, '')",
		"COALESCE(e.shooter_id, 0)", "COALESCE(e.scorer_id, 0)", xg,
	}, ", ")
}

// scanEvent scans the EventSelectList columns after any leading dest.
func scanEvent(s rowScanner, lead ...any) (pbp.Event, error) {
	var (
		ev            pbp.Event
		eventType     string
		faceoffWinner string
		x, y, xg      sql.NullFloat64
		home, away    sql.NullInt64
	)
	dest := append(lead,
		&ev.EventID, &ev.GameID, &ev.Sequence, &ev.Period, &ev.ElapsedSeconds,
		&eventType, &ev.TeamAbbr, &x, &y,
		&home, &away, &ev.StateKey, &ev.Strength,
		&ev.OnGoal, &ev.Missed, &ev.Blocked, &ev.EmptyNet,
		&ev.ShotType, &faceoffWinner,
		&ev.PenaltySeverity, &ev.PenaltyMinutes, &ev.PenaltyType,
		&ev.ShooterID, &ev.ScorerID, &xg,
	)
	if err := s.Scan(dest...); err != nil {
		return pbp.Event{}, err
	}

	ev.Type = pbp.ParseEventType(eventType)
	ev.FaceoffWinner = pbp.ParseSide(faceoffWinner)
	ev.XRaw = nullFloat(x)
	ev.YRaw = nullFloat(y)
	ev.FeedXG = nullFloat(xg)
	ev.HomeSkaters = nullInt(home)
	ev.AwaySkaters = nullInt(away)
	return ev, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
