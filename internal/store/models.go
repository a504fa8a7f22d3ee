package store

import (
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/pbp"
)

// Game is a pbp_games row.
type Game struct {
	GameID       int64     `json:"game_id" db:"game_id"`
	GameDate     time.Time `json:"game_date" db:"game_date"`
	Season       string    `json:"season" db:"season"`
	GameCode     string    `json:"game_code" db:"game_code"`
	HomeTeamAbbr string    `json:"home_team_abbr" db:"home_team_abbr"`
	AwayTeamAbbr string    `json:"away_team_abbr" db:"away_team_abbr"`
}

// Teams returns the home/away context used for for/against attribution.
func (g *Game) Teams() pbp.GameTeams {
	return pbp.GameTeams{GameID: g.GameID, Home: g.HomeTeamAbbr, Away: g.AwayTeamAbbr}
}

// Meta returns the context stored on derived rows.
func (g *Game) Meta() advstats.GameMeta {
	return advstats.GameMeta{GameID: g.GameID, Date: g.GameDate, Season: g.Season, Code: g.GameCode}
}

// LineupEntry is a pbp_lineups row.
type LineupEntry struct {
	GameID         int64  `json:"game_id" db:"game_id"`
	PlayerID       int64  `json:"player_id" db:"player_id"`
	TeamAbbr       string `json:"team_abbr" db:"team_abbr"`
	PlayerPosition string `json:"player_position" db:"player_position"`
	LineupPosition string `json:"lineup_position" db:"lineup_position"`
}

// IsGoalie reports whether the entry is a goalie.
func (l LineupEntry) IsGoalie() bool {
	return advstats.IsGoalie(l.LineupPosition, l.PlayerPosition)
}

// Skater converts the entry for the rebuild.
func (l LineupEntry) Skater() advstats.Skater {
	return advstats.Skater{PlayerID: l.PlayerID, TeamAbbr: l.TeamAbbr, Position: l.PlayerPosition}
}

// Skaters keeps the distinct non-goalie entries with a valid player, in order.
func Skaters(entries []LineupEntry) []advstats.Skater {
	seen := make(map[int64]bool, len(entries))
	out := make([]advstats.Skater, 0, len(entries))
	for _, e := range entries {
		if e.PlayerID <= 0 || e.IsGoalie() || seen[e.PlayerID] {
			continue
		}
		seen[e.PlayerID] = true
		out = append(out, e.Skater())
	}
	return out
}
