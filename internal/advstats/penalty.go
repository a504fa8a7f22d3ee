package advstats

import "github.com/fortuna/rinkside/internal/pbp"

// PenaltySummary is a skater's penalty differential. Drawn is approximated
// as opponent penalties while the skater was on the ice.
type PenaltySummary struct {
	PlayerID int64 `json:"player_id"`
	Taken    int   `json:"pen_taken"`
	PIMTaken int   `json:"pim_taken"`
	Drawn    int   `json:"pen_drawn"`
	Diff     int   `json:"pen_diff"`
}

// Penalties combines the penalties playerID took with the on-ice rows of the
// same game.
func Penalties(playerID int64, taken []pbp.Event, onIce []pbp.OnIceRow, teams pbp.GameTeams) PenaltySummary {
	s := PenaltySummary{PlayerID: playerID}

	for _, ev := range taken {
		if ev.Type != pbp.EventPenalty {
			continue
		}
		s.Taken++
		s.PIMTaken += ev.PenaltyMinutes
	}

	for _, r := range onIce {
		if r.PlayerID == playerID && r.Event.Type == pbp.EventPenalty && teams.IsAgainst(r.Event, r.Side) {
			s.Drawn++
		}
	}

	s.Diff = s.Drawn - s.Taken
	return s
}
