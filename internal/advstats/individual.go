package advstats

import "github.com/fortuna/rinkside/internal/pbp"

// IndividualSummary credits a skater's own attempts and goals.
type IndividualSummary struct {
	PlayerID int64  `json:"player_id"`
	StateKey string `json:"state_key"`
	Strength string `json:"strength"`

	ICF  int     `json:"iCF"`
	IFF  int     `json:"iFF"`
	ISF  int     `json:"iSF"`
	IG   int     `json:"iG"`
	ISC  int     `json:"iSC"`
	IHDC int     `json:"iHDC"`
	IMDC int     `json:"iMDC"`
	ILDC int     `json:"iLDC"`
	IXG  float64 `json:"ixG"`
}

// Individual aggregates events attributed to playerID. Attempts, chances and
// xG are credited to the shooter; a goal is credited when the player is the
// scorer or the shooter.
func Individual(playerID int64, events []pbp.Event, m pbp.Model, opts Options) IndividualSummary {
	s := IndividualSummary{
		PlayerID: playerID,
		StateKey: opts.Situation.StateLabel(),
		Strength: opts.Situation.StrengthLabel(),
	}
	if playerID <= 0 {
		return s
	}

	var c counts
	for _, ev := range events {
		if pbp.IsGoal(ev) && (ev.ScorerID == playerID || ev.ShooterID == playerID) {
			s.IG++
		}
		if ev.ShooterID == playerID {
			c.add(ev, m, opts)
		}
	}

	s.ICF = c.corsi
	s.IFF = c.fenwick
	s.ISF = c.shots
	s.ISC = c.chances
	s.IHDC = c.high
	s.IMDC = c.medium
	s.ILDC = c.low
	s.IXG = round(c.xg, 3)
	return s
}
