package advstats

import "github.com/fortuna/rinkside/internal/pbp"

// OnIceSummary is what happened for and against a skater's team while the
// skater was on the ice.
type OnIceSummary struct {
	PlayerID int64  `json:"player_id"`
	StateKey string `json:"state_key"`
	Strength string `json:"strength"`

	Corsi          Pair   `json:"corsi"`
	Fenwick        Pair   `json:"fenwick"`
	Shots          Pair   `json:"shots"`
	Goals          Pair   `json:"goals"`
	ScoringChances Pair   `json:"scoring_chances"`
	HighDanger     Pair   `json:"high_danger"`
	MediumDanger   Pair   `json:"medium_danger"`
	LowDanger      Pair   `json:"low_danger"`
	XG             XGPair `json:"xg"`

	ShootingPct *float64 `json:"SH_pct"`
	SavePct     *float64 `json:"SV_pct"`
	PDO         *float64 `json:"PDO"`
}

// OnIce aggregates the on-ice rows of playerID. Rows of other players and
// events by neither team are ignored.
func OnIce(playerID int64, rows []pbp.OnIceRow, teams pbp.GameTeams, m pbp.Model, opts Options) OnIceSummary {
	var f, a counts
	for _, r := range rows {
		if r.PlayerID != playerID {
			continue
		}
		switch {
		case teams.IsFor(r.Event, r.Side):
			f.add(r.Event, m, opts)
		case teams.IsAgainst(r.Event, r.Side):
			a.add(r.Event, m, opts)
		}
	}
	return summarize(playerID, f, a, opts.Situation)
}

func summarize(playerID int64, f, a counts, sit pbp.Situation) OnIceSummary {
	s := OnIceSummary{
		PlayerID:       playerID,
		StateKey:       sit.StateLabel(),
		Strength:       sit.StrengthLabel(),
		Corsi:          newPair(f.corsi, a.corsi),
		Fenwick:        newPair(f.fenwick, a.fenwick),
		Shots:          newPair(f.shots, a.shots),
		Goals:          newPair(f.goals, a.goals),
		ScoringChances: newPair(f.chances, a.chances),
		HighDanger:     newPair(f.high, a.high),
		MediumDanger:   newPair(f.medium, a.medium),
		LowDanger:      newPair(f.low, a.low),
		XG:             newXGPair(f.xg, a.xg),
	}
	s.ShootingPct, s.SavePct, s.PDO = percentages(f.goals, f.shots, a.goals, a.shots)
	return s
}

// percentages derives on-ice shooting%, save% and their sum. PDO uses the
// unrounded components and exists only when both do.
func percentages(gf, sf, ga, sa int) (sh, sv, pdo *float64) {
	var shRaw, svRaw float64
	if sf > 0 {
		shRaw = 100 * float64(gf) / float64(sf)
		sh = ptr(round(shRaw, 1))
	}
	if sa > 0 {
		svRaw = 100 * (1 - float64(ga)/float64(sa))
		sv = ptr(round(svRaw, 1))
	}
	if sh != nil && sv != nil {
		pdo = ptr(round(shRaw+svRaw, 1))
	}
	return sh, sv, pdo
}

// CorsiSummary is the on-ice attempt split of one skater. With Fenwick set
// the counts exclude blocked attempts.
type CorsiSummary struct {
	PlayerID int64    `json:"player_id"`
	Fenwick  bool     `json:"fenwick"`
	CF       int      `json:"CF"`
	CA       int      `json:"CA"`
	CFPct    *float64 `json:"CF_pct"`
	CDiff    int      `json:"CDIFF"`
}

// Corsi counts on-ice attempts for and against playerID.
func Corsi(playerID int64, rows []pbp.OnIceRow, teams pbp.GameTeams, fenwick bool) CorsiSummary {
	var cf, ca int
	for _, r := range rows {
		if r.PlayerID != playerID || !pbp.IsAttempt(r.Event, !fenwick) {
			continue
		}
		switch {
		case teams.IsFor(r.Event, r.Side):
			cf++
		case teams.IsAgainst(r.Event, r.Side):
			ca++
		}
	}
	p := newPair(cf, ca)
	return CorsiSummary{PlayerID: playerID, Fenwick: fenwick, CF: p.For, CA: p.Against, CFPct: p.Pct, CDiff: p.Diff}
}
