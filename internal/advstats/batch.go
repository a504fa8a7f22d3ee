package advstats

import "github.com/fortuna/rinkside/internal/pbp"

// SkaterCorsi is one row of a game-wide Corsi listing.
type SkaterCorsi struct {
	PlayerID int64    `json:"player_id"`
	CF       int      `json:"CF"`
	CA       int      `json:"CA"`
	CFPct    *float64 `json:"CF_pct"`
}

// SkaterXG is one row of a game-wide xG listing.
type SkaterXG struct {
	PlayerID int64    `json:"player_id"`
	XGF      float64  `json:"xGF"`
	XGA      float64  `json:"xGA"`
	XGTotal  float64  `json:"xG_total"`
	XGFPct   *float64 `json:"xGF_pct"`
}

// QuadrantPoint places a skater by xG for and against per 60 minutes.
type QuadrantPoint struct {
	PlayerID   int64    `json:"player_id"`
	TOISeconds int      `json:"TOI_seconds"`
	XGF        float64  `json:"xGF"`
	XGA        float64  `json:"xGA"`
	XGF60      *float64 `json:"xGF_60"`
	XGA60      *float64 `json:"xGA_60"`
}

// GroupByPlayer splits game-wide on-ice rows per skater, in first-seen
// order. Rows without a valid player are dropped.
func GroupByPlayer(rows []pbp.OnIceRow) ([]int64, map[int64][]pbp.OnIceRow) {
	var order []int64
	groups := make(map[int64][]pbp.OnIceRow)
	for _, r := range rows {
		if r.PlayerID <= 0 {
			continue
		}
		if _, ok := groups[r.PlayerID]; !ok {
			order = append(order, r.PlayerID)
		}
		groups[r.PlayerID] = append(groups[r.PlayerID], r)
	}
	return order, groups
}

// SkatersCorsi computes on-ice Corsi (or Fenwick) for every skater present
// in rows.
func SkatersCorsi(rows []pbp.OnIceRow, teams pbp.GameTeams, fenwick bool) []SkaterCorsi {
	order, groups := GroupByPlayer(rows)
	out := make([]SkaterCorsi, 0, len(order))
	for _, pid := range order {
		c := Corsi(pid, groups[pid], teams, fenwick)
		out = append(out, SkaterCorsi{PlayerID: pid, CF: c.CF, CA: c.CA, CFPct: c.CFPct})
	}
	return out
}

// SkatersXG computes on-ice xG for and against every skater present in rows.
func SkatersXG(rows []pbp.OnIceRow, teams pbp.GameTeams, m pbp.Model, includeBlocked bool) []SkaterXG {
	order, groups := GroupByPlayer(rows)
	out := make([]SkaterXG, 0, len(order))
	for _, pid := range order {
		var xf, xa float64
		for _, r := range groups[pid] {
			if !pbp.IsAttempt(r.Event, includeBlocked) {
				continue
			}
			switch {
			case teams.IsFor(r.Event, r.Side):
				xf += m.ExpectedGoal(r.Event)
			case teams.IsAgainst(r.Event, r.Side):
				xa += m.ExpectedGoal(r.Event)
			}
		}
		p := newXGPair(xf, xa)
		out = append(out, SkaterXG{
			PlayerID: pid,
			XGF:      p.For,
			XGA:      p.Against,
			XGTotal:  round(p.For+p.Against, 3),
			XGFPct:   p.Pct,
		})
	}
	return out
}

// Quadrant converts an xG listing into per-60 points. toiFor returns the
// denominator for a skater; skaters without ice time are left out.
func Quadrant(rows []SkaterXG, toiFor func(playerID int64) int) []QuadrantPoint {
	out := make([]QuadrantPoint, 0, len(rows))
	for _, r := range rows {
		secs := toiFor(r.PlayerID)
		if secs <= 0 {
			continue
		}
		out = append(out, QuadrantPoint{
			PlayerID:   r.PlayerID,
			TOISeconds: secs,
			XGF:        r.XGF,
			XGA:        r.XGA,
			XGF60:      RatePer60(r.XGF, secs),
			XGA60:      RatePer60(r.XGA, secs),
		})
	}
	return out
}
