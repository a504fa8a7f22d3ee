package advstats

import "github.com/fortuna/rinkside/internal/pbp"

// GARWeights convert differentials into goals, and goals into wins.
type GARWeights struct {
	GoalsPerCorsi   float64 `koanf:"goals_per_corsi" json:"goals_per_corsi"`
	GoalsPerPenalty float64 `koanf:"goals_per_penalty" json:"goals_per_penalty"`
	GoalsPerWin     float64 `koanf:"goals_per_win" json:"goals_per_win"`
	IncludeCorsi    bool    `koanf:"include_corsi" json:"include_corsi"`
}

// DefaultGARWeights returns 0.01 goals per Corsi, 0.15 per penalty and six
// goals per win.
func DefaultGARWeights() GARWeights {
	return GARWeights{
		GoalsPerCorsi:   0.01,
		GoalsPerPenalty: 0.15,
		GoalsPerWin:     6.0,
		IncludeCorsi:    true,
	}
}

// GARInputs are the differentials the composite is built from.
type GARInputs struct {
	CorsiDiff   int
	GoalDiff    int
	PenaltyDiff int
}

// GARValue is the GAR-lite composite and its WAR conversion.
type GARValue struct {
	Penalties float64  `json:"gar_pen"`
	Corsi     float64  `json:"gar_corsi"`
	Goals     float64  `json:"gar_goals"`
	Total     float64  `json:"gar_total"`
	WAR       *float64 `json:"war_total"`
}

// GAR is a transparent linear value estimate:
// pen_diff*goals_per_penalty + corsi_diff*goals_per_corsi + goal_diff.
// WAR is nil unless goals per win is positive.
func GAR(in GARInputs, w GARWeights) GARValue {
	v := GARValue{
		Penalties: float64(in.PenaltyDiff) * w.GoalsPerPenalty,
		Goals:     float64(in.GoalDiff),
	}
	if w.IncludeCorsi {
		v.Corsi = float64(in.CorsiDiff) * w.GoalsPerCorsi
	}
	v.Total = v.Penalties + v.Corsi + v.Goals
	if w.GoalsPerWin > 0 {
		v.WAR = ptr(v.Total / w.GoalsPerWin)
	}
	return v
}

// GAROptions configures a player GAR-lite computation.
type GAROptions struct {
	Situation pbp.Situation
	// Fenwick bases the Corsi term on unblocked attempts.
	Fenwick bool
	Weights GARWeights
}

// GARSummary reports the composite with the counts behind it.
type GARSummary struct {
	PlayerID int64  `json:"player_id"`
	StateKey string `json:"state_key"`
	Strength string `json:"strength"`

	CF    int `json:"CF"`
	CA    int `json:"CA"`
	CDiff int `json:"CDIFF"`
	GF    int `json:"GF"`
	GA    int `json:"GA"`
	GDiff int `json:"GDIFF"`

	PenTaken int `json:"pen_taken"`
	PenDrawn int `json:"pen_drawn"`
	PenDiff  int `json:"pen_diff"`

	GARValue
}

// BuildGARSummary combines Corsi, goal and penalty results into a summary.
func BuildGARSummary(c CorsiSummary, goals Pair, pen PenaltySummary, opts GAROptions) GARSummary {
	return GARSummary{
		PlayerID: c.PlayerID,
		StateKey: opts.Situation.StateLabel(),
		Strength: opts.Situation.StrengthLabel(),
		CF:       c.CF,
		CA:       c.CA,
		CDiff:    c.CDiff,
		GF:       goals.For,
		GA:       goals.Against,
		GDiff:    goals.Diff,
		PenTaken: pen.Taken,
		PenDrawn: pen.Drawn,
		PenDiff:  pen.Diff,
		GARValue: GAR(GARInputs{CorsiDiff: c.CDiff, GoalDiff: goals.Diff, PenaltyDiff: pen.Diff}, opts.Weights),
	}
}
