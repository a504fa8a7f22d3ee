package advstats

import (
	"time"

	"github.com/fortuna/rinkside/internal/toi"
)

// PlayerGameRow is the flat per-player, per-game, per-slice result a rebuild
// persists.
type PlayerGameRow struct {
	GameID      int64     `json:"game_id"`
	PlayerID    int64     `json:"player_id"`
	TeamAbbr    string    `json:"team_abbr"`
	Position    string    `json:"player_pos"`
	Slice       Slice     `json:"state_key"`
	Strength    string    `json:"strength"`
	CalcVersion string    `json:"calc_version"`
	CalcAt      time.Time `json:"calc_ts"`
	GameDate    time.Time `json:"game_date"`
	Season      string    `json:"season"`

	TOI     toi.Buckets `json:"toi"`
	TOIUsed int         `json:"toi_used"`

	OnIce           OnIceSummary      `json:"on_ice"`
	OnIceRates      OnIceRates        `json:"on_ice_rates"`
	Individual      IndividualSummary `json:"individual"`
	IndividualRates IndividualRates   `json:"individual_rates"`
	Penalties       PenaltySummary    `json:"penalties"`
	GAR             GARValue          `json:"gar"`
}

// ColumnKind is the storage type of a row column.
type ColumnKind int

const (
	KindInt ColumnKind = iota
	KindFloat
	KindText
	KindBool
	KindTimestamp
	KindDate
)

// Column is one stored field of a PlayerGameRow.
type Column struct {
	Name string
	Kind ColumnKind
	// Nullable columns may yield nil.
	Nullable bool
	value    func(r *PlayerGameRow) any
}

// KeyColumns identify a row for upserts.
var KeyColumns = []string{"game_id", "player_id", "state_key", "calc_version"}

// Columns lists every stored field in insert order.
func Columns() []Column {
	return rowColumns
}

// ColumnNames lists the stored field names in insert order.
func ColumnNames() []string {
	names := make([]string, len(rowColumns))
	for i, c := range rowColumns {
		names[i] = c.Name
	}
	return names
}

// Values returns the row's stored values in column order. Values are plain
// driver types: int64, float64, string, bool or nil.
func (r *PlayerGameRow) Values() []any {
	out := make([]any, len(rowColumns))
	for i, c := range rowColumns {
		out[i] = c.value(r)
	}
	return out
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intColumn(name string, get func(r *PlayerGameRow) int) Column {
	return Column{Name: name, Kind: KindInt, value: func(r *PlayerGameRow) any { return int64(get(r)) }}
}

func floatColumn(name string, get func(r *PlayerGameRow) float64) Column {
	return Column{Name: name, Kind: KindFloat, value: func(r *PlayerGameRow) any { return get(r) }}
}

func nullColumn(name string, get func(r *PlayerGameRow) *float64) Column {
	return Column{Name: name, Kind: KindFloat, Nullable: true, value: func(r *PlayerGameRow) any { return nullable(get(r)) }}
}

func textColumn(name string, get func(r *PlayerGameRow) string) Column {
	return Column{Name: name, Kind: KindText, value: func(r *PlayerGameRow) any { return get(r) }}
}

// pairColumns expands one on-ice pair into counts, share, diff and rates.
func pairColumns(forName, againstName, diffName string, pair func(r *PlayerGameRow) Pair, rates func(r *PlayerGameRow) PairRates) []Column {
	return []Column{
		intColumn(forName, func(r *PlayerGameRow) int { return pair(r).For }),
		intColumn(againstName, func(r *PlayerGameRow) int { return pair(r).Against }),
		nullColumn(forName+"_pct", func(r *PlayerGameRow) *float64 { return pair(r).Pct }),
		intColumn(diffName, func(r *PlayerGameRow) int { return pair(r).Diff }),
		nullColumn(forName+"_60", func(r *PlayerGameRow) *float64 { return rates(r).For }),
		nullColumn(againstName+"_60", func(r *PlayerGameRow) *float64 { return rates(r).Against }),
		nullColumn(diffName+"_60", func(r *PlayerGameRow) *float64 { return rates(r).Diff }),
	}
}

var rowColumns = buildColumns()

func buildColumns() []Column {
	cols := []Column{
		{Name: "game_id", Kind: KindInt, value: func(r *PlayerGameRow) any { return r.GameID }},
		{Name: "player_id", Kind: KindInt, value: func(r *PlayerGameRow) any { return r.PlayerID }},
		textColumn("team_abbr", func(r *PlayerGameRow) string { return r.TeamAbbr }),
		textColumn("player_pos", func(r *PlayerGameRow) string { return r.Position }),
		textColumn("state_key", func(r *PlayerGameRow) string { return string(r.Slice) }),
		textColumn("strength", func(r *PlayerGameRow) string { return r.Strength }),
		textColumn("calc_version", func(r *PlayerGameRow) string { return r.CalcVersion }),
		{Name: "calc_ts", Kind: KindTimestamp, value: func(r *PlayerGameRow) any {
			return r.CalcAt.UTC().Format(time.RFC3339)
		}},
		{Name: "game_date", Kind: KindDate, Nullable: true, value: func(r *PlayerGameRow) any {
			if r.GameDate.IsZero() {
				return nil
			}
			return r.GameDate.Format("2006-01-02")
		}},
		textColumn("season", func(r *PlayerGameRow) string { return r.Season }),

		intColumn("toi_total", func(r *PlayerGameRow) int { return r.TOI.Total }),
		intColumn("toi_ev", func(r *PlayerGameRow) int { return r.TOI.EV }),
		intColumn("toi_pp", func(r *PlayerGameRow) int { return r.TOI.PP }),
		intColumn("toi_sh", func(r *PlayerGameRow) int { return r.TOI.SH }),
		{Name: "toi_parts_sane", Kind: KindBool, value: func(r *PlayerGameRow) any { return r.TOI.PartsSane }},
		intColumn("toi_used", func(r *PlayerGameRow) int { return r.TOIUsed }),
	}

	cols = append(cols, pairColumns("cf", "ca", "cdiff",
		func(r *PlayerGameRow) Pair { return r.OnIce.Corsi },
		func(r *PlayerGameRow) PairRates { return r.OnIceRates.Corsi })...)
	cols = append(cols, pairColumns("ff", "fa", "fdiff",
		func(r *PlayerGameRow) Pair { return r.OnIce.Fenwick },
		func(r *PlayerGameRow) PairRates { return r.OnIceRates.Fenwick })...)
	cols = append(cols, pairColumns("sf", "sa", "sdiff",
		func(r *PlayerGameRow) Pair { return r.OnIce.Shots },
		func(r *PlayerGameRow) PairRates { return r.OnIceRates.Shots })...)
	cols = append(cols, pairColumns("gf", "ga", "gdiff",
		func(r *PlayerGameRow) Pair { return r.OnIce.Goals },
		func(r *PlayerGameRow) PairRates { return r.OnIceRates.Goals })...)
	cols = append(cols, pairColumns("scf", "sca", "scdiff",
		func(r *PlayerGameRow) Pair { return r.OnIce.ScoringChances },
		func(r *PlayerGameRow) PairRates { return r.OnIceRates.ScoringChances })...)
	cols = append(cols, pairColumns("hdcf", "hdca", "hdcdiff",
		func(r *PlayerGameRow) Pair { return r.OnIce.HighDanger },
		func(r *PlayerGameRow) PairRates { return r.OnIceRates.HighDanger })...)
	cols = append(cols, pairColumns("mdcf", "mdca", "mdcdiff",
		func(r *PlayerGameRow) Pair { return r.OnIce.MediumDanger },
		func(r *PlayerGameRow) PairRates { return r.OnIceRates.MediumDanger })...)
	cols = append(cols, pairColumns("ldcf", "ldca", "ldcdiff",
		func(r *PlayerGameRow) Pair { return r.OnIce.LowDanger },
		func(r *PlayerGameRow) PairRates { return r.OnIceRates.LowDanger })...)

	cols = append(cols,
		floatColumn("xgf", func(r *PlayerGameRow) float64 { return r.OnIce.XG.For }),
		floatColumn("xga", func(r *PlayerGameRow) float64 { return r.OnIce.XG.Against }),
		nullColumn("xgf_pct", func(r *PlayerGameRow) *float64 { return r.OnIce.XG.Pct }),
		floatColumn("xgdiff", func(r *PlayerGameRow) float64 { return r.OnIce.XG.Diff }),
		nullColumn("xgf_60", func(r *PlayerGameRow) *float64 { return r.OnIceRates.XG.For }),
		nullColumn("xga_60", func(r *PlayerGameRow) *float64 { return r.OnIceRates.XG.Against }),
		nullColumn("xgdiff_60", func(r *PlayerGameRow) *float64 { return r.OnIceRates.XG.Diff }),

		nullColumn("sh_pct", func(r *PlayerGameRow) *float64 { return r.OnIce.ShootingPct }),
		nullColumn("sv_pct", func(r *PlayerGameRow) *float64 { return r.OnIce.SavePct }),
		nullColumn("pdo", func(r *PlayerGameRow) *float64 { return r.OnIce.PDO }),

		intColumn("icf", func(r *PlayerGameRow) int { return r.Individual.ICF }),
		intColumn("iff", func(r *PlayerGameRow) int { return r.Individual.IFF }),
		intColumn("isf", func(r *PlayerGameRow) int { return r.Individual.ISF }),
		intColumn("ig", func(r *PlayerGameRow) int { return r.Individual.IG }),
		intColumn("isc", func(r *PlayerGameRow) int { return r.Individual.ISC }),
		intColumn("ihdc", func(r *PlayerGameRow) int { return r.Individual.IHDC }),
		intColumn("imdc", func(r *PlayerGameRow) int { return r.Individual.IMDC }),
		intColumn("ildc", func(r *PlayerGameRow) int { return r.Individual.ILDC }),
		floatColumn("ixg", func(r *PlayerGameRow) float64 { return r.Individual.IXG }),
		nullColumn("icf_60", func(r *PlayerGameRow) *float64 { return r.IndividualRates.ICF }),
		nullColumn("iff_60", func(r *PlayerGameRow) *float64 { return r.IndividualRates.IFF }),
		nullColumn("isf_60", func(r *PlayerGameRow) *float64 { return r.IndividualRates.ISF }),
		nullColumn("ig_60", func(r *PlayerGameRow) *float64 { return r.IndividualRates.IG }),
		nullColumn("isc_60", func(r *PlayerGameRow) *float64 { return r.IndividualRates.ISC }),
		nullColumn("ihdc_60", func(r *PlayerGameRow) *float64 { return r.IndividualRates.IHDC }),
		nullColumn("imdc_60", func(r *PlayerGameRow) *float64 { return r.IndividualRates.IMDC }),
		nullColumn("ildc_60", func(r *PlayerGameRow) *float64 { return r.IndividualRates.ILDC }),
		nullColumn("ixg_60", func(r *PlayerGameRow) *float64 { return r.IndividualRates.IXG }),

		intColumn("pen_taken", func(r *PlayerGameRow) int { return r.Penalties.Taken }),
		intColumn("pim_taken", func(r *PlayerGameRow) int { return r.Penalties.PIMTaken }),
		intColumn("pen_drawn", func(r *PlayerGameRow) int { return r.Penalties.Drawn }),
		intColumn("pen_diff", func(r *PlayerGameRow) int { return r.Penalties.Diff }),

		floatColumn("gar_pen", func(r *PlayerGameRow) float64 { return round(r.GAR.Penalties, 3) }),
		floatColumn("gar_corsi", func(r *PlayerGameRow) float64 { return round(r.GAR.Corsi, 3) }),
		floatColumn("gar_goals", func(r *PlayerGameRow) float64 { return round(r.GAR.Goals, 3) }),
		floatColumn("gar_total", func(r *PlayerGameRow) float64 { return round(r.GAR.Total, 3) }),
		nullColumn("war_total", func(r *PlayerGameRow) *float64 {
			if r.GAR.WAR == nil {
				return nil
			}
			return ptr(round(*r.GAR.WAR, 3))
		}),
	)
	return cols
}
