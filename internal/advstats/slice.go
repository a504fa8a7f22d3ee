package advstats

import (
	"strings"
	"time"

	"github.com/fortuna/rinkside/internal/pbp"
	"github.com/fortuna/rinkside/internal/toi"
)

// Slice is a situational cut a rebuild stores a row for.
type Slice string

const (
	Slice5v5 Slice = "5v5"
	SliceEV  Slice = "ev"
	SlicePP  Slice = "pp"
	SliceSH  Slice = "sh"
	SliceAll Slice = "all"
)

// DefaultSlices are the cuts rebuilt when none are requested.
func DefaultSlices() []Slice {
	return []Slice{Slice5v5, SlicePP, SliceSH, SliceEV, SliceAll}
}

// ParseSlice recognizes a slice token in any case.
func ParseSlice(s string) (Slice, bool) {
	switch sl := Slice(strings.ToLower(strings.TrimSpace(s))); sl {
	case Slice5v5, SliceEV, SlicePP, SliceSH, SliceAll:
		return sl, true
	default:
		return "", false
	}
}

// ParseSlices normalizes a list of tokens, each possibly comma-separated.
// Unknown tokens become 5v5 and duplicates collapse; an empty list yields
// the defaults.
func ParseSlices(tokens []string) []Slice {
	seen := make(map[Slice]bool)
	var out []Slice
	for _, t := range tokens {
		for _, part := range strings.Split(t, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			sl, ok := ParseSlice(part)
			if !ok {
				sl = Slice5v5
			}
			if !seen[sl] {
				seen[sl] = true
				out = append(out, sl)
			}
		}
	}
	if len(out) == 0 {
		return DefaultSlices()
	}
	return out
}

// Situation is the event filter of the slice. 5v5 is an exact state key;
// ev, pp and sh are derived from skater counts relative to the player.
func (s Slice) Situation() pbp.Situation {
	sit := pbp.Situation{State: pbp.NoFilter(), Strength: pbp.NoFilter()}
	switch s {
	case Slice5v5:
		sit.State = pbp.StateFilter(string(Slice5v5))
	case SliceEV:
		sit.Strength = pbp.StrengthFilter(pbp.StrengthEV)
	case SlicePP:
		sit.Strength = pbp.StrengthFilter(pbp.StrengthPP)
	case SliceSH:
		sit.Strength = pbp.StrengthFilter(pbp.StrengthSH)
	}
	return sit
}

// Strength is the derived strength label stored with the slice, if any.
func (s Slice) Strength() string {
	return s.Situation().StrengthLabel()
}

// TOIBucket is the ice-time bucket used as the slice's rate denominator.
func (s Slice) TOIBucket() toi.Bucket {
	return toi.BucketFor(string(s), "")
}

// Skater is a non-goalie lineup entry.
type Skater struct {
	PlayerID int64  `json:"player_id"`
	TeamAbbr string `json:"team_abbr"`
	Position string `json:"player_pos"`
}

// GameMeta is the game context stored on every row.
type GameMeta struct {
	GameID int64     `json:"game_id"`
	Date   time.Time `json:"game_date"`
	Season string    `json:"season"`
	Code   string    `json:"game_code"`
}

// IsGoalie reports whether a lineup entry is a goalie.
func IsGoalie(lineupPosition, playerPosition string) bool {
	lp := strings.ToLower(strings.TrimSpace(lineupPosition))
	return strings.HasPrefix(lp, "goalie") || strings.EqualFold(strings.TrimSpace(playerPosition), "G")
}
