package pbp

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// EvenStrengthKey is the state key that also matches untagged events.
const EvenStrengthKey = "5v5"

var stateKeyPattern = regexp.MustCompile(`^([0-9]+)v([0-9]+)$`)

// Strength is a skater-count relation evaluated from a player's side.
type Strength string

const (
	StrengthEV Strength = "EV"
	StrengthPP Strength = "PP"
	StrengthSH Strength = "SH"
)

// ParseStrength accepts EV/PP/SH in any case.
func ParseStrength(s string) (Strength, bool) {
	switch st := Strength(strings.ToUpper(strings.TrimSpace(s))); st {
	case StrengthEV, StrengthPP, StrengthSH:
		return st, true
	default:
		return "", false
	}
}

// FilterKind tags the variant held by a Filter.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterExact
	FilterInSet
	FilterStrength
)

// Filter is a single situational predicate. Build it with NoFilter,
// StateFilter or StrengthFilter.
type Filter struct {
	Kind FilterKind

	// Key is the token of an exact match.
	Key string

	// Keys are the non-5v5 tokens of a set match; Even adds the 5v5 rule.
	Keys []string
	Even bool

	Strength Strength
}

// NoFilter matches every event.
func NoFilter() Filter {
	return Filter{Kind: FilterNone}
}

// StateFilter builds a state-key filter from zero or more tokens. Tokens are
// trimmed, blanks dropped and duplicates collapsed; "5v5" is recognized in
// any case. No usable token means no filter.
func StateFilter(tokens ...string) Filter {
	seen := make(map[string]bool, len(tokens))
	even := false
	var keys []string

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "":
			continue
		case strings.EqualFold(tok, EvenStrengthKey):
			even = true
		case !seen[tok]:
			seen[tok] = true
			keys = append(keys, tok)
		}
	}

	switch {
	case !even && len(keys) == 0:
		return NoFilter()
	case even && len(keys) == 0:
		return Filter{Kind: FilterExact, Key: EvenStrengthKey}
	case !even && len(keys) == 1:
		return Filter{Kind: FilterExact, Key: keys[0]}
	default:
		return Filter{Kind: FilterInSet, Keys: keys, Even: even}
	}
}

// StrengthFilter builds a derived-strength filter.
func StrengthFilter(s Strength) Filter {
	if _, ok := ParseStrength(string(s)); !ok {
		return NoFilter()
	}
	return Filter{Kind: FilterStrength, Strength: s}
}

// Match evaluates the filter against ev for a player on side.
func (f Filter) Match(ev Event, side Side) bool {
	switch f.Kind {
	case FilterNone:
		return true
	case FilterExact:
		return matchKey(f.Key, ev.StateKey)
	case FilterInSet:
		if f.Even && matchKey(EvenStrengthKey, ev.StateKey) {
			return true
		}
		for _, k := range f.Keys {
			if ev.StateKey == k {
				return true
			}
		}
		return false
	case FilterStrength:
		return f.Strength.holds(ev, side)
	default:
		return false
	}
}

func matchKey(key, state string) bool {
	if key == EvenStrengthKey {
		return state == EvenStrengthKey || state == ""
	}
	return state == key
}

// SkaterCounts returns the home and away skater counts of ev. Stored counts
// win; a missing side is read from a "<home>v<away>" state key.
func SkaterCounts(ev Event) (home, away int, ok bool) {
	var parsedHome, parsedAway int
	parsed := false
	if m := stateKeyPattern.FindStringSubmatch(ev.StateKey); m != nil {
		parsedHome, _ = strconv.Atoi(m[1])
		parsedAway, _ = strconv.Atoi(m[2])
		parsed = true
	}

	switch {
	case ev.HomeSkaters != nil:
		home = *ev.HomeSkaters
	case parsed:
		home = parsedHome
	default:
		return 0, 0, false
	}

	switch {
	case ev.AwaySkaters != nil:
		away = *ev.AwaySkaters
	case parsed:
		away = parsedAway
	default:
		return 0, 0, false
	}

	return home, away, true
}

func (s Strength) holds(ev Event, side Side) bool {
	home, away, ok := SkaterCounts(ev)
	if !ok {
		return false
	}
	if s == StrengthEV {
		return home == away
	}

	own, opp := home, away
	switch side {
	case SideHome:
	case SideAway:
		own, opp = away, home
	default:
		return false
	}

	switch s {
	case StrengthPP:
		return own > opp
	case StrengthSH:
		return own < opp
	default:
		return false
	}
}

// Situation is a state-key filter AND a derived-strength filter.
type Situation struct {
	State    Filter
	Strength Filter
}

// NewSituation parses request-style inputs. Each state token may itself be a
// comma-separated list; an unknown strength is ignored.
func NewSituation(states []string, strength string) Situation {
	var tokens []string
	for _, s := range states {
		tokens = append(tokens, strings.Split(s, ",")...)
	}

	sit := Situation{State: StateFilter(tokens...), Strength: NoFilter()}
	if st, ok := ParseStrength(strength); ok {
		sit.Strength = StrengthFilter(st)
	}
	return sit
}

// Match reports whether ev passes both filters for a player on side.
func (s Situation) Match(ev Event, side Side) bool {
	return s.State.Match(ev, side) && s.Strength.Match(ev, side)
}

// StateLabel renders the state filter, e.g. "5v5" or "5v4,5v5".
func (s Situation) StateLabel() string {
	switch s.State.Kind {
	case FilterExact:
		return s.State.Key
	case FilterInSet:
		keys := append([]string(nil), s.State.Keys...)
		if s.State.Even {
			keys = append(keys, EvenStrengthKey)
		}
		sort.Strings(keys)
		return strings.Join(keys, ",")
	default:
		return ""
	}
}

// StrengthLabel renders the strength filter, e.g. "PP".
func (s Situation) StrengthLabel() string {
	if s.Strength.Kind == FilterStrength {
		return string(s.Strength.Strength)
	}
	return ""
}

// String is a stable rendering used in logs and cache keys.
func (s Situation) String() string {
	return fmt.Sprintf("state=%s strength=%s", s.StateLabel(), s.StrengthLabel())
}

// Args accumulates positional ($n) query parameters.
type Args struct {
	values []any
}

// NewArgs starts a parameter list with the given leading values.
func NewArgs(values ...any) *Args {
	return &Args{values: values}
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// Values returns the parameters in placeholder order.
func (a *Args) Values() []any {
	return a.values
}

// Columns names the SQL expressions a compiled filter reads. Side must
// evaluate to 'HOME' or 'AWAY' for the player being attributed.
type Columns struct {
	StateKey    string
	HomeSkaters string
	AwaySkaters string
	Side        string
}

// EventColumns returns the pbp_events columns under alias e with the given
// side expression.
func EventColumns(side string) Columns {
	return Columns{
		StateKey:    "e.state_key",
		HomeSkaters: "e.home_skaters",
		AwaySkaters: "e.away_skaters",
		Side:        side,
	}
}

// Compile renders the filter as a Postgres boolean expression. Every value
// is bound through args.
func (f Filter) Compile(args *Args, cols Columns) string {
	switch f.Kind {
	case FilterNone:
		return "TRUE"
	case FilterExact:
		return compileKey(f.Key, args, cols)
	case FilterInSet:
		var parts []string
		if f.Even {
			parts = append(parts, compileKey(EvenStrengthKey, args, cols))
		}
		if len(f.Keys) > 0 {
			parts = append(parts, fmt.Sprintf("%s = ANY(%s)", cols.StateKey, args.Add(pq.Array(f.Keys))))
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	case FilterStrength:
		if _, ok := ParseStrength(string(f.Strength)); !ok {
			return "FALSE"
		}
		return compileStrength(f.Strength, args, cols)
	default:
		return "FALSE"
	}
}

func compileKey(key string, args *Args, cols Columns) string {
	p := args.Add(key)
	if key == EvenStrengthKey {
		return fmt.Sprintf("(%s = %s OR %s IS NULL OR %s = '')", cols.StateKey, p, cols.StateKey, cols.StateKey)
	}
	return fmt.Sprintf("%s = %s", cols.StateKey, p)
}

func compileStrength(s Strength, args *Args, cols Columns) string {
	pattern := args.Add(stateKeyPattern.String())
	home := fmt.Sprintf("COALESCE(%s, CASE WHEN %s ~ %s THEN split_part(%s, 'v', 1)::int END)",
		cols.HomeSkaters, cols.StateKey, pattern, cols.StateKey)
	away := fmt.Sprintf("COALESCE(%s, CASE WHEN %s ~ %s THEN split_part(%s, 'v', 2)::int END)",
		cols.AwaySkaters, cols.StateKey, pattern, cols.StateKey)

	if s == StrengthEV {
		return fmt.Sprintf("(%s = %s)", home, away)
	}

	op := ">"
	if s == StrengthSH {
		op = "<"
	}
	homeSide := args.Add(string(SideHome))
	awaySide := args.Add(string(SideAway))
	return fmt.Sprintf("(CASE WHEN %s = %s THEN %s %s %s WHEN %s = %s THEN %s %s %s ELSE FALSE END)",
		cols.Side, homeSide, home, op, away,
		cols.Side, awaySide, away, op, home)
}

// Compile renders both filters joined with AND.
func (s Situation) Compile(args *Args, cols Columns) string {
	return s.State.Compile(args, cols) + " AND " + s.Strength.Compile(args, cols)
}
