package store

import (
	"fmt"
	"strings"
	"time"
)

// GameCode is the human form of a game reference: YYYYMMDD-AWAY-HOME.
type GameCode struct {
	Date time.Time
	Away string
	Home string
}

// ParseGameCode parses a YYYYMMDD-AWAY-HOME code. Team abbreviations are
// upper-cased.
func ParseGameCode(code string) (GameCode, error) {
	parts := strings.Split(strings.TrimSpace(code), "-")
	if len(parts) != 3 {
		return GameCode{}, fmt.Errorf("game code %q: want YYYYMMDD-AWAY-HOME", code)
	}
	date, err := time.Parse("20060102", parts[0])
	if err != nil {
		return GameCode{}, fmt.Errorf("game code %q: bad date: %w", code, err)
	}
	away := strings.ToUpper(strings.TrimSpace(parts[1]))
	home := strings.ToUpper(strings.TrimSpace(parts[2]))
	if away == "" || home == "" {
		return GameCode{}, fmt.Errorf("game code %q: missing team", code)
	}
	return GameCode{Date: date, Away: away, Home: home}, nil
}

// String formats the code back to YYYYMMDD-AWAY-HOME.
func (c GameCode) String() string {
	return c.Date.Format("20060102") + "-" + c.Away + "-" + c.Home
}
