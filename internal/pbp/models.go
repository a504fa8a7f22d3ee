// Package pbp models normalized play-by-play events and the per-event rules
// derived statistics are built on: rink geometry, shot classification,
// expected goals and situational filtering.
package pbp

import "strings"

// EventType is the normalized play-by-play event kind.
type EventType string

const (
	EventShot     EventType = "SHOT"
	EventGoal     EventType = "GOAL"
	EventFaceoff  EventType = "FACEOFF"
	EventPenalty  EventType = "PENALTY"
	EventHit      EventType = "HIT"
	EventGiveaway EventType = "GIVEAWAY"
	EventTakeaway EventType = "TAKEAWAY"
	EventChange   EventType = "CHANGE"
	EventOther    EventType = "OTHER"
)

// ParseEventType maps a stored event type onto the known set. Anything
// unrecognized is EventOther.
func ParseEventType(s string) EventType {
	switch t := EventType(strings.ToUpper(strings.TrimSpace(s))); t {
	case EventShot, EventGoal, EventFaceoff, EventPenalty, EventHit,
		EventGiveaway, EventTakeaway, EventChange:
		return t
	default:
		return EventOther
	}
}

// Side is the home/away side a player was on for an event.
type Side string

const (
	SideHome Side = "HOME"
	SideAway Side = "AWAY"
)

// ParseSide accepts HOME/AWAY (any case) and the H/A shorthand.
func ParseSide(s string) Side {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HOME", "H":
		return SideHome
	case "AWAY", "A":
		return SideAway
	default:
		return ""
	}
}

// Opposite returns the other side, or "" for an unknown side.
func (s Side) Opposite() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	default:
		return ""
	}
}

// Role is the part a player played in an event.
type Role string

const (
	RoleShooter       Role = "SHOOTER"
	RoleScorer        Role = "SCORER"
	RoleAssist1       Role = "ASSIST1"
	RoleAssist2       Role = "ASSIST2"
	RoleGoalie        Role = "GOALIE"
	RoleBlocker       Role = "BLOCKER"
	RolePenalized     Role = "PENALIZED"
	RoleFaceoffWinner Role = "FACEOFF_WINNER"
	RoleFaceoffLoser  Role = "FACEOFF_LOSER"
	RoleHitter        Role = "HITTER"
	RoleHittee        Role = "HITTEE"
	RoleGiveaway      Role = "GIVEAWAY"
	RoleTakeaway      Role = "TAKEAWAY"
	RoleChangeOn      Role = "CHANGE_ON"
	RoleChangeOff     Role = "CHANGE_OFF"
)

// Event is one play-by-play occurrence. Nullable feed columns are pointers;
// a null state key is represented as "".
type Event struct {
	EventID        int64     `json:"event_id"`
	GameID         int64     `json:"game_id"`
	Sequence       int       `json:"seq"`
	Period         int       `json:"period"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	Type           EventType `json:"event_type"`
	TeamAbbr       string    `json:"team_abbr"`

	XRaw *float64 `json:"x_raw,omitempty"`
	YRaw *float64 `json:"y_raw,omitempty"`

	HomeSkaters *int   `json:"home_skaters,omitempty"`
	AwaySkaters *int   `json:"away_skaters,omitempty"`
	StateKey    string `json:"state_key"`
	Strength    string `json:"strength,omitempty"`

	OnGoal   bool   `json:"is_on_goal"`
	Missed   bool   `json:"is_missed"`
	Blocked  bool   `json:"is_blocked"`
	EmptyNet bool   `json:"is_empty_net"`
	ShotType string `json:"shot_type,omitempty"`

	FaceoffWinner Side `json:"faceoff_winner_side,omitempty"`

	PenaltySeverity string `json:"penalty_severity,omitempty"`
	PenaltyMinutes  int    `json:"penalty_minutes,omitempty"`
	PenaltyType     string `json:"penalty_type,omitempty"`

	// ShooterID and ScorerID are denormalized actor references; 0 means unset.
	ShooterID int64 `json:"shooter_id,omitempty"`
	ScorerID  int64 `json:"scorer_id,omitempty"`

	// FeedXG is the feed-supplied expected goal value, when the store has one.
	FeedXG *float64 `json:"feed_xg,omitempty"`
}

// OnIceRow pairs an event with one skater who was on the ice for it.
type OnIceRow struct {
	PlayerID int64 `json:"player_id"`
	Side     Side  `json:"side"`
	Event    Event `json:"event"`
}

// GameTeams identifies the home and away teams of a game.
type GameTeams struct {
	GameID int64  `json:"game_id"`
	Home   string `json:"home_team_abbr"`
	Away   string `json:"away_team_abbr"`
}

// TeamFor returns the abbreviation of the team playing on side.
func (g GameTeams) TeamFor(side Side) string {
	switch side {
	case SideHome:
		return g.Home
	case SideAway:
		return g.Away
	default:
		return ""
	}
}

// SideOf returns the side team is playing on, or "" if it is neither.
func (g GameTeams) SideOf(team string) Side {
	switch {
	case sameTeam(team, g.Home):
		return SideHome
	case sameTeam(team, g.Away):
		return SideAway
	default:
		return ""
	}
}

// IsFor reports whether ev was made by the team of a player on side.
func (g GameTeams) IsFor(ev Event, side Side) bool {
	return sameTeam(ev.TeamAbbr, g.TeamFor(side))
}

// IsAgainst reports whether ev was made by the opponent of a player on side.
func (g GameTeams) IsAgainst(ev Event, side Side) bool {
	return sameTeam(ev.TeamAbbr, g.TeamFor(side.Opposite()))
}

func sameTeam(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
