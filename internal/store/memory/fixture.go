package memory

import (
	"strconv"
	"time"

	"github.com/fortuna/rinkside/internal/pbp"
	"github.com/fortuna/rinkside/internal/store"
	"github.com/fortuna/rinkside/internal/toi"
)

// Sample game identifiers. CGY hosts SJS; 30 and 40 are the goalies.
const (
	SampleGameID   int64 = 1001
	SampleGameCode       = "20250105-SJS-CGY"

	SampleHomeCenter  int64 = 10
	SampleHomeDefense int64 = 11
	SampleHomeGoalie  int64 = 30
	SampleAwayWing    int64 = 20
	SampleAwayDefense int64 = 21
	SampleAwayGoalie  int64 = 40
)

// SampleDate is the calendar date of the sample game.
var SampleDate = time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)

// Seed loads a small deterministic game into s:
//
//	1 SHOT CGY by 10, on goal, 5v5
//	2 GOAL CGY by 10, 5v5
//	3 SHOT SJS by 20, blocked, 5v5
//	4 SHOT SJS by 21, on goal, 5v5
//	5 PENALTY SJS on 20, 2 min, 5v5
//	6 SHOT CGY by 11, on goal, 5v4 (21 off)
//	7 GOAL SJS by 20, 5v4 (21 off)
//	8 PENALTY CGY on 10, 2 min, 5v5
//	9 FACEOFF won by CGY
func Seed(s *Store) {
	s.AddGame(store.Game{
		GameID:       SampleGameID,
		GameDate:     SampleDate,
		Season:       "2024-25",
		GameCode:     SampleGameCode,
		HomeTeamAbbr: "CGY",
		AwayTeamAbbr: "SJS",
	})

	s.AddLineup(
		store.LineupEntry{GameID: SampleGameID, PlayerID: SampleHomeCenter, TeamAbbr: "CGY", PlayerPosition: "C", LineupPosition: "ForwardLine1"},
		store.LineupEntry{GameID: SampleGameID, PlayerID: SampleHomeDefense, TeamAbbr: "CGY", PlayerPosition: "D", LineupPosition: "DefensePair1"},
		store.LineupEntry{GameID: SampleGameID, PlayerID: SampleHomeGoalie, TeamAbbr: "CGY", PlayerPosition: "G", LineupPosition: "Goalie"},
		store.LineupEntry{GameID: SampleGameID, PlayerID: SampleAwayWing, TeamAbbr: "SJS", PlayerPosition: "LW", LineupPosition: "ForwardLine1"},
		store.LineupEntry{GameID: SampleGameID, PlayerID: SampleAwayDefense, TeamAbbr: "SJS", PlayerPosition: "D", LineupPosition: "DefensePair1"},
		store.LineupEntry{GameID: SampleGameID, PlayerID: SampleAwayGoalie, TeamAbbr: "SJS", PlayerPosition: "G", LineupPosition: "GoalieStarter"},
	)

	full := []int64{SampleAwayWing, SampleAwayDefense}
	short := []int64{SampleAwayWing}

	add := func(ev pbp.Event, away []int64) {
		ev.GameID = SampleGameID
		s.AddEvent(ev)
		s.AddOnIce(ev.EventID, SampleHomeCenter, pbp.SideHome, false)
		s.AddOnIce(ev.EventID, SampleHomeDefense, pbp.SideHome, false)
		s.AddOnIce(ev.EventID, SampleHomeGoalie, pbp.SideHome, true)
		for _, pid := range away {
			s.AddOnIce(ev.EventID, pid, pbp.SideAway, false)
		}
		s.AddOnIce(ev.EventID, SampleAwayGoalie, pbp.SideAway, true)
	}

	add(shotAt(1, "CGY", 10, 150, SampleHomeCenter, 5, 5, func(e *pbp.Event) { e.OnGoal = true }), full)
	add(goalAt(2, "CGY", 20, 140, SampleHomeCenter, 5, 5), full)
	add(shotAt(3, "SJS", 690, 150, SampleAwayWing, 5, 5, func(e *pbp.Event) { e.Blocked = true }), full)
	add(shotAt(4, "SJS", 600, 150, SampleAwayDefense, 5, 5, func(e *pbp.Event) { e.OnGoal = true }), full)
	add(penalty(5, "SJS", 5, 5), full)
	s.AddActor(5, SampleAwayWing, pbp.RolePenalized)
	add(shotAt(6, "CGY", 50, 150, SampleHomeDefense, 5, 4, func(e *pbp.Event) { e.OnGoal = true }), short)
	add(goalAt(7, "SJS", 300, 100, SampleAwayWing, 5, 4), short)
	add(penalty(8, "CGY", 5, 5), full)
	s.AddActor(8, SampleHomeCenter, pbp.RolePenalized)
	add(pbp.Event{EventID: 9, Sequence: 9, Type: pbp.EventFaceoff, TeamAbbr: "CGY", StateKey: "5v5", FaceoffWinner: pbp.SideHome}, full)

	s.SetTOI(SampleGameID, SampleHomeCenter, toi.Raw{Total: 1200, EV: 1000, PP: 150, SH: 50})
	s.SetTOI(SampleGameID, SampleHomeDefense, toi.Raw{Total: 1100, EV: 900, PP: 200})
	s.SetTOI(SampleGameID, SampleAwayWing, toi.Raw{Total: 1300, EV: 1000, SH: 300})
	s.SetTOI(SampleGameID, SampleAwayDefense, toi.Raw{Total: 900})
}

func shotAt(id int64, team string, x, y float64, shooter int64, home, away int, opt func(*pbp.Event)) pbp.Event {
	ev := pbp.Event{
		EventID:     id,
		Sequence:    int(id),
		Type:        pbp.EventShot,
		TeamAbbr:    team,
		XRaw:        &x,
		YRaw:        &y,
		HomeSkaters: &home,
		AwaySkaters: &away,
		StateKey:    stateKey(home, away),
		ShooterID:   shooter,
	}
	opt(&ev)
	if !ev.OnGoal && !ev.Blocked {
		ev.Missed = true
	}
	return ev
}

func goalAt(id int64, team string, x, y float64, scorer int64, home, away int) pbp.Event {
	return pbp.Event{
		EventID:     id,
		Sequence:    int(id),
		Type:        pbp.EventGoal,
		TeamAbbr:    team,
		XRaw:        &x,
		YRaw:        &y,
		HomeSkaters: &home,
		AwaySkaters: &away,
		StateKey:    stateKey(home, away),
		OnGoal:      true,
		ShooterID:   scorer,
		ScorerID:    scorer,
	}
}

func penalty(id int64, team string, home, away int) pbp.Event {
	return pbp.Event{
		EventID:         id,
		Sequence:        int(id),
		Type:            pbp.EventPenalty,
		TeamAbbr:        team,
		HomeSkaters:     &home,
		AwaySkaters:     &away,
		StateKey:        stateKey(home, away),
		PenaltySeverity: "MINOR",
		PenaltyMinutes:  2,
		PenaltyType:     "TRIPPING",
	}
}

func stateKey(home, away int) string {
	return strconv.Itoa(home) + "v" + strconv.Itoa(away)
}
