package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/pbp"
	"github.com/fortuna/rinkside/internal/store/memory"
	. "github.com/smartystreets/goconvey/convey"
)

func eventIDs(events []pbp.Event) []int64 {
	ids := make([]int64, len(events))
	for i, ev := range events {
		ids[i] = ev.EventID
	}
	return ids
}

func TestReads(t *testing.T) {
	ctx := context.Background()
	all := pbp.NewSituation(nil, "")

	Convey("Given the sample game", t, func() {
		s := memory.New()
		memory.Seed(s)

		Convey("Teams resolve and unknown games are absent", func() {
			teams, ok, err := s.GameTeams(ctx, memory.SampleGameID)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(teams.Home, ShouldEqual, "CGY")

			_, ok, err = s.GameTeams(ctx, 999)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("On-ice rows exclude goalies and non-shot events", func() {
			rows, err := s.OnIceEvents(ctx, memory.SampleGameID, 0, all)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 30)
			for _, r := range rows {
				So(r.PlayerID, ShouldNotEqual, memory.SampleHomeGoalie)
				So(r.PlayerID, ShouldNotEqual, memory.SampleAwayGoalie)
				So(r.Event.Type, ShouldNotEqual, pbp.EventFaceoff)
			}
		})

		Convey("On-ice rows honor the situation relative to each skater", func() {
			even, err := s.OnIceEvents(ctx, memory.SampleGameID, memory.SampleHomeCenter, pbp.NewSituation([]string{"5v5"}, ""))
			So(err, ShouldBeNil)
			So(even, ShouldHaveLength, 6)

			pp, _ := s.OnIceEvents(ctx, memory.SampleGameID, memory.SampleHomeCenter, pbp.NewSituation(nil, "PP"))
			So(pp, ShouldHaveLength, 2)

			sh, _ := s.OnIceEvents(ctx, memory.SampleGameID, memory.SampleAwayWing, pbp.NewSituation(nil, "SH"))
			So(sh, ShouldHaveLength, 2)

			none, _ := s.OnIceEvents(ctx, memory.SampleGameID, memory.SampleAwayDefense, pbp.NewSituation(nil, "PP"))
			So(none, ShouldBeEmpty)
		})

		Convey("Shot events use the acting team's side", func() {
			own, err := s.PlayerShotEvents(ctx, memory.SampleGameID, memory.SampleHomeCenter, all)
			So(err, ShouldBeNil)
			So(eventIDs(own), ShouldResemble, []int64{1, 2})

			sh, _ := s.PlayerShotEvents(ctx, memory.SampleGameID, memory.SampleAwayWing, pbp.NewSituation(nil, "SH"))
			So(eventIDs(sh), ShouldResemble, []int64{7})
		})

		Convey("Penalties taken follow the penalized actor", func() {
			taken, err := s.PenaltiesTaken(ctx, memory.SampleGameID, memory.SampleHomeCenter, all)
			So(err, ShouldBeNil)
			So(eventIDs(taken), ShouldResemble, []int64{8})

			none, _ := s.PenaltiesTaken(ctx, memory.SampleGameID, memory.SampleHomeDefense, all)
			So(none, ShouldBeEmpty)
		})

		Convey("Invalid identifiers read nothing", func() {
			rows, err := s.OnIceEvents(ctx, 0, 0, all)
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
			events, err := s.PlayerShotEvents(ctx, memory.SampleGameID, -1, all)
			So(err, ShouldBeNil)
			So(events, ShouldBeEmpty)
		})

		Convey("The catalog lists games, skaters and codes", func() {
			ids, err := s.GameIDsForDate(ctx, memory.SampleDate.Add(15*time.Hour))
			So(err, ShouldBeNil)
			So(ids, ShouldResemble, []int64{memory.SampleGameID})

			ids, _ = s.GameIDsForDate(ctx, memory.SampleDate.AddDate(0, 0, 1))
			So(ids, ShouldBeEmpty)

			sk, err := s.Skaters(ctx, memory.SampleGameID)
			So(err, ShouldBeNil)
			So(sk, ShouldHaveLength, 4)
			So(sk[0].PlayerID, ShouldEqual, memory.SampleHomeCenter)

			id, ok, err := s.ResolveGameCode(ctx, "20250105-sjs-cgy")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, memory.SampleGameID)

			_, ok, _ = s.ResolveGameCode(ctx, "20250106-SJS-CGY")
			So(ok, ShouldBeFalse)

			_, _, err = s.ResolveGameCode(ctx, "bogus")
			So(err, ShouldNotBeNil)
		})

		Convey("Ice time is served per player and per game", func() {
			raw, ok, err := s.PlayerTOI(ctx, memory.SampleGameID, memory.SampleHomeCenter)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(raw.Total, ShouldEqual, 1200)

			all, err := s.GameTOI(ctx, memory.SampleGameID)
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 4)
		})

		Convey("Injected failures surface until cleared", func() {
			boom := errors.New("boom")
			s.Fail(memory.OpOnIceEvents, boom)
			_, err := s.OnIceEvents(ctx, memory.SampleGameID, 0, all)
			So(err, ShouldEqual, boom)

			s.Fail(memory.OpOnIceEvents, nil)
			_, err = s.OnIceEvents(ctx, memory.SampleGameID, 0, all)
			So(err, ShouldBeNil)
		})
	})
}

func TestUpsertRows(t *testing.T) {
	ctx := context.Background()

	Convey("Given rows written twice under the same key", t, func() {
		s := memory.New()
		row := advstats.PlayerGameRow{GameID: 1, PlayerID: 10, Slice: advstats.Slice5v5, CalcVersion: "v1", TOIUsed: 100}
		So(s.UpsertRows(ctx, []advstats.PlayerGameRow{row}), ShouldBeNil)

		row.TOIUsed = 200
		other := row
		other.Slice = advstats.SlicePP
		So(s.UpsertRows(ctx, []advstats.PlayerGameRow{row, other}), ShouldBeNil)

		rows := s.Rows()
		So(rows, ShouldHaveLength, 2)
		So(rows[0].TOIUsed, ShouldEqual, 200)
		So(rows[1].Slice, ShouldEqual, advstats.SlicePP)
	})
}
