package advstats_test

import (
	"testing"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/pbp"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSkatersCorsi(t *testing.T) {
	Convey("Given game-wide on-ice rows", t, func() {
		a, b := shot("CGY", true), shot("SJS", true)
		var rows []pbp.OnIceRow
		rows = append(rows, onIce(10, pbp.SideHome, a, b)...)
		rows = append(rows, onIce(20, pbp.SideAway, a, b, b)...)
		rows = append(rows, onIce(0, pbp.SideAway, a)...)

		out := advstats.SkatersCorsi(rows, teams, false)

		Convey("There is one row per valid skater in first-seen order", func() {
			So(out, ShouldHaveLength, 2)
			So(out[0].PlayerID, ShouldEqual, 10)
			So(out[1].PlayerID, ShouldEqual, 20)
		})

		Convey("Each row is attributed from the skater's side", func() {
			So(out[0].CF, ShouldEqual, 1)
			So(out[0].CA, ShouldEqual, 1)
			So(out[1].CF, ShouldEqual, 2)
			So(out[1].CA, ShouldEqual, 1)
			So(*out[1].CFPct, ShouldEqual, 66.7)
		})
	})

	Convey("Given no rows the listing is empty", t, func() {
		So(advstats.SkatersCorsi(nil, teams, true), ShouldBeEmpty)
	})
}

func TestSkatersXG(t *testing.T) {
	Convey("Given feed xG on every attempt", t, func() {
		a, b := shot("CGY", true), shot("SJS", true)
		a.FeedXG, b.FeedXG = f64(0.3), f64(0.1)
		rows := append(onIce(10, pbp.SideHome, a, b), onIce(20, pbp.SideAway, a)...)

		out := advstats.SkatersXG(rows, teams, pbp.DefaultModel(), false)
		So(out, ShouldHaveLength, 2)
		So(out[0].XGF, ShouldEqual, 0.3)
		So(out[0].XGA, ShouldEqual, 0.1)
		So(out[0].XGTotal, ShouldEqual, 0.4)
		So(*out[0].XGFPct, ShouldEqual, 75.0)
		So(out[1].XGF, ShouldEqual, 0)
		So(*out[1].XGFPct, ShouldEqual, 0.0)

		Convey("The quadrant normalizes by each skater's ice time", func() {
			pts := advstats.Quadrant(out, func(pid int64) int {
				if pid == 10 {
					return 1800
				}
				return 0
			})
			So(pts, ShouldHaveLength, 1)
			So(*pts[0].XGF60, ShouldEqual, 0.6)
			So(*pts[0].XGA60, ShouldEqual, 0.2)
		})
	})
}

func TestSlices(t *testing.T) {
	Convey("Given slice tokens", t, func() {
		So(advstats.ParseSlices(nil), ShouldResemble, advstats.DefaultSlices())
		So(advstats.ParseSlices([]string{"5v5,PP", "bogus", " pp "}), ShouldResemble, []advstats.Slice{advstats.Slice5v5, advstats.SlicePP})
		So(advstats.ParseSlices([]string{"all", "ev"}), ShouldResemble, []advstats.Slice{advstats.SliceAll, advstats.SliceEV})
	})

	Convey("Given each slice its situation and denominator follow", t, func() {
		So(advstats.Slice5v5.Situation().State.Kind, ShouldEqual, pbp.FilterExact)
		So(advstats.Slice5v5.Strength(), ShouldEqual, "")
		So(advstats.SlicePP.Strength(), ShouldEqual, "PP")
		So(advstats.SliceSH.Situation().Strength.Strength, ShouldEqual, pbp.StrengthSH)
		So(advstats.SliceAll.Situation().Match(pbp.Event{StateKey: "3v3"}, pbp.SideHome), ShouldBeTrue)

		So(string(advstats.Slice5v5.TOIBucket()), ShouldEqual, "ev")
		So(string(advstats.SliceEV.TOIBucket()), ShouldEqual, "ev")
		So(string(advstats.SlicePP.TOIBucket()), ShouldEqual, "pp")
		So(string(advstats.SliceSH.TOIBucket()), ShouldEqual, "sh")
		So(string(advstats.SliceAll.TOIBucket()), ShouldEqual, "total")
	})

	Convey("Given lineup entries goalies are recognized", t, func() {
		So(advstats.IsGoalie("Goalie", "C"), ShouldBeTrue)
		So(advstats.IsGoalie("goalie-backup", ""), ShouldBeTrue)
		So(advstats.IsGoalie("ForwardLine1", "g"), ShouldBeTrue)
		So(advstats.IsGoalie("DefensePair1", "D"), ShouldBeFalse)
	})
}

func TestRowColumns(t *testing.T) {
	Convey("Given the stored column set", t, func() {
		names := advstats.ColumnNames()

		Convey("Names are unique and include the upsert key", func() {
			seen := map[string]bool{}
			for _, n := range names {
				So(seen[n], ShouldBeFalse)
				seen[n] = true
			}
			for _, k := range advstats.KeyColumns {
				So(seen[k], ShouldBeTrue)
			}
		})

		Convey("A row yields one plain value per column with nulls for undefined metrics", func() {
			row := advstats.PlayerGameRow{GameID: 5, PlayerID: 10, Slice: advstats.SlicePP, CalcVersion: "v1"}
			vals := row.Values()
			So(vals, ShouldHaveLength, len(names))

			byName := map[string]any{}
			for i, n := range names {
				byName[n] = vals[i]
			}
			So(byName["game_id"], ShouldEqual, int64(5))
			So(byName["state_key"], ShouldEqual, "pp")
			So(byName["cf_pct"], ShouldBeNil)
			So(byName["war_total"], ShouldBeNil)
			So(byName["game_date"], ShouldBeNil)
			So(byName["cf"], ShouldEqual, int64(0))
		})
	})
}
