package pbp_test

import (
	"strings"
	"testing"

	"github.com/fortuna/rinkside/internal/pbp"
	. "github.com/smartystreets/goconvey/convey"
)

func keyed(key string) pbp.Event { return pbp.Event{Type: pbp.EventShot, StateKey: key} }

func counted(home, away int) pbp.Event {
	return pbp.Event{Type: pbp.EventShot, HomeSkaters: &home, AwaySkaters: &away}
}

func TestStateFilter(t *testing.T) {
	Convey("Given a 5v5 filter", t, func() {
		f := pbp.StateFilter("5v5")

		Convey("It matches 5v5, null and blank state keys identically", func() {
			So(f.Kind, ShouldEqual, pbp.FilterExact)
			So(f.Match(keyed("5v5"), pbp.SideHome), ShouldBeTrue)
			So(f.Match(keyed(""), pbp.SideHome), ShouldBeTrue)
		})

		Convey("It does not match other states", func() {
			So(f.Match(keyed("5v4"), pbp.SideHome), ShouldBeFalse)
			So(f.Match(keyed("4v4"), pbp.SideAway), ShouldBeFalse)
		})

		Convey("The token is recognized in any case", func() {
			So(pbp.StateFilter(" 5V5 "), ShouldResemble, f)
		})
	})

	Convey("Given an exact non-5v5 filter", t, func() {
		f := pbp.StateFilter("5v4")
		So(f.Match(keyed("5v4"), pbp.SideHome), ShouldBeTrue)
		So(f.Match(keyed(""), pbp.SideHome), ShouldBeFalse)
		So(f.Match(keyed("5V4"), pbp.SideHome), ShouldBeFalse)
	})

	Convey("Given no usable tokens", t, func() {
		for _, f := range []pbp.Filter{pbp.StateFilter(), pbp.StateFilter("", "  ")} {
			So(f.Kind, ShouldEqual, pbp.FilterNone)
			So(f.Match(keyed("3v3"), pbp.SideHome), ShouldBeTrue)
		}
	})

	Convey("Given a set of tokens", t, func() {
		f := pbp.StateFilter("5v4", "5v5", "4v5", "5v4", "5V5")

		Convey("Duplicates collapse and 5v5 keeps its blank rule", func() {
			So(f.Kind, ShouldEqual, pbp.FilterInSet)
			So(f.Keys, ShouldResemble, []string{"5v4", "4v5"})
			So(f.Even, ShouldBeTrue)
			So(f.Match(keyed(""), pbp.SideHome), ShouldBeTrue)
			So(f.Match(keyed("4v5"), pbp.SideHome), ShouldBeTrue)
			So(f.Match(keyed("4v4"), pbp.SideHome), ShouldBeFalse)
		})
	})
}

func TestStrengthFilter(t *testing.T) {
	Convey("Given a home power play recorded as skater counts", t, func() {
		ev := counted(5, 4)

		So(pbp.StrengthFilter(pbp.StrengthPP).Match(ev, pbp.SideHome), ShouldBeTrue)
		So(pbp.StrengthFilter(pbp.StrengthPP).Match(ev, pbp.SideAway), ShouldBeFalse)
		So(pbp.StrengthFilter(pbp.StrengthSH).Match(ev, pbp.SideAway), ShouldBeTrue)
		So(pbp.StrengthFilter(pbp.StrengthEV).Match(ev, pbp.SideHome), ShouldBeFalse)
	})

	Convey("Given only a state key the counts are parsed from it", t, func() {
		ev := keyed("4v5")
		So(pbp.StrengthFilter(pbp.StrengthPP).Match(ev, pbp.SideAway), ShouldBeTrue)
		So(pbp.StrengthFilter(pbp.StrengthSH).Match(ev, pbp.SideHome), ShouldBeTrue)
		So(pbp.StrengthFilter(pbp.StrengthEV).Match(keyed("3v3"), pbp.SideHome), ShouldBeTrue)
	})

	Convey("Given stored counts and a conflicting key the stored counts win", t, func() {
		ev := counted(5, 5)
		ev.StateKey = "5v4"
		So(pbp.StrengthFilter(pbp.StrengthEV).Match(ev, pbp.SideHome), ShouldBeTrue)
	})

	Convey("Given no usable counts nothing matches", t, func() {
		for _, s := range []pbp.Strength{pbp.StrengthEV, pbp.StrengthPP, pbp.StrengthSH} {
			So(pbp.StrengthFilter(s).Match(keyed("PP"), pbp.SideHome), ShouldBeFalse)
			So(pbp.StrengthFilter(s).Match(keyed(""), pbp.SideHome), ShouldBeFalse)
		}
	})

	Convey("Given an unknown side only EV can match", t, func() {
		So(pbp.StrengthFilter(pbp.StrengthEV).Match(counted(4, 4), ""), ShouldBeTrue)
		So(pbp.StrengthFilter(pbp.StrengthPP).Match(counted(5, 4), ""), ShouldBeFalse)
	})
}

func TestSituation(t *testing.T) {
	Convey("Given request-style inputs", t, func() {
		sit := pbp.NewSituation([]string{"5v5,5v4"}, "pp")

		Convey("Both filters are parsed and labelled", func() {
			So(sit.State.Kind, ShouldEqual, pbp.FilterInSet)
			So(sit.Strength.Strength, ShouldEqual, pbp.StrengthPP)
			So(sit.StateLabel(), ShouldEqual, "5v4,5v5")
			So(sit.StrengthLabel(), ShouldEqual, "PP")
		})

		Convey("An event must pass both", func() {
			So(sit.Match(keyed("5v4"), pbp.SideHome), ShouldBeTrue)
			So(sit.Match(keyed("5v4"), pbp.SideAway), ShouldBeFalse)
			So(sit.Match(keyed("5v5"), pbp.SideHome), ShouldBeFalse)
		})
	})

	Convey("Given an unknown strength it is ignored", t, func() {
		sit := pbp.NewSituation(nil, "4on4")
		So(sit.Strength.Kind, ShouldEqual, pbp.FilterNone)
		So(sit.Match(keyed("3v3"), pbp.SideHome), ShouldBeTrue)
	})
}

func TestCompile(t *testing.T) {
	cols := pbp.EventColumns("oi.side")

	Convey("Given a 5v5 filter after a leading game parameter", t, func() {
		args := pbp.NewArgs(int64(7))
		sql := pbp.StateFilter("5v5").Compile(args, cols)

		So(sql, ShouldEqual, "(e.state_key = $2 OR e.state_key IS NULL OR e.state_key = '')")
		So(args.Values(), ShouldResemble, []any{int64(7), "5v5"})
	})

	Convey("Given an exact key", t, func() {
		args := pbp.NewArgs()
		So(pbp.StateFilter("5v4").Compile(args, cols), ShouldEqual, "e.state_key = $1")
		So(args.Values(), ShouldResemble, []any{"5v4"})
	})

	Convey("Given a set with 5v5", t, func() {
		args := pbp.NewArgs()
		sql := pbp.StateFilter("5v5", "5v4", "4v5").Compile(args, cols)
		So(sql, ShouldEqual, "((e.state_key = $1 OR e.state_key IS NULL OR e.state_key = '') OR e.state_key = ANY($2))")
		So(args.Values(), ShouldHaveLength, 2)
	})

	Convey("Given no filter", t, func() {
		args := pbp.NewArgs()
		So(pbp.NoFilter().Compile(args, cols), ShouldEqual, "TRUE")
		So(args.Values(), ShouldBeEmpty)
	})

	Convey("Given a power-play filter", t, func() {
		args := pbp.NewArgs()
		sql := pbp.StrengthFilter(pbp.StrengthPP).Compile(args, cols)

		So(sql, ShouldStartWith, "(CASE WHEN oi.side = $2 THEN")
		So(sql, ShouldContainSubstring, "COALESCE(e.home_skaters,")
		So(sql, ShouldContainSubstring, " > ")
		So(args.Values(), ShouldResemble, []any{`^([0-9]+)v([0-9]+)$`, "HOME", "AWAY"})
	})

	Convey("Given an even-strength filter the side is not referenced", t, func() {
		args := pbp.NewArgs()
		sql := pbp.StrengthFilter(pbp.StrengthEV).Compile(args, cols)
		So(sql, ShouldNotContainSubstring, "oi.side")
		So(args.Values(), ShouldHaveLength, 1)
	})

	Convey("Given hostile input it is bound, never inlined", t, func() {
		args := pbp.NewArgs()
		sql := pbp.NewSituation([]string{"5v4'; DROP TABLE pbp_events;--"}, "").Compile(args, cols)
		So(strings.Contains(sql, "DROP"), ShouldBeFalse)
		So(sql, ShouldEqual, "e.state_key = $1 AND TRUE")
	})

	Convey("Given a malformed strength filter it compiles to FALSE", t, func() {
		f := pbp.Filter{Kind: pbp.FilterStrength, Strength: "XX"}
		So(f.Compile(pbp.NewArgs(), cols), ShouldEqual, "FALSE")
	})
}
