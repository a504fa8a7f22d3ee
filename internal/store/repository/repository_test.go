package repository_test

import (
	"testing"

	"github.com/fortuna/rinkside/internal/store/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEventSelectList(t *testing.T) {
	Convey("Given no feed column the xG slot is a typed null", t, func() {
		cols := repository.EventSelectList("")
		So(cols, ShouldEndWith, "NULL::float8")
		So(cols, ShouldStartWith, "e.event_id, e.game_id")
	})

	Convey("Given a detected feed column it is quoted and read through text", t, func() {
		expr := repository.FeedXGExpr("expectedGoals")
		So(expr, ShouldStartWith, `CASE WHEN TRIM(e."expectedGoals"::text) ~ '^`)
		So(expr, ShouldEndWith, `THEN TRIM(e."expectedGoals"::text)::float8 END`)
		So(repository.EventSelectList("expectedGoals"), ShouldEndWith, expr)
		So(repository.FeedXGExpr(`x"g`), ShouldContainSubstring, `e."x""g"::text`)
	})

	Convey("Given a blank or non-numeric feed value", t, func() {
		expr := repository.FeedXGExpr("xg")

		Convey("The value is only cast after the numeric pattern matched", func() {
			So(expr, ShouldNotContainSubstring, `e."xg"::float8`)
			So(expr, ShouldNotContainSubstring, "ELSE")
			So(expr, ShouldContainSubstring, `([0-9]+\.?[0-9]*|\.[0-9]+)`)
		})
	})

	Convey("Given the feed column lookup", t, func() {
		So(repository.FeedXGProbeSQL, ShouldContainSubstring, "table_schema = current_schema()")
		So(repository.FeedXGProbeSQL, ShouldContainSubstring, "table_name = 'pbp_events'")
		So(repository.FeedXGProbeSQL, ShouldContainSubstring, "column_name = ANY($1)")
	})

	Convey("Given the probe order", t, func() {
		So(repository.FeedXGColumns[0], ShouldEqual, "xg")
		So(repository.FeedXGColumns, ShouldHaveLength, 7)
	})
}
