package toi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fortuna/rinkside/internal/toi"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitize(t *testing.T) {
	tol := toi.DefaultTolerance()

	Convey("Given a missing total with even-strength time", t, func() {
		b := toi.Sanitize(toi.Raw{Total: 0, EV: 600}, tol)

		Convey("The total is rebuilt from the parts and they reconcile", func() {
			So(b.Total, ShouldEqual, 600)
			So(b.EV, ShouldEqual, 600)
			So(b.PartsSane, ShouldBeTrue)
		})
	})

	Convey("Given negative values they clamp to zero", t, func() {
		b := toi.Sanitize(toi.Raw{Total: 900, EV: -10, PP: 120, SH: -5}, tol)
		So(b.EV, ShouldEqual, 0)
		So(b.SH, ShouldEqual, 0)
		So(b.Total, ShouldEqual, 900)
		So(b.PartsSane, ShouldBeFalse)
	})

	Convey("Given parts within tolerance of the total", t, func() {
		So(toi.Sanitize(toi.Raw{Total: 1000, EV: 800, PP: 100, SH: 60}, tol).PartsSane, ShouldBeTrue)
		So(toi.Sanitize(toi.Raw{Total: 1000, EV: 800, PP: 100, SH: 200}, tol).PartsSane, ShouldBeTrue)
		So(toi.Sanitize(toi.Raw{Total: 1000, EV: 800, PP: 100, SH: 201}, tol).PartsSane, ShouldBeFalse)
	})

	Convey("Given a short shift the 30 second floor applies", t, func() {
		So(toi.Sanitize(toi.Raw{Total: 100, EV: 130}, tol).PartsSane, ShouldBeTrue)
		So(toi.Sanitize(toi.Raw{Total: 100, EV: 131}, tol).PartsSane, ShouldBeFalse)
	})

	Convey("Given an empty row nothing is sane", t, func() {
		So(toi.Sanitize(toi.Raw{}, tol), ShouldResemble, toi.Buckets{})
	})
}

func TestBucketFor(t *testing.T) {
	Convey("Given situational filters", t, func() {
		So(toi.BucketFor("", ""), ShouldEqual, toi.BucketTotal)
		So(toi.BucketFor("all", ""), ShouldEqual, toi.BucketTotal)
		So(toi.BucketFor("5v5", ""), ShouldEqual, toi.BucketEV)
		So(toi.BucketFor("EV", ""), ShouldEqual, toi.BucketEV)
		So(toi.BucketFor("pp", ""), ShouldEqual, toi.BucketPP)
		So(toi.BucketFor("sh", ""), ShouldEqual, toi.BucketSH)
		So(toi.BucketFor("4v4", ""), ShouldEqual, toi.BucketEV)
		So(toi.BucketFor("5v4", ""), ShouldEqual, toi.BucketTotal)
		So(toi.BucketFor("5v5", "pp"), ShouldEqual, toi.BucketPP)
	})
}

func TestPick(t *testing.T) {
	Convey("Given sanitized buckets", t, func() {
		b := toi.Buckets{Total: 1200, EV: 900, PP: 200, SH: 100}

		So(toi.Pick(b, toi.BucketEV, -1), ShouldEqual, 900)
		So(toi.Pick(b, toi.BucketPP, -1), ShouldEqual, 200)
		So(toi.Pick(b, toi.BucketSH, -1), ShouldEqual, 100)
		So(toi.Pick(b, toi.BucketTotal, -1), ShouldEqual, 1200)

		Convey("A zero EV bucket is rebuilt from the total", func() {
			b.EV = 0
			So(toi.Pick(b, toi.BucketEV, -1), ShouldEqual, 900)
		})

		Convey("An empty bucket returns the default", func() {
			b.PP = 0
			So(toi.Pick(b, toi.BucketPP, 42), ShouldEqual, 42)
		})

		Convey("An implausible value is discarded", func() {
			b.Total = toi.MaxSeconds + 1
			So(toi.Pick(b, toi.BucketTotal, 0), ShouldEqual, 0)
		})
	})
}

type fakeSource struct {
	rows        map[int64]map[int64]toi.Raw
	err         error
	playerCalls int
	gameCalls   int
}

func (f *fakeSource) PlayerTOI(_ context.Context, gameID, playerID int64) (toi.Raw, bool, error) {
	f.playerCalls++
	if f.err != nil {
		return toi.Raw{}, false, f.err
	}
	r, ok := f.rows[gameID][playerID]
	return r, ok, nil
}

func (f *fakeSource) GameTOI(_ context.Context, gameID int64) (map[int64]toi.Raw, error) {
	f.gameCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[gameID], nil
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cache over a source", t, func() {
		src := &fakeSource{rows: map[int64]map[int64]toi.Raw{
			10: {1: {Total: 0, EV: 600}, 2: {Total: 800, EV: 700, PP: 100}},
		}}
		c := toi.NewCache(src, toi.DefaultTolerance())

		Convey("Repeated player lookups hit the source once", func() {
			b, found, err := c.Player(ctx, 10, 1)
			So(err, ShouldBeNil)
			So(found, ShouldBeTrue)
			So(b.Total, ShouldEqual, 600)

			_, _, _ = c.Player(ctx, 10, 1)
			So(src.playerCalls, ShouldEqual, 1)
		})

		Convey("Missing rows are remembered as missing", func() {
			_, found, err := c.Player(ctx, 10, 99)
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
			_, _, _ = c.Player(ctx, 10, 99)
			So(src.playerCalls, ShouldEqual, 1)
		})

		Convey("A loaded game answers player lookups", func() {
			game, err := c.Game(ctx, 10)
			So(err, ShouldBeNil)
			So(game, ShouldHaveLength, 2)

			b, found, err := c.Player(ctx, 10, 2)
			So(err, ShouldBeNil)
			So(found, ShouldBeTrue)
			So(b.PartsSane, ShouldBeTrue)
			So(src.playerCalls, ShouldEqual, 0)
		})

		Convey("Eviction forces a reload", func() {
			_, _ = c.Game(ctx, 10)
			c.Evict(10)
			_, _ = c.Game(ctx, 10)
			So(src.gameCalls, ShouldEqual, 2)
		})

		Convey("Invalid identifiers never reach the source", func() {
			_, found, err := c.Player(ctx, 0, 1)
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
			So(src.playerCalls, ShouldEqual, 0)
		})
	})

	Convey("Given a failing source", t, func() {
		boom := errors.New("connection refused")
		src := &fakeSource{err: boom}
		c := toi.NewCache(src, toi.DefaultTolerance())

		Convey("Errors propagate and are not cached", func() {
			_, _, err := c.Player(ctx, 1, 1)
			So(errors.Is(err, boom), ShouldBeTrue)
			_, _, err = c.Player(ctx, 1, 1)
			So(err, ShouldNotBeNil)
			So(src.playerCalls, ShouldEqual, 2)

			_, err = c.Game(ctx, 1)
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})
}
