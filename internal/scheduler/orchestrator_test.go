package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/fortuna/rinkside/internal/rebuild"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeRunner struct {
	errs  []error
	specs []rebuild.JobSpec
}

func (f *fakeRunner) Run(_ context.Context, spec rebuild.JobSpec, _ rebuild.Reporter) (rebuild.Summary, error) {
	f.specs = append(f.specs, spec)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	return rebuild.Summary{RunID: "r", GamesSeen: 1}, err
}

func TestNextRun(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}

	Convey("Given a daily hour of 6 in New York", t, func() {
		Convey("Before the hour the run is today", func() {
			now := time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC) // 04:00 local
			next := NextRun(now, 6, ny)
			So(next.Format("2006-01-02 15:04"), ShouldEqual, "2025-01-10 06:00")
		})

		Convey("At or after the hour the run is tomorrow", func() {
			now := time.Date(2025, time.January, 10, 11, 0, 0, 0, time.UTC) // 06:00 local
			next := NextRun(now, 6, ny)
			So(next.Format("2006-01-02 15:04"), ShouldEqual, "2025-01-11 06:00")
		})
	})
}

func TestOrchestrator(t *testing.T) {
	fixed := time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)

	Convey("Given an orchestrator with a fixed clock", t, func() {
		runner := &fakeRunner{}
		cfg := DefaultConfig()
		cfg.RetryDelay = 0
		o := NewOrchestrator(runner, cfg, nil)
		o.now = func() time.Time { return fixed }

		Convey("The daily job targets DaysAgo before today", func() {
			spec := o.DailySpec()
			So(spec.Type, ShouldEqual, rebuild.JobTypeDate)
			So(spec.Start.Format("2006-01-02"), ShouldEqual, "2025-01-05")
			So(spec.CalcVersion, ShouldEqual, "v1")
			So(len(spec.Slices), ShouldEqual, 5)
		})

		Convey("Failed runs are retried", func() {
			runner.errs = []error{errors.New("db down"), errors.New("db down")}
			o.runDaily(context.Background())
			So(len(runner.specs), ShouldEqual, 3)
			So(o.GetStatus()["last_error"], ShouldBeNil)
		})

		Convey("A day without games is not retried", func() {
			runner.errs = []error{rebuild.ErrNoGames}
			o.runDaily(context.Background())
			So(len(runner.specs), ShouldEqual, 1)
		})

		Convey("Exhausted retries are recorded", func() {
			boom := errors.New("boom")
			runner.errs = []error{boom, boom, boom}
			o.runDaily(context.Background())
			So(o.GetStatus()["last_error"], ShouldEqual, "boom")
		})

		Convey("A manual rebuild runs the given date", func() {
			day := time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC)
			sum, err := o.TriggerManualRebuild(context.Background(), day)
			So(err, ShouldBeNil)
			So(sum.GamesSeen, ShouldEqual, 1)
			So(runner.specs[0].Start.Equal(day), ShouldBeTrue)
		})

		Convey("Start returns once stopped", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				o.Start(ctx)
				close(done)
			}()
			cancel()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("scheduler did not stop")
			}
		})
	})
}
