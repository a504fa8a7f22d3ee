package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given no file and no overrides", t, func() {
		t.Setenv("RINKSIDE_CONFIG", "")
		cfg, err := config.Load(ctx)

		So(err, ShouldBeNil)
		So(cfg.RESTPort, ShouldEqual, "8080")
		So(cfg.Rebuild.CalcVersion, ShouldEqual, "v1")
		So(cfg.Rebuild.DaysAgo, ShouldEqual, 5)
		So(cfg.Rebuild.Timezone, ShouldEqual, "America/New_York")
		So(cfg.Slices(), ShouldResemble, advstats.DefaultSlices())
		So(cfg.Model.Chances.ScoringFt, ShouldEqual, 40)
		So(cfg.GAR.GoalsPerWin, ShouldEqual, 6.0)
		So(cfg.TOI.MinSeconds, ShouldEqual, 30)
	})

	Convey("Given environment overrides", t, func() {
		t.Setenv("RINKSIDE_CONFIG", "")
		t.Setenv("RINKSIDE_REST_PORT", "9090")
		t.Setenv("RINKSIDE_CACHE_TTL", "2m")
		t.Setenv("RINKSIDE_REBUILD__CALC_VERSION", "v2")
		t.Setenv("RINKSIDE_REBUILD__DAYS_AGO", "3")
		t.Setenv("RINKSIDE_GAR__GOALS_PER_CORSI", "0.02")
		t.Setenv("RINKSIDE_MODEL__CHANCES__SCORING_FT", "45")

		cfg, err := config.Load(ctx)

		So(err, ShouldBeNil)
		So(cfg.RESTPort, ShouldEqual, "9090")
		So(cfg.CacheTTL, ShouldEqual, 2*time.Minute)
		So(cfg.Rebuild.CalcVersion, ShouldEqual, "v2")
		So(cfg.Rebuild.DaysAgo, ShouldEqual, 3)
		So(cfg.GAR.GoalsPerCorsi, ShouldEqual, 0.02)
		So(cfg.GAR.GoalsPerPenalty, ShouldEqual, 0.15)
		So(cfg.Model.Chances.ScoringFt, ShouldEqual, 45)
		So(cfg.Model.Chances.HighDangerFt, ShouldEqual, 20)
	})

	Convey("Given a YAML file", t, func() {
		path := filepath.Join(t.TempDir(), "rinkside.yaml")
		yaml := `
ws_port: "9191"
log_format: json
rebuild:
  slices: [pp, sh]
  timezone: America/Los_Angeles
toi:
  min_seconds: 45
`
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
		t.Setenv("RINKSIDE_CONFIG", path)

		cfg, err := config.Load(ctx)

		So(err, ShouldBeNil)
		So(cfg.WSPort, ShouldEqual, "9191")
		So(cfg.LogFormat, ShouldEqual, "json")
		So(cfg.Slices(), ShouldResemble, []advstats.Slice{advstats.SlicePP, advstats.SliceSH})
		So(cfg.Rebuild.Timezone, ShouldEqual, "America/Los_Angeles")
		So(cfg.TOI.MinSeconds, ShouldEqual, 45)
		So(cfg.TOI.Fraction, ShouldEqual, 0.10)
	})

	Convey("Given a missing file", t, func() {
		t.Setenv("RINKSIDE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := config.Load(ctx)
		So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
	})

	Convey("Given an override that fails validation", t, func() {
		t.Setenv("RINKSIDE_CONFIG", "")
		t.Setenv("RINKSIDE_REBUILD__DAILY_HOUR", "24")
		_, err := config.Load(ctx)
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestValidate(t *testing.T) {
	Convey("Given the defaults", t, func() {
		So(config.New().Validate(), ShouldBeNil)
	})

	Convey("Given invalid settings each is rejected", t, func() {
		cases := map[string]func(c *config.Config){
			"zero rink":          func(c *config.Config) { c.Model.Rink.XMax = 0 },
			"inverted danger":    func(c *config.Config) { c.Model.Chances.HighDangerFt = 35 },
			"medium past chance": func(c *config.Config) { c.Model.Chances.MediumDangerFt = 50 },
			"zero high danger":   func(c *config.Config) { c.Model.Chances.HighDangerFt = 0 },
			"blank version":      func(c *config.Config) { c.Rebuild.CalcVersion = "  " },
			"negative days":      func(c *config.Config) { c.Rebuild.DaysAgo = -1 },
			"no workers":         func(c *config.Config) { c.Rebuild.Workers = 0 },
			"unknown timezone":   func(c *config.Config) { c.Rebuild.Timezone = "Mars/Olympus" },
			"negative tolerance": func(c *config.Config) { c.TOI.MinSeconds = -5 },
		}
		for name, mutate := range cases {
			c := config.New()
			mutate(c)
			err := c.Validate()
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			So(name, ShouldNotBeEmpty)
		}
	})
}
