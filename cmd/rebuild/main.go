package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/cache"
	"github.com/fortuna/rinkside/internal/config"
	"github.com/fortuna/rinkside/internal/logging"
	"github.com/fortuna/rinkside/internal/metrics"
	"github.com/fortuna/rinkside/internal/publisher"
	"github.com/fortuna/rinkside/internal/rebuild"
	"github.com/fortuna/rinkside/internal/service"
	"github.com/fortuna/rinkside/internal/store"
	"github.com/fortuna/rinkside/internal/store/repository"
	"github.com/fortuna/rinkside/internal/store/snapshot"
	"github.com/fortuna/rinkside/internal/toi"
)

const (
	appName    = "rinkside-rebuild"
	appVersion = "1.0.0"
)

type options struct {
	daysAgo     int
	date        string
	from        string
	to          string
	games       string
	states      string
	calcVersion string
	dryRun      bool
}

// gameResolver turns YYYYMMDD-AWAY-HOME codes into game ids.
type gameResolver interface {
	ResolveGameCode(ctx context.Context, code string) (int64, bool, error)
}

func main() {
	log.Printf("=== %s v%s ===", appName, appVersion)

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var (
		opts     options
		dsn      = flag.String("dsn", cfg.DSN, "Postgres DSN of the play-by-play store")
		snapPath = flag.String("snapshot", "", "Also write rows to this SQLite file")
		publish  = flag.Bool("publish", cfg.RedisURL != "", "Publish rows to the Redis stream")
		workers  = flag.Int("workers", cfg.Rebuild.Workers, "Rows built concurrently per game")
		verbose  = flag.Bool("verbose", false, "Log every processed game")
	)
	flag.IntVar(&opts.daysAgo, "days-ago", cfg.Rebuild.DaysAgo, "Rebuild games played this many days ago")
	flag.StringVar(&opts.date, "date", "", "Rebuild one date (YYYY-MM-DD)")
	flag.StringVar(&opts.from, "from", "", "Start date (YYYY-MM-DD)")
	flag.StringVar(&opts.to, "to", "", "End date (YYYY-MM-DD)")
	flag.StringVar(&opts.games, "game", "", "Comma-separated game ids or YYYYMMDD-AWAY-HOME codes")
	flag.StringVar(&opts.states, "states", strings.Join(cfg.Rebuild.Slices, ","), "Comma-separated slices (5v5, ev, pp, sh, all)")
	flag.StringVar(&opts.calcVersion, "calc-version", cfg.Rebuild.CalcVersion, "Calculation version stored with every row")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Compute rows without writing them")
	flag.Parse()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	db, err := store.NewDatabase(ctx, *dsn, logger)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	catalog := repository.NewCatalog(db)

	spec, err := buildSpec(ctx, opts, time.Now(), loc, catalog)
	if err != nil {
		log.Fatalf("build spec: %v", err)
	}

	sinks := rebuild.MultiSink{repository.NewAdvStatsRepository(db)}
	if *snapPath != "" {
		snap, err := snapshot.Open(ctx, *snapPath)
		if err != nil {
			log.Fatalf("open snapshot: %v", err)
		}
		defer snap.Close()
		sinks = append(sinks, snap)
		log.Printf("✓ Writing snapshot to %s", *snapPath)
	}

	m := metrics.NewManager()
	analytics := service.NewAnalyticsService(repository.NewPBPRepository(db),
		toi.NewCache(repository.NewTOIRepository(db), cfg.TOI),
		service.WithModel(cfg.Model),
		service.WithGARWeights(cfg.GAR),
		service.WithLogger(logger),
		service.WithMetrics(m),
	)

	runnerOpts := []rebuild.RunnerOption{
		rebuild.WithLogger(logger),
		rebuild.WithMetrics(m),
		rebuild.WithWorkers(*workers),
	}
	if *publish && cfg.RedisURL != "" && !spec.DryRun {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, rows will not be published: %v", err)
		} else {
			defer rc.Close()
			runnerOpts = append(runnerOpts, rebuild.WithPublisher(publisher.NewRedisStreamPublisher(rc.Client())))
			log.Println("✓ Publishing rows to Redis stream")
		}
	}

	runner := rebuild.NewRunner(catalog, analytics, sinks, runnerOpts...)
	reporter := &consoleReporter{dryRun: spec.DryRun, verbose: *verbose}

	sum, err := runner.Run(ctx, spec, reporter)
	if errors.Is(err, rebuild.ErrNoGames) {
		log.Println("No games to rebuild")
		return
	}
	if err != nil {
		log.Fatalf("rebuild failed: %v", err)
	}
	if sum.GamesFailed > 0 {
		log.Printf("⚠️  %d game(s) failed", sum.GamesFailed)
		os.Exit(1)
	}

	log.Println("✓ Rebuild completed successfully")
}

// buildSpec picks the job from the flags: explicit games win over a date
// range, which wins over a single date; otherwise the days-ago default
// applies.
func buildSpec(ctx context.Context, opts options, now time.Time, loc *time.Location, resolver gameResolver) (rebuild.JobSpec, error) {
	var spec rebuild.JobSpec

	switch {
	case strings.TrimSpace(opts.games) != "":
		ids, err := resolveGames(ctx, opts.games, resolver)
		if err != nil {
			return spec, err
		}
		spec.Type = rebuild.JobTypeGame
		spec.GameIDs = ids
	case opts.from != "" || opts.to != "":
		if opts.from == "" || opts.to == "" {
			return spec, fmt.Errorf("--from and --to must be used together")
		}
		start, err := time.Parse("2006-01-02", opts.from)
		if err != nil {
			return spec, fmt.Errorf("invalid start date: %w", err)
		}
		end, err := time.Parse("2006-01-02", opts.to)
		if err != nil {
			return spec, fmt.Errorf("invalid end date: %w", err)
		}
		if end.Before(start) {
			return spec, fmt.Errorf("end date %s is before start date %s", opts.to, opts.from)
		}
		spec.Type = rebuild.JobTypeDateRange
		spec.Start = start
		spec.End = end
	case opts.date != "":
		day, err := time.Parse("2006-01-02", opts.date)
		if err != nil {
			return spec, fmt.Errorf("invalid date: %w", err)
		}
		spec.Type = rebuild.JobTypeDate
		spec.Start = day
		spec.End = day
	default:
		if opts.daysAgo < 0 {
			return spec, fmt.Errorf("--days-ago must not be negative")
		}
		spec = rebuild.DefaultSpec(now, loc, opts.daysAgo)
	}

	spec.Slices = advstats.ParseSlices([]string{opts.states})
	spec.CalcVersion = strings.TrimSpace(opts.calcVersion)
	spec.DryRun = opts.dryRun
	if spec.CalcVersion == "" {
		return spec, fmt.Errorf("--calc-version is required")
	}
	return spec, nil
}

func resolveGames(ctx context.Context, list string, resolver gameResolver) ([]int64, error) {
	var ids []int64
	for _, tok := range strings.Split(list, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if id, err := strconv.ParseInt(tok, 10, 64); err == nil {
			ids = append(ids, id)
			continue
		}
		id, ok, err := resolver.ResolveGameCode(ctx, tok)
		if err != nil {
			return nil, fmt.Errorf("resolve game %q: %w", tok, err)
		}
		if !ok {
			return nil, fmt.Errorf("game %q not found", tok)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no games in %q", list)
	}
	return ids, nil
}

type consoleReporter struct {
	dryRun  bool
	verbose bool
}

func (c *consoleReporter) OnJobStart(runID string, spec rebuild.JobSpec) {
	log.Printf("Starting %s job %s (calc_version=%s, slices=%v, dry_run=%v)", spec.Type, runID, spec.CalcVersion, spec.Slices, c.dryRun)
}

func (c *consoleReporter) OnDateStart(date time.Time, index int, total int) {
	log.Printf("[%d/%d] %s", index+1, total, date.Format("2006-01-02"))
}

func (c *consoleReporter) OnGameProcessed(gameID int64, written int, skipped int) {
	if c.verbose || skipped > 0 {
		log.Printf("Processed game %d (written=%d, skipped=%d)", gameID, written, skipped)
	}
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	log.Printf("Progress: %s (%d/%d)", message, current, total)
}

func (c *consoleReporter) OnJobComplete(s rebuild.Summary) {
	log.Printf("Job complete: games=%d failed=%d computed=%d written=%d skipped=%d in %v",
		s.GamesSeen, s.GamesFailed, s.RowsComputed, s.RowsWritten, s.RowsSkipped, s.Elapsed.Round(time.Millisecond))
}

func (c *consoleReporter) OnJobError(err error) {
	log.Printf("Job error: %v", err)
}
