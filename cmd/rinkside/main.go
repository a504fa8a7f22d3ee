package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/fortuna/rinkside/internal/api/rest"
	"github.com/fortuna/rinkside/internal/api/websocket"
	"github.com/fortuna/rinkside/internal/cache"
	"github.com/fortuna/rinkside/internal/config"
	"github.com/fortuna/rinkside/internal/logging"
	"github.com/fortuna/rinkside/internal/metrics"
	"github.com/fortuna/rinkside/internal/publisher"
	"github.com/fortuna/rinkside/internal/rebuild"
	"github.com/fortuna/rinkside/internal/scheduler"
	"github.com/fortuna/rinkside/internal/service"
	"github.com/fortuna/rinkside/internal/store"
	"github.com/fortuna/rinkside/internal/store/repository"
	"github.com/fortuna/rinkside/internal/toi"
)

const (
	serviceName    = "rinkside"
	serviceVersion = "1.0.0"
)

// freshRunner drops memoized TOI before each scheduled run so re-ingested
// games are picked up.
type freshRunner struct {
	*rebuild.Runner
	toi *toi.Cache
}

func (f freshRunner) Run(ctx context.Context, spec rebuild.JobSpec, reporter rebuild.Reporter) (rebuild.Summary, error) {
	f.toi.Reset()
	return f.Runner.Run(ctx, spec, reporter)
}

func main() {
	log.Printf("Starting %s v%s - Hockey Derived Statistics Service", serviceName, serviceVersion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	db, err := store.NewDatabase(ctx, cfg.DSN, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("✓ Connected to database")

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("✓ Database migrations applied")

	m := metrics.NewManager()

	pbpRepo := repository.NewPBPRepository(db)
	catalog := repository.NewCatalog(db)
	toiCache := toi.NewCache(repository.NewTOIRepository(db), cfg.TOI)
	analytics := service.NewAnalyticsService(pbpRepo, toiCache,
		service.WithModel(cfg.Model),
		service.WithGARWeights(cfg.GAR),
		service.WithLogger(logger),
		service.WithMetrics(m),
	)

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	handlerOpts := []rest.HandlerOption{
		rest.WithLogger(logger),
		rest.WithVersion(cfg.Rebuild.CalcVersion),
		rest.WithHealthCheck("postgres", db.HealthCheck),
	}
	publishers := rebuild.MultiPublisher{hub}

	redisCache := connectRedis(ctx, cfg.RedisURL)
	if redisCache != nil {
		defer redisCache.Close()
		handlerOpts = append(handlerOpts, rest.WithHealthCheck("redis", redisCache.HealthCheck))
		if cfg.CacheTTL > 0 {
			handlerOpts = append(handlerOpts, rest.WithCache(redisCache, cfg.CacheTTL))
		}
		publishers = append(publishers, publisher.NewRedisStreamPublisher(redisCache.Client()))
		log.Println("✓ Redis response cache and row stream enabled")
	}

	var sched *scheduler.Orchestrator
	if cfg.Rebuild.EnableScheduler {
		loc, err := cfg.Location()
		if err != nil {
			log.Fatalf("Invalid rebuild timezone: %v", err)
		}
		runner := rebuild.NewRunner(catalog, analytics, repository.NewAdvStatsRepository(db),
			rebuild.WithPublisher(publishers),
			rebuild.WithLogger(logger),
			rebuild.WithMetrics(m),
			rebuild.WithWorkers(cfg.Rebuild.Workers),
		)
		sched = scheduler.NewOrchestrator(freshRunner{Runner: runner, toi: toiCache}, &scheduler.Config{
			DailyHour:   cfg.Rebuild.DailyHour,
			DaysAgo:     cfg.Rebuild.DaysAgo,
			Location:    loc,
			CalcVersion: cfg.Rebuild.CalcVersion,
			Slices:      cfg.Slices(),
			MaxRetries:  3,
			RetryDelay:  30 * time.Second,
		}, logger)
		go sched.Start(ctx)
		log.Println("✓ Rebuild scheduler started")
	} else {
		log.Println("⚠️  Rebuild scheduler disabled (set RINKSIDE_REBUILD__ENABLE_SCHEDULER=true)")
	}

	restServer := rest.NewServer(cfg.RESTPort, rest.NewRouter(rest.NewHandler(analytics, catalog, handlerOpts...), m, logger))
	go func() {
		if err := restServer.Start(); err != nil {
			logger.Error("REST server stopped", "error", err)
		}
	}()
	log.Printf("✓ REST API server listening on :%s", cfg.RESTPort)

	wsServer := websocket.NewServer(hub, logger)
	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil {
			logger.Error("WebSocket server stopped", "error", err)
		}
	}()
	log.Printf("✓ WebSocket server listening on :%s", cfg.WSPort)

	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s/api/v1", cfg.RESTPort)
	log.Printf("  WebSocket: ws://0.0.0.0:%s/ws/advstats", cfg.WSPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	if sched != nil {
		sched.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("WebSocket server shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
}

// connectRedis retries the connection a few times. Redis is optional; nil
// means the service runs without cache and stream.
func connectRedis(ctx context.Context, url string) *cache.RedisCache {
	if url == "" {
		log.Println("⚠️  Redis not configured (response cache and row stream disabled)")
		return nil
	}

	const maxRetries = 5
	retryDelay := 2 * time.Second

	log.Println("Connecting to Redis...")
	for i := 0; i < maxRetries; i++ {
		rc, err := cache.NewRedisCache(ctx, url)
		if err == nil {
			log.Println("✓ Connected to Redis")
			return rc
		}
		if i < maxRetries-1 {
			log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
			continue
		}
		log.Printf("⚠️  Redis unavailable after %d attempts: %v (continuing without it)", maxRetries, err)
	}
	return nil
}
