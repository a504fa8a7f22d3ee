// Package scheduler runs the daily rebuild inside the service process.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/logging"
	"github.com/fortuna/rinkside/internal/rebuild"
)

// JobRunner executes a rebuild job.
type JobRunner interface {
	Run(ctx context.Context, spec rebuild.JobSpec, reporter rebuild.Reporter) (rebuild.Summary, error)
}

// Config holds scheduler configuration
type Config struct {
	DailyHour   int            // Default: 6 (6 AM in Location)
	DaysAgo     int            // Default: 5
	Location    *time.Location // Default: UTC
	CalcVersion string
	Slices      []advstats.Slice
	MaxRetries  int           // Default: 3
	RetryDelay  time.Duration // Default: 30s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		DailyHour:   6,
		DaysAgo:     5,
		Location:    time.UTC,
		CalcVersion: "v1",
		Slices:      advstats.DefaultSlices(),
		MaxRetries:  3,
		RetryDelay:  30 * time.Second,
	}
}

// Orchestrator triggers the default rebuild once a day.
type Orchestrator struct {
	runner JobRunner
	config *Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	lastRun *rebuild.Summary
	lastErr error
	nextRun time.Time
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(runner JobRunner, config *Config, logger *slog.Logger) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Orchestrator{
		runner: runner,
		config: config,
		logger: logging.OrDefault(logger),
		now:    time.Now,
	}
}

// NextRun returns the first occurrence of hour:00 in loc strictly after now.
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start runs the daily scheduler until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	o.logger.Info("rebuild scheduler started",
		"daily_hour", o.config.DailyHour,
		"days_ago", o.config.DaysAgo,
		"timezone", o.config.Location.String(),
	)

	for {
		next := NextRun(o.now(), o.config.DailyHour, o.config.Location)
		o.mu.Lock()
		o.nextRun = next
		o.mu.Unlock()

		wait := next.Sub(o.now())
		o.logger.Info("next daily rebuild", "at", next.Format("2006-01-02 15:04:05 MST"), "in", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			o.logger.Info("rebuild scheduler stopped")
			return
		case <-timer.C:
			o.runDaily(ctx)
		}
	}
}

// runDaily runs the default job with retries. A day without games is not
// retried.
func (o *Orchestrator) runDaily(ctx context.Context) {
	spec := o.DailySpec()
	attempts := max(o.config.MaxRetries, 1)

	var (
		sum rebuild.Summary
		err error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		sum, err = o.runner.Run(ctx, spec, rebuild.NewLogReporter(o.logger))
		if err == nil || errors.Is(err, rebuild.ErrNoGames) || ctx.Err() != nil {
			break
		}
		o.logger.Warn("daily rebuild attempt failed", "attempt", attempt, "max", attempts, "error", err)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.config.RetryDelay):
			}
		}
	}

	switch {
	case errors.Is(err, rebuild.ErrNoGames):
		o.logger.Info("no games to rebuild", "date", spec.Start.Format("2006-01-02"))
		err = nil
	case err != nil:
		o.logger.Error("daily rebuild failed", "error", err)
	}
	o.record(sum, err)
}

// DailySpec is the job the scheduler runs, evaluated at the current time.
func (o *Orchestrator) DailySpec() rebuild.JobSpec {
	spec := rebuild.DefaultSpec(o.now(), o.config.Location, o.config.DaysAgo)
	spec.CalcVersion = o.config.CalcVersion
	spec.Slices = o.config.Slices
	return spec
}

// TriggerManualRebuild rebuilds one date immediately.
func (o *Orchestrator) TriggerManualRebuild(ctx context.Context, date time.Time) (rebuild.Summary, error) {
	o.logger.Info("manual rebuild triggered", "date", date.Format("2006-01-02"))
	spec := rebuild.JobSpec{
		Type:        rebuild.JobTypeDate,
		Start:       date,
		End:         date,
		CalcVersion: o.config.CalcVersion,
		Slices:      o.config.Slices,
	}
	sum, err := o.runner.Run(ctx, spec, rebuild.NewLogReporter(o.logger))
	o.record(sum, err)
	return sum, err
}

func (o *Orchestrator) record(sum rebuild.Summary, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastRun = &sum
	o.lastErr = err
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := map[string]interface{}{
		"daily_hour":   o.config.DailyHour,
		"days_ago":     o.config.DaysAgo,
		"timezone":     o.config.Location.String(),
		"calc_version": o.config.CalcVersion,
	}
	if !o.nextRun.IsZero() {
		status["next_run"] = o.nextRun.Format(time.RFC3339)
	}
	if o.lastRun != nil {
		status["last_run"] = *o.lastRun
	}
	if o.lastErr != nil {
		status["last_error"] = o.lastErr.Error()
	}
	return status
}
