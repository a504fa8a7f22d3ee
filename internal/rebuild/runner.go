package rebuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/logging"
	"github.com/fortuna/rinkside/internal/metrics"
)

// Runner executes rebuild specs.
type Runner struct {
	catalog   Catalog
	calc      Calculator
	sink      Sink
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Manager
	workers   int
	now       func() time.Time
	newRunID  func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPublisher announces written rows.
func WithPublisher(p Publisher) RunnerOption {
	return func(r *Runner) { r.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logging.OrDefault(l) }
}

// WithMetrics counts written and skipped rows on m.
func WithMetrics(m *metrics.Manager) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithWorkers computes up to n skater rows concurrently.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithClock sets the time source used for elapsed time.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunID fixes the id generator.
func WithRunID(gen func() string) RunnerOption {
	return func(r *Runner) {
		if gen != nil {
			r.newRunID = gen
		}
	}
}

// NewRunner constructs a runner. sink may be nil for dry runs only.
func NewRunner(catalog Catalog, calc Calculator, sink Sink, opts ...RunnerOption) *Runner {
	r := &Runner{
		catalog:  catalog,
		calc:     calc,
		sink:     sink,
		logger:   slog.Default(),
		workers:  1,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the job spec, reporting progress via the Reporter if
// provided. Per-game and per-row failures are counted in the summary; the
// returned error is reserved for cancellation, invalid specs and jobs that
// resolve to no games.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) (Summary, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	started := r.now()
	summary := Summary{RunID: r.newRunID(), DryRun: spec.DryRun}
	finish := func() Summary {
		summary.Elapsed = r.now().Sub(started)
		return summary
	}

	if len(spec.Slices) == 0 {
		spec.Slices = advstats.DefaultSlices()
	}
	if spec.CalcVersion == "" {
		err := fmt.Errorf("calc version is required")
		reporter.OnJobError(err)
		return finish(), err
	}
	if !spec.DryRun && r.sink == nil {
		err := fmt.Errorf("no sink configured")
		reporter.OnJobError(err)
		return finish(), err
	}

	reporter.OnJobStart(summary.RunID, spec)
	logger := r.logger.With("run_id", summary.RunID)

	gameIDs, err := r.resolveGames(ctx, spec, reporter)
	if err != nil {
		reporter.OnJobError(err)
		return finish(), err
	}
	if len(gameIDs) == 0 {
		reporter.OnProgress("No games to process", 0, 0)
		return finish(), ErrNoGames
	}
	if spec.DryRun {
		reporter.OnProgress("Dry-run mode: no data will be written", 0, len(gameIDs))
	}

	total := len(gameIDs)
	for idx, gameID := range gameIDs {
		if err := ctx.Err(); err != nil {
			reporter.OnJobError(err)
			return finish(), err
		}

		reporter.OnProgress(fmt.Sprintf("Processing game %d (%d/%d)", gameID, idx+1, total), idx, total)
		summary.GamesSeen++

		res, err := r.runGame(ctx, logger, spec, summary.RunID, gameID)
		summary.RowsComputed += res.computed
		summary.RowsWritten += res.written
		summary.RowsSkipped += res.skipped
		if err != nil {
			summary.GamesFailed++
			r.metrics.GameFailed()
			logger.Error("game rebuild failed", "game_id", gameID, "error", err)
			reporter.OnJobError(fmt.Errorf("game %d: %w", gameID, err))
			if ctx.Err() != nil {
				return finish(), ctx.Err()
			}
			continue
		}
		reporter.OnGameProcessed(gameID, res.written, res.skipped)
	}

	out := finish()
	reporter.OnJobComplete(out)
	return out, nil
}

func (r *Runner) resolveGames(ctx context.Context, spec JobSpec, reporter Reporter) ([]int64, error) {
	switch spec.Type {
	case JobTypeGame:
		if len(spec.GameIDs) == 0 {
			return nil, fmt.Errorf("no game IDs provided for job type 'game'")
		}
		return dedupe(spec.GameIDs), nil
	case JobTypeDate, JobTypeDateRange:
		end := spec.End
		if spec.Type == JobTypeDate || end.IsZero() {
			end = spec.Start
		}
		dates := enumerateDates(spec.Start, end)

		var ids []int64
		for idx, date := range dates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			reporter.OnDateStart(date, idx, len(dates))
			dayIDs, err := r.catalog.GameIDsForDate(ctx, date)
			if err != nil {
				return nil, fmt.Errorf("listing games for %s: %w", date.Format("2006-01-02"), err)
			}
			ids = append(ids, dayIDs...)
		}
		return dedupe(ids), nil
	default:
		return nil, fmt.Errorf("unsupported job type %s", spec.Type)
	}
}

type gameResult struct {
	computed int
	written  int
	skipped  int
}

// runGame rebuilds every slice of one game. A failing slice does not stop
// the others; its rows are counted as skipped and the errors are joined.
func (r *Runner) runGame(ctx context.Context, logger *slog.Logger, spec JobSpec, runID string, gameID int64) (gameResult, error) {
	var res gameResult

	skaters, err := r.catalog.Skaters(ctx, gameID)
	if err != nil {
		return res, fmt.Errorf("reading skaters: %w", err)
	}
	due := len(skaters) * len(spec.Slices)

	meta, ok, err := r.catalog.GameMeta(ctx, gameID)
	if err != nil {
		res.skipped = due
		return res, fmt.Errorf("reading game: %w", err)
	}
	if !ok {
		res.skipped = due
		return res, fmt.Errorf("game %d not found", gameID)
	}
	if len(skaters) == 0 {
		logger.Warn("game has no skaters", "game_id", gameID)
		return res, nil
	}

	var errs []error
	for _, slice := range spec.Slices {
		rows, failed := r.buildRows(ctx, logger, meta, skaters, slice, spec.CalcVersion)
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.computed += len(rows)
		res.skipped += failed
		r.metrics.RowsSkipped(string(slice), failed)

		if len(rows) == 0 || spec.DryRun {
			continue
		}

		if err := r.sink.UpsertRows(ctx, rows); err != nil {
			errs = append(errs, fmt.Errorf("writing %s rows: %w", slice, err))
			if !errors.Is(err, ErrPartialWrite) {
				res.skipped += len(rows)
				r.metrics.RowsSkipped(string(slice), len(rows))
				continue
			}
			logger.Warn("rows stored by the primary sink only", "game_id", gameID, "slice", slice, "error", err)
		}
		res.written += len(rows)
		r.metrics.RowsWritten(string(slice), len(rows))

		if r.publisher != nil {
			if err := r.publisher.PublishRows(ctx, runID, rows); err != nil {
				logger.Warn("publishing rows failed", "game_id", gameID, "slice", slice, "error", err)
			}
		}
	}
	return res, errors.Join(errs...)
}

// buildRows computes the rows of one (game, slice) in skater order. Rows
// that fail are logged and counted.
func (r *Runner) buildRows(ctx context.Context, logger *slog.Logger, meta advstats.GameMeta, skaters []advstats.Skater, slice advstats.Slice, calcVersion string) ([]advstats.PlayerGameRow, int) {
	results := make([]*advstats.PlayerGameRow, len(skaters))
	errs := make([]error, len(skaters))

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	for i, sk := range skaters {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, sk advstats.Skater) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = r.calc.BuildPlayerRow(ctx, meta, sk, slice, calcVersion)
		}(i, sk)
	}
	wg.Wait()

	rows := make([]advstats.PlayerGameRow, 0, len(skaters))
	failed := 0
	for i, sk := range skaters {
		if errs[i] != nil || results[i] == nil {
			failed++
			logger.Warn("skipping row",
				"game_id", meta.GameID,
				"player_id", sk.PlayerID,
				"slice", slice,
				"error", errs[i],
			)
			continue
		}
		rows = append(rows, *results[i])
	}
	return rows, failed
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func enumerateDates(start, end time.Time) []time.Time {
	if end.Before(start) {
		start, end = end, start
	}

	var dates []time.Time
	current := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	final := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	for !current.After(final) {
		dates = append(dates, current)
		current = current.AddDate(0, 0, 1)
	}

	return dates
}
