// Package rebuild recomputes stored derived rows for games.
package rebuild

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
)

// ErrNoGames is returned when a job resolves to no games.
var ErrNoGames = errors.New("no games to rebuild")

// ErrPartialWrite marks a MultiSink failure after its first sink stored the
// rows.
var ErrPartialWrite = errors.New("rows stored by the primary sink only")

// JobType enumerates the supported rebuild job variants.
type JobType string

const (
	JobTypeGame      JobType = "game"
	JobTypeDate      JobType = "date"
	JobTypeDateRange JobType = "date_range"
)

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Type        JobType
	GameIDs     []int64
	Start       time.Time
	End         time.Time
	Slices      []advstats.Slice
	CalcVersion string
	DryRun      bool
}

// DefaultSpec is the daily job: every game played daysAgo days before now in
// loc.
func DefaultSpec(now time.Time, loc *time.Location, daysAgo int) JobSpec {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc).AddDate(0, 0, -daysAgo)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return JobSpec{Type: JobTypeDate, Start: day, End: day}
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID        string        `json:"run_id"`
	DryRun       bool          `json:"dry_run"`
	GamesSeen    int           `json:"games_seen"`
	GamesFailed  int           `json:"games_failed"`
	RowsComputed int           `json:"rows_computed"`
	RowsWritten  int           `json:"rows_written"`
	RowsSkipped  int           `json:"rows_skipped"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(runID string, spec JobSpec)
	OnDateStart(date time.Time, index int, total int)
	OnGameProcessed(gameID int64, written int, skipped int)
	OnProgress(message string, current int, total int)
	OnJobComplete(summary Summary)
	OnJobError(err error)
}

// Catalog lists the games and skaters to rebuild.
type Catalog interface {
	GameIDsForDate(ctx context.Context, date time.Time) ([]int64, error)
	GameMeta(ctx context.Context, gameID int64) (advstats.GameMeta, bool, error)
	Skaters(ctx context.Context, gameID int64) ([]advstats.Skater, error)
}

// Calculator computes one stored row.
type Calculator interface {
	BuildPlayerRow(ctx context.Context, meta advstats.GameMeta, sk advstats.Skater, slice advstats.Slice, calcVersion string) (*advstats.PlayerGameRow, error)
}

// Sink persists the rows of one (game, slice) atomically.
type Sink interface {
	UpsertRows(ctx context.Context, rows []advstats.PlayerGameRow) error
}

// Publisher announces rows after they were written.
type Publisher interface {
	PublishRows(ctx context.Context, runID string, rows []advstats.PlayerGameRow) error
}

// MultiSink writes to every sink in order and stops at the first failure.
// The first non-nil sink is the primary one; a later failure wraps
// ErrPartialWrite.
type MultiSink []Sink

// UpsertRows implements Sink.
func (m MultiSink) UpsertRows(ctx context.Context, rows []advstats.PlayerGameRow) error {
	stored := false
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.UpsertRows(ctx, rows); err != nil {
			if stored {
				return fmt.Errorf("%w: %w", ErrPartialWrite, err)
			}
			return err
		}
		stored = true
	}
	return nil
}

// MultiPublisher publishes to every publisher and joins the failures.
type MultiPublisher []Publisher

// PublishRows implements Publisher.
func (m MultiPublisher) PublishRows(ctx context.Context, runID string, rows []advstats.PlayerGameRow) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishRows(ctx, runID, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
