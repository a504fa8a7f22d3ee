package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/pbp"
	"github.com/fortuna/rinkside/internal/toi"
)

// DefaultMinXGTotal is the xG listing floor on xGF + xGA.
const DefaultMinXGTotal = 0.01

// BatchCorsiOptions configures AllSkatersCorsi.
type BatchCorsiOptions struct {
	Situation pbp.Situation
	Fenwick   bool
	// MinTOISeconds drops skaters below the floor, measured on EV ice time
	// with a total fallback. Skaters without TOI are dropped when set.
	MinTOISeconds int
}

// BatchXGOptions configures AllSkatersXG and AllSkatersQuadrant.
type BatchXGOptions struct {
	Situation      pbp.Situation
	IncludeBlocked bool
	MinXGTotal     float64
}

// DefaultBatchXGOptions returns unfiltered options with the default floor.
func DefaultBatchXGOptions() BatchXGOptions {
	return BatchXGOptions{
		Situation:  pbp.NewSituation(nil, ""),
		MinXGTotal: DefaultMinXGTotal,
	}
}

// evenOrTotal is the denominator used by game-wide listings.
func evenOrTotal(b toi.Buckets) int {
	return toi.Pick(b, toi.BucketEV, toi.Pick(b, toi.BucketTotal, 0))
}

func (s *AnalyticsService) gameRows(ctx context.Context, gameID int64, sit pbp.Situation) (pbp.GameTeams, []pbp.OnIceRow, bool, error) {
	teams, ok, err := s.gameTeams(ctx, gameID)
	if err != nil || !ok {
		return teams, nil, false, err
	}
	rows, err := s.events.OnIceEvents(ctx, gameID, 0, sit)
	if err != nil {
		return teams, nil, false, fmt.Errorf("reading on-ice events: %w", err)
	}
	return teams, rows, true, nil
}

// AllSkatersCorsi lists on-ice Corsi for every skater of a game.
func (s *AnalyticsService) AllSkatersCorsi(ctx context.Context, gameID int64, opts BatchCorsiOptions) ([]advstats.SkaterCorsi, error) {
	defer s.metrics.ObserveQuery("all_corsi", time.Now())

	teams, rows, ok, err := s.gameRows(ctx, gameID, opts.Situation)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []advstats.SkaterCorsi{}, nil
	}

	list := advstats.SkatersCorsi(rows, teams, opts.Fenwick)
	if opts.MinTOISeconds <= 0 {
		return list, nil
	}

	byPlayer, err := s.toi.Game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	kept := list[:0]
	for _, row := range list {
		b, found := byPlayer[row.PlayerID]
		if !found || evenOrTotal(b) < opts.MinTOISeconds {
			continue
		}
		kept = append(kept, row)
	}
	return kept, nil
}

// AllSkatersXG lists on-ice xG for every skater of a game whose xGF + xGA
// reaches the floor.
func (s *AnalyticsService) AllSkatersXG(ctx context.Context, gameID int64, opts BatchXGOptions) ([]advstats.SkaterXG, error) {
	defer s.metrics.ObserveQuery("all_xg", time.Now())
	return s.skatersXG(ctx, gameID, opts)
}

func (s *AnalyticsService) skatersXG(ctx context.Context, gameID int64, opts BatchXGOptions) ([]advstats.SkaterXG, error) {
	teams, rows, ok, err := s.gameRows(ctx, gameID, opts.Situation)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []advstats.SkaterXG{}, nil
	}

	list := advstats.SkatersXG(rows, teams, s.model, opts.IncludeBlocked)
	kept := list[:0]
	for _, row := range list {
		if row.XGTotal < opts.MinXGTotal {
			continue
		}
		kept = append(kept, row)
	}
	return kept, nil
}

// AllSkatersQuadrant places every skater of a game by xG for and against
// per 60 minutes of EV ice time, falling back to total ice time.
func (s *AnalyticsService) AllSkatersQuadrant(ctx context.Context, gameID int64, opts BatchXGOptions) ([]advstats.QuadrantPoint, error) {
	defer s.metrics.ObserveQuery("quadrant", time.Now())

	list, err := s.skatersXG(ctx, gameID, opts)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return []advstats.QuadrantPoint{}, nil
	}

	byPlayer, err := s.toi.Game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return advstats.Quadrant(list, func(playerID int64) int {
		return evenOrTotal(byPlayer[playerID])
	}), nil
}
