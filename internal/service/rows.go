package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/toi"
)

// BuildPlayerRow computes the stored row of one skater for one slice.
func (s *AnalyticsService) BuildPlayerRow(ctx context.Context, meta advstats.GameMeta, sk advstats.Skater, slice advstats.Slice, calcVersion string) (*advstats.PlayerGameRow, error) {
	defer s.metrics.ObserveQuery("build_row", time.Now())

	teams, ok, err := s.gameTeams(ctx, meta.GameID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("game %d: %w", meta.GameID, ErrGameNotFound)
	}

	sit := slice.Situation()
	pid := sk.PlayerID

	onIce, err := s.events.OnIceEvents(ctx, meta.GameID, pid, sit)
	if err != nil {
		return nil, fmt.Errorf("reading on-ice events: %w", err)
	}
	shots, err := s.events.PlayerShotEvents(ctx, meta.GameID, pid, sit)
	if err != nil {
		return nil, fmt.Errorf("reading shot events: %w", err)
	}
	taken, err := s.events.PenaltiesTaken(ctx, meta.GameID, pid, sit)
	if err != nil {
		return nil, fmt.Errorf("reading penalties taken: %w", err)
	}
	buckets, _, err := s.toi.Player(ctx, meta.GameID, pid)
	if err != nil {
		return nil, err
	}

	used := toi.Pick(buckets, slice.TOIBucket(), 0)
	if used == 0 {
		used = toi.Pick(buckets, toi.BucketEV, 0)
	}
	if used == 0 {
		used = toi.Pick(buckets, toi.BucketTotal, 0)
	}

	opts := advstats.Options{Situation: sit, IncludeBlockedSC: true, IncludeBlockedXG: false}
	on := advstats.OnIce(pid, onIce, teams, s.model, opts)
	ind := advstats.Individual(pid, shots, s.model, opts)
	pen := advstats.Penalties(pid, taken, onIce, teams)
	corsi := advstats.Corsi(pid, onIce, teams, false)

	return &advstats.PlayerGameRow{
		GameID:          meta.GameID,
		PlayerID:        pid,
		TeamAbbr:        sk.TeamAbbr,
		Position:        sk.Position,
		Slice:           slice,
		Strength:        slice.Strength(),
		CalcVersion:     calcVersion,
		CalcAt:          s.now().UTC(),
		GameDate:        meta.Date,
		Season:          meta.Season,
		TOI:             buckets,
		TOIUsed:         used,
		OnIce:           on,
		OnIceRates:      advstats.OnIceRatesFor(on, used),
		Individual:      ind,
		IndividualRates: advstats.IndividualRatesFor(ind, used),
		Penalties:       pen,
		GAR: advstats.GAR(advstats.GARInputs{
			CorsiDiff:   corsi.CDiff,
			GoalDiff:    on.Goals.Diff,
			PenaltyDiff: pen.Diff,
		}, s.weights),
	}, nil
}
