// Package service composes play-by-play reads with the advstats aggregators.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/logging"
	"github.com/fortuna/rinkside/internal/metrics"
	"github.com/fortuna/rinkside/internal/pbp"
	"github.com/fortuna/rinkside/internal/toi"
)

// EventReader reads situation-filtered play-by-play rows.
type EventReader interface {
	// GameTeams reports false for an unknown game.
	GameTeams(ctx context.Context, gameID int64) (pbp.GameTeams, bool, error)

	// OnIceEvents returns SHOT, GOAL and PENALTY events paired with every
	// non-goalie on the ice. playerID 0 returns all skaters.
	OnIceEvents(ctx context.Context, gameID, playerID int64, sit pbp.Situation) ([]pbp.OnIceRow, error)

	// PlayerShotEvents returns shots and goals whose shooter or scorer is
	// the player. The strength side is the acting team's.
	PlayerShotEvents(ctx context.Context, gameID, playerID int64, sit pbp.Situation) ([]pbp.Event, error)

	// PenaltiesTaken returns PENALTY events with the player as PENALIZED.
	PenaltiesTaken(ctx context.Context, gameID, playerID int64, sit pbp.Situation) ([]pbp.Event, error)
}

// AnalyticsService computes derived player statistics for one game.
type AnalyticsService struct {
	events  EventReader
	toi     *toi.Cache
	model   pbp.Model
	weights advstats.GARWeights
	logger  *slog.Logger
	metrics *metrics.Manager
	now     func() time.Time
}

// Option configures an AnalyticsService.
type Option func(*AnalyticsService)

// WithModel replaces the default geometry, chance and xG settings.
func WithModel(m pbp.Model) Option {
	return func(s *AnalyticsService) { s.model = m }
}

// WithGARWeights replaces the default GAR weights used by stored rows.
func WithGARWeights(w advstats.GARWeights) Option {
	return func(s *AnalyticsService) { s.weights = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *AnalyticsService) { s.logger = logging.OrDefault(l) }
}

// WithMetrics records operation durations on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *AnalyticsService) { s.metrics = m }
}

// WithClock sets the time source stamped on built rows.
func WithClock(now func() time.Time) Option {
	return func(s *AnalyticsService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(events EventReader, toiCache *toi.Cache, opts ...Option) *AnalyticsService {
	s := &AnalyticsService{
		events:  events,
		toi:     toiCache,
		model:   pbp.DefaultModel(),
		weights: advstats.DefaultGARWeights(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the engine settings in use.
func (s *AnalyticsService) Model() pbp.Model { return s.model }

// DefaultGAROptions returns GAR options over all situations with the
// service weights.
func (s *AnalyticsService) DefaultGAROptions() advstats.GAROptions {
	return advstats.GAROptions{
		Situation: pbp.NewSituation(nil, ""),
		Weights:   s.weights,
	}
}

// gameTeams resolves the teams of a game; ok is false for invalid or
// unknown games.
func (s *AnalyticsService) gameTeams(ctx context.Context, gameID int64) (pbp.GameTeams, bool, error) {
	if gameID <= 0 {
		return pbp.GameTeams{}, false, nil
	}
	teams, ok, err := s.events.GameTeams(ctx, gameID)
	if err != nil {
		return pbp.GameTeams{}, false, fmt.Errorf("reading game %d: %w", gameID, err)
	}
	if !ok {
		s.logger.Debug("game not found", "game_id", gameID)
	}
	return teams, ok, nil
}

// PlayerOnIceSummary aggregates what happened while the player was on the
// ice. Invalid identifiers and unknown games give an all-zero summary.
func (s *AnalyticsService) PlayerOnIceSummary(ctx context.Context, gameID, playerID int64, opts advstats.Options) (*advstats.OnIceSummary, error) {
	defer s.metrics.ObserveQuery("onice", time.Now())

	zero := advstats.OnIce(playerID, nil, pbp.GameTeams{}, s.model, opts)
	if playerID <= 0 {
		return &zero, nil
	}
	teams, ok, err := s.gameTeams(ctx, gameID)
	if err != nil || !ok {
		return &zero, err
	}

	rows, err := s.events.OnIceEvents(ctx, gameID, playerID, opts.Situation)
	if err != nil {
		return nil, fmt.Errorf("reading on-ice events: %w", err)
	}
	summary := advstats.OnIce(playerID, rows, teams, s.model, opts)
	return &summary, nil
}

// PlayerIndividualSummary aggregates the player's own attempts and goals.
func (s *AnalyticsService) PlayerIndividualSummary(ctx context.Context, gameID, playerID int64, opts advstats.Options) (*advstats.IndividualSummary, error) {
	defer s.metrics.ObserveQuery("individual", time.Now())

	zero := advstats.Individual(playerID, nil, s.model, opts)
	if playerID <= 0 {
		return &zero, nil
	}
	if _, ok, err := s.gameTeams(ctx, gameID); err != nil || !ok {
		return &zero, err
	}

	events, err := s.events.PlayerShotEvents(ctx, gameID, playerID, opts.Situation)
	if err != nil {
		return nil, fmt.Errorf("reading shot events: %w", err)
	}
	summary := advstats.Individual(playerID, events, s.model, opts)
	return &summary, nil
}

// PlayerCorsi counts on-ice attempts; with fenwick blocked attempts are
// left out.
func (s *AnalyticsService) PlayerCorsi(ctx context.Context, gameID, playerID int64, sit pbp.Situation, fenwick bool) (*advstats.CorsiSummary, error) {
	defer s.metrics.ObserveQuery("corsi", time.Now())

	zero := advstats.Corsi(playerID, nil, pbp.GameTeams{}, fenwick)
	if playerID <= 0 {
		return &zero, nil
	}
	teams, ok, err := s.gameTeams(ctx, gameID)
	if err != nil || !ok {
		return &zero, err
	}

	rows, err := s.events.OnIceEvents(ctx, gameID, playerID, sit)
	if err != nil {
		return nil, fmt.Errorf("reading on-ice events: %w", err)
	}
	summary := advstats.Corsi(playerID, rows, teams, fenwick)
	return &summary, nil
}

// PlayerPenaltyDiff returns penalties drawn minus penalties taken.
func (s *AnalyticsService) PlayerPenaltyDiff(ctx context.Context, gameID, playerID int64, sit pbp.Situation) (*advstats.PenaltySummary, error) {
	defer s.metrics.ObserveQuery("penalties", time.Now())

	zero := advstats.PenaltySummary{PlayerID: playerID}
	if playerID <= 0 {
		return &zero, nil
	}
	teams, ok, err := s.gameTeams(ctx, gameID)
	if err != nil || !ok {
		return &zero, err
	}

	taken, onIce, err := s.penaltyInputs(ctx, gameID, playerID, sit)
	if err != nil {
		return nil, err
	}
	summary := advstats.Penalties(playerID, taken, onIce, teams)
	return &summary, nil
}

func (s *AnalyticsService) penaltyInputs(ctx context.Context, gameID, playerID int64, sit pbp.Situation) ([]pbp.Event, []pbp.OnIceRow, error) {
	taken, err := s.events.PenaltiesTaken(ctx, gameID, playerID, sit)
	if err != nil {
		return nil, nil, fmt.Errorf("reading penalties taken: %w", err)
	}
	onIce, err := s.events.OnIceEvents(ctx, gameID, playerID, sit)
	if err != nil {
		return nil, nil, fmt.Errorf("reading on-ice events: %w", err)
	}
	return taken, onIce, nil
}

// PlayerGARLite combines Corsi, goal and penalty differentials into the
// GAR-lite composite.
func (s *AnalyticsService) PlayerGARLite(ctx context.Context, gameID, playerID int64, opts advstats.GAROptions) (*advstats.GARSummary, error) {
	defer s.metrics.ObserveQuery("gar", time.Now())

	zero := advstats.BuildGARSummary(advstats.CorsiSummary{PlayerID: playerID, Fenwick: opts.Fenwick}, advstats.Pair{}, advstats.PenaltySummary{}, opts)
	if playerID <= 0 {
		return &zero, nil
	}
	teams, ok, err := s.gameTeams(ctx, gameID)
	if err != nil || !ok {
		return &zero, err
	}

	taken, onIce, err := s.penaltyInputs(ctx, gameID, playerID, opts.Situation)
	if err != nil {
		return nil, err
	}

	corsi := advstats.Corsi(playerID, onIce, teams, opts.Fenwick)
	goals := advstats.OnIce(playerID, onIce, teams, s.model, advstats.Options{Situation: opts.Situation}).Goals
	pen := advstats.Penalties(playerID, taken, onIce, teams)

	summary := advstats.BuildGARSummary(corsi, goals, pen, opts)
	return &summary, nil
}

// PlayerTOI is a player's sanitized ice time.
type PlayerTOI struct {
	GameID   int64 `json:"game_id"`
	PlayerID int64 `json:"player_id"`
	Found    bool  `json:"found"`
	toi.Buckets
}

// PlayerTOI returns the sanitized TOI buckets of a player.
func (s *AnalyticsService) PlayerTOI(ctx context.Context, gameID, playerID int64) (*PlayerTOI, error) {
	b, found, err := s.toi.Player(ctx, gameID, playerID)
	if err != nil {
		return nil, err
	}
	return &PlayerTOI{GameID: gameID, PlayerID: playerID, Found: found, Buckets: b}, nil
}
