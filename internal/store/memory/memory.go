// Package memory is an in-process play-by-play store. It serves the same
// reads as the Postgres repositories and collects written rows, for tests
// and local runs without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/pbp"
	"github.com/fortuna/rinkside/internal/store"
	"github.com/fortuna/rinkside/internal/toi"
)

// Operation names accepted by Fail.
const (
	OpGameTeams        = "GameTeams"
	OpOnIceEvents      = "OnIceEvents"
	OpPlayerShotEvents = "PlayerShotEvents"
	OpPenaltiesTaken   = "PenaltiesTaken"
	OpPlayerTOI        = "PlayerTOI"
	OpGameTOI          = "GameTOI"
	OpGameIDsForDate   = "GameIDsForDate"
	OpGameMeta         = "GameMeta"
	OpSkaters          = "Skaters"
	OpUpsertRows       = "UpsertRows"
)

type presence struct {
	playerID int64
	side     pbp.Side
	goalie   bool
}

type actor struct {
	playerID int64
	role     pbp.Role
}

type rowKey struct {
	gameID      int64
	playerID    int64
	slice       advstats.Slice
	calcVersion string
}

// Store holds games, events and derived rows in memory.
type Store struct {
	mu sync.RWMutex

	games      map[int64]store.Game
	events     map[int64]pbp.Event
	gameEvents map[int64][]int64
	onIce      map[int64][]presence
	actors     map[int64][]actor
	lineups    map[int64][]store.LineupEntry
	toi        map[int64]map[int64]toi.Raw

	rows     map[rowKey]advstats.PlayerGameRow
	rowOrder []rowKey

	failures map[string]error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		games:      make(map[int64]store.Game),
		events:     make(map[int64]pbp.Event),
		gameEvents: make(map[int64][]int64),
		onIce:      make(map[int64][]presence),
		actors:     make(map[int64][]actor),
		lineups:    make(map[int64][]store.LineupEntry),
		toi:        make(map[int64]map[int64]toi.Raw),
		rows:       make(map[rowKey]advstats.PlayerGameRow),
		failures:   make(map[string]error),
	}
}

// AddGame registers or replaces a game.
func (s *Store) AddGame(g store.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.GameID] = g
}

// AddEvent appends an event to its game. Events keep insertion order.
func (s *Store) AddEvent(ev pbp.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.EventID]; !ok {
		s.gameEvents[ev.GameID] = append(s.gameEvents[ev.GameID], ev.EventID)
	}
	s.events[ev.EventID] = ev
}

// AddOnIce records a player on the ice for an event.
func (s *Store) AddOnIce(eventID, playerID int64, side pbp.Side, goalie bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onIce[eventID] = append(s.onIce[eventID], presence{playerID: playerID, side: side, goalie: goalie})
}

// AddActor records a player's role in an event.
func (s *Store) AddActor(eventID, playerID int64, role pbp.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[eventID] = append(s.actors[eventID], actor{playerID: playerID, role: role})
}

// AddLineup appends lineup entries to their games.
func (s *Store) AddLineup(entries ...store.LineupEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.lineups[e.GameID] = append(s.lineups[e.GameID], e)
	}
}

// SetTOI stores a player's raw ice time.
func (s *Store) SetTOI(gameID, playerID int64, raw toi.Raw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.toi[gameID] == nil {
		s.toi[gameID] = make(map[int64]toi.Raw)
	}
	s.toi[gameID][playerID] = raw
}

// Fail makes op return err until cleared with a nil err.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	return s.failures[op]
}

// GameTeams implements service.EventReader.
func (s *Store) GameTeams(_ context.Context, gameID int64) (pbp.GameTeams, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpGameTeams); err != nil {
		return pbp.GameTeams{}, false, err
	}
	g, ok := s.games[gameID]
	if !ok || gameID <= 0 {
		return pbp.GameTeams{}, false, nil
	}
	return g.Teams(), true, nil
}

// OnIceEvents implements service.EventReader.
func (s *Store) OnIceEvents(_ context.Context, gameID, playerID int64, sit pbp.Situation) ([]pbp.OnIceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpOnIceEvents); err != nil {
		return nil, err
	}
	if gameID <= 0 || playerID < 0 {
		return nil, nil
	}

	var out []pbp.OnIceRow
	for _, ev := range s.gameEventsLocked(gameID) {
		switch ev.Type {
		case pbp.EventShot, pbp.EventGoal, pbp.EventPenalty:
		default:
			continue
		}
		for _, p := range s.onIce[ev.EventID] {
			if p.goalie || (playerID > 0 && p.playerID != playerID) {
				continue
			}
			if sit.Match(ev, p.side) {
				out = append(out, pbp.OnIceRow{PlayerID: p.playerID, Side: p.side, Event: ev})
			}
		}
	}
	return out, nil
}

// PlayerShotEvents implements service.EventReader.
func (s *Store) PlayerShotEvents(_ context.Context, gameID, playerID int64, sit pbp.Situation) ([]pbp.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpPlayerShotEvents); err != nil {
		return nil, err
	}
	if gameID <= 0 || playerID <= 0 {
		return nil, nil
	}

	teams := s.teamsLocked(gameID)
	var out []pbp.Event
	for _, ev := range s.gameEventsLocked(gameID) {
		if ev.Type != pbp.EventShot && ev.Type != pbp.EventGoal {
			continue
		}
		if ev.ShooterID != playerID && ev.ScorerID != playerID {
			continue
		}
		if sit.Match(ev, teams.SideOf(ev.TeamAbbr)) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// PenaltiesTaken implements service.EventReader.
func (s *Store) PenaltiesTaken(_ context.Context, gameID, playerID int64, sit pbp.Situation) ([]pbp.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpPenaltiesTaken); err != nil {
		return nil, err
	}
	if gameID <= 0 || playerID <= 0 {
		return nil, nil
	}

	teams := s.teamsLocked(gameID)
	var out []pbp.Event
	for _, ev := range s.gameEventsLocked(gameID) {
		if ev.Type != pbp.EventPenalty || !s.hasRoleLocked(ev.EventID, playerID, pbp.RolePenalized) {
			continue
		}
		if sit.Match(ev, teams.SideOf(ev.TeamAbbr)) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// PlayerTOI implements toi.Source.
func (s *Store) PlayerTOI(_ context.Context, gameID, playerID int64) (toi.Raw, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpPlayerTOI); err != nil {
		return toi.Raw{}, false, err
	}
	raw, ok := s.toi[gameID][playerID]
	return raw, ok, nil
}

// GameTOI implements toi.Source.
func (s *Store) GameTOI(_ context.Context, gameID int64) (map[int64]toi.Raw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpGameTOI); err != nil {
		return nil, err
	}
	out := make(map[int64]toi.Raw, len(s.toi[gameID]))
	for pid, raw := range s.toi[gameID] {
		out[pid] = raw
	}
	return out, nil
}

// GameIDsForDate implements the rebuild catalog.
func (s *Store) GameIDsForDate(_ context.Context, date time.Time) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpGameIDsForDate); err != nil {
		return nil, err
	}
	day := date.Format("2006-01-02")
	var ids []int64
	for id, g := range s.games {
		if !g.GameDate.IsZero() && g.GameDate.Format("2006-01-02") == day {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// GameMeta implements the rebuild catalog.
func (s *Store) GameMeta(_ context.Context, gameID int64) (advstats.GameMeta, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpGameMeta); err != nil {
		return advstats.GameMeta{}, false, err
	}
	g, ok := s.games[gameID]
	if !ok {
		return advstats.GameMeta{}, false, nil
	}
	return g.Meta(), true, nil
}

// Skaters implements the rebuild catalog.
func (s *Store) Skaters(_ context.Context, gameID int64) ([]advstats.Skater, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failure(OpSkaters); err != nil {
		return nil, err
	}
	return store.Skaters(s.lineups[gameID]), nil
}

// ResolveGameCode implements the rebuild catalog.
func (s *Store) ResolveGameCode(_ context.Context, code string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.sortedGameIDsLocked() {
		if g := s.games[id]; g.GameCode != "" && g.GameCode == code {
			return id, true, nil
		}
	}

	gc, err := store.ParseGameCode(code)
	if err != nil {
		return 0, false, err
	}
	day := gc.Date.Format("2006-01-02")
	for _, id := range s.sortedGameIDsLocked() {
		g := s.games[id]
		if g.GameDate.IsZero() || g.GameDate.Format("2006-01-02") != day {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(g.AwayTeamAbbr), gc.Away) && strings.EqualFold(strings.TrimSpace(g.HomeTeamAbbr), gc.Home) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// UpsertRows implements the rebuild sink. The batch is applied whole or not
// at all.
func (s *Store) UpsertRows(_ context.Context, rows []advstats.PlayerGameRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpUpsertRows); err != nil {
		return err
	}
	for _, r := range rows {
		k := rowKey{gameID: r.GameID, playerID: r.PlayerID, slice: r.Slice, calcVersion: r.CalcVersion}
		if _, ok := s.rows[k]; !ok {
			s.rowOrder = append(s.rowOrder, k)
		}
		s.rows[k] = r
	}
	return nil
}

// Rows returns the stored derived rows in first-write order.
func (s *Store) Rows() []advstats.PlayerGameRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]advstats.PlayerGameRow, 0, len(s.rowOrder))
	for _, k := range s.rowOrder {
		out = append(out, s.rows[k])
	}
	return out
}

func (s *Store) gameEventsLocked(gameID int64) []pbp.Event {
	ids := s.gameEvents[gameID]
	out := make([]pbp.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.events[id])
	}
	return out
}

func (s *Store) teamsLocked(gameID int64) pbp.GameTeams {
	g := s.games[gameID]
	return g.Teams()
}

func (s *Store) hasRoleLocked(eventID, playerID int64, role pbp.Role) bool {
	for _, a := range s.actors[eventID] {
		if a.playerID == playerID && strings.EqualFold(string(a.role), string(role)) {
			return true
		}
	}
	return false
}

func (s *Store) sortedGameIDsLocked() []int64 {
	ids := make([]int64, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
