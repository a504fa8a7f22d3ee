package toi

import (
	"context"
	"fmt"
	"sync"
)

// Source reads raw TOI rows.
type Source interface {
	PlayerTOI(ctx context.Context, gameID, playerID int64) (Raw, bool, error)
	GameTOI(ctx context.Context, gameID int64) (map[int64]Raw, error)
}

type playerKey struct {
	gameID   int64
	playerID int64
}

type playerEntry struct {
	buckets Buckets
	found   bool
}

// Cache memoizes sanitized TOI per game and player for the life of a
// process run. Entries may be evicted at any time. Read failures are not
// cached.
type Cache struct {
	src Source
	tol Tolerance

	mu      sync.Mutex
	players map[playerKey]playerEntry
	games   map[int64]map[int64]Buckets
}

// NewCache wraps src with a memo.
func NewCache(src Source, tol Tolerance) *Cache {
	return &Cache{
		src:     src,
		tol:     tol,
		players: make(map[playerKey]playerEntry),
		games:   make(map[int64]map[int64]Buckets),
	}
}

// Tolerance returns the sanitation tolerance in use.
func (c *Cache) Tolerance() Tolerance {
	return c.tol
}

// Player returns the sanitized TOI of one player, and whether a row exists.
func (c *Cache) Player(ctx context.Context, gameID, playerID int64) (Buckets, bool, error) {
	if gameID <= 0 || playerID <= 0 {
		return Buckets{}, false, nil
	}

	key := playerKey{gameID: gameID, playerID: playerID}

	c.mu.Lock()
	if e, ok := c.players[key]; ok {
		c.mu.Unlock()
		return e.buckets, e.found, nil
	}
	if game, ok := c.games[gameID]; ok {
		b, found := game[playerID]
		c.mu.Unlock()
		return b, found, nil
	}
	c.mu.Unlock()

	raw, found, err := c.src.PlayerTOI(ctx, gameID, playerID)
	if err != nil {
		return Buckets{}, false, fmt.Errorf("reading toi for game %d player %d: %w", gameID, playerID, err)
	}

	var b Buckets
	if found {
		b = Sanitize(raw, c.tol)
	}

	c.mu.Lock()
	c.players[key] = playerEntry{buckets: b, found: found}
	c.mu.Unlock()

	return b, found, nil
}

// Game returns the sanitized TOI of every player with a row in the game.
// The returned map must not be modified.
func (c *Cache) Game(ctx context.Context, gameID int64) (map[int64]Buckets, error) {
	if gameID <= 0 {
		return map[int64]Buckets{}, nil
	}

	c.mu.Lock()
	if game, ok := c.games[gameID]; ok {
		c.mu.Unlock()
		return game, nil
	}
	c.mu.Unlock()

	raws, err := c.src.GameTOI(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("reading toi for game %d: %w", gameID, err)
	}

	game := make(map[int64]Buckets, len(raws))
	for pid, raw := range raws {
		game[pid] = Sanitize(raw, c.tol)
	}

	c.mu.Lock()
	c.games[gameID] = game
	c.mu.Unlock()

	return game, nil
}

// Evict drops everything cached for a game.
func (c *Cache) Evict(gameID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.games, gameID)
	for k := range c.players {
		if k.gameID == gameID {
			delete(c.players, k)
		}
	}
}

// Reset empties the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.players = make(map[playerKey]playerEntry)
	c.games = make(map[int64]map[int64]Buckets)
}
