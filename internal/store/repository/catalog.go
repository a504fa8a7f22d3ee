package repository

import "github.com/fortuna/rinkside/internal/store"

// Catalog lists games and skaters for rebuild runs.
type Catalog struct {
	*GameRepository
	*LineupRepository
}

// NewCatalog creates a catalog over the game and lineup tables.
func NewCatalog(db *store.Database) *Catalog {
	return &Catalog{
		GameRepository:   NewGameRepository(db),
		LineupRepository: NewLineupRepository(db),
	}
}
