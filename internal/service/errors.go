package service

import "errors"

// ErrGameNotFound is returned when a row is requested for a game the store
// does not know.
var ErrGameNotFound = errors.New("game not found")
