package store

import "errors"

// ErrNotFound is returned by lookups that found no row.
var ErrNotFound = errors.New("not found")
