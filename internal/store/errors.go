package store

import "errors"

// ErrStore wraps any failure from opening, migrating or querying a
// per-newsgroup database.
var ErrStore = errors.New("store: operation failed")
