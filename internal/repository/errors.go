package repository

import "errors"

// ErrVersionConflict is returned when an update carried a stale version:
// the row exists but was modified since it was read.
var ErrVersionConflict = errors.New("version conflict")
