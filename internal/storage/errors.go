package storage

import "errors"

// ErrNotFound is returned when a step has not been recorded
var ErrNotFound = errors.New("step not found")
