package repository

import "errors"

// ErrNotFound is returned by strict operations that require an existing
// document, e.g. Update on an identity that was never created.
var ErrNotFound = errors.New("not_found")

// ErrDuplicateKey is returned when an insert violates a uniqueness
// constraint (document identity or a unique index such as
// webhook_events.event_id).
var ErrDuplicateKey = errors.New("duplicate_key")
