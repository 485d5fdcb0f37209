// Package repository defines error values shared across repositories. These
// sentinels let handlers map store-level failures onto distinct HTTP
// statuses: a missing row must surface as 404, a duplicate insert as 409 and
// an expired session as 401. Collapsing those together would break the
// public profile surface, which relies on 404 vs 403 to pick between a
// "does not exist" page and a password prompt.
package repository

import "errors"

// ErrNotFound is returned when a point lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing row,
// such as adding a movie already present in the roster.
var ErrConflict = errors.New("conflict")

// ErrHandleTaken is returned when signup claims a handle that is already
// registered. Handles are globally unique and immutable once claimed.
var ErrHandleTaken = errors.New("handle already taken")

// ErrSessionExpired is returned when a session row exists but its expiry
// has passed. Expiry is checked synchronously on every consumer; there is
// no background sweep to rely on.
var ErrSessionExpired = errors.New("session expired")
