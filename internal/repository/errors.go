// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrConflict signals that an operation
// cannot proceed due to existing dependent records (e.g. an active
// reservation already occupying the table for an overlapping
// interval).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a create or update cannot be
// performed because of conflicting state, such as booking a table
// that already has an active reservation for an overlapping
// interval. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrRestaurantNotFound is returned when a restaurant id does not
// resolve to a row.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// ErrTableNotFound is returned when a table id does not resolve to
// a row.
var ErrTableNotFound = errors.New("table not found")

// ErrReservationNotFound is returned when a reservation id does not
// resolve to a row.
var ErrReservationNotFound = errors.New("reservation not found")
