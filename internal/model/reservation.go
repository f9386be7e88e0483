package model

import (
	"strings"
	"time"
)

// ReservationStatus enumerates the lifecycle states of a reservation.
// Statuses arrive in arbitrary casing on the wire and are normalized
// on ingest via ParseStatus.  Cancelled and Done are terminal: they
// never block a table or count toward occupancy, but the records
// remain in historical listings.
type ReservationStatus string

// Reservation status values as stored in the reservations.status column.
const (
	StatusPlanning  ReservationStatus = "PLANNING"  // booked, guest not yet arrived
	StatusConfirmed ReservationStatus = "CONFIRMED" // confirmed by the restaurant
	StatusSeated    ReservationStatus = "SEATED"    // guest is at the table
	StatusDone      ReservationStatus = "DONE"      // visit finished (terminal)
	StatusCancelled ReservationStatus = "CANCELLED" // cancelled (terminal)
)

// ParseStatus normalizes a wire status value into a ReservationStatus.
// The comparison is case-insensitive.  The second return value reports
// whether the input named a known status.
func ParseStatus(raw string) (ReservationStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PLANNING":
		return StatusPlanning, true
	case "CONFIRMED":
		return StatusConfirmed, true
	case "SEATED":
		return StatusSeated, true
	case "DONE":
		return StatusDone, true
	case "CANCELLED", "CANCELED":
		return StatusCancelled, true
	}
	return "", false
}

// Terminal reports whether the status excludes the reservation from
// occupancy calculations.
func (s ReservationStatus) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// Reservation records a booking of a table for a half-open time
// interval [StartTime, EndTime).  Timestamps are absolute and stored
// in UTC, the fixed service timezone; they are never interpreted in a
// viewer's local timezone.
//
// Fields:
//  ID           – public identifier (UUID string).
//  RestaurantID – restaurant the booking belongs to.
//  TableID      – assigned table; nil while the reservation is unassigned.
//  UserID       – account that created the booking; nil for guest bookings.
//  Guests       – party size, always positive.
//  Status       – lifecycle status, normalized on ingest.
//  StartTime    – start of the interval (inclusive).
//  EndTime      – end of the interval (exclusive); always after StartTime.
//  ClientName   – display name of the customer, nil when unknown.
//  ClientEmail  – contact email, nil for guest bookings without a profile.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Reservation struct {
	ID           string            // reservations.id (UUID)
	RestaurantID uint64            // reservations.restaurant_id
	TableID      *uint64           // reservations.table_id (nullable)
	UserID       *uint64           // reservations.user_id (nullable)
	Guests       int               // reservations.guests
	Status       ReservationStatus // reservations.status
	StartTime    time.Time         // reservations.start_time (UTC)
	EndTime      time.Time         // reservations.end_time (UTC)
	ClientName   *string           // reservations.client_name (nullable)
	ClientEmail  *string           // reservations.client_email (nullable)
	CreatedAt    time.Time         // reservations.created_at
	UpdatedAt    time.Time         // reservations.updated_at
}

// Active reports whether the reservation participates in occupancy and
// availability calculations, i.e. its status is not terminal.
func (r Reservation) Active() bool {
	return !r.Status.Terminal()
}

// Valid performs the structural checks applied at ingest boundaries: a
// reservation must carry an identifier and a parseable, strictly
// ordered interval.  Invalid records are skipped by the pure
// computation layers rather than aborting whole collections.
func (r Reservation) Valid() bool {
	if r.ID == "" {
		return false
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return false
	}
	return r.EndTime.After(r.StartTime)
}
