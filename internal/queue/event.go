// Package queue defines the delta-event payloads exchanged over the
// message broker and the background consumer that delivers them to
// the live floor view.  Every mutation endpoint publishes one event
// here; the snapshot reconciler is the main consumer.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

// EventType names one kind of incremental change to server state.
// The values match the channel event names consumed by the dashboard.
type EventType string

// Delta event types carried on the reservation channel.
const (
	TableAdded                 EventType = "tableAdded"
	TablePositionUpdated       EventType = "tablePositionUpdated"
	TableDetailsUpdated        EventType = "tableDetailsUpdated"
	TableDeleted               EventType = "tableDeleted"
	TableStatusUpdated         EventType = "tableStatusUpdated"
	ReservationCreated         EventType = "reservationCreated"
	ReservationUpdated         EventType = "reservationUpdated"
	ReservationStatusChanged   EventType = "reservationStatusChanged"
	ReservationDetailsChanged  EventType = "reservationDetailsChanged"
	ClientCancelledReservation EventType = "clientCancelledReservation"
	ReservationAssigned        EventType = "reservationAssigned"
	FloorLayoutUpdated         EventType = "floorLayoutUpdated"
)

// ReservationPatch carries the reservation fields an event specifies.
// Only non-nil fields are applied during a merge; everything else on
// the stored record stays intact.  The wire format has grown several
// historical aliases (table vs table_id vs tableNumber, client_name
// vs first_name/last_name); Normalize folds every observed variant
// into the canonical fields before any core logic sees the patch.
type ReservationPatch struct {
	ID          string  `json:"id"`
	Status      *string `json:"status,omitempty"`
	Guests      *int    `json:"guests,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	TableID     *uint64 `json:"table_id,omitempty"`
	Table       *uint64 `json:"table,omitempty"`       // legacy alias of table_id
	TableNumber *uint64 `json:"tableNumber,omitempty"` // legacy alias of table_id
	ClientName  *string `json:"client_name,omitempty"`
	FirstName   *string `json:"first_name,omitempty"` // legacy split-name variant
	LastName    *string `json:"last_name,omitempty"`
	ClientEmail *string `json:"client_email,omitempty"`
}

// Normalize resolves wire-format aliases in place.  After it returns,
// consumers only ever branch on the canonical TableID and ClientName
// fields.
func (p *ReservationPatch) Normalize() {
	if p.TableID == nil {
		if p.Table != nil {
			p.TableID = p.Table
		} else if p.TableNumber != nil {
			p.TableID = p.TableNumber
		}
	}
	if p.ClientName == nil && (p.FirstName != nil || p.LastName != nil) {
		name := ""
		if p.FirstName != nil {
			name = *p.FirstName
		}
		if p.LastName != nil {
			if name != "" {
				name += " "
			}
			name += *p.LastName
		}
		if name != "" {
			p.ClientName = &name
		}
	}
}

// NormalizedStatus returns the patch status parsed into the canonical
// enum, if the patch carries one.
func (p *ReservationPatch) NormalizedStatus() (model.ReservationStatus, bool) {
	if p.Status == nil {
		return "", false
	}
	return model.ParseStatus(*p.Status)
}

// TablePatch carries the table fields an event specifies.  Position
// events set X/Y only; detail events may set the rest.
type TablePatch struct {
	ID     uint64  `json:"id"`
	X      *int    `json:"x,omitempty"`
	Y      *int    `json:"y,omitempty"`
	Seats  *int    `json:"seats,omitempty"`
	Shape  *string `json:"shape,omitempty"`
	Status *string `json:"status,omitempty"`
}

// DeltaEvent is one incremental change pushed over the broker.  The
// restaurant id scopes relevance: consumers drop events for other
// restaurants.  EventID makes redelivery harmless — reconcilers keep
// a bounded window of recently seen ids and absorb duplicates.
type DeltaEvent struct {
	EventID      string            `json:"event_id"`
	Type         EventType         `json:"type"`
	RestaurantID uint64            `json:"restaurant_id"`
	Reservation  *ReservationPatch `json:"reservation,omitempty"`
	Table        *TablePatch       `json:"table,omitempty"`
	EmittedAt    string            `json:"emitted_at"`
}

// NewDeltaEvent stamps a fresh event with a UUID and emission time.
func NewDeltaEvent(eventType EventType, restaurantID uint64) DeltaEvent {
	return DeltaEvent{
		EventID:      uuid.NewString(),
		Type:         eventType,
		RestaurantID: restaurantID,
		EmittedAt:    time.Now().UTC().Format(time.RFC3339),
	}
}
