package repository

import (
	"context"
	"fmt"

	"github.com/EvgeniBursov/table-whispers/internal/model"
	"github.com/EvgeniBursov/table-whispers/internal/snapshot"
)

// FloorSource is the database-backed read side of the live snapshot:
// full floor fetches for loads and refreshes, plus the targeted
// reservation lookup used when a delta event references a record the
// snapshot has never seen.
type FloorSource struct {
	tables       *TableRepo
	reservations *ReservationRepo
}

// NewFloorSource builds a FloorSource over the two repositories.
func NewFloorSource(tables *TableRepo, reservations *ReservationRepo) *FloorSource {
	return &FloorSource{tables: tables, reservations: reservations}
}

// FetchFloor returns the restaurant's tables with the query date's
// reservations attached as day-scoped schedules.
func (s *FloorSource) FetchFloor(ctx context.Context, key snapshot.Key) ([]model.Table, error) {
	tables, err := s.tables.ListByRestaurant(ctx, key.RestaurantID)
	if err != nil {
		return nil, err
	}
	tables, unassigned, err := s.reservations.AttachSchedules(ctx, tables, key.RestaurantID, key.Date)
	if err != nil {
		return nil, err
	}
	// Unassigned reservations ride along on a sentinel table-less
	// schedule so the reconciler sees the whole day's bookings in one
	// fetch.  They keep a nil TableID and fall out of the table
	// grouping on the reconciler side.
	if len(unassigned) > 0 {
		tables = append(tables, model.Table{Schedule: unassigned})
	}
	return tables, nil
}

// FetchReservation performs the targeted lookup for one reservation
// and verifies it belongs to the expected restaurant.
func (s *FloorSource) FetchReservation(ctx context.Context, restaurantID uint64, reservationID string) (model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	if res.RestaurantID != restaurantID {
		return model.Reservation{}, fmt.Errorf("reservation %s belongs to another restaurant", reservationID)
	}
	return res, nil
}
