package model

import "time"

// Table describes a physical table on a restaurant floor.  Tables are
// uniquely identified within a restaurant by their number.  Shape,
// size and position are purely presentational attributes used by the
// floor editor; they play no part in scheduling.
//
// The Schedule field holds the reservations attached to the table for
// the currently loaded query date only.  Reservations for other dates
// are never mixed into a table's schedule.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant the table belongs to.
//  TableNumber  – human-facing table number, unique per restaurant.
//  Shape        – table shape (ROUND, SQUARE, RECTANGLE).
//  Seats        – seat capacity of the table.
//  Section      – grouping key (e.g. "patio", "main", "bar").
//  X, Y         – floor-plan position in layout units.
//  Width,Height – rendered size in layout units.
//  IsActive     – whether the table is currently bookable.
//  Schedule     – reservations for the loaded date (day-scoped).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Table struct {
	ID           uint64        // restaurant_tables.id
	RestaurantID uint64        // restaurant_tables.restaurant_id
	TableNumber  uint32        // restaurant_tables.table_number
	Shape        string        // restaurant_tables.shape
	Seats        int           // restaurant_tables.seats
	Section      string        // restaurant_tables.section
	X            int           // restaurant_tables.pos_x
	Y            int           // restaurant_tables.pos_y
	Width        int           // restaurant_tables.width
	Height       int           // restaurant_tables.height
	IsActive     bool          // restaurant_tables.is_active
	Schedule     []Reservation // day-scoped, not a column
	CreatedAt    time.Time     // restaurant_tables.created_at
	UpdatedAt    time.Time     // restaurant_tables.updated_at
}
