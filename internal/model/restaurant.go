package model

import "time"

// Restaurant represents a venue that accepts table reservations.
// Each restaurant belongs to an owner account which manages its
// floor, reservations and opening hours through the dashboard
// endpoints.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user who manages the restaurant.
//  Name        – display name.
//  Description – free-form description shown on the browse page.
//  City        – city the restaurant is located in.
//  Address     – street address.
//  Phone       – contact phone number.
//  IsActive    – whether the restaurant accepts bookings.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Restaurant struct {
	ID          uint64    // restaurants.id
	OwnerID     uint64    // restaurants.owner_id
	Name        string    // restaurants.name
	Description string    // restaurants.description
	City        string    // restaurants.city
	Address     string    // restaurants.address
	Phone       string    // restaurants.phone
	IsActive    bool      // restaurants.is_active
	CreatedAt   time.Time // restaurants.created_at
	UpdatedAt   time.Time // restaurants.updated_at
}
