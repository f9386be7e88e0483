package handler

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/EvgeniBursov/table-whispers/internal/queue"
	"github.com/EvgeniBursov/table-whispers/internal/repository"
	queue_publisher "github.com/EvgeniBursov/table-whispers/internal/service"
	"github.com/EvgeniBursov/table-whispers/internal/snapshot"
)

// PublicHandler serves the unauthenticated browse surface: restaurant
// listings, floor layouts with derived table statuses and the
// availability slot calculator.
type PublicHandler struct {
	Restaurants  *repository.RestaurantRepo
	Tables       *repository.TableRepo
	Reservations *repository.ReservationRepo
}

// NewPublicHandler constructs a PublicHandler.  All dependencies must be non-nil.
func NewPublicHandler(restaurants *repository.RestaurantRepo, tables *repository.TableRepo, reservations *repository.ReservationRepo) *PublicHandler {
	if restaurants == nil || tables == nil || reservations == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Restaurants: restaurants, Tables: tables, Reservations: reservations}
}

// CustomerHandler serves the booking flow for authenticated customers:
// creating, cancelling and listing their own reservations.  Methods
// assume JWT authentication and role checks already ran in middleware.
type CustomerHandler struct {
	Restaurants  *repository.RestaurantRepo
	Tables       *repository.TableRepo
	Reservations *repository.ReservationRepo
}

// NewCustomerHandler constructs a CustomerHandler.  All dependencies must be non-nil.
func NewCustomerHandler(restaurants *repository.RestaurantRepo, tables *repository.TableRepo, reservations *repository.ReservationRepo) *CustomerHandler {
	if restaurants == nil || tables == nil || reservations == nil {
		panic("nil repository passed to NewCustomerHandler")
	}
	return &CustomerHandler{Restaurants: restaurants, Tables: tables, Reservations: reservations}
}

// OwnerHandler bundles the dependencies of the restaurant-management
// surface: floor editing, reservation management and the live
// dashboard fed by the snapshot hub.
type OwnerHandler struct {
	Restaurants  *repository.RestaurantRepo
	Tables       *repository.TableRepo
	Reservations *repository.ReservationRepo
	Hub          *snapshot.Hub
}

// NewOwnerHandler constructs an OwnerHandler.  All dependencies must be non-nil.
func NewOwnerHandler(restaurants *repository.RestaurantRepo, tables *repository.TableRepo, reservations *repository.ReservationRepo, hub *snapshot.Hub) *OwnerHandler {
	if restaurants == nil || tables == nil || reservations == nil || hub == nil {
		panic("nil dependency passed to NewOwnerHandler")
	}
	return &OwnerHandler{Restaurants: restaurants, Tables: tables, Reservations: reservations, Hub: hub}
}

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// publishEvent hands a delta event to the broker without blocking the
// request.  Delivery is best-effort: the reconciler recovers any
// missed delta on its next full refresh, so a broker outage degrades
// freshness but never fails the mutation that already committed.
func publishEvent(ev queue.DeltaEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue_publisher.PublishDeltaEvent(ctx, ev); err != nil {
			log.Printf("handler: publish %s failed: %v", ev.Type, err)
		}
	}()
}
